package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat"
)

// CorrelationResult holds a zero-lag Pearson correlation and its significance.
type CorrelationResult struct {
	Coefficient float64 `json:"coefficient"` // in [-1, 1], NaN for constant input
	PValue      float64 `json:"p_value"`     // two-sided, NaN for constant input
	Samples     int     `json:"samples"`     // overlap actually compared
	Truncated   bool    `json:"truncated"`   // inputs had different lengths
}

// PearsonCorrelation computes the product-moment correlation between two
// signals at zero lag and the two-sided p-value for the null hypothesis of no
// correlation.
//
// References:
//   - Pearson, K. (1895). "Notes on regression and inheritance in the case of two parents"
//   - Student (1908). "The probable error of a mean"
//
// The test statistic t = r·sqrt((n-2)/(1-r²)) follows Student's t with n-2
// degrees of freedom, so p = I_{1-r²}((n-2)/2, 1/2) with I the regularized
// incomplete beta function.
type PearsonCorrelation struct {
	confidenceLevel float64
}

// NewPearsonCorrelation creates a Pearson calculator with a 95% confidence level
func NewPearsonCorrelation() *PearsonCorrelation {
	return &PearsonCorrelation{confidenceLevel: 0.95}
}

// Compute truncates both signals to the shorter length and correlates them.
// Length mismatch is not an error. Fewer than two overlapping samples is.
func (pc *PearsonCorrelation) Compute(signal1, signal2 []float64) (*CorrelationResult, error) {
	n := min(len(signal1), len(signal2))
	if n < 2 {
		return nil, fmt.Errorf("need at least 2 overlapping samples, got %d", n)
	}

	x := signal1[:n]
	y := signal2[:n]

	r := stat.Correlation(x, y, nil)
	result := &CorrelationResult{
		Coefficient: r,
		PValue:      math.NaN(),
		Samples:     n,
		Truncated:   len(signal1) != len(signal2),
	}

	// zero variance on either side leaves r undefined
	if math.IsNaN(r) || math.IsInf(r, 0) {
		result.Coefficient = math.NaN()
		return result, nil
	}

	result.Coefficient = clampCorrelation(r)
	result.PValue = pValue(result.Coefficient, n)

	return result, nil
}

// IsSignificant reports whether the p-value clears the configured confidence level.
func (pc *PearsonCorrelation) IsSignificant(result *CorrelationResult) bool {
	if result == nil || math.IsNaN(result.PValue) {
		return false
	}
	return result.PValue < 1.0-pc.confidenceLevel
}

// pValue returns the two-sided significance of r over n samples.
func pValue(r float64, n int) float64 {
	if n <= 2 {
		return 1.0
	}

	df := float64(n - 2)
	x := 1.0 - r*r
	if x <= 0 {
		return 0.0
	}
	if x >= 1 {
		return 1.0
	}

	return mathext.RegIncBeta(df/2.0, 0.5, x)
}

// clampCorrelation ensures correlation is in valid range [-1, 1]
func clampCorrelation(correlation float64) float64 {
	if correlation > 1.0 {
		return 1.0
	}
	if correlation < -1.0 {
		return -1.0
	}
	return correlation
}
