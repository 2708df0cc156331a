package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// FiniteSummary is a mean over the finite members of a set of metric values.
// Sentinel values (±Inf from silent denominators, NaN from constant input)
// would otherwise turn the mean into Inf or NaN, so they are counted and left
// out instead.
type FiniteSummary struct {
	Mean        float64 `json:"mean"`
	Count       int     `json:"count"`
	PosInf      int     `json:"pos_inf"`
	NegInf      int     `json:"neg_inf"`
	NaN         int     `json:"nan"`
	HasExcluded bool    `json:"has_excluded"`
}

// SummarizeFinite averages the finite values. With no finite values the mean is NaN.
func SummarizeFinite(values []float64) FiniteSummary {
	var summary FiniteSummary
	finite := make([]float64, 0, len(values))

	for _, v := range values {
		switch {
		case math.IsNaN(v):
			summary.NaN++
		case math.IsInf(v, 1):
			summary.PosInf++
		case math.IsInf(v, -1):
			summary.NegInf++
		default:
			finite = append(finite, v)
		}
	}

	summary.Count = len(finite)
	summary.HasExcluded = summary.NaN+summary.PosInf+summary.NegInf > 0
	if len(finite) == 0 {
		summary.Mean = math.NaN()
		return summary
	}

	summary.Mean = stat.Mean(finite, nil)
	return summary
}
