package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(float64(i)*0.37) + 0.01*float64(i%7)
	}
	return out
}

func negate(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = -v
	}
	return out
}

func TestPearson_SelfCorrelation(t *testing.T) {
	x := ramp(1000)
	result, err := NewPearsonCorrelation().Compute(x, x)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, result.Coefficient, 1e-12)
	assert.InDelta(t, 0.0, result.PValue, 1e-12)
	assert.False(t, result.Truncated)
	assert.True(t, NewPearsonCorrelation().IsSignificant(result))
}

func TestPearson_AntiCorrelation(t *testing.T) {
	x := ramp(1000)
	result, err := NewPearsonCorrelation().Compute(x, negate(x))
	require.NoError(t, err)

	assert.InDelta(t, -1.0, result.Coefficient, 1e-12)
	assert.InDelta(t, 0.0, result.PValue, 1e-12)
}

func TestPearson_TruncatesToShorter(t *testing.T) {
	a := ramp(1000)
	b := ramp(1200)

	result, err := NewPearsonCorrelation().Compute(a, b)
	require.NoError(t, err)

	assert.Equal(t, 1000, result.Samples)
	assert.True(t, result.Truncated)
	assert.InDelta(t, 1.0, result.Coefficient, 1e-12)
}

func TestPearson_KnownPValue(t *testing.T) {
	// r = 0.5 over n = 10: t = 1.633, df = 8, two-sided p = 0.14111
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.InDelta(t, 0.14111, pValue(0.5, len(x)), 1e-4)
	assert.InDelta(t, 1.0, pValue(0.0, 10), 1e-12)
	assert.InDelta(t, 1.0, pValue(0.9, 2), 1e-12)
}

func TestPearson_ConstantInputIsNaN(t *testing.T) {
	constant := []float64{0.3, 0.3, 0.3, 0.3}
	result, err := NewPearsonCorrelation().Compute(constant, []float64{1, 2, 3, 4})
	require.NoError(t, err)

	assert.True(t, math.IsNaN(result.Coefficient))
	assert.True(t, math.IsNaN(result.PValue))
	assert.False(t, NewPearsonCorrelation().IsSignificant(result))
}

func TestPearson_TooShort(t *testing.T) {
	_, err := NewPearsonCorrelation().Compute([]float64{1}, []float64{1, 2})
	assert.Error(t, err)
}

func TestSummarizeFinite(t *testing.T) {
	summary := SummarizeFinite([]float64{10, 20, math.Inf(1), math.NaN(), math.Inf(-1)})

	assert.InDelta(t, 15.0, summary.Mean, 1e-12)
	assert.Equal(t, 2, summary.Count)
	assert.Equal(t, 1, summary.PosInf)
	assert.Equal(t, 1, summary.NegInf)
	assert.Equal(t, 1, summary.NaN)
	assert.True(t, summary.HasExcluded)

	empty := SummarizeFinite([]float64{math.Inf(1)})
	assert.True(t, math.IsNaN(empty.Mean))
	assert.Equal(t, 0, empty.Count)
}
