package harmonic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = 44100

func partials(n int, fundamental float64, amplitudes ...float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		for h, a := range amplitudes {
			out[i] += a * math.Sin(2*math.Pi*fundamental*float64(h+1)*float64(i)/testRate)
		}
	}
	return out
}

func TestTHDN_PureTone(t *testing.T) {
	thdn := NewTHDN(testRate)
	value := thdn.Compute(partials(testRate, 440, 0.5), DefaultFundamental)

	assert.InDelta(t, 0.0, value, 0.01)
}

func TestTHDN_SecondHarmonic(t *testing.T) {
	thdn := NewTHDN(testRate)
	result := thdn.Analyze(partials(testRate, 440, 0.5, 0.05), 440)

	assert.Equal(t, 440, result.FundamentalBin)
	assert.Equal(t, []int{880, 1320, 1760, 2200}, result.HarmonicBins)
	assert.InDelta(t, 10.0, result.THD, 1e-6)
	assert.InDelta(t, 10.0, result.THDN, 1e-6)
	assert.InDelta(t, -20.0, result.NoiseFloorDB(), 1e-6)
}

func TestTHDN_HarmonicPowerStaysInNoiseTerm(t *testing.T) {
	thdn := NewTHDN(testRate)
	signal := partials(testRate, 440, 0.5, 0.05)
	// broadband component that is not harmonic
	for i := range signal {
		signal[i] += 0.02 * math.Sin(2*math.Pi*3117*float64(i)/testRate)
	}

	result := thdn.Analyze(signal, 440)
	assert.Greater(t, result.THDN, result.THD)
	assert.InDelta(t, result.TotalPower-result.FundamentalPower, result.NoisePower, 1e-6*result.TotalPower)
}

func TestTHDN_SkipsHarmonicsAtOrAboveNyquist(t *testing.T) {
	thdn := NewTHDN(testRate)
	result := thdn.Analyze(partials(testRate, 5000, 0.5), 5000)

	require.Len(t, result.HarmonicFreqs, 3)
	assert.Equal(t, []float64{10000, 15000, 20000}, result.HarmonicFreqs)
}

func TestTHDN_SilenceIsInfinite(t *testing.T) {
	thdn := NewTHDN(testRate)

	assert.True(t, math.IsInf(thdn.Compute(make([]float64, 1024), 440), 1))
	assert.True(t, math.IsInf(thdn.Compute(nil, 440), 1))
}
