package harmonic

import (
	"math"

	"github.com/RyanBlaney/sonido-qa/algorithms/common"
	"github.com/RyanBlaney/sonido-qa/algorithms/spectral"
)

// THD+N defaults
const (
	DefaultFundamental = 440.0
	DefaultMaxHarmonic = 5
)

// THDNResult is the full breakdown behind a THD+N figure.
type THDNResult struct {
	Fundamental      float64   `json:"fundamental_hz"`
	FundamentalBin   int       `json:"fundamental_bin"`
	FundamentalPower float64   `json:"fundamental_power"`
	HarmonicBins     []int     `json:"harmonic_bins"`
	HarmonicPower    float64   `json:"harmonic_power"`
	TotalPower       float64   `json:"total_power"`
	NoisePower       float64   `json:"noise_and_distortion_power"`
	THDN             float64   `json:"thd_n_percent"`
	THD              float64   `json:"thd_percent"`
	HarmonicFreqs    []float64 `json:"harmonic_freqs"`
}

// THDN computes total harmonic distortion plus noise from a single DFT over
// the whole buffer.
//
// The fundamental power is |X|² at the bin nearest the fundamental. Harmonics
// 2..maxHarmonic below Nyquist are located and their power is summed into
// HarmonicPower, but that power stays inside the noise-and-distortion term:
// noise = total - fundamental. This matches the reference metric's numbers;
// the harmonic-only figure is reported separately as THD.
type THDN struct {
	sampleRate  int
	maxHarmonic int
	fft         *spectral.FFT
}

// NewTHDN creates a THD+N analyzer
func NewTHDN(sampleRate int) *THDN {
	return &THDN{
		sampleRate:  sampleRate,
		maxHarmonic: DefaultMaxHarmonic,
		fft:         spectral.NewFFT(),
	}
}

// Compute returns THD+N in percent. A zero fundamental power yields +Inf.
func (t *THDN) Compute(signal []float64, fundamental float64) float64 {
	return t.Analyze(signal, fundamental).THDN
}

// Analyze returns the full power breakdown.
func (t *THDN) Analyze(signal []float64, fundamental float64) *THDNResult {
	result := &THDNResult{
		Fundamental:   fundamental,
		HarmonicBins:  []int{},
		HarmonicFreqs: []float64{},
	}

	n := len(signal)
	if n == 0 {
		result.THDN = math.Inf(1)
		result.THD = math.Inf(1)
		return result
	}

	power := spectral.OneSidedPower(t.fft.Compute(signal))

	result.FundamentalBin = spectral.NearestBin(fundamental, n, t.sampleRate)
	result.FundamentalPower = power[result.FundamentalBin]

	nyquist := float64(t.sampleRate) / 2.0
	for h := 2; h <= t.maxHarmonic; h++ {
		freq := fundamental * float64(h)
		if freq >= nyquist {
			continue
		}
		bin := spectral.NearestBin(freq, n, t.sampleRate)
		result.HarmonicBins = append(result.HarmonicBins, bin)
		result.HarmonicFreqs = append(result.HarmonicFreqs, freq)
		result.HarmonicPower += power[bin]
	}

	for _, p := range power {
		result.TotalPower += p
	}
	result.NoisePower = math.Max(0, result.TotalPower-result.FundamentalPower)

	if result.FundamentalPower == 0 {
		result.THDN = math.Inf(1)
		result.THD = math.Inf(1)
		return result
	}

	result.THDN = math.Sqrt(result.NoisePower/result.FundamentalPower) * 100
	result.THD = math.Sqrt(result.HarmonicPower/result.FundamentalPower) * 100

	return result
}

// NoiseFloorDB returns the noise-and-distortion power relative to the
// fundamental in dB, the logarithmic form of THD+N.
func (r *THDNResult) NoiseFloorDB() float64 {
	if r.FundamentalPower == 0 {
		return math.Inf(1)
	}
	if r.NoisePower == 0 {
		return math.Inf(-1)
	}
	return common.PowerRatioDB(r.NoisePower, r.FundamentalPower)
}
