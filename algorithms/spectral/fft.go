package spectral

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps mjibson/go-dsp. It is stateless and safe for concurrent use.
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute returns the full-length DFT of a real signal.
// go-dsp handles non-power-of-2 lengths (Bluestein), so no padding is applied.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFTReal(x)
}

// ComputeInverseReal computes the inverse FFT and keeps the real part
func (f *FFT) ComputeInverseReal(x []complex128) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	result := fft.IFFT(x)
	realResult := make([]float64, len(result))
	for i, val := range result {
		realResult[i] = real(val)
	}

	return realResult
}

// OneSidedPower returns |X[k]|² for k = 0..n/2 of a length-n spectrum.
func OneSidedPower(spectrum []complex128) []float64 {
	if len(spectrum) == 0 {
		return []float64{}
	}

	bins := len(spectrum)/2 + 1
	power := make([]float64, bins)
	for k := range bins {
		mag := cmplx.Abs(spectrum[k])
		power[k] = mag * mag
	}

	return power
}

// BinFrequencies returns the center frequency in Hz of each one-sided bin of
// an n-point DFT.
func BinFrequencies(n, sampleRate int) []float64 {
	if n <= 0 {
		return []float64{}
	}

	bins := n/2 + 1
	freqs := make([]float64, bins)
	resolution := float64(sampleRate) / float64(n)
	for k := range bins {
		freqs[k] = float64(k) * resolution
	}

	return freqs
}

// NearestBin returns the one-sided bin of an n-point DFT whose center is
// closest to freq; an exact tie resolves to the lower bin. Frequencies past
// Nyquist clamp to the last bin.
func NearestBin(freq float64, n, sampleRate int) int {
	if n <= 0 || sampleRate <= 0 {
		return 0
	}

	bin := int(math.Ceil(freq*float64(n)/float64(sampleRate) - 0.5))
	return max(0, min(bin, n/2))
}
