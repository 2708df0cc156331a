package spectral

// PowerSpectrum reduces spectrogram frames to a single spectrum.
type PowerSpectrum struct {
	// No state needed - stateless calculation
}

// NewPowerSpectrum creates a new power spectrum calculator
func NewPowerSpectrum() *PowerSpectrum {
	return &PowerSpectrum{}
}

// Compute computes power from a magnitude spectrum
func (ps *PowerSpectrum) Compute(magnitudeSpectrum []float64) []float64 {
	power := make([]float64, len(magnitudeSpectrum))
	for i, mag := range magnitudeSpectrum {
		power[i] = mag * mag
	}
	return power
}

// AverageFrames returns the per-bin mean over all time frames.
func (ps *PowerSpectrum) AverageFrames(frames [][]float64) []float64 {
	if len(frames) == 0 {
		return []float64{}
	}

	avg := make([]float64, len(frames[0]))
	for _, frame := range frames {
		for k, p := range frame {
			avg[k] += p
		}
	}

	n := float64(len(frames))
	for k := range avg {
		avg[k] /= n
	}

	return avg
}

// ComputeFromSpectrogram averages a spectrogram over time and returns the
// bin frequencies alongside the average power.
func (ps *PowerSpectrum) ComputeFromSpectrogram(result *SpectrogramResult) (freqs, power []float64) {
	if result == nil {
		return []float64{}, []float64{}
	}

	freqs = make([]float64, len(result.Frequencies))
	copy(freqs, result.Frequencies)

	return freqs, ps.AverageFrames(result.Power)
}

// PeakFrequency returns the frequency of the strongest bin.
func PeakFrequency(freqs, power []float64) float64 {
	if len(freqs) == 0 || len(freqs) != len(power) {
		return 0.0
	}

	best := 0
	for k := range power {
		if power[k] > power[best] {
			best = k
		}
	}

	return freqs[best]
}
