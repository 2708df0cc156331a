package temporal

import (
	"fmt"

	"github.com/RyanBlaney/sonido-qa/algorithms/common"
)

// RMS returns sqrt(mean(x²)). It is 0 exactly when every sample is 0.
func RMS(signal []float64) float64 {
	return common.RMS(signal)
}

// PeakLevel returns the largest absolute sample in dBFS. All-zero (or empty)
// input returns -Inf.
func PeakLevel(signal []float64) float64 {
	return common.AmplitudeDB(common.MaxAbs(signal))
}

// SignalToNoiseRatio returns 10·log10(Psignal/Pnoise) in dB with P the mean
// square of each buffer. The buffers must have the same length. Zero noise
// power yields +Inf.
func SignalToNoiseRatio(signal, noise []float64) (float64, error) {
	if len(signal) != len(noise) {
		return 0, fmt.Errorf("length mismatch: signal has %d samples, noise has %d", len(signal), len(noise))
	}

	return common.PowerRatioDB(common.MeanSquare(signal), common.MeanSquare(noise)), nil
}

// Residual returns processed - original, the noise term used when a processed
// buffer is compared against its reference.
func Residual(original, processed []float64) ([]float64, error) {
	if len(original) != len(processed) {
		return nil, fmt.Errorf("length mismatch: original has %d samples, processed has %d", len(original), len(processed))
	}

	residual := make([]float64, len(original))
	for i := range original {
		residual[i] = processed[i] - original[i]
	}

	return residual, nil
}
