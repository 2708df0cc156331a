package temporal

import (
	"github.com/RyanBlaney/sonido-qa/algorithms/common"
)

// Energy computes framed RMS energy
type Energy struct {
	frameSize int
	hopSize   int
}

// NewEnergy creates a new energy calculator
func NewEnergy(frameSize, hopSize int) *Energy {
	return &Energy{
		frameSize: frameSize,
		hopSize:   hopSize,
	}
}

// ComputeShortTimeEnergy returns the RMS of every complete frame.
// Samples after the last complete frame are ignored, never padded.
func (e *Energy) ComputeShortTimeEnergy(signal []float64) []float64 {
	if len(signal) < e.frameSize || e.hopSize <= 0 || e.frameSize <= 0 {
		return []float64{}
	}

	numFrames := (len(signal)-e.frameSize)/e.hopSize + 1
	energies := make([]float64, numFrames)

	for i := range numFrames {
		startIdx := i * e.hopSize
		energies[i] = common.RMS(signal[startIdx : startIdx+e.frameSize])
	}

	return energies
}

// ComputeLogEnergy converts frame energies to dB. Frames with zero energy are
// dropped rather than mapped to -Inf.
func (e *Energy) ComputeLogEnergy(signal []float64) []float64 {
	energies := e.ComputeShortTimeEnergy(signal)
	logEnergies := make([]float64, 0, len(energies))

	for _, energy := range energies {
		if energy > 0 {
			logEnergies = append(logEnergies, common.AmplitudeDB(energy))
		}
	}

	return logEnergies
}
