package temporal

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultDynamicRangeWindow is the short-term level window in seconds.
const DefaultDynamicRangeWindow = 0.1

// DynamicRange measures the spread between the loudest and quietest
// short-term levels of a signal.
type DynamicRange struct {
	windowSize int
	energy     *Energy
}

// NewDynamicRange creates an analyzer over non-overlapping windows of windowSize samples
func NewDynamicRange(windowSize int) *DynamicRange {
	return &DynamicRange{
		windowSize: windowSize,
		energy:     NewEnergy(windowSize, windowSize),
	}
}

// WindowSamples converts a window length in seconds to samples, rounding to nearest.
func WindowSamples(seconds float64, sampleRate int) int {
	return int(math.Round(seconds * float64(sampleRate)))
}

// WindowSize returns the analysis window in samples
func (dr *DynamicRange) WindowSize() int {
	return dr.windowSize
}

// Compute returns max(dB) - min(dB) over the RMS levels of every complete
// window. Silent windows do not contribute. With fewer than two usable
// windows the range is 0.
func (dr *DynamicRange) Compute(signal []float64) float64 {
	levels := dr.energy.ComputeLogEnergy(signal)
	if len(levels) < 2 {
		return 0.0
	}

	return floats.Max(levels) - floats.Min(levels)
}

// Levels returns the per-window dB levels that Compute measures.
func (dr *DynamicRange) Levels(signal []float64) []float64 {
	return dr.energy.ComputeLogEnergy(signal)
}
