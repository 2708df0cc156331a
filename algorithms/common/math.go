package common

import (
	"math"

	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/floats"
)

// Shared power and level helpers used by the temporal and harmonic metrics.

// MeanSquare returns the mean of the squared samples (signal power).
// Empty input yields 0.
func MeanSquare(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return f64.DotProduct(data, data) / float64(len(data))
}

// SumSquares returns Σ x².
func SumSquares(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return f64.DotProduct(data, data)
}

// Mean calculates the arithmetic mean
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return f64.Sum(data) / float64(len(data))
}

// RMS calculates root mean square
func RMS(data []float64) float64 {
	return math.Sqrt(MeanSquare(data))
}

// MaxAbs returns the largest absolute sample value.
func MaxAbs(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return math.Max(math.Abs(floats.Max(data)), math.Abs(floats.Min(data)))
}

// PowerRatioDB converts a power ratio to decibels: 10·log10(num/den).
// A zero denominator yields +Inf; this is a sentinel, not an error.
func PowerRatioDB(num, den float64) float64 {
	if den == 0 {
		return math.Inf(1)
	}
	return 10.0 * math.Log10(num/den)
}

// AmplitudeDB converts a linear amplitude to decibels: 20·log10(a).
// Zero amplitude yields -Inf.
func AmplitudeDB(amplitude float64) float64 {
	if amplitude == 0 {
		return math.Inf(-1)
	}
	return 20.0 * math.Log10(amplitude)
}

// IsFinite reports whether v is neither NaN nor ±Inf.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
