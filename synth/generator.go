// Package synth drives an external synthesizer through a set of test cases:
// it writes a reference tone, runs the synthesizer on it, and compares the
// rendered output against the reference with the quality engine.
package synth

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Test tone defaults
const (
	DefaultToneAmplitude = 0.5
	DefaultNoiseSigma    = 0.01
)

// ToneGenerator renders sine test tones with a small Gaussian noise floor.
type ToneGenerator struct {
	sampleRate int
	amplitude  float64
	noise      distuv.Normal
}

// NewToneGenerator creates a generator. The seed makes the noise reproducible.
func NewToneGenerator(sampleRate int, seed uint64) *ToneGenerator {
	return &ToneGenerator{
		sampleRate: sampleRate,
		amplitude:  DefaultToneAmplitude,
		noise: distuv.Normal{
			Mu:    0,
			Sigma: DefaultNoiseSigma,
			Src:   rand.NewPCG(seed, seed^0x9e3779b97f4a7c15),
		},
	}
}

// WithNoise returns a copy of the generator with another noise deviation.
// Zero disables the noise.
func (g *ToneGenerator) WithNoise(sigma float64) *ToneGenerator {
	copied := *g
	copied.noise.Sigma = sigma
	return &copied
}

// Tone returns amplitude·sin(2πft) sampled at duration·rate evenly spaced
// instants from 0 to duration inclusive, plus the noise floor.
func (g *ToneGenerator) Tone(duration time.Duration, frequency float64) ([]float64, error) {
	if frequency <= 0 {
		return nil, fmt.Errorf("frequency must be positive: %v", frequency)
	}

	n := int(duration.Seconds() * float64(g.sampleRate))
	if n <= 0 {
		return nil, fmt.Errorf("duration %v is shorter than one sample at %d Hz", duration, g.sampleRate)
	}

	t := make([]float64, n)
	if n == 1 {
		t[0] = 0
	} else {
		floats.Span(t, 0, duration.Seconds())
	}

	tone := make([]float64, n)
	for i, ti := range t {
		tone[i] = g.amplitude * math.Sin(2*math.Pi*frequency*ti)
		if g.noise.Sigma > 0 {
			tone[i] += g.noise.Rand()
		}
	}

	return tone, nil
}

// Fade scales the buffer in place by a linear ramp across its whole length,
// rising from 0 when in is true and falling to 0 otherwise.
func Fade(buffer []float64, in bool) {
	n := len(buffer)
	if n < 2 {
		return
	}

	last := float64(n - 1)
	for i := range buffer {
		factor := float64(i) / last
		if !in {
			factor = (last - float64(i)) / last
		}
		buffer[i] *= factor
	}
}
