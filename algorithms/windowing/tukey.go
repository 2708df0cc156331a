package windowing

import (
	"fmt"
	"math"
)

// DefaultTukeyAlpha is the taper fraction used by the spectrogram default window.
const DefaultTukeyAlpha = 0.25

// Tukey represents a Tukey (tapered cosine) window.
// alpha is the fraction of the window inside the cosine tapers:
// 0 gives a rectangular window, 1 gives a Hann window.
type Tukey struct {
	size         int
	alpha        float64
	symmetric    bool
	coefficients []float64
}

// NewTukey creates a new Tukey window. A periodic (symmetric=false) window is
// the first size points of a symmetric window of size+1, which is what
// spectral analysis wants.
func NewTukey(size int, alpha float64, symmetric bool) *Tukey {
	t := &Tukey{
		size:      size,
		alpha:     alpha,
		symmetric: symmetric,
	}
	t.generate()
	return t
}

func (t *Tukey) generate() {
	t.coefficients = make([]float64, t.size)
	if t.size == 0 {
		return
	}
	if t.size == 1 {
		t.coefficients[0] = 1.0
		return
	}

	m := t.size
	if !t.symmetric {
		m = t.size + 1
	}

	switch {
	case t.alpha <= 0:
		for i := range t.coefficients {
			t.coefficients[i] = 1.0
		}
		return
	case t.alpha >= 1:
		for i := range t.coefficients {
			t.coefficients[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*float64(i)/float64(m-1)))
		}
		return
	}

	span := float64(m - 1)
	width := int(math.Floor(t.alpha * span / 2.0))

	for i := range t.size {
		n := float64(i)
		switch {
		case i <= width:
			t.coefficients[i] = 0.5 * (1 + math.Cos(math.Pi*(-1+2.0*n/t.alpha/span)))
		case i >= m-width-1:
			t.coefficients[i] = 0.5 * (1 + math.Cos(math.Pi*(-2.0/t.alpha+1+2.0*n/t.alpha/span)))
		default:
			t.coefficients[i] = 1.0
		}
	}
}

// Apply applies the window to a signal (creates new array)
func (t *Tukey) Apply(signal []float64) []float64 {
	if len(signal) != t.size {
		return nil
	}

	windowed := make([]float64, t.size)
	for i := range t.size {
		windowed[i] = signal[i] * t.coefficients[i]
	}

	return windowed
}

// ApplyInPlace applies the window to a signal in-place
func (t *Tukey) ApplyInPlace(signal []float64) error {
	if len(signal) != t.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), t.size)
	}

	for i := range t.size {
		signal[i] *= t.coefficients[i]
	}

	return nil
}

// GetCoefficients returns a copy of the window coefficients
func (t *Tukey) GetCoefficients() []float64 {
	coeffs := make([]float64, len(t.coefficients))
	copy(coeffs, t.coefficients)
	return coeffs
}

// GetSize returns the window size
func (t *Tukey) GetSize() int {
	return t.size
}

// GetType returns the window type
func (t *Tukey) GetType() string {
	return "tukey"
}

// GetAlpha returns the Tukey alpha parameter
func (t *Tukey) GetAlpha() float64 {
	return t.alpha
}
