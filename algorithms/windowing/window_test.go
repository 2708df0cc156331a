package windowing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTukey_PeriodicShape(t *testing.T) {
	w := NewTukey(1024, DefaultTukeyAlpha, false)
	coeffs := w.GetCoefficients()

	require.Len(t, coeffs, 1024)
	assert.InDelta(t, 0.0, coeffs[0], 1e-12)
	assert.InDelta(t, 1.0, coeffs[512], 1e-12)
	// flat top spans the untapered middle
	assert.InDelta(t, 1.0, coeffs[300], 1e-12)
	// taper rises monotonically
	for i := 1; i < 100; i++ {
		assert.GreaterOrEqual(t, coeffs[i], coeffs[i-1])
	}
	// periodic window: w[i] == w[N-i]
	for i := 1; i < 512; i++ {
		assert.InDelta(t, coeffs[i], coeffs[1024-i], 1e-12, "i=%d", i)
	}
}

func TestTukey_Extremes(t *testing.T) {
	rect := NewTukey(8, 0, false).GetCoefficients()
	for _, c := range rect {
		assert.InDelta(t, 1.0, c, 1e-15)
	}

	hann := NewTukey(8, 1, false).GetCoefficients()
	for i, c := range hann {
		want := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/8))
		assert.InDelta(t, want, c, 1e-12)
	}
}

func TestTukey_ApplyInPlaceSizeMismatch(t *testing.T) {
	w := NewTukey(4, 0.5, true)
	assert.Error(t, w.ApplyInPlace(make([]float64, 3)))
	assert.Nil(t, w.Apply(make([]float64, 5)))
}

func TestNew(t *testing.T) {
	for _, name := range []string{TypeTukey, TypeHann, TypeRectangular} {
		w, err := New(name, 16)
		require.NoError(t, err, name)
		assert.Equal(t, name, w.GetType())
		assert.Equal(t, 16, w.GetSize())
	}

	_, err := New("kaiser", 16)
	assert.Error(t, err)
	_, err = New(TypeHann, 0)
	assert.Error(t, err)
	assert.False(t, Supported("kaiser"))
}

func TestSumSquares(t *testing.T) {
	w, err := New(TypeRectangular, 10)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, SumSquares(w), 1e-12)
}
