package windowing

import "fmt"

// Window is a fixed-size analysis window.
type Window interface {
	ApplyInPlace(signal []float64) error
	GetCoefficients() []float64
	GetSize() int
	GetType() string
}

// Window names accepted by New.
const (
	TypeTukey       = "tukey"
	TypeHann        = "hann"
	TypeRectangular = "rectangular"
)

// New builds a periodic window by name. Hann and rectangular are the alpha=1
// and alpha=0 ends of the Tukey family.
func New(name string, size int) (Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive: %d", size)
	}

	switch name {
	case TypeTukey, "":
		return NewTukey(size, DefaultTukeyAlpha, false), nil
	case TypeHann:
		return &named{Tukey: NewTukey(size, 1.0, false), name: TypeHann}, nil
	case TypeRectangular:
		return &named{Tukey: NewTukey(size, 0.0, false), name: TypeRectangular}, nil
	default:
		return nil, fmt.Errorf("unknown window type: %q", name)
	}
}

// Supported reports whether New accepts the window name.
func Supported(name string) bool {
	switch name {
	case TypeTukey, TypeHann, TypeRectangular, "":
		return true
	}
	return false
}

type named struct {
	*Tukey
	name string
}

func (n *named) GetType() string {
	return n.name
}

// SumSquares returns Σw², the power normalization term for density scaling.
func SumSquares(w Window) float64 {
	sum := 0.0
	for _, c := range w.GetCoefficients() {
		sum += c * c
	}
	return sum
}
