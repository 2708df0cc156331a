package quality

import (
	"time"

	"github.com/RyanBlaney/sonido-qa/algorithms/harmonic"
	"github.com/RyanBlaney/sonido-qa/algorithms/spectral"
	"github.com/RyanBlaney/sonido-qa/algorithms/temporal"
	"github.com/RyanBlaney/sonido-qa/algorithms/windowing"
)

// DefaultSampleRate is the engine-wide rate unless overridden.
const DefaultSampleRate = 44100

// Config holds the engine's fixed analysis parameters.
type Config struct {
	SampleRate           int           `json:"sample_rate" yaml:"sample_rate"`
	SegmentSize          int           `json:"segment_size" yaml:"segment_size"`                   // spectrogram segment
	Overlap              int           `json:"overlap" yaml:"overlap"`                             // spectrogram overlap, samples
	Window               string        `json:"window" yaml:"window"`                               // "tukey", "hann", "rectangular"
	DynamicRangeWindow   time.Duration `json:"dynamic_range_window" yaml:"dynamic_range_window"`   // short-term level window
	FundamentalFrequency float64       `json:"fundamental_frequency" yaml:"fundamental_frequency"` // THD+N in Analyze
}

// DefaultConfig returns the reference analysis parameters
func DefaultConfig() *Config {
	return &Config{
		SampleRate:           DefaultSampleRate,
		SegmentSize:          spectral.DefaultSegmentSize,
		Overlap:              spectral.DefaultOverlap(spectral.DefaultSegmentSize),
		Window:               windowing.TypeTukey,
		DynamicRangeWindow:   time.Duration(temporal.DefaultDynamicRangeWindow * float64(time.Second)),
		FundamentalFrequency: harmonic.DefaultFundamental,
	}
}

// ConfigWithSampleRate returns the defaults at another sample rate.
func ConfigWithSampleRate(sampleRate int) *Config {
	config := DefaultConfig()
	config.SampleRate = sampleRate
	return config
}

// Validate checks every field and returns the first ConfigurationError found.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return &ConfigurationError{Field: "sample_rate", Value: c.SampleRate, Rule: "must be positive"}
	}
	if c.SegmentSize <= 0 {
		return &ConfigurationError{Field: "segment_size", Value: c.SegmentSize, Rule: "must be positive"}
	}
	if c.Overlap < 0 || c.Overlap >= c.SegmentSize {
		return &ConfigurationError{Field: "overlap", Value: c.Overlap, Rule: "must be in [0, segment_size)"}
	}
	if !windowing.Supported(c.Window) {
		return &ConfigurationError{Field: "window", Value: c.Window, Rule: "must be tukey, hann or rectangular"}
	}
	if c.dynamicRangeWindowSamples() < 1 {
		return &ConfigurationError{Field: "dynamic_range_window", Value: c.DynamicRangeWindow, Rule: "must cover at least one sample"}
	}
	if c.FundamentalFrequency <= 0 {
		return &ConfigurationError{Field: "fundamental_frequency", Value: c.FundamentalFrequency, Rule: "must be positive"}
	}
	return nil
}

func (c *Config) dynamicRangeWindowSamples() int {
	return temporal.WindowSamples(c.DynamicRangeWindow.Seconds(), c.SampleRate)
}
