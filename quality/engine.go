// Package quality computes objective audio-quality metrics for comparing a
// reference recording against a processed or resynthesized version of it.
//
// All metrics work on mono float64 buffers normalized to [-1, 1] at the
// engine's sample rate. An Engine holds only its immutable Config, so a single
// Engine can be shared by any number of goroutines.
//
// Degenerate inputs produce sentinel values instead of errors:
//
//   - SignalToNoiseRatio with a silent noise buffer returns +Inf
//   - TotalHarmonicDistortionPlusNoise with no energy at the fundamental returns +Inf
//   - PeakLevel of an all-zero buffer returns -Inf
//   - Correlation with a constant buffer returns NaN, NaN
//
// Averaging such values directly gives Inf or NaN; use stats.SummarizeFinite.
package quality

import (
	"math"

	"github.com/RyanBlaney/sonido-qa/algorithms/harmonic"
	"github.com/RyanBlaney/sonido-qa/algorithms/spectral"
	"github.com/RyanBlaney/sonido-qa/algorithms/stats"
	"github.com/RyanBlaney/sonido-qa/algorithms/temporal"
	"github.com/RyanBlaney/sonido-qa/logging"
)

// Metric names used in errors and reports
const (
	MetricSNR               = "signal_to_noise_ratio"
	MetricTHDN              = "thd_n"
	MetricFrequencyResponse = "frequency_response"
	MetricCorrelation       = "correlation"
	MetricRMS               = "rms"
	MetricPeakLevel         = "peak_level"
	MetricDynamicRange      = "dynamic_range"
)

// Engine computes quality metrics at a fixed sample rate.
type Engine struct {
	config       Config
	spectrogram  *spectral.Spectrogram
	power        *spectral.PowerSpectrum
	thdn         *harmonic.THDN
	pearson      *stats.PearsonCorrelation
	dynamicRange *temporal.DynamicRange
	logger       logging.Logger
}

// NewEngine validates config and builds an engine. A nil config uses DefaultConfig.
func NewEngine(config *Config) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	spectrogram, err := spectral.NewSpectrogram(config.SegmentSize, config.Overlap, config.Window, config.SampleRate)
	if err != nil {
		return nil, &ConfigurationError{Field: "spectrogram", Value: config.SegmentSize, Rule: err.Error()}
	}

	return &Engine{
		config:       *config,
		spectrogram:  spectrogram,
		power:        spectral.NewPowerSpectrum(),
		thdn:         harmonic.NewTHDN(config.SampleRate),
		pearson:      stats.NewPearsonCorrelation(),
		dynamicRange: temporal.NewDynamicRange(config.dynamicRangeWindowSamples()),
		logger: logging.WithFields(logging.Fields{
			"component":   "quality_engine",
			"sample_rate": config.SampleRate,
		}),
	}, nil
}

// Config returns a copy of the engine configuration
func (e *Engine) Config() Config {
	return e.config
}

// SampleRate returns the engine's sample rate in Hz
func (e *Engine) SampleRate() int {
	return e.config.SampleRate
}

// SignalToNoiseRatio returns 10·log10(Psignal/Pnoise) in dB. The buffers must
// have equal length; silent noise gives +Inf.
func (e *Engine) SignalToNoiseRatio(signal, noise []float64) (float64, error) {
	if len(signal) != len(noise) {
		return 0, &InputShapeError{
			Metric:  MetricSNR,
			Buffer:  "noise",
			Lengths: []int{len(signal), len(noise)},
			Reason:  "signal and noise lengths differ",
		}
	}
	if len(signal) == 0 {
		return 0, emptyBuffer(MetricSNR, "signal")
	}

	snr, err := temporal.SignalToNoiseRatio(signal, noise)
	if err != nil {
		return 0, err
	}
	if math.IsInf(snr, 1) {
		e.logger.Debug("Noise buffer is silent, SNR is +Inf")
	}

	return snr, nil
}

// TotalHarmonicDistortionPlusNoise returns THD+N in percent measured against
// fundamental (Hz).
func (e *Engine) TotalHarmonicDistortionPlusNoise(audio []float64, fundamental float64) (float64, error) {
	analysis, err := e.THDNAnalysis(audio, fundamental)
	if err != nil {
		return 0, err
	}
	return analysis.THDN, nil
}

// THDNAnalysis returns the power breakdown behind THD+N, including the
// harmonic power that THD+N locates but does not separate from noise.
func (e *Engine) THDNAnalysis(audio []float64, fundamental float64) (*harmonic.THDNResult, error) {
	if len(audio) == 0 {
		return nil, emptyBuffer(MetricTHDN, "audio")
	}
	if fundamental <= 0 {
		return nil, &ConfigurationError{Field: "fundamental_frequency", Value: fundamental, Rule: "must be positive"}
	}

	return e.thdn.Analyze(audio, fundamental), nil
}

// FrequencyResponse returns bin frequencies (Hz) and the frame-averaged power
// spectral density per bin, as parallel slices.
func (e *Engine) FrequencyResponse(audio []float64) (freqs, power []float64, err error) {
	if len(audio) == 0 {
		return nil, nil, emptyBuffer(MetricFrequencyResponse, "audio")
	}

	result, err := e.spectrogram.Compute(audio)
	if err != nil {
		return nil, nil, err
	}

	freqs, power = e.power.ComputeFromSpectrogram(result)
	return freqs, power, nil
}

// Correlation truncates both buffers to the shorter length and returns the
// Pearson coefficient and its two-sided p-value.
func (e *Engine) Correlation(a, b []float64) (coefficient, pValue float64, err error) {
	if n := min(len(a), len(b)); n < 2 {
		return 0, 0, &InputShapeError{
			Metric:  MetricCorrelation,
			Buffer:  "overlap",
			Lengths: []int{len(a), len(b)},
			Reason:  "need at least 2 overlapping samples",
		}
	}

	result, err := e.pearson.Compute(a, b)
	if err != nil {
		return 0, 0, err
	}

	if math.IsNaN(result.Coefficient) {
		e.logger.Warn("Constant input, correlation is undefined", logging.Fields{
			"samples": result.Samples,
		})
	}
	if result.Truncated {
		e.logger.Debug("Correlation inputs truncated", logging.Fields{
			"len_a":   len(a),
			"len_b":   len(b),
			"samples": result.Samples,
		})
	}

	return result.Coefficient, result.PValue, nil
}

// RMS returns the root-mean-square sample value
func (e *Engine) RMS(audio []float64) (float64, error) {
	if len(audio) == 0 {
		return 0, emptyBuffer(MetricRMS, "audio")
	}
	return temporal.RMS(audio), nil
}

// PeakLevel returns the peak absolute sample in dBFS; silence gives -Inf.
func (e *Engine) PeakLevel(audio []float64) (float64, error) {
	if len(audio) == 0 {
		return 0, emptyBuffer(MetricPeakLevel, "audio")
	}
	return temporal.PeakLevel(audio), nil
}

// DynamicRange returns the spread in dB between the loudest and quietest
// non-silent windows. Fewer than two usable windows give 0.
func (e *Engine) DynamicRange(audio []float64) (float64, error) {
	if len(audio) == 0 {
		return 0, emptyBuffer(MetricDynamicRange, "audio")
	}
	return e.dynamicRange.Compute(audio), nil
}
