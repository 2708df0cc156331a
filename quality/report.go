package quality

import (
	"fmt"
	"sort"
	"sync"

	"github.com/RyanBlaney/sonido-qa/algorithms/temporal"
	"github.com/RyanBlaney/sonido-qa/logging"
)

// Report metric names
const (
	KeyOriginalRMS           = "original_rms"
	KeyProcessedRMS          = "processed_rms"
	KeyOriginalPeak          = "original_peak"
	KeyProcessedPeak         = "processed_peak"
	KeyCorrelation           = "correlation"
	KeyCorrelationPValue     = "correlation_p_value"
	KeyOriginalTHDN          = "original_thd_n"
	KeyProcessedTHDN         = "processed_thd_n"
	KeyOriginalDynamicRange  = "original_dynamic_range"
	KeyProcessedDynamicRange = "processed_dynamic_range"
	KeySNR                   = "snr"
	KeyFrequencyResponse     = "frequency_response"
)

// Spectrum is a frequency response as parallel frequency and power slices.
type Spectrum struct {
	Freqs []float64 `json:"freqs" yaml:"freqs"`
	Power []float64 `json:"power" yaml:"power"`
}

// FrequencyResponse pairs the spectra of both buffers.
type FrequencyResponse struct {
	Original  Spectrum `json:"original" yaml:"original"`
	Processed Spectrum `json:"processed" yaml:"processed"`
}

// QualityReport holds every metric of one original/processed comparison.
// Units: RMS linear, peak dBFS, THD+N percent, dynamic range and SNR dB.
type QualityReport struct {
	OriginalRMS           float64           `json:"original_rms" yaml:"original_rms"`
	ProcessedRMS          float64           `json:"processed_rms" yaml:"processed_rms"`
	OriginalPeak          float64           `json:"original_peak" yaml:"original_peak"`
	ProcessedPeak         float64           `json:"processed_peak" yaml:"processed_peak"`
	Correlation           float64           `json:"correlation" yaml:"correlation"`
	CorrelationPValue     float64           `json:"correlation_p_value" yaml:"correlation_p_value"`
	OriginalTHDN          float64           `json:"original_thd_n" yaml:"original_thd_n"`
	ProcessedTHDN         float64           `json:"processed_thd_n" yaml:"processed_thd_n"`
	OriginalDynamicRange  float64           `json:"original_dynamic_range" yaml:"original_dynamic_range"`
	ProcessedDynamicRange float64           `json:"processed_dynamic_range" yaml:"processed_dynamic_range"`
	SNR                   *float64          `json:"snr,omitempty" yaml:"snr,omitempty"` // only for equal lengths
	FrequencyResponse     FrequencyResponse `json:"frequency_response" yaml:"frequency_response"`
}

// Metrics returns the scalar metrics keyed by report name.
func (r *QualityReport) Metrics() map[string]float64 {
	metrics := map[string]float64{
		KeyOriginalRMS:           r.OriginalRMS,
		KeyProcessedRMS:          r.ProcessedRMS,
		KeyOriginalPeak:          r.OriginalPeak,
		KeyProcessedPeak:         r.ProcessedPeak,
		KeyCorrelation:           r.Correlation,
		KeyCorrelationPValue:     r.CorrelationPValue,
		KeyOriginalTHDN:          r.OriginalTHDN,
		KeyProcessedTHDN:         r.ProcessedTHDN,
		KeyOriginalDynamicRange:  r.OriginalDynamicRange,
		KeyProcessedDynamicRange: r.ProcessedDynamicRange,
	}
	if r.SNR != nil {
		metrics[KeySNR] = *r.SNR
	}
	return metrics
}

// MetricNames returns the scalar metric names present in the report, sorted.
func (r *QualityReport) MetricNames() []string {
	metrics := r.Metrics()
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Analyze computes every metric for both buffers. The metrics are independent
// and run concurrently; the first failure is returned and no report is built.
func (e *Engine) Analyze(original, processed []float64) (*QualityReport, error) {
	if len(original) == 0 {
		return nil, emptyBuffer("analyze", "original")
	}
	if len(processed) == 0 {
		return nil, emptyBuffer("analyze", "processed")
	}

	report := &QualityReport{}
	fundamental := e.config.FundamentalFrequency

	tasks := []func() error{
		func() (err error) { report.OriginalRMS, err = e.RMS(original); return },
		func() (err error) { report.ProcessedRMS, err = e.RMS(processed); return },
		func() (err error) { report.OriginalPeak, err = e.PeakLevel(original); return },
		func() (err error) { report.ProcessedPeak, err = e.PeakLevel(processed); return },
		func() (err error) {
			report.Correlation, report.CorrelationPValue, err = e.Correlation(original, processed)
			return
		},
		func() (err error) {
			report.OriginalTHDN, err = e.TotalHarmonicDistortionPlusNoise(original, fundamental)
			return
		},
		func() (err error) {
			report.ProcessedTHDN, err = e.TotalHarmonicDistortionPlusNoise(processed, fundamental)
			return
		},
		func() (err error) { report.OriginalDynamicRange, err = e.DynamicRange(original); return },
		func() (err error) { report.ProcessedDynamicRange, err = e.DynamicRange(processed); return },
		func() (err error) {
			spectrum := &report.FrequencyResponse.Original
			spectrum.Freqs, spectrum.Power, err = e.FrequencyResponse(original)
			return
		},
		func() (err error) {
			spectrum := &report.FrequencyResponse.Processed
			spectrum.Freqs, spectrum.Power, err = e.FrequencyResponse(processed)
			return
		},
	}

	if len(original) == len(processed) {
		tasks = append(tasks, func() error {
			residual, err := temporal.Residual(original, processed)
			if err != nil {
				return err
			}
			snr, err := e.SignalToNoiseRatio(original, residual)
			if err != nil {
				return err
			}
			report.SNR = &snr
			return nil
		})
	} else {
		e.logger.Debug("Buffer lengths differ, skipping SNR", logging.Fields{
			"original":  len(original),
			"processed": len(processed),
		})
	}

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	for _, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := task(); err != nil {
				once.Do(func() { firstErr = err })
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, fmt.Errorf("quality analysis failed: %w", firstErr)
	}

	return report, nil
}
