// Package report writes suite results to disk and compares them against a
// previous run. Results are written as quality_results.json,
// quality_results.yaml and quality_report.txt.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/RyanBlaney/sonido-qa/quality"
	"github.com/RyanBlaney/sonido-qa/synth"
)

// Output file names
const (
	JSONFileName = "quality_results.json"
	YAMLFileName = "quality_results.yaml"
	TextFileName = "quality_report.txt"
)

// Float is a float64 whose non-finite values are encoded in JSON as the
// strings "+Inf", "-Inf" and "NaN".
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return json.Marshal(v)
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Float) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := parseFloat(s)
		if err != nil {
			return err
		}
		*f = Float(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("invalid metric value %s: %w", b, err)
	}
	*f = Float(v)
	return nil
}

// parseFloat accepts the sentinel strings as well as plain numbers
func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid metric value %q: %w", s, err)
	}
	return v, nil
}

func floats(values []float64) []Float {
	if values == nil {
		return nil
	}
	out := make([]Float, len(values))
	for i, v := range values {
		out[i] = Float(v)
	}
	return out
}

// Document is the serialized form of a suite run
type Document struct {
	GeneratedAt time.Time               `json:"generated_at" yaml:"generated_at"`
	StartedAt   time.Time               `json:"started_at" yaml:"started_at"`
	Duration    string                  `json:"duration" yaml:"duration"`
	Summary     SummaryDocument         `json:"summary" yaml:"summary"`
	Results     map[string]CaseDocument `json:"results" yaml:"results"` // keyed by test name
}

// SummaryDocument is the serialized suite summary
type SummaryDocument struct {
	Total             int              `json:"total" yaml:"total"`
	Successful        int              `json:"successful" yaml:"successful"`
	Failed            int              `json:"failed" yaml:"failed"`
	MeanCorrelation   Float            `json:"mean_correlation" yaml:"mean_correlation"`
	CorrelationCount  int              `json:"correlation_count" yaml:"correlation_count"`
	ExcludedNonFinite int              `json:"excluded_non_finite" yaml:"excluded_non_finite"`
	AnalysisTimeMS    map[string]Float `json:"analysis_time_ms,omitempty" yaml:"analysis_time_ms,omitempty"`
}

// CaseDocument is one serialized test case
type CaseDocument struct {
	Success     bool             `json:"success" yaml:"success"`
	Error       string           `json:"error,omitempty" yaml:"error,omitempty"`
	Config      synth.TestCase   `json:"config" yaml:"config"`
	ExitCode    *int             `json:"exit_code,omitempty" yaml:"exit_code,omitempty"`
	TimedOut    bool             `json:"timed_out,omitempty" yaml:"timed_out,omitempty"`
	SynthesisMS Float            `json:"synthesis_ms" yaml:"synthesis_ms"`
	AnalysisMS  Float            `json:"analysis_ms" yaml:"analysis_ms"`
	WorkDir     string           `json:"work_dir,omitempty" yaml:"work_dir,omitempty"`
	Quality     *QualityDocument `json:"quality,omitempty" yaml:"quality,omitempty"`
}

// QualityDocument is a serialized quality report
type QualityDocument struct {
	OriginalRMS           Float             `json:"original_rms" yaml:"original_rms"`
	ProcessedRMS          Float             `json:"processed_rms" yaml:"processed_rms"`
	OriginalPeak          Float             `json:"original_peak" yaml:"original_peak"`
	ProcessedPeak         Float             `json:"processed_peak" yaml:"processed_peak"`
	Correlation           Float             `json:"correlation" yaml:"correlation"`
	CorrelationPValue     Float             `json:"correlation_p_value" yaml:"correlation_p_value"`
	OriginalTHDN          Float             `json:"original_thd_n" yaml:"original_thd_n"`
	ProcessedTHDN         Float             `json:"processed_thd_n" yaml:"processed_thd_n"`
	OriginalDynamicRange  Float             `json:"original_dynamic_range" yaml:"original_dynamic_range"`
	ProcessedDynamicRange Float             `json:"processed_dynamic_range" yaml:"processed_dynamic_range"`
	SNR                   *Float            `json:"snr,omitempty" yaml:"snr,omitempty"`
	FrequencyResponse     *ResponseDocument `json:"frequency_response,omitempty" yaml:"frequency_response,omitempty"`
}

// ResponseDocument holds both frequency responses
type ResponseDocument struct {
	Original  SpectrumDocument `json:"original" yaml:"original"`
	Processed SpectrumDocument `json:"processed" yaml:"processed"`
}

// SpectrumDocument is one serialized frequency response
type SpectrumDocument struct {
	Freqs []Float `json:"freqs" yaml:"freqs"`
	Power []Float `json:"power" yaml:"power"`
}

// NewDocument converts a suite result. Spectra are included when
// withSpectra is set.
func NewDocument(result *synth.SuiteResult, generated time.Time, withSpectra bool) *Document {
	doc := &Document{
		GeneratedAt: generated,
		StartedAt:   result.StartedAt,
		Duration:    result.Duration.String(),
		Summary:     newSummaryDocument(result.Summary),
		Results:     make(map[string]CaseDocument, len(result.Results)),
	}

	for _, r := range result.Results {
		doc.Results[r.Name] = newCaseDocument(r, withSpectra)
	}
	return doc
}

func newSummaryDocument(s synth.Summary) SummaryDocument {
	doc := SummaryDocument{
		Total:             s.Total,
		Successful:        s.Successful,
		Failed:            s.Failed,
		MeanCorrelation:   Float(s.Correlation.Mean),
		CorrelationCount:  s.Correlation.Count,
		ExcludedNonFinite: s.Correlation.PosInf + s.Correlation.NegInf + s.Correlation.NaN,
	}

	if s.AnalysisTime.Count > 0 {
		doc.AnalysisTimeMS = map[string]Float{
			"min":  millis(s.AnalysisTime.Min),
			"max":  millis(s.AnalysisTime.Max),
			"mean": millis(s.AnalysisTime.Mean),
			"p50":  millis(s.AnalysisTime.P50),
			"p90":  millis(s.AnalysisTime.P90),
			"p99":  millis(s.AnalysisTime.P99),
		}
	}
	return doc
}

func newCaseDocument(r synth.CaseResult, withSpectra bool) CaseDocument {
	doc := CaseDocument{
		Success:    r.Success,
		Error:      r.Error,
		Config:     r.Config,
		AnalysisMS: millis(r.AnalysisTime),
		WorkDir:    r.WorkDir,
	}

	if r.Run != nil {
		exitCode := r.Run.ExitCode
		doc.ExitCode = &exitCode
		doc.TimedOut = r.Run.TimedOut
		doc.SynthesisMS = millis(r.Run.Duration)
	}
	if r.Quality != nil {
		doc.Quality = NewQualityDocument(r.Quality, withSpectra)
	}
	return doc
}

// NewQualityDocument converts a single quality report
func NewQualityDocument(q *quality.QualityReport, withSpectra bool) *QualityDocument {
	doc := &QualityDocument{
		OriginalRMS:           Float(q.OriginalRMS),
		ProcessedRMS:          Float(q.ProcessedRMS),
		OriginalPeak:          Float(q.OriginalPeak),
		ProcessedPeak:         Float(q.ProcessedPeak),
		Correlation:           Float(q.Correlation),
		CorrelationPValue:     Float(q.CorrelationPValue),
		OriginalTHDN:          Float(q.OriginalTHDN),
		ProcessedTHDN:         Float(q.ProcessedTHDN),
		OriginalDynamicRange:  Float(q.OriginalDynamicRange),
		ProcessedDynamicRange: Float(q.ProcessedDynamicRange),
	}

	if q.SNR != nil {
		snr := Float(*q.SNR)
		doc.SNR = &snr
	}
	if withSpectra {
		doc.FrequencyResponse = &ResponseDocument{
			Original: SpectrumDocument{
				Freqs: floats(q.FrequencyResponse.Original.Freqs),
				Power: floats(q.FrequencyResponse.Original.Power),
			},
			Processed: SpectrumDocument{
				Freqs: floats(q.FrequencyResponse.Processed.Freqs),
				Power: floats(q.FrequencyResponse.Processed.Power),
			},
		}
	}
	return doc
}

func millis(d time.Duration) Float {
	return Float(float64(d) / float64(time.Millisecond))
}
