// Package config loads the suite configuration file: engine parameters,
// synthesizer settings, test cases and report options. Files are YAML or JSON
// and are checked against an embedded JSON schema before decoding.
//
// Example YAML:
//
//	engine:
//	  sample_rate: 44100
//	  window: tukey
//	  dynamic_range_window: 100ms
//	suite:
//	  synth_path: ./build/synth
//	  timeout: 60s
//	  workers: 4
//	report:
//	  output_dir: quality_analysis
//	  formats: [json, text]
//	cases:
//	  - name: basic_440hz
//	    duration: 3
//	    frequency: 440
//	    pitch: 440
package config

import (
	"slices"
	"time"

	"github.com/RyanBlaney/sonido-qa/quality"
	"github.com/RyanBlaney/sonido-qa/report"
	"github.com/RyanBlaney/sonido-qa/synth"
	"github.com/RyanBlaney/sonido-qa/transcode"
)

// Report output formats
const (
	FormatJSON = report.FormatJSON
	FormatYAML = report.FormatYAML
	FormatText = report.FormatText
)

// DefaultOutputDir is where reports are written when none is configured
const DefaultOutputDir = "quality_analysis"

const (
	defaultCaseDuration  = 3.0
	defaultCaseFrequency = 440.0
	defaultCaseVelocity  = 100
)

// Config is the root configuration document.
type Config struct {
	Engine  EngineSettings  `json:"engine" yaml:"engine"`
	Suite   SuiteSettings   `json:"suite" yaml:"suite"`
	Loader  LoaderSettings  `json:"loader" yaml:"loader"`
	Report  ReportSettings  `json:"report" yaml:"report"`
	Logging LoggingSettings `json:"logging" yaml:"logging"`
	Cases   []CaseSpec      `json:"cases,omitempty" yaml:"cases,omitempty"` // empty runs synth.DefaultCases
}

// EngineSettings mirrors quality.Config with human-readable durations
type EngineSettings struct {
	SampleRate           int      `json:"sample_rate" yaml:"sample_rate"`
	SegmentSize          int      `json:"segment_size" yaml:"segment_size"`
	Overlap              int      `json:"overlap" yaml:"overlap"`
	Window               string   `json:"window" yaml:"window"`
	DynamicRangeWindow   Duration `json:"dynamic_range_window" yaml:"dynamic_range_window"`
	FundamentalFrequency float64  `json:"fundamental_frequency" yaml:"fundamental_frequency"`
}

// SuiteSettings mirrors synth.SuiteConfig
type SuiteSettings struct {
	SynthPath string   `json:"synth_path" yaml:"synth_path"`
	Timeout   Duration `json:"timeout" yaml:"timeout"`
	Workers   int      `json:"workers" yaml:"workers"`
	WorkDir   string   `json:"work_dir" yaml:"work_dir"`
	KeepFiles bool     `json:"keep_files" yaml:"keep_files"`
	Seed      uint64   `json:"seed" yaml:"seed"`
	BitDepth  int      `json:"bit_depth" yaml:"bit_depth"`
}

// LoaderSettings controls how result files are read back
type LoaderSettings struct {
	FFmpegFallback  bool   `json:"ffmpeg_fallback" yaml:"ffmpeg_fallback"`
	FFmpegPath      string `json:"ffmpeg_path" yaml:"ffmpeg_path"`
	FFprobePath     string `json:"ffprobe_path" yaml:"ffprobe_path"`
	ResampleQuality string `json:"resample_quality" yaml:"resample_quality"`
}

// ReportSettings controls report output and the regression baseline
type ReportSettings struct {
	OutputDir   string             `json:"output_dir" yaml:"output_dir"`
	Formats     []string           `json:"formats" yaml:"formats"`
	WithSpectra bool               `json:"with_spectra" yaml:"with_spectra"`
	Baseline    string             `json:"baseline,omitempty" yaml:"baseline,omitempty"`
	Tolerances  map[string]float64 `json:"tolerances,omitempty" yaml:"tolerances,omitempty"` // nil uses report.DefaultTolerances
}

// LoggingSettings configures the global logger
type LoggingSettings struct {
	Level string `json:"level" yaml:"level"`
	Color *bool  `json:"color,omitempty" yaml:"color,omitempty"` // nil detects a terminal
}

// Default returns the built-in configuration: the reference engine
// parameters, sequential execution and the standard test cases.
func Default() *Config {
	engine := quality.DefaultConfig()
	suite := synth.DefaultSuiteConfig()
	decoder := transcode.DefaultDecoderConfig()

	return &Config{
		Engine: EngineSettings{
			SampleRate:           engine.SampleRate,
			SegmentSize:          engine.SegmentSize,
			Overlap:              engine.Overlap,
			Window:               engine.Window,
			DynamicRangeWindow:   Duration(engine.DynamicRangeWindow),
			FundamentalFrequency: engine.FundamentalFrequency,
		},
		Suite: SuiteSettings{
			Timeout:  Duration(suite.Timeout),
			Workers:  suite.Workers,
			BitDepth: suite.BitDepth,
		},
		Loader: LoaderSettings{
			FFmpegFallback:  true,
			FFmpegPath:      decoder.FFmpegPath,
			FFprobePath:     decoder.FFprobePath,
			ResampleQuality: decoder.ResampleQuality,
		},
		Report: ReportSettings{
			OutputDir: DefaultOutputDir,
			Formats:   []string{FormatJSON, FormatText},
		},
		Logging: LoggingSettings{
			Level: "info",
		},
	}
}

// CaseSpec is a test case as written in the file. Omitted fields take the
// defaults of the standard cases, and pitch defaults to the frequency.
type CaseSpec struct {
	Name      string   `json:"name" yaml:"name"`
	Duration  *float64 `json:"duration,omitempty" yaml:"duration,omitempty"`
	Frequency *float64 `json:"frequency,omitempty" yaml:"frequency,omitempty"`
	Pitch     *float64 `json:"pitch,omitempty" yaml:"pitch,omitempty"`
	Velocity  *int     `json:"velocity,omitempty" yaml:"velocity,omitempty"`
	Options   string   `json:"options,omitempty" yaml:"options,omitempty"`
}

// TestCase fills omitted fields with the defaults
func (cs CaseSpec) TestCase() synth.TestCase {
	tc := synth.TestCase{
		Name:      cs.Name,
		Duration:  defaultCaseDuration,
		Frequency: defaultCaseFrequency,
		Velocity:  defaultCaseVelocity,
		Options:   cs.Options,
	}
	if cs.Duration != nil {
		tc.Duration = *cs.Duration
	}
	if cs.Frequency != nil {
		tc.Frequency = *cs.Frequency
	}
	tc.Pitch = tc.Frequency
	if cs.Pitch != nil {
		tc.Pitch = *cs.Pitch
	}
	if cs.Velocity != nil {
		tc.Velocity = *cs.Velocity
	}
	return tc
}

// TestCases returns the configured cases, or the standard set when none are configured
func (c *Config) TestCases() []synth.TestCase {
	if len(c.Cases) == 0 {
		return synth.DefaultCases()
	}

	cases := make([]synth.TestCase, len(c.Cases))
	for i, cs := range c.Cases {
		cases[i] = cs.TestCase()
	}
	return cases
}

// EngineConfig converts the engine settings
func (c *Config) EngineConfig() *quality.Config {
	return &quality.Config{
		SampleRate:           c.Engine.SampleRate,
		SegmentSize:          c.Engine.SegmentSize,
		Overlap:              c.Engine.Overlap,
		Window:               c.Engine.Window,
		DynamicRangeWindow:   time.Duration(c.Engine.DynamicRangeWindow),
		FundamentalFrequency: c.Engine.FundamentalFrequency,
	}
}

// SuiteConfig converts the suite settings
func (c *Config) SuiteConfig() *synth.SuiteConfig {
	return &synth.SuiteConfig{
		SynthPath: c.Suite.SynthPath,
		Timeout:   time.Duration(c.Suite.Timeout),
		Workers:   c.Suite.Workers,
		WorkDir:   c.Suite.WorkDir,
		KeepFiles: c.Suite.KeepFiles,
		Seed:      c.Suite.Seed,
		BitDepth:  c.Suite.BitDepth,
	}
}

// LoaderConfig converts the loader settings at the engine's sample rate
func (c *Config) LoaderConfig() *transcode.LoaderConfig {
	decoder := transcode.DefaultDecoderConfig()
	decoder.TargetSampleRate = c.Engine.SampleRate
	if c.Loader.FFmpegPath != "" {
		decoder.FFmpegPath = c.Loader.FFmpegPath
	}
	if c.Loader.FFprobePath != "" {
		decoder.FFprobePath = c.Loader.FFprobePath
	}
	if c.Loader.ResampleQuality != "" {
		decoder.ResampleQuality = c.Loader.ResampleQuality
	}

	return &transcode.LoaderConfig{
		SampleRate:     c.Engine.SampleRate,
		FFmpegFallback: c.Loader.FFmpegFallback,
		Decoder:        decoder,
	}
}

// WriterConfig converts the report settings
func (c *Config) WriterConfig() report.WriterConfig {
	return report.WriterConfig{
		OutputDir:   c.Report.OutputDir,
		WithSpectra: c.Report.WithSpectra,
	}
}

// HasFormat reports whether the report format is enabled
func (c *Config) HasFormat(format string) bool {
	return slices.Contains(c.Report.Formats, format)
}
