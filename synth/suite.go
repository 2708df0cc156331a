package synth

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/RyanBlaney/sonido-qa/algorithms/stats"
	"github.com/RyanBlaney/sonido-qa/logging"
	"github.com/RyanBlaney/sonido-qa/quality"
	"github.com/RyanBlaney/sonido-qa/transcode"
)

// Histogram range for analysis timings, in microseconds
const (
	histogramMin     = 1
	histogramMax     = 3600000000 // 1 hour
	histogramSigFigs = 3
)

const (
	tempDirPrefix     = "sonido-qa-"
	inputFilePattern  = "test_input_%s.wav"
	outputFilePattern = "test_output_%s.wav"
)

// SuiteConfig holds suite orchestration settings
type SuiteConfig struct {
	SynthPath string        `json:"synth_path" yaml:"synth_path"`
	Timeout   time.Duration `json:"timeout" yaml:"timeout"`     // per synthesizer run
	Workers   int           `json:"workers" yaml:"workers"`     // concurrent cases
	WorkDir   string        `json:"work_dir" yaml:"work_dir"`   // parent of per-case temp dirs, "" for the OS default
	KeepFiles bool          `json:"keep_files" yaml:"keep_files"`
	Seed      uint64        `json:"seed" yaml:"seed"`           // tone noise seed; case i uses Seed+i
	BitDepth  int           `json:"bit_depth" yaml:"bit_depth"` // input tone WAV depth
}

// DefaultSuiteConfig returns sequential execution with a 60 s run timeout
func DefaultSuiteConfig() *SuiteConfig {
	return &SuiteConfig{
		Timeout:  DefaultRunTimeout,
		Workers:  1,
		BitDepth: transcode.DefaultBitDepth,
	}
}

// CaseResult is the outcome of one test case
type CaseResult struct {
	Name         string                 `json:"name"`
	Config       TestCase               `json:"config"`
	Success      bool                   `json:"success"`
	Error        string                 `json:"error,omitempty"`
	Run          *RunResult             `json:"run,omitempty"`
	Quality      *quality.QualityReport `json:"quality,omitempty"`
	AnalysisTime time.Duration          `json:"analysis_time"`
	WorkDir      string                 `json:"work_dir,omitempty"` // set when files are kept
}

// TimingSummary holds analysis-time percentiles
type TimingSummary struct {
	Count int64         `json:"count"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
	Mean  time.Duration `json:"mean"`
	P50   time.Duration `json:"p50"`
	P90   time.Duration `json:"p90"`
	P99   time.Duration `json:"p99"`
}

// Summary aggregates a suite run
type Summary struct {
	Total        int                 `json:"total"`
	Successful   int                 `json:"successful"`
	Failed       int                 `json:"failed"`
	Correlation  stats.FiniteSummary `json:"correlation"`
	AnalysisTime TimingSummary       `json:"analysis_time"`
}

// SuiteResult holds per-case results in input order plus the summary
type SuiteResult struct {
	Results   []CaseResult  `json:"results"`
	Summary   Summary       `json:"summary"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Suite renders, synthesizes and analyzes test cases
type Suite struct {
	config SuiteConfig
	engine *quality.Engine
	runner *Runner
	loader *transcode.Loader
	logger logging.Logger
}

// NewSuite wires a suite. A nil loader reads files at the engine's rate with
// ffmpeg fallback.
func NewSuite(config *SuiteConfig, engine *quality.Engine, loader *transcode.Loader) (*Suite, error) {
	if config == nil {
		config = DefaultSuiteConfig()
	}
	if engine == nil {
		return nil, fmt.Errorf("quality engine is required")
	}
	if config.SynthPath == "" {
		return nil, fmt.Errorf("synthesizer path is required")
	}
	if config.Workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1: %d", config.Workers)
	}

	if loader == nil {
		loaderConfig := transcode.DefaultLoaderConfig()
		loaderConfig.SampleRate = engine.SampleRate()
		loader = transcode.NewLoader(loaderConfig)
	}

	return &Suite{
		config: *config,
		engine: engine,
		runner: NewRunner(config.SynthPath, config.Timeout),
		loader: loader,
		logger: logging.WithFields(logging.Fields{
			"component": "quality_suite",
			"workers":   config.Workers,
		}),
	}, nil
}

// Run executes every case on a bounded worker pool. Results keep the input
// order. Cancelling ctx stops unstarted cases, which are reported as failed.
func (s *Suite) Run(ctx context.Context, cases []TestCase) (*SuiteResult, error) {
	seen := make(map[string]bool, len(cases))
	for _, tc := range cases {
		if err := tc.Validate(); err != nil {
			return nil, err
		}
		if seen[tc.Name] {
			return nil, fmt.Errorf("duplicate test case name: %s", tc.Name)
		}
		seen[tc.Name] = true
	}

	started := time.Now()
	results := make([]CaseResult, len(cases))
	jobs := make(chan int, len(cases))
	var wg sync.WaitGroup

	s.logger.Info("Starting quality suite", logging.Fields{
		"cases": len(cases),
	})

	for range min(s.config.Workers, max(1, len(cases))) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := ctx.Err(); err != nil {
					results[idx] = CaseResult{Name: cases[idx].Name, Config: cases[idx], Error: err.Error()}
					continue
				}
				results[idx] = s.runCase(ctx, idx, cases[idx])
			}
		}()
	}

	for idx := range cases {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	result := &SuiteResult{
		Results:   results,
		Summary:   Summarize(results),
		StartedAt: started,
		Duration:  time.Since(started),
	}

	s.logger.Info("Quality suite finished", logging.Fields{
		"successful":       result.Summary.Successful,
		"total":            result.Summary.Total,
		"mean_correlation": result.Summary.Correlation.Mean,
	})

	return result, ctx.Err()
}

func (s *Suite) runCase(ctx context.Context, idx int, tc TestCase) CaseResult {
	ctx = logging.ContextWithFields(ctx, logging.Fields{"test_case": tc.Name})
	logger := s.logger.WithContext(ctx)
	result := CaseResult{Name: tc.Name, Config: tc}

	dir, err := os.MkdirTemp(s.config.WorkDir, tempDirPrefix+tc.Name+"-")
	if err != nil {
		result.Error = fmt.Sprintf("failed to create work dir: %v", err)
		return result
	}
	if s.config.KeepFiles {
		result.WorkDir = dir
	} else {
		defer func() {
			if err := os.RemoveAll(dir); err != nil {
				logger.Warn("Failed to remove work dir", logging.Fields{"dir": dir, "error": err.Error()})
			}
		}()
	}

	input := filepath.Join(dir, fmt.Sprintf(inputFilePattern, tc.Name))
	output := filepath.Join(dir, fmt.Sprintf(outputFilePattern, tc.Name))

	generator := NewToneGenerator(s.engine.SampleRate(), s.config.Seed+uint64(idx))
	tone, err := generator.Tone(tc.ToneDuration(), tc.Frequency)
	if err != nil {
		result.Error = fmt.Sprintf("failed to generate test tone: %v", err)
		return result
	}
	if err := transcode.WriteWAV(input, tone, s.engine.SampleRate(), s.config.BitDepth); err != nil {
		result.Error = fmt.Sprintf("failed to write test tone: %v", err)
		return result
	}

	logger.Debug("Running test case")

	result.Run = s.runner.Run(ctx, RunRequest{
		Input:    input,
		Output:   output,
		Pitch:    tc.Pitch,
		Velocity: tc.Velocity,
		Options:  tc.Options,
	})
	if !result.Run.Success {
		result.Error = fmt.Sprintf("synthesizer failed: %s", result.Run.Stderr)
		return result
	}

	original, err := s.loader.Load(ctx, input)
	if err != nil {
		result.Error = fmt.Sprintf("failed to load original: %v", err)
		return result
	}
	processed, err := s.loader.Load(ctx, output)
	if err != nil {
		result.Error = fmt.Sprintf("failed to load processed: %v", err)
		return result
	}

	start := time.Now()
	report, err := s.engine.Analyze(original.PCM, processed.PCM)
	result.AnalysisTime = time.Since(start)
	if err != nil {
		logger.Error(err, "Quality analysis failed")
		result.Error = err.Error()
		return result
	}

	result.Quality = report
	result.Success = true

	logger.Debug("Test case analyzed", logging.Fields{
		"correlation":   report.Correlation,
		"analysis_time": result.AnalysisTime.Seconds(),
	})

	return result
}

// Summarize counts successes, averages the finite correlations and builds
// analysis-time percentiles over the successful cases.
func Summarize(results []CaseResult) Summary {
	summary := Summary{Total: len(results)}
	hist := hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs)

	correlations := make([]float64, 0, len(results))
	for _, r := range results {
		if !r.Success || r.Quality == nil {
			summary.Failed++
			continue
		}
		summary.Successful++
		correlations = append(correlations, r.Quality.Correlation)
		_ = hist.RecordValue(max(histogramMin, r.AnalysisTime.Microseconds()))
	}

	summary.Correlation = stats.SummarizeFinite(correlations)
	if hist.TotalCount() > 0 {
		summary.AnalysisTime = TimingSummary{
			Count: hist.TotalCount(),
			Min:   time.Duration(hist.Min()) * time.Microsecond,
			Max:   time.Duration(hist.Max()) * time.Microsecond,
			Mean:  time.Duration(hist.Mean()) * time.Microsecond,
			P50:   time.Duration(hist.ValueAtQuantile(50)) * time.Microsecond,
			P90:   time.Duration(hist.ValueAtQuantile(90)) * time.Microsecond,
			P99:   time.Duration(hist.ValueAtQuantile(99)) * time.Microsecond,
		}
	}

	return summary
}
