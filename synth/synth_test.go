package synth

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-qa/quality"
	"github.com/RyanBlaney/sonido-qa/transcode"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}

	path := filepath.Join(t.TempDir(), "fake-synth.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestToneGenerator_Tone(t *testing.T) {
	generator := NewToneGenerator(44100, 1).WithNoise(0)

	tone, err := generator.Tone(time.Second, 440)
	require.NoError(t, err)
	require.Len(t, tone, 44100)

	// evenly spaced from 0 to the duration inclusive
	step := 1.0 / 44099.0
	assert.Equal(t, 0.0, tone[0])
	assert.InDelta(t, 0.5*math.Sin(2*math.Pi*440*step), tone[1], 1e-12)
	assert.InDelta(t, 0.5*math.Sin(2*math.Pi*440), tone[len(tone)-1], 1e-9)

	for _, v := range tone {
		assert.LessOrEqual(t, math.Abs(v), 0.5)
	}
}

func TestToneGenerator_NoiseIsSeeded(t *testing.T) {
	a, err := NewToneGenerator(8000, 42).Tone(100*time.Millisecond, 440)
	require.NoError(t, err)
	b, err := NewToneGenerator(8000, 42).Tone(100*time.Millisecond, 440)
	require.NoError(t, err)
	c, err := NewToneGenerator(8000, 43).Tone(100*time.Millisecond, 440)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	clean, err := NewToneGenerator(8000, 42).WithNoise(0).Tone(100*time.Millisecond, 440)
	require.NoError(t, err)
	residual := 0.0
	for i := range a {
		residual += (a[i] - clean[i]) * (a[i] - clean[i])
	}
	assert.InDelta(t, DefaultNoiseSigma, math.Sqrt(residual/float64(len(a))), 0.003)
}

func TestToneGenerator_Rejects(t *testing.T) {
	generator := NewToneGenerator(44100, 1)

	_, err := generator.Tone(time.Second, 0)
	assert.Error(t, err)

	_, err = generator.Tone(time.Microsecond, 440)
	assert.Error(t, err)
}

func TestFade(t *testing.T) {
	in := []float64{1, 1, 1, 1, 1}
	Fade(in, true)
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, in)

	out := []float64{1, 1, 1, 1, 1}
	Fade(out, false)
	assert.Equal(t, []float64{1, 0.75, 0.5, 0.25, 0}, out)

	single := []float64{0.3}
	Fade(single, true)
	assert.Equal(t, []float64{0.3}, single)
}

func TestRunner_Args(t *testing.T) {
	runner := NewRunner("synth", 0)

	args := runner.Args(RunRequest{
		Input:    "in.wav",
		Output:   "out.wav",
		Pitch:    440,
		Velocity: 100,
		Options:  "--sample-rate 48000  --bit-depth 24",
	})
	assert.Equal(t, []string{"in.wav", "out.wav", "440", "100", "--sample-rate", "48000", "--bit-depth", "24"}, args)

	args = runner.Args(RunRequest{Input: "a", Output: "b", Pitch: 261.63, Velocity: 80})
	assert.Equal(t, []string{"a", "b", "261.63", "80"}, args)
}

func TestRunner_Run(t *testing.T) {
	t.Run("success captures output", func(t *testing.T) {
		script := writeScript(t, `echo "rendering $3 $4"; echo warn >&2`)

		result := NewRunner(script, time.Minute).Run(context.Background(), RunRequest{
			Input: "in.wav", Output: "out.wav", Pitch: 880, Velocity: 90,
		})
		assert.True(t, result.Success)
		assert.Equal(t, 0, result.ExitCode)
		assert.Equal(t, "rendering 880 90\n", result.Stdout)
		assert.Equal(t, "warn\n", result.Stderr)
	})

	t.Run("non-zero exit", func(t *testing.T) {
		script := writeScript(t, `echo "bad input" >&2; exit 3`)

		result := NewRunner(script, time.Minute).Run(context.Background(), RunRequest{})
		assert.False(t, result.Success)
		assert.Equal(t, 3, result.ExitCode)
		assert.Equal(t, "bad input\n", result.Stderr)
	})

	t.Run("timeout", func(t *testing.T) {
		script := writeScript(t, `exec sleep 5`)

		result := NewRunner(script, 100*time.Millisecond).Run(context.Background(), RunRequest{})
		assert.False(t, result.Success)
		assert.True(t, result.TimedOut)
		assert.Equal(t, "timeout", result.Stderr)
		assert.Less(t, result.Duration, 4*time.Second)
	})

	t.Run("missing executable", func(t *testing.T) {
		result := NewRunner(filepath.Join(t.TempDir(), "nope"), time.Minute).Run(context.Background(), RunRequest{})
		assert.False(t, result.Success)
		assert.NotEmpty(t, result.Stderr)
		assert.Equal(t, -1, result.ExitCode)
	})
}

func TestDefaultCases(t *testing.T) {
	cases := DefaultCases()
	require.Len(t, cases, 7)

	byName := make(map[string]TestCase)
	for _, tc := range cases {
		require.NoError(t, tc.Validate())
		assert.Equal(t, 3.0, tc.Duration)
		assert.Equal(t, 100, tc.Velocity)
		byName[tc.Name] = tc
	}

	assert.Equal(t, 440.0, byName["basic_440hz"].Pitch)
	assert.Equal(t, 880.0, byName["pitch_shift_up"].Pitch)
	assert.Equal(t, 220.0, byName["pitch_shift_down"].Pitch)
	assert.Equal(t, "--modulation 0.3", byName["with_modulation"].Options)
	assert.Equal(t, "--sample-rate 48000 --bit-depth 24", byName["high_quality"].Options)
	assert.Equal(t, 220.0, byName["low_frequency"].Frequency)
	assert.Equal(t, 880.0, byName["high_frequency"].Frequency)
	assert.Equal(t, 3*time.Second, byName["basic_440hz"].ToneDuration())
}

func TestTestCase_Validate(t *testing.T) {
	valid := TestCase{Name: "x", Duration: 1, Frequency: 440, Pitch: 440, Velocity: 100}
	require.NoError(t, valid.Validate())

	for name, modify := range map[string]func(*TestCase){
		"name":      func(tc *TestCase) { tc.Name = "" },
		"duration":  func(tc *TestCase) { tc.Duration = 0 },
		"frequency": func(tc *TestCase) { tc.Frequency = -1 },
		"pitch":     func(tc *TestCase) { tc.Pitch = 0 },
		"velocity":  func(tc *TestCase) { tc.Velocity = -1 },
	} {
		t.Run(name, func(t *testing.T) {
			tc := valid
			modify(&tc)
			assert.ErrorContains(t, tc.Validate(), name)
		})
	}
}

func newTestSuite(t *testing.T, script string, workers int) *Suite {
	t.Helper()
	engine, err := quality.NewEngine(nil)
	require.NoError(t, err)

	config := DefaultSuiteConfig()
	config.SynthPath = script
	config.Workers = workers
	config.WorkDir = t.TempDir()

	suite, err := NewSuite(config, engine, transcode.NewLoader(&transcode.LoaderConfig{SampleRate: 44100}))
	require.NoError(t, err)
	return suite
}

func shortCases(names ...string) []TestCase {
	cases := make([]TestCase, len(names))
	for i, name := range names {
		cases[i] = TestCase{Name: name, Duration: 0.2, Frequency: 440, Pitch: 440, Velocity: 100}
	}
	return cases
}

func TestSuite_PassThroughSynth(t *testing.T) {
	script := writeScript(t, `cp "$1" "$2"`)
	suite := newTestSuite(t, script, 3)

	result, err := suite.Run(context.Background(), shortCases("a", "b", "c", "d"))
	require.NoError(t, err)
	require.Len(t, result.Results, 4)

	for i, name := range []string{"a", "b", "c", "d"} {
		r := result.Results[i]
		assert.Equal(t, name, r.Name)
		require.True(t, r.Success, r.Error)
		require.NotNil(t, r.Quality)
		assert.InDelta(t, 1.0, r.Quality.Correlation, 1e-9)
		assert.InDelta(t, r.Quality.OriginalRMS, r.Quality.ProcessedRMS, 1e-12)
		require.NotNil(t, r.Quality.SNR)
		assert.True(t, math.IsInf(*r.Quality.SNR, 1))
		assert.Empty(t, r.WorkDir)
	}

	assert.Equal(t, 4, result.Summary.Total)
	assert.Equal(t, 4, result.Summary.Successful)
	assert.InDelta(t, 1.0, result.Summary.Correlation.Mean, 1e-9)
	assert.Equal(t, int64(4), result.Summary.AnalysisTime.Count)

	// temp dirs are cleaned up
	entries, err := os.ReadDir(suite.config.WorkDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSuite_KeepFiles(t *testing.T) {
	script := writeScript(t, `cp "$1" "$2"`)
	suite := newTestSuite(t, script, 1)
	suite.config.KeepFiles = true

	result, err := suite.Run(context.Background(), shortCases("keep"))
	require.NoError(t, err)
	require.True(t, result.Results[0].Success)

	dir := result.Results[0].WorkDir
	require.NotEmpty(t, dir)
	assert.FileExists(t, filepath.Join(dir, "test_input_keep.wav"))
	assert.FileExists(t, filepath.Join(dir, "test_output_keep.wav"))
}

func TestSuite_FailingSynth(t *testing.T) {
	script := writeScript(t, `echo "unsupported option" >&2; exit 1`)
	suite := newTestSuite(t, script, 2)

	result, err := suite.Run(context.Background(), shortCases("x", "y"))
	require.NoError(t, err)

	for _, r := range result.Results {
		assert.False(t, r.Success)
		assert.Nil(t, r.Quality)
		assert.True(t, strings.HasPrefix(r.Error, "synthesizer failed"), r.Error)
		require.NotNil(t, r.Run)
		assert.Equal(t, 1, r.Run.ExitCode)
	}
	assert.Equal(t, 2, result.Summary.Failed)
	assert.True(t, math.IsNaN(result.Summary.Correlation.Mean))
}

func TestSuite_MissingOutput(t *testing.T) {
	script := writeScript(t, `exit 0`)
	suite := newTestSuite(t, script, 1)

	result, err := suite.Run(context.Background(), shortCases("silent"))
	require.NoError(t, err)
	assert.False(t, result.Results[0].Success)
	assert.Contains(t, result.Results[0].Error, "failed to load processed")
}

func TestSuite_Cancelled(t *testing.T) {
	script := writeScript(t, `cp "$1" "$2"`)
	suite := newTestSuite(t, script, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := suite.Run(ctx, shortCases("a", "b"))
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, 0, result.Summary.Successful)
}

func TestSuite_RejectsBadCases(t *testing.T) {
	suite := newTestSuite(t, "/bin/true", 1)

	_, err := suite.Run(context.Background(), append(shortCases("dup"), shortCases("dup")...))
	assert.ErrorContains(t, err, "duplicate")

	_, err = suite.Run(context.Background(), []TestCase{{Name: "bad"}})
	assert.Error(t, err)
}

func TestNewSuite_Validation(t *testing.T) {
	engine, err := quality.NewEngine(nil)
	require.NoError(t, err)

	_, err = NewSuite(&SuiteConfig{Workers: 1}, engine, nil)
	assert.ErrorContains(t, err, "synthesizer path")

	_, err = NewSuite(&SuiteConfig{SynthPath: "x", Workers: 0}, engine, nil)
	assert.ErrorContains(t, err, "workers")

	_, err = NewSuite(&SuiteConfig{SynthPath: "x", Workers: 1}, nil, nil)
	assert.ErrorContains(t, err, "engine")
}

func TestSummarize(t *testing.T) {
	report := func(correlation float64) *quality.QualityReport {
		return &quality.QualityReport{Correlation: correlation}
	}

	summary := Summarize([]CaseResult{
		{Success: true, Quality: report(0.9), AnalysisTime: 10 * time.Millisecond},
		{Success: true, Quality: report(0.7), AnalysisTime: 30 * time.Millisecond},
		{Success: true, Quality: report(math.NaN()), AnalysisTime: 20 * time.Millisecond},
		{Success: false, Error: "boom"},
	})

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 3, summary.Successful)
	assert.Equal(t, 1, summary.Failed)
	assert.InDelta(t, 0.8, summary.Correlation.Mean, 1e-12)
	assert.Equal(t, 2, summary.Correlation.Count)
	assert.Equal(t, 1, summary.Correlation.NaN)
	assert.True(t, summary.Correlation.HasExcluded)

	timing := summary.AnalysisTime
	assert.Equal(t, int64(3), timing.Count)
	assert.InDelta(t, float64(10*time.Millisecond), float64(timing.Min), float64(50*time.Microsecond))
	assert.InDelta(t, float64(30*time.Millisecond), float64(timing.Max), float64(50*time.Microsecond))
	assert.InDelta(t, float64(20*time.Millisecond), float64(timing.P50), float64(50*time.Microsecond))
}
