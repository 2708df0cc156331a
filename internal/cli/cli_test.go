package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/RyanBlaney/sonido-qa/config"
	"github.com/RyanBlaney/sonido-qa/report"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--no-color"}, args...))

	err := root.Execute()
	return stdout.String(), err
}

func TestRoot_Help(t *testing.T) {
	out, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "sonido-qa")
	assert.Contains(t, out, "analyze")
	assert.Contains(t, out, "run")
}

func TestGenerateAndAnalyze(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "original.wav")
	processed := filepath.Join(dir, "processed.wav")

	out, err := execute(t, "generate", original, "--duration", "1s", "--seed", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "44100 samples")

	_, err = execute(t, "generate", processed, "--duration", "1s", "--seed", "2", "--fade-out")
	require.NoError(t, err)

	out, err = execute(t, "analyze", original, processed)
	require.NoError(t, err)
	assert.Contains(t, out, "correlation")
	assert.Contains(t, out, "original_rms")
	assert.Contains(t, out, "snr")

	out, err = execute(t, "analyze", original, original, "--json")
	require.NoError(t, err)
	require.True(t, json.Valid([]byte(out)))
	assert.InDelta(t, 1.0, gjson.Get(out, "correlation").Float(), 1e-9)
	assert.Equal(t, "+Inf", gjson.Get(out, "snr").String())
	assert.False(t, gjson.Get(out, "frequency_response").Exists())
}

func TestAnalyze_Errors(t *testing.T) {
	_, err := execute(t, "analyze", "only-one.wav")
	assert.Error(t, err)

	dir := t.TempDir()
	_, err = execute(t, "analyze", filepath.Join(dir, "a.wav"), filepath.Join(dir, "b.wav"))
	assert.ErrorContains(t, err, "failed to load original")
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suite.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Cases, 7)

	out, err = execute(t, "--config", path, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "7 test cases")

	_, err = execute(t, "config", "validate")
	assert.ErrorContains(t, err, "--config is required")

	out, err = execute(t, "config", "schema")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("engine: {window: kaiser}\n"), 0o644))
	_, err = execute(t, "--config", bad, "config", "validate")
	assert.ErrorContains(t, err, "/engine/window")
}

func TestRun_WithCopySynth(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script synthesizer")
	}

	dir := t.TempDir()
	synthPath := filepath.Join(dir, "synth.sh")
	require.NoError(t, os.WriteFile(synthPath, []byte("#!/bin/sh\ncp \"$1\" \"$2\"\n"), 0o755))
	outDir := filepath.Join(dir, "reports")

	args := []string{
		"run",
		"--synth", synthPath,
		"--output", outDir,
		"--format", "json,text",
		"--case", "basic_440hz",
		"--case", "low_frequency",
		"--workers", "2",
	}

	out, err := execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "Successful: 2/2")
	assert.Contains(t, out, "Test: low_frequency")

	baseline := filepath.Join(outDir, report.JSONFileName)
	data, err := os.ReadFile(baseline)
	require.NoError(t, err)
	assert.True(t, gjson.GetBytes(data, "results.basic_440hz.success").Bool())
	assert.FileExists(t, filepath.Join(outDir, report.TextFileName))

	// a second identical run passes against the first
	saved := filepath.Join(dir, "baseline.json")
	require.NoError(t, os.WriteFile(saved, data, 0o644))
	out, err = execute(t, append(args, "--baseline", saved)...)
	require.NoError(t, err)
	assert.Contains(t, out, "0 regressions")
}

func TestRun_Errors(t *testing.T) {
	_, err := execute(t, "run")
	assert.ErrorContains(t, err, "synthesizer path is required")

	_, err = execute(t, "run", "--synth", "/bin/true", "--case", "nope")
	assert.ErrorContains(t, err, "unknown test case")

	_, err = execute(t, "run", "--synth", "/bin/true", "--workers", "0")
	assert.ErrorContains(t, err, "workers")
}

func TestCompare(t *testing.T) {
	dir := t.TempDir()
	baseline := filepath.Join(dir, "baseline.json")
	current := filepath.Join(dir, "current.json")

	base := `{"results": {"basic_440hz": {"success": true, "quality": {"correlation": 0.99, "snr": "+Inf"}}}}`
	require.NoError(t, os.WriteFile(baseline, []byte(base), 0o644))

	same := `{"results": {"basic_440hz": {"success": true, "quality": {"correlation": 0.985, "snr": "+Inf"}}}}`
	require.NoError(t, os.WriteFile(current, []byte(same), 0o644))
	out, err := execute(t, "compare", baseline, current)
	require.NoError(t, err)
	assert.Contains(t, out, "2 metrics compared, 0 regressions")

	_, err = execute(t, "compare", baseline, current, "--tolerance", "correlation=0.001")
	assert.ErrorContains(t, err, "1 quality regressions")

	_, err = execute(t, "compare", baseline, current, "--tolerance", "correlation=lots")
	assert.ErrorContains(t, err, "invalid tolerance")

	_, err = execute(t, "compare", baseline, filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "failed to read current results")
}
