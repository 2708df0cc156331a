package synth

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-qa/logging"
)

// DefaultRunTimeout bounds a single synthesizer invocation
const DefaultRunTimeout = 60 * time.Second

// RunRequest is one synthesizer invocation
type RunRequest struct {
	Input    string
	Output   string
	Pitch    float64
	Velocity int
	Options  string // whitespace separated extra arguments
}

// RunResult is the outcome of an invocation. A failed start, non-zero exit or
// timeout all report Success false with the reason in Stderr.
type RunResult struct {
	Success  bool          `json:"success"`
	ExitCode int           `json:"exit_code"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	TimedOut bool          `json:"timed_out"`
	Duration time.Duration `json:"duration"`
}

// Runner invokes the synthesizer executable as
// `<path> <input> <output> <pitch> <velocity> [options...]`.
type Runner struct {
	path    string
	timeout time.Duration
	logger  logging.Logger
}

// NewRunner creates a runner. A non-positive timeout uses DefaultRunTimeout.
func NewRunner(path string, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}
	return &Runner{
		path:    path,
		timeout: timeout,
		logger: logging.WithFields(logging.Fields{
			"component": "synth_runner",
			"path":      path,
		}),
	}
}

// Args returns the argument vector passed after the executable path
func (r *Runner) Args(req RunRequest) []string {
	args := []string{
		req.Input,
		req.Output,
		strconv.FormatFloat(req.Pitch, 'f', -1, 64),
		strconv.Itoa(req.Velocity),
	}
	return append(args, strings.Fields(req.Options)...)
}

// Run executes the synthesizer and waits for it to exit or time out
func (r *Runner) Run(ctx context.Context, req RunRequest) *RunResult {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := r.Args(req)
	cmd := exec.CommandContext(runCtx, r.path, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	r.logger.Debug("Running synthesizer", logging.Fields{
		"args":    strings.Join(args, " "),
		"timeout": r.timeout.Seconds(),
	})

	start := time.Now()
	err := cmd.Run()
	result := &RunResult{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	switch {
	case err == nil:
		result.Success = true
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.TimedOut = true
		result.Stderr = "timeout"
	default:
		var exitError *exec.ExitError
		if !errors.As(err, &exitError) {
			result.Stderr = err.Error()
		}
	}

	if !result.Success {
		r.logger.Warn("Synthesizer run failed", logging.Fields{
			"exit_code": result.ExitCode,
			"timed_out": result.TimedOut,
			"stderr":    strings.TrimSpace(result.Stderr),
		})
	}

	return result
}
