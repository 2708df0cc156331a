package synth

import (
	"fmt"
	"time"
)

// TestCase describes one synthesizer run: the reference tone to render and
// the arguments to pass.
type TestCase struct {
	Name      string  `json:"name" yaml:"name"`
	Duration  float64 `json:"duration" yaml:"duration"`   // seconds
	Frequency float64 `json:"frequency" yaml:"frequency"` // reference tone, Hz
	Pitch     float64 `json:"pitch" yaml:"pitch"`         // requested output pitch, Hz
	Velocity  int     `json:"velocity" yaml:"velocity"`
	Options   string  `json:"options" yaml:"options"`
}

// ToneDuration returns Duration as a time.Duration
func (tc TestCase) ToneDuration() time.Duration {
	return time.Duration(tc.Duration * float64(time.Second))
}

// Validate checks the case can be rendered and run
func (tc TestCase) Validate() error {
	if tc.Name == "" {
		return fmt.Errorf("test case name is required")
	}
	if tc.Duration <= 0 {
		return fmt.Errorf("test case %s: duration must be positive: %v", tc.Name, tc.Duration)
	}
	if tc.Frequency <= 0 {
		return fmt.Errorf("test case %s: frequency must be positive: %v", tc.Name, tc.Frequency)
	}
	if tc.Pitch <= 0 {
		return fmt.Errorf("test case %s: pitch must be positive: %v", tc.Name, tc.Pitch)
	}
	if tc.Velocity < 0 {
		return fmt.Errorf("test case %s: velocity must not be negative: %d", tc.Name, tc.Velocity)
	}
	return nil
}

// DefaultCases returns the standard regression set: a 3 s tone rendered at,
// above and below its own pitch, with modulation, at high resolution, and at
// low and high fundamentals.
func DefaultCases() []TestCase {
	base := TestCase{Duration: 3, Frequency: 440, Pitch: 440, Velocity: 100}

	with := func(name string, modify func(*TestCase)) TestCase {
		tc := base
		tc.Name = name
		modify(&tc)
		return tc
	}

	return []TestCase{
		with("basic_440hz", func(tc *TestCase) {}),
		with("pitch_shift_up", func(tc *TestCase) { tc.Pitch = 880 }),
		with("pitch_shift_down", func(tc *TestCase) { tc.Pitch = 220 }),
		with("with_modulation", func(tc *TestCase) { tc.Options = "--modulation 0.3" }),
		with("high_quality", func(tc *TestCase) { tc.Options = "--sample-rate 48000 --bit-depth 24" }),
		with("low_frequency", func(tc *TestCase) { tc.Frequency, tc.Pitch = 220, 220 }),
		with("high_frequency", func(tc *TestCase) { tc.Frequency, tc.Pitch = 880, 880 }),
	}
}
