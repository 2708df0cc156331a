package quality

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks.
var (
	ErrInputShape    = errors.New("input shape error")
	ErrConfiguration = errors.New("configuration error")
)

// InputShapeError reports a buffer whose length an operation cannot accept:
// mismatched lengths where equal lengths are required, or too few samples.
type InputShapeError struct {
	Metric  string
	Buffer  string
	Lengths []int
	Reason  string
}

func (e *InputShapeError) Error() string {
	return fmt.Sprintf("%s: %s: buffer %q %v", e.Metric, e.Reason, e.Buffer, e.Lengths)
}

func (e *InputShapeError) Unwrap() error {
	return ErrInputShape
}

// ConfigurationError reports an engine configuration that cannot be used.
type ConfigurationError struct {
	Field string
	Value any
	Rule  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Rule)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

func emptyBuffer(metric, buffer string) error {
	return &InputShapeError{Metric: metric, Buffer: buffer, Lengths: []int{0}, Reason: "empty buffer"}
}
