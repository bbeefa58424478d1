package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches every *ConfigurationError via errors.Is.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrModel matches every *ModelError via errors.Is.
	ErrModel = errors.New("model contract violation")
)

// ConfigurationError reports an invalid construction parameter. It is
// fatal at construction and never retried.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

func configErrorf(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ModelError reports a model callback that broke its contract: a
// non-finite energy or an out-of-range candidate list. The step in progress
// is abandoned with committed state untouched.
type ModelError struct {
	Particle int
	Op       string // "energy", "pair energy" or "interactions"
	Err      error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model %s for particle %d: %v", e.Op, e.Particle, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

func (e *ModelError) Is(target error) bool { return target == ErrModel }
