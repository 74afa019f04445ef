package trend

import (
	"errors"
	"fmt"
)

// ErrNotFound signals a missing keyword or series
var ErrNotFound = errors.New("not found")

// ValidationError reports a malformed observation field. Rows failing
// validation are rejected individually and never abort a batch.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UnknownPlatformError reports a platform identifier that cannot be mapped
// to the canonical enum
type UnknownPlatformError struct {
	Value string
}

func (e *UnknownPlatformError) Error() string {
	return fmt.Sprintf("unknown platform: %q", e.Value)
}

// InsufficientHistoryError reports a seasonal matching request against a
// series with no historical anchor windows. Direction classification never
// returns this; it falls back to the "new" label instead.
type InsufficientHistoryError struct {
	Keyword  string
	Platform Platform
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history for %s on %s: no prior anchor windows", e.Keyword, e.Platform)
}

// ConfigurationError reports invalid threshold or weight configuration.
// Raised at construction time, before any analysis runs.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}
