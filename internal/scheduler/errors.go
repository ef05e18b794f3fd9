package scheduler

import (
	"errors"
	"fmt"
)

var (
	ErrNotRunning     = errors.New("scheduler is not running")
	ErrAlreadyRunning = errors.New("scheduler is already running")
)

// TickError wraps a dispatch run that failed or panicked. The next tick
// tries again, so it is always temporary.
type TickError struct {
	Operation string
	Cause     error
}

func (e *TickError) Error() string {
	return fmt.Sprintf("scheduler tick failed during %s: %v", e.Operation, e.Cause)
}

func (e *TickError) Unwrap() error   { return e.Cause }
func (e *TickError) Temporary() bool { return true }

// ShutdownError means Stop gave up waiting for a running dispatch.
type ShutdownError struct {
	TimeoutSeconds int
}

func (e *ShutdownError) Error() string {
	return fmt.Sprintf("scheduler did not stop within %ds", e.TimeoutSeconds)
}

type ConfigurationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("scheduler config %s=%v: %s", e.Field, e.Value, e.Reason)
}

func NewConfigurationError(field string, value interface{}, reason string) error {
	return &ConfigurationError{Field: field, Value: value, Reason: reason}
}

func IsTemporaryError(err error) bool {
	var temporary interface{ Temporary() bool }
	return errors.As(err, &temporary) && temporary.Temporary()
}

func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
