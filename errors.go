package again

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidConfig is wrapped by every [*ConfigError].
	ErrInvalidConfig = errors.New("invalid retry config")
	// ErrTimeout is wrapped by every [*TimeoutError].
	ErrTimeout = errors.New("operation timed out")
)

// ConfigError is returned by [Run] and [Do] before the first attempt when
// the retry options are invalid. Field names the offending option.
type ConfigError struct {
	Field string
	msg   string
	err   error
}

// Error implements the error interface.
func (ce *ConfigError) Error() string {
	return ce.msg
}

// Is makes a *ConfigError match [ErrInvalidConfig].
func (ce *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Unwrap returns the underlying cause, if any, such as
// [backoff.ErrInvalidStrategy].
func (ce *ConfigError) Unwrap() error {
	return ce.err
}

func errConfig(field, msg string) *ConfigError {
	return &ConfigError{Field: field, msg: msg}
}

// TimeoutError is the failure of a single attempt that ran longer than the
// configured [Timeout]. It is retried like any other error unless the retry
// predicate says otherwise.
type TimeoutError struct {
	Attempt int
	Timeout time.Duration
}

// Error implements the error interface.
func (te *TimeoutError) Error() string {
	return fmt.Sprintf("%s: attempt %d exceeded %v", ErrTimeout, te.Attempt, te.Timeout)
}

// Unwrap allows errors.Is(err, ErrTimeout).
func (te *TimeoutError) Unwrap() error {
	return ErrTimeout
}

type haltErr struct {
	err error
}

func (he *haltErr) Error() string {
	return he.err.Error()
}

func (he *haltErr) Unwrap() error {
	return he.err
}

// Halted returns true if the error was marked with [Halt].
func Halted(e error) bool {
	var he *haltErr
	return errors.As(e, &he)
}

// Halt allows you to stop the loop from within the operation itself, as an
// alternative to [RetryIf]. Simply:
//
//	return again.Halt(err)
//
// The attempt is treated as exhausting: [OnExhausted] hooks run and the
// halted error is returned.
func Halt(e error) error {
	if e == nil {
		return nil
	}
	return &haltErr{e}
}
