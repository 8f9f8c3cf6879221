package again

import (
	"context"
	"fmt"
)

type retryCtxKeyT string

const (
	retryCtxKey retryCtxKeyT = "again"
)

// GetStatus can be used to retrieve information about the current retry loop
// from within the operation being retried.
// It will return Status{} if not called in a retry context, so check
// [Status.Retrying] if your function might be run outside of a retry loop.
func GetStatus(ctx context.Context) Status {
	status, ok := ctx.Value(retryCtxKey).(Status)
	if !ok {
		return Status{}
	}
	return status
}

// Status represents the state of the current retry loop. [GetStatus]
type Status struct {
	// Attempt is the number of the running attempt, starting from 1.
	Attempt int
	// MaxAttempts is [Infinite] for unbounded loops.
	MaxAttempts int
	// LastErr is the error of the previous attempt, nil on the first one.
	LastErr error
}

// Retrying reports whether s came from a retry loop.
func (s Status) Retrying() bool {
	return s.Attempt > 0
}

// Final reports whether the running attempt is the last one allowed.
func (s Status) Final() bool {
	return s.Attempt >= s.MaxAttempts
}

// String implements fmt.Stringer
func (s Status) String() string {
	if s.MaxAttempts <= 0 || s.MaxAttempts == Infinite {
		return fmt.Sprintf("attempt %d", s.Attempt)
	}
	return fmt.Sprintf("attempt %d/%d", s.Attempt, s.MaxAttempts)
}

// Format implements fmt.Formatter it supports the %s, %v and %q print verbs.
// Output is flag-dependent:
//
//	%s -  "attempt #"
//	%+s - "attempt # (last error: <err>)"
//
// Where '#' is the attempt number as an integer starting from '1' optionally
// followed by `/#` and the maximum number of attempts unless it is
// [Infinite]. The last error is only printed after the first attempt.
func (s Status) Format(state fmt.State, verb rune) {
	switch verb {
	case 's', 'q', 'v':
		str := s.String()
		if state.Flag('+') && s.LastErr != nil {
			str = fmt.Sprintf("%s (last error: %v)", str, s.LastErr)
		}
		if verb == 'q' {
			str = fmt.Sprintf("%q", str)
		}
		fmt.Fprint(state, str)
	}
}
