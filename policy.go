package again

import (
	"log/slog"
	"time"

	"andy.dev/again/backoff"
)

// Policy allows you to predefine all of the options for a retry run ahead of
// time and set them using [WithPolicy]. Zero fields are left unset, so the
// defaults (or options applied earlier) stay in effect.
type Policy struct {
	// Total number of attempts, including the first.
	// Default: 3
	MaxAttempts int
	// Unit delay before backoff scaling.
	// Default: 100ms
	BaseDelay time.Duration
	// Upper bound applied after backoff, before jitter.
	// Default: 1s
	MaxDelay time.Duration
	// Default: backoff.Constant()
	Backoff backoff.Strategy
	// Default: backoff.RandomJitter()
	Jitter backoff.Jitter
	// Per-attempt timeout; zero means none.
	Timeout time.Duration
	// RetryIf decides whether an error may be retried -- see [RetryIf]
	RetryIf func(error) bool
	// OnRetry runs before each wait -- see [OnRetry]
	OnRetry func(err error, attempt int) error
	// OnExhausted runs once when the loop gives up -- see [OnExhausted]
	OnExhausted func(err error) error
	// Logger receives retry and exhaustion records -- see [Log]
	Logger *slog.Logger
}

// Persistent retries until the operation succeeds or the context is done.
func Persistent() Policy {
	return Policy{MaxAttempts: Infinite}
}

// Aggressive retries many times with short delays.
func Aggressive() Policy {
	return Policy{
		MaxAttempts: 10,
		BaseDelay:   10 * time.Millisecond,
		MaxDelay:    100 * time.Millisecond,
	}
}

// Network suits remote calls: exponential backoff, half-delay jitter and a
// five second budget per attempt.
func Network() Policy {
	return Policy{
		BaseDelay: 100 * time.Millisecond,
		MaxDelay:  time.Second,
		Backoff:   backoff.Exponential(),
		Jitter:    backoff.Fraction(0.5),
		Timeout:   5 * time.Second,
	}
}
