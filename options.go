package again

import (
	"errors"
	"log/slog"
	"time"

	"andy.dev/again/backoff"
)

// Option represents an optional retry setting.
type Option func(o *opts)

// WithPolicy applies the non-zero settings in a [Policy] to a run, allowing
// you to reuse a set of options for multiple functions. Hooks in the policy
// are added to any hooks already set.
func WithPolicy(p Policy) Option {
	return func(o *opts) {
		if p.MaxAttempts != 0 {
			o.maxAttempts.set(p.MaxAttempts)
		}
		if p.BaseDelay != 0 {
			o.baseDelay.set(p.BaseDelay)
		}
		if p.MaxDelay != 0 {
			o.maxDelay.set(p.MaxDelay)
		}
		if p.Timeout != 0 {
			o.timeout.set(p.Timeout)
		}
		if !p.Backoff.IsZero() {
			o.strategy = p.Backoff
		}
		if !p.Jitter.IsZero() {
			o.jitter = p.Jitter
		}
		if p.RetryIf != nil {
			o.retryIf = p.RetryIf
		}
		OnRetry(p.OnRetry)(o)
		OnExhausted(p.OnExhausted)(o)
		if p.Logger != nil {
			Log(p.Logger)(o)
		}
	}
}

// MaxAttempts is the total number of attempts, counting the first one. It
// must be greater than zero; use [Infinite] to retry until the context is
// done. If unset, it will default to DefaultMaxAttempts (3).
func MaxAttempts(n int) Option {
	return func(o *opts) {
		o.maxAttempts.set(n)
	}
}

// BaseDelay sets the unit delay that the backoff strategy scales. It must be
// greater than zero. If unset, it will default to DefaultBaseDelay (100ms).
func BaseDelay(d time.Duration) Option {
	return func(o *opts) {
		o.baseDelay.set(d)
	}
}

// MaxDelay caps the scaled delay before jitter is added. It must be greater
// than zero. If unset, it will default to DefaultMaxDelay (1s).
func MaxDelay(d time.Duration) Option {
	return func(o *opts) {
		o.maxDelay.set(d)
	}
}

// Backoff selects how the delay grows with each attempt. Defaults to
// [backoff.Constant].
func Backoff(s backoff.Strategy) Option {
	return func(o *opts) {
		o.strategy = s
		o.strategySet = true
	}
}

// Jitter selects the fraction of the delay added on top of it. Defaults to
// [backoff.RandomJitter].
func Jitter(j backoff.Jitter) Option {
	return func(o *opts) {
		o.jitter = j
	}
}

// Timeout bounds a single attempt. An attempt that runs longer fails with a
// [*TimeoutError] and its context is cancelled. Zero, the default, disables
// the timeout.
func Timeout(d time.Duration) Option {
	return func(o *opts) {
		o.timeout.set(d)
	}
}

// RetryIf sets the predicate that decides whether an error may be retried.
// When it returns false the loop is exhausted immediately. Defaults to
// retrying every error.
func RetryIf(retryIf func(error) bool) Option {
	return func(o *opts) {
		o.retryIf = retryIf
	}
}

// StopOn is a shortcut to writing a [RetryIf] of the form
//
//	func(e error) bool {
//	    return !errors.Is(e, Err1) && !errors.Is(e, Err2) /* ... */
//	}
func StopOn(errs ...error) Option {
	return RetryIf(func(e error) bool {
		for i := range errs {
			if errors.Is(e, errs[i]) {
				return false
			}
		}
		return true
	})
}

// OnRetry adds a hook that runs after a failed attempt that will be retried,
// before waiting. attempt is the number of the attempt that failed. Hooks run
// in the order they were added; if one returns an error the loop stops
// immediately and that error is returned.
func OnRetry(fn func(err error, attempt int) error) Option {
	return func(o *opts) {
		if fn != nil {
			o.onRetry = append(o.onRetry, fn)
		}
	}
}

// OnExhausted adds a hook that runs exactly once when the loop gives up,
// before the final error is returned. Hooks run in the order they were
// added; the first hook to return a non-nil error stops the chain, and that
// error is returned to the caller in place of the exhausting one.
func OnExhausted(fn func(err error) error) Option {
	return func(o *opts) {
		if fn != nil {
			o.onExhausted = append(o.onExhausted, fn)
		}
	}
}

type setting[T any] struct {
	v  T
	ok bool
}

func (s *setting[T]) set(v T) {
	s.v, s.ok = v, true
}

func (s setting[T]) or(def T) T {
	if s.ok {
		return s.v
	}
	return def
}

type opts struct {
	maxAttempts setting[int]
	baseDelay   setting[time.Duration]
	maxDelay    setting[time.Duration]
	timeout     setting[time.Duration]
	strategy    backoff.Strategy
	strategySet bool
	jitter      backoff.Jitter
	retryIf     func(error) bool
	onRetry     []func(error, int) error
	onExhausted []func(error) error
	loggers     []*slog.Logger
}

// policy is the validated, read-only form of opts for one run.
type policy struct {
	maxAttempts int
	timeout     time.Duration
	delay       backoff.Config
	retryIf     func(error) bool
	onRetry     []func(error, int) error
	onExhausted []func(error) error
}

func newPolicy(options []Option) (*policy, error) {
	o := &opts{}
	for _, opt := range options {
		if opt != nil {
			opt(o)
		}
	}
	return o.validate()
}

func (o *opts) validate() (*policy, error) {
	p := &policy{
		maxAttempts: o.maxAttempts.or(DefaultMaxAttempts),
		timeout:     o.timeout.or(0),
		delay: backoff.Config{
			Base:     o.baseDelay.or(DefaultBaseDelay),
			Max:      o.maxDelay.or(DefaultMaxDelay),
			Strategy: o.strategy,
			Jitter:   o.jitter,
		},
		retryIf:     o.retryIf,
		onRetry:     o.onRetry,
		onExhausted: o.onExhausted,
	}
	if p.maxAttempts <= 0 {
		return nil, errConfig("maxAttempts", "maxAttempts must be greater than 0")
	}
	if p.delay.Base <= 0 {
		return nil, errConfig("delay", "delay must be greater than 0")
	}
	if p.delay.Max <= 0 {
		return nil, errConfig("maxDelay", "maxDelay must be greater than 0")
	}
	if f, ok := p.delay.Jitter.Numeric(); ok && !(f >= 0 && f <= 1) {
		return nil, errConfig("jitter", "jitter must be between 0 and 1")
	}
	if p.timeout < 0 {
		return nil, errConfig("timeout", "timeout must be 0 for no timeout, or greater than 0")
	}
	if !o.strategySet && p.delay.Strategy.IsZero() {
		p.delay.Strategy = backoff.Constant()
	}
	if err := p.delay.Strategy.Validate(); err != nil {
		ce := errConfig("backoffStrategy", err.Error())
		ce.err = err
		return nil, ce
	}
	if p.delay.Jitter.IsZero() {
		p.delay.Jitter = backoff.RandomJitter()
	}
	if p.retryIf == nil {
		p.retryIf = func(error) bool { return true }
	}
	if len(o.loggers) > 0 {
		p.onRetry = make([]func(error, int) error, 0, len(o.loggers)+len(o.onRetry))
		p.onExhausted = make([]func(error) error, 0, len(o.loggers)+len(o.onExhausted))
		for _, l := range o.loggers {
			onRetry, onExhausted := logHooks(l, p.maxAttempts)
			p.onRetry = append(p.onRetry, onRetry)
			p.onExhausted = append(p.onExhausted, onExhausted)
		}
		p.onRetry = append(p.onRetry, o.onRetry...)
		p.onExhausted = append(p.onExhausted, o.onExhausted...)
	}
	return p, nil
}
