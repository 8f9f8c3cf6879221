package again

import (
	"context"
	"math"
	"time"

	"andy.dev/again/backoff"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 100 * time.Millisecond
	DefaultMaxDelay    = 1 * time.Second
)

// Infinite can be passed to [MaxAttempts] to retry until the operation
// succeeds, is halted, or the context is done.
const Infinite = math.MaxInt

// Do is a retrier for functions with the signature of:
//
//	func(context.Context) error
//
// The error returned will be the error of the final attempt, the error
// returned by an [OnExhausted] or [OnRetry] hook, a [*ConfigError], or the
// cause of the context's cancellation. For more information on how functions
// will be retried, see the package documentation.
func Do(
	ctx context.Context,
	op func(context.Context) error,
	options ...Option,
) error {
	_, err := Run(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, options...)
	return err
}

// Run is a retrier for functions with the signature of:
//
//	func(context.Context) (T, error)
//
// Where T is a return value of any type.
//
// The function will be retried following the rules described in the package
// documentation, and will return the value of the first successful run or
// the zero value of T together with the final error.
func Run[T any](
	ctx context.Context,
	op func(context.Context) (T, error),
	options ...Option,
) (T, error) {
	var zero T
	p, err := newPolicy(options)
	if err != nil {
		return zero, err
	}
	t := time.NewTimer(DefaultMaxDelay)
	t.Stop()
	defer t.Stop()
	var lastErr error
	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return zero, context.Cause(ctx)
		}
		status := Status{
			Attempt:     attempt,
			MaxAttempts: p.maxAttempts,
			LastErr:     lastErr,
		}
		val, err := try(context.WithValue(ctx, retryCtxKey, status), p, attempt, op)
		if err == nil {
			return val, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return zero, context.Cause(ctx)
		}
		if attempt >= p.maxAttempts || Halted(err) || !p.retryIf(err) {
			return zero, p.exhausted(err)
		}
		for _, onRetry := range p.onRetry {
			if hookErr := onRetry(err, attempt); hookErr != nil {
				return zero, hookErr
			}
		}
		delay, err := backoff.Delay(attempt, p.delay)
		if err != nil {
			return zero, err
		}
		t.Reset(delay)
		select {
		case <-ctx.Done():
			return zero, context.Cause(ctx)
		case <-t.C:
		}
	}
}

// Fn is a retrier for functions with the signature of:
//
//	func() error
//
// Since fn cannot observe a context, an attempt that exceeds [Timeout] is
// abandoned rather than cancelled: it keeps running in the background and
// its result is discarded.
func Fn(ctx context.Context, fn func() error, options ...Option) error {
	return Do(ctx, func(context.Context) error {
		return fn()
	}, options...)
}

// FnOut is a retrier for functions with the signature of:
//
//	func() (OUT, error)
//
// Timed out attempts are abandoned as described in [Fn].
func FnOut[OUT any](ctx context.Context, fn func() (OUT, error), options ...Option) (OUT, error) {
	return Run(ctx, func(context.Context) (OUT, error) {
		return fn()
	}, options...)
}

type result[T any] struct {
	val T
	err error
}

// try runs a single attempt, racing it against the per-attempt timeout when
// one is set. The result channel is buffered so that an abandoned attempt
// can always deliver its late result and exit.
func try[T any](
	ctx context.Context,
	p *policy,
	attempt int,
	op func(context.Context) (T, error),
) (T, error) {
	if p.timeout <= 0 {
		return op(ctx)
	}
	var zero T
	timeoutErr := &TimeoutError{Attempt: attempt, Timeout: p.timeout}
	actx, cancel := context.WithTimeoutCause(ctx, p.timeout, timeoutErr)
	defer cancel()
	done := make(chan result[T], 1)
	go func() {
		val, err := op(actx)
		done <- result[T]{val, err}
	}()
	select {
	case r := <-done:
		// an operation that gave up because its context expired still
		// counts as a timeout
		if r.err != nil && actx.Err() != nil && ctx.Err() == nil {
			return zero, timeoutErr
		}
		return r.val, r.err
	case <-actx.Done():
		if ctx.Err() != nil {
			return zero, context.Cause(ctx)
		}
		return zero, timeoutErr
	}
}

func (p *policy) exhausted(err error) error {
	for _, onExhausted := range p.onExhausted {
		if hookErr := onExhausted(err); hookErr != nil {
			return hookErr
		}
	}
	return err
}
