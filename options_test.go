package again

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"andy.dev/again/backoff"
)

func TestDefaults(t *testing.T) {
	t.Parallel()

	p, err := newPolicy(nil)
	require.NoError(t, err)

	assert.Equal(t, 3, p.maxAttempts)
	assert.Equal(t, 100*time.Millisecond, p.delay.Base)
	assert.Equal(t, 1000*time.Millisecond, p.delay.Max)
	assert.Equal(t, backoff.KindConstant, p.delay.Strategy.Kind())
	assert.Equal(t, backoff.RandomJitter(), p.delay.Jitter)
	assert.Equal(t, time.Duration(0), p.timeout)
	assert.True(t, p.retryIf(errors.New("anything")))
	assert.Empty(t, p.onRetry)
	assert.Empty(t, p.onExhausted)
}

func TestCustomOptions(t *testing.T) {
	t.Parallel()

	retryIf := func(error) bool { return false }
	p, err := newPolicy([]Option{
		MaxAttempts(5),
		BaseDelay(200 * time.Millisecond),
		MaxDelay(2 * time.Second),
		Backoff(backoff.Exponential()),
		Jitter(backoff.Fraction(0.5)),
		RetryIf(retryIf),
		OnRetry(func(error, int) error { return nil }),
		OnExhausted(func(error) error { return nil }),
		Timeout(time.Second),
	})
	require.NoError(t, err)

	assert.Equal(t, 5, p.maxAttempts)
	assert.Equal(t, 200*time.Millisecond, p.delay.Base)
	assert.Equal(t, 2*time.Second, p.delay.Max)
	assert.Equal(t, backoff.KindExponential, p.delay.Strategy.Kind())
	assert.Equal(t, backoff.Fraction(0.5), p.delay.Jitter)
	assert.Equal(t, time.Second, p.timeout)
	assert.False(t, p.retryIf(errors.New("anything")))
	assert.Len(t, p.onRetry, 1)
	assert.Len(t, p.onExhausted, 1)
}

func TestValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		options []Option
		field   string
		msg     string
	}{
		{"zero attempts", []Option{MaxAttempts(0)}, "maxAttempts", "maxAttempts must be greater than 0"},
		{"negative attempts", []Option{MaxAttempts(-1)}, "maxAttempts", "maxAttempts must be greater than 0"},
		{"zero delay", []Option{BaseDelay(0)}, "delay", "delay must be greater than 0"},
		{"zero max delay", []Option{MaxDelay(0)}, "maxDelay", "maxDelay must be greater than 0"},
		{"negative jitter", []Option{Jitter(backoff.Fraction(-1))}, "jitter", "jitter must be between 0 and 1"},
		{"large jitter", []Option{Jitter(backoff.Fraction(2))}, "jitter", "jitter must be between 0 and 1"},
		{"nan jitter", []Option{Jitter(backoff.Fraction(math.NaN()))}, "jitter", "jitter must be between 0 and 1"},
		{"negative timeout", []Option{Timeout(-1)}, "timeout", "timeout must be 0 for no timeout, or greater than 0"},
		{"unset backoff", []Option{Backoff(backoff.Strategy{})}, "backoffStrategy", "Invalid backoff strategy"},
		{"nil custom backoff", []Option{Backoff(backoff.Custom(nil))}, "backoffStrategy", "Invalid backoff strategy"},
		{
			"first violation wins",
			[]Option{Timeout(-1), BaseDelay(-1), MaxAttempts(0), Jitter(backoff.Fraction(3))},
			"maxAttempts", "maxAttempts must be greater than 0",
		},
		{
			"delay before jitter",
			[]Option{Jitter(backoff.Fraction(3)), MaxDelay(-1), BaseDelay(-1)},
			"delay", "delay must be greater than 0",
		},
		{
			"negative policy field",
			[]Option{WithPolicy(Policy{MaxDelay: -time.Second})},
			"maxDelay", "maxDelay must be greater than 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := newPolicy(tt.options)
			require.Nil(t, p)
			require.ErrorIs(t, err, ErrInvalidConfig)

			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
			assert.EqualError(t, err, tt.msg)
		})
	}

	t.Run("backoff error wraps strategy error", func(t *testing.T) {
		t.Parallel()

		_, err := newPolicy([]Option{Backoff(backoff.LinearFactor(-2))})
		assert.ErrorIs(t, err, backoff.ErrInvalidStrategy)
	})

	t.Run("func jitter is not range checked", func(t *testing.T) {
		t.Parallel()

		_, err := newPolicy([]Option{Jitter(backoff.JitterFunc(func(int, time.Duration) float64 { return 5 }))})
		assert.NoError(t, err)
	})
}

func TestWithPolicy(t *testing.T) {
	t.Parallel()

	t.Run("zero fields keep earlier settings", func(t *testing.T) {
		t.Parallel()

		p, err := newPolicy([]Option{MaxAttempts(7), WithPolicy(Policy{BaseDelay: time.Second, MaxDelay: time.Minute})})
		require.NoError(t, err)
		assert.Equal(t, 7, p.maxAttempts)
		assert.Equal(t, time.Second, p.delay.Base)
		assert.Equal(t, time.Minute, p.delay.Max)
	})

	t.Run("later options override", func(t *testing.T) {
		t.Parallel()

		p, err := newPolicy([]Option{WithPolicy(Aggressive()), MaxAttempts(2)})
		require.NoError(t, err)
		assert.Equal(t, 2, p.maxAttempts)
		assert.Equal(t, 10*time.Millisecond, p.delay.Base)
		assert.Equal(t, 100*time.Millisecond, p.delay.Max)
	})

	t.Run("hooks accumulate", func(t *testing.T) {
		t.Parallel()

		hook := func(error, int) error { return nil }
		p, err := newPolicy([]Option{OnRetry(hook), WithPolicy(Policy{OnRetry: hook})})
		require.NoError(t, err)
		assert.Len(t, p.onRetry, 2)
	})

	t.Run("same policy builds independent runs", func(t *testing.T) {
		t.Parallel()

		shared := []Option{WithPolicy(Network()), OnRetry(func(error, int) error { return nil })}
		a, err := newPolicy(shared)
		require.NoError(t, err)
		b, err := newPolicy(shared)
		require.NoError(t, err)
		assert.NotSame(t, a, b)
		assert.Len(t, a.onRetry, 1)
		assert.Len(t, b.onRetry, 1)
	})
}

func TestPresets(t *testing.T) {
	t.Parallel()

	p, err := newPolicy([]Option{WithPolicy(Persistent())})
	require.NoError(t, err)
	assert.Equal(t, Infinite, p.maxAttempts)

	p, err = newPolicy([]Option{WithPolicy(Aggressive())})
	require.NoError(t, err)
	assert.Equal(t, 10, p.maxAttempts)

	p, err = newPolicy([]Option{WithPolicy(Network())})
	require.NoError(t, err)
	assert.Equal(t, backoff.KindExponential, p.delay.Strategy.Kind())
	assert.Equal(t, backoff.Fraction(0.5), p.delay.Jitter)
	assert.Equal(t, 5*time.Second, p.timeout)
	assert.Equal(t, DefaultMaxAttempts, p.maxAttempts)
}

func TestStopOnPredicate(t *testing.T) {
	t.Parallel()

	errFatal := errors.New("fatal")
	p, err := newPolicy([]Option{StopOn(errFatal)})
	require.NoError(t, err)
	assert.False(t, p.retryIf(errFatal))
	assert.False(t, p.retryIf(errors.Join(errors.New("wrapped"), errFatal)))
	assert.True(t, p.retryIf(errors.New("transient")))
}
