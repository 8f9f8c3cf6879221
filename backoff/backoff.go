// Package backoff computes the delay that precedes each retry.
//
// A delay is produced in three steps: the [Strategy] scales the base delay
// by the attempt number, the result is clamped to the maximum delay, and
// the [Jitter] adds a fraction of the clamped value on top. Because the clamp
// happens first, a jittered delay may exceed the maximum.
package backoff

import (
	"errors"
	"math"
	"math/rand/v2"
	"strconv"
	"time"
)

const maxintf = float64(math.MaxInt64) - 1

// ErrInvalidStrategy is returned for a [Strategy] that is not one of the
// supported shapes.
var ErrInvalidStrategy = errors.New("Invalid backoff strategy")

// Config holds the inputs of [Delay].
type Config struct {
	Base     time.Duration
	Max      time.Duration
	Strategy Strategy
	Jitter   Jitter
	// Rand returns a value in [0, 1). Defaults to math/rand/v2.Float64.
	Rand func() float64
}

// Delay returns the wait before the retry that follows the given attempt.
// Attempts are counted from 1.
func Delay(attempt int, c Config) (time.Duration, error) {
	d, err := c.Strategy.scale(attempt, c.Base)
	if err != nil {
		return 0, err
	}
	mx := float64(c.Max)
	switch {
	case math.IsNaN(d), d > mx:
		d = mx
	case d < 0:
		d = 0
	}
	if f := c.Jitter.amount(attempt, time.Duration(d), c.Rand); f > 0 {
		d += d * f
	}
	if d > maxintf {
		// backstop against float64->int64 overflow
		return time.Duration(math.MaxInt64), nil
	}
	return time.Duration(d), nil
}

// Kind identifies the shape of a [Strategy].
type Kind uint8

const (
	KindUnset Kind = iota
	KindConstant
	KindLinear
	KindExponential
	KindFunc
)

func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "constant"
	case KindLinear:
		return "linear"
	case KindExponential:
		return "exponential"
	case KindFunc:
		return "func"
	case KindUnset:
		return "unset"
	}
	return "invalid"
}

// Func computes a delay from the attempt number and the base delay.
type Func func(attempt int, base time.Duration) time.Duration

// Strategy scales the base delay by attempt number. The zero value is unset
// and is rejected by [Delay]; callers substitute their own default.
type Strategy struct {
	kind   Kind
	factor float64
	fn     Func
}

// Constant waits the base delay before every retry.
func Constant() Strategy { return Strategy{kind: KindConstant} }

// Linear waits base*attempt.
func Linear() Strategy { return Strategy{kind: KindLinear} }

// LinearFactor waits base*factor*attempt. A zero factor behaves like [Linear].
func LinearFactor(factor float64) Strategy {
	return Strategy{kind: KindLinear, factor: factor}
}

// Exponential waits base*2^attempt.
func Exponential() Strategy { return Strategy{kind: KindExponential} }

// ExponentialFactor waits base*factor^attempt. A zero factor behaves like
// [Exponential].
func ExponentialFactor(factor float64) Strategy {
	return Strategy{kind: KindExponential, factor: factor}
}

// Custom delegates the delay to fn.
func Custom(fn Func) Strategy { return Strategy{kind: KindFunc, fn: fn} }

// Kind reports the shape of s.
func (s Strategy) Kind() Kind { return s.kind }

// Factor returns the explicit scaling factor and whether one was set.
func (s Strategy) Factor() (float64, bool) {
	if s.kind != KindLinear && s.kind != KindExponential {
		return 0, false
	}
	return s.factor, s.factor != 0
}

// IsZero reports whether s was never set.
func (s Strategy) IsZero() bool { return s.kind == KindUnset }

// Validate returns [ErrInvalidStrategy] unless s has a usable shape.
func (s Strategy) Validate() error {
	switch s.kind {
	case KindConstant:
		return nil
	case KindLinear, KindExponential:
		if math.IsNaN(s.factor) || math.IsInf(s.factor, 0) || s.factor < 0 {
			return ErrInvalidStrategy
		}
		return nil
	case KindFunc:
		if s.fn == nil {
			return ErrInvalidStrategy
		}
		return nil
	}
	return ErrInvalidStrategy
}

func (s Strategy) String() string {
	if f, ok := s.Factor(); ok {
		return s.kind.String() + "(" + formatFloat(f) + ")"
	}
	return s.kind.String()
}

// scale returns the unclamped delay in nanoseconds. Large exponents yield
// +Inf, which Delay saturates to the maximum.
func (s Strategy) scale(attempt int, base time.Duration) (float64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	b, a := float64(base), float64(attempt)
	switch s.kind {
	case KindLinear:
		if s.factor != 0 {
			return b * s.factor * a, nil
		}
		return b * a, nil
	case KindExponential:
		f := 2.0
		if s.factor != 0 {
			f = s.factor
		}
		return b * math.Pow(f, a), nil
	case KindFunc:
		return float64(s.fn(attempt, base)), nil
	}
	return b, nil
}

type jitterKind uint8

const (
	jitterUnset jitterKind = iota
	jitterNone
	jitterRandom
	jitterFraction
	jitterFunc
)

// JitterFn returns the fraction of delay to add for the given attempt.
type JitterFn func(attempt int, delay time.Duration) float64

// Jitter adds a fraction of the clamped delay on top of it. The zero value
// is unset; callers substitute their own default.
type Jitter struct {
	kind     jitterKind
	fraction float64
	fn       JitterFn
}

// NoJitter disables jitter.
func NoJitter() Jitter { return Jitter{kind: jitterNone} }

// RandomJitter adds a uniformly random fraction in [0, 1).
func RandomJitter() Jitter { return Jitter{kind: jitterRandom} }

// Fraction adds the constant fraction f. Valid values lie in [0, 1]; zero
// disables jitter.
func Fraction(f float64) Jitter { return Jitter{kind: jitterFraction, fraction: f} }

// JitterFunc delegates the fraction to fn.
func JitterFunc(fn JitterFn) Jitter { return Jitter{kind: jitterFunc, fn: fn} }

// Bool maps true to [RandomJitter] and false to [NoJitter].
func Bool(enabled bool) Jitter {
	if enabled {
		return RandomJitter()
	}
	return NoJitter()
}

// IsZero reports whether j was never set.
func (j Jitter) IsZero() bool { return j.kind == jitterUnset }

// Numeric returns the constant fraction and true for a [Fraction] jitter.
func (j Jitter) Numeric() (float64, bool) {
	return j.fraction, j.kind == jitterFraction
}

// Enabled reports whether j can change a delay.
func (j Jitter) Enabled() bool {
	switch j.kind {
	case jitterRandom:
		return true
	case jitterFraction:
		return j.fraction != 0
	case jitterFunc:
		return j.fn != nil
	}
	return false
}

func (j Jitter) String() string {
	switch j.kind {
	case jitterNone:
		return "none"
	case jitterRandom:
		return "random"
	case jitterFraction:
		return formatFloat(j.fraction)
	case jitterFunc:
		return "func"
	}
	return "unset"
}

func (j Jitter) amount(attempt int, delay time.Duration, rnd func() float64) float64 {
	if !j.Enabled() {
		return 0
	}
	var f float64
	switch j.kind {
	case jitterRandom:
		if rnd == nil {
			rnd = rand.Float64
		}
		f = rnd()
	case jitterFraction:
		f = j.fraction
	case jitterFunc:
		f = j.fn(attempt, delay)
	}
	switch {
	case math.IsNaN(f), f < 0:
		return 0
	case f > maxintf:
		return maxintf
	}
	return f
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
