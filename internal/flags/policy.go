package flags

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"andy.dev/again"
	"andy.dev/again/backoff"
)

// Policy binds the retry policy flags. Only flags that were set on the
// command line become options, so unset flags keep the library defaults or
// the values of the selected preset.
type Policy struct {
	Preset     string
	Attempts   int
	Delay      time.Duration
	MaxDelay   time.Duration
	Backoff    string
	Factor     float64
	Jitter     string
	Timeout    time.Duration
	RetryCodes []int

	flagSet *pflag.FlagSet
}

func NewPolicy() *Policy {
	return &Policy{}
}

func (f *Policy) NewFlagSet() *pflag.FlagSet {
	flagSet := &pflag.FlagSet{}

	flagSet.StringVar(&f.Preset, "preset",
		"",
		"Start from a named policy: persistent, aggressive or network.\n"+
			"Other policy flags override the preset.")
	flagSet.IntVarP(&f.Attempts, "attempts", "n",
		again.DefaultMaxAttempts,
		"Total number of attempts, including the first one. Use -1 to retry until interrupted.")
	flagSet.DurationVarP(&f.Delay, "delay", "d",
		again.DefaultBaseDelay,
		"Base delay between attempts, scaled by --backoff.")
	flagSet.DurationVar(&f.MaxDelay, "max-delay",
		again.DefaultMaxDelay,
		"Upper bound for the scaled delay, applied before jitter.")
	flagSet.StringVar(&f.Backoff, "backoff",
		"constant",
		"How the delay grows with each attempt: constant, linear or exponential.")
	flagSet.Float64Var(&f.Factor, "factor",
		0,
		"Scaling factor for linear or exponential backoff. 0 uses the strategy default.")
	flagSet.StringVar(&f.Jitter, "jitter",
		"true",
		"Fraction of the delay added on top of it: true for random, false for none,\n"+
			"or a fixed value between 0 and 1.")
	flagSet.DurationVarP(&f.Timeout, "timeout", "t",
		0,
		"Kill an attempt that runs longer than this. 0 disables the timeout.")
	flagSet.IntSliceVar(&f.RetryCodes, "retry-codes",
		nil,
		"Exit codes that trigger a retry. By default any non-zero exit code does.")

	f.flagSet = flagSet

	return flagSet
}

// Options converts the parsed flags into retry options.
func (f *Policy) Options() ([]again.Option, error) {
	var opts []again.Option

	changed := func(name string) bool {
		return f.flagSet != nil && f.flagSet.Changed(name)
	}

	if f.Preset != "" {
		preset, err := parsePreset(f.Preset)
		if err != nil {
			return nil, err
		}

		opts = append(opts, again.WithPolicy(preset))
	}

	if changed("attempts") {
		attempts := f.Attempts
		if attempts == -1 {
			attempts = again.Infinite
		}

		opts = append(opts, again.MaxAttempts(attempts))
	}

	if changed("delay") {
		opts = append(opts, again.BaseDelay(f.Delay))
	}

	if changed("max-delay") {
		opts = append(opts, again.MaxDelay(f.MaxDelay))
	}

	if changed("backoff") || changed("factor") {
		strategy, err := parseBackoff(f.Backoff, f.Factor)
		if err != nil {
			return nil, err
		}

		opts = append(opts, again.Backoff(strategy))
	}

	if changed("jitter") {
		jitter, err := parseJitter(f.Jitter)
		if err != nil {
			return nil, err
		}

		opts = append(opts, again.Jitter(jitter))
	}

	if changed("timeout") {
		opts = append(opts, again.Timeout(f.Timeout))
	}

	return opts, nil
}

func parsePreset(name string) (again.Policy, error) {
	switch strings.ToLower(name) {
	case "persistent":
		return again.Persistent(), nil
	case "aggressive":
		return again.Aggressive(), nil
	case "network":
		return again.Network(), nil
	default:
		return again.Policy{}, fmt.Errorf("unknown preset %q", name)
	}
}

func parseBackoff(name string, factor float64) (backoff.Strategy, error) {
	switch strings.ToLower(name) {
	case "constant":
		return backoff.Constant(), nil
	case "linear":
		return backoff.LinearFactor(factor), nil
	case "exponential":
		return backoff.ExponentialFactor(factor), nil
	default:
		return backoff.Strategy{}, fmt.Errorf("unknown backoff %q", name)
	}
}

func parseJitter(value string) (backoff.Jitter, error) {
	if fraction, err := strconv.ParseFloat(value, 64); err == nil {
		return backoff.Fraction(fraction), nil
	}

	enabled, err := strconv.ParseBool(value)
	if err != nil {
		return backoff.Jitter{}, fmt.Errorf("invalid jitter %q: want true, false or a number", value)
	}

	return backoff.Bool(enabled), nil
}
