/*
Package again re-runs fallible operations according to a retry policy.

A policy is assembled from functional options (or a reusable [Policy]
applied with [WithPolicy]) merged over sensible defaults, and validated
once per run before the first attempt. Invalid settings are reported as a
[*ConfigError] without running the operation at all.

# Supported Function Types

	|           Function Signature           | Retry Method |
	|----------------------------------------|--------------|
	| func(context.Context) error            | Do           |
	| func(context.Context) (OUT, error)     | Run          |
	| func() error                           | Fn           |
	| func() (OUT, error)                    | FnOut        |

# Retry Workflow

Each attempt invokes the operation. If a [Timeout] is set the attempt races
against it; the loser is cancelled through its context (or, for functions
that take no context, abandoned) and the attempt fails with a
[*TimeoutError]. When an attempt fails:
  - If it was the last allowed attempt, the error was marked with [Halt], or
    the [RetryIf] predicate rejects it, the [OnExhausted] hooks run and the
    error is returned. A hook may replace the returned error.
  - Otherwise the [OnRetry] hooks run, the loop sleeps for the delay computed
    by the [backoff] package, and the next attempt starts.

The loop also stops when the context is done, in which case context.Cause is
returned.

# Delays

Delays come from [andy.dev/again/backoff]: the [Backoff] strategy scales
[BaseDelay] by the attempt number, the result is capped at [MaxDelay], and
[Jitter] then adds a fraction of it on top. Jitter never shortens a delay,
and since it is applied after the cap it may push a delay past [MaxDelay].

# Presets

[Persistent], [Aggressive] and [Network] return ready-made policies:

	err := again.Do(ctx, call, again.WithPolicy(again.Network()))
*/
package again
