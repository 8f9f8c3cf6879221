package again

import (
	"context"
	"log/slog"

	"github.com/go-logr/logr"
)

// Log adds hooks that write to logger: every retry is logged at
// slog.LevelWarn and exhaustion at slog.LevelError. The logging hooks run
// ahead of those added with [OnRetry] and [OnExhausted] and never return an
// error, so they do not change the outcome of the loop.
func Log(logger *slog.Logger) Option {
	return func(o *opts) {
		if logger != nil {
			o.loggers = append(o.loggers, logger)
		}
	}
}

// Logr is [Log] for a logr.Logger. Retries are logged as info and exhaustion
// as an error.
func Logr(logger logr.Logger) Option {
	if logger.GetSink() == nil {
		return nil
	}
	return Log(slog.New(logr.ToSlogHandler(logger)))
}

func logHooks(logger *slog.Logger, maxAttempts int) (func(error, int) error, func(error) error) {
	limit := slog.Int("max_attempts", maxAttempts)
	if maxAttempts == Infinite {
		limit = slog.String("max_attempts", "infinite")
	}
	onRetry := func(err error, attempt int) error {
		logger.LogAttrs(context.Background(), slog.LevelWarn, "attempt failed, retrying",
			slog.Int("attempt", attempt),
			limit,
			slog.Any("err", err),
		)
		return nil
	}
	onExhausted := func(err error) error {
		logger.LogAttrs(context.Background(), slog.LevelError, "retries exhausted",
			limit,
			slog.Any("err", err),
		)
		return nil
	}
	return onRetry, onExhausted
}
