package again_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"andy.dev/again"
	"andy.dev/again/backoff"
)

var ErrIDontLike = errors.New("can't recover from this one")

var testTries = 0

func maybeAFatalError() error {
	testTries++
	if testTries == 3 {
		return ErrIDontLike
	}
	return fmt.Errorf("temporary failure")
}

// quick keeps the examples fast and their timing deterministic.
var quick = again.WithPolicy(again.Policy{
	BaseDelay: time.Millisecond,
	Jitter:    backoff.NoJitter(),
})

func ExampleStopOn() {
	fnToRetry := func(ctx context.Context) error {
		if err := maybeAFatalError(); err != nil {
			fmt.Printf("there was a problem: %v\n", err)
			return err
		}
		return nil
	}

	err := again.Do(context.Background(), fnToRetry, quick, again.MaxAttempts(10), again.StopOn(ErrIDontLike))
	if err != nil {
		fmt.Printf("output: %v\n", err)
	}
	// Output:
	// there was a problem: temporary failure
	// there was a problem: temporary failure
	// there was a problem: can't recover from this one
	// output: can't recover from this one
}

func someFunction() error {
	return fmt.Errorf("some error")
}

func ExampleOnExhausted() {
	fnToRetry := func(ctx context.Context) error {
		if err := someFunction(); err != nil {
			fmt.Printf("there was a problem: %v\n", err)
			return err
		}
		return nil
	}

	err := again.Do(context.Background(), fnToRetry, quick, again.MaxAttempts(2),
		again.OnExhausted(func(err error) error {
			fmt.Println("looks like that was it")
			return fmt.Errorf("giving up: %w", err)
		}))
	if err != nil {
		fmt.Println(err)
	}
	// Output:
	// there was a problem: some error
	// there was a problem: some error
	// looks like that was it
	// giving up: some error
}

func ExampleOnRetry() {
	fnToRetry := func(ctx context.Context) error {
		return someFunction()
	}

	onRetry := func(err error, attempt int) error {
		fmt.Printf("got error while retrying: %v (attempt %d)\n", err, attempt)
		return nil
	}

	err := again.Do(context.Background(), fnToRetry, quick, again.MaxAttempts(3), again.OnRetry(onRetry))
	if err != nil {
		fmt.Println(err)
	}
	// Output:
	// got error while retrying: some error (attempt 1)
	// got error while retrying: some error (attempt 2)
	// some error
}

func ExampleDo_withCancelledContextCause() {
	ctx, cf := context.WithCancelCause(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cf(errors.New("I've changed my mind"))
	}()

	fnToRetry := func(ctx context.Context) error {
		return errors.New("I'll fail forever")
	}

	err := again.Do(ctx, fnToRetry, quick, again.MaxAttempts(again.Infinite))
	if err != nil {
		fmt.Println(err)
	}
	// Output:
	// I've changed my mind
}

func ExampleRun() {
	fnToRetry := func(ctx context.Context) (string, error) {
		status := again.GetStatus(ctx)
		try := status.Attempt
		val := fmt.Sprintf("value from try %d", try)
		if try < 3 {
			return "", errors.New("not yet")
		}
		return val, nil
	}

	str, err := again.Run(context.Background(), fnToRetry, quick, again.MaxAttempts(3))
	if err != nil {
		fmt.Println(err)
	}
	fmt.Printf("Got: %s", str)
	// Output:
	// Got: value from try 3
}

func ExampleGetStatus() {
	fnToRetry := func(ctx context.Context) error {
		fmt.Printf("%+s\n", again.GetStatus(ctx))
		return errors.New("not yet")
	}

	_ = again.Do(context.Background(), fnToRetry, quick, again.MaxAttempts(3))
	// Output:
	// attempt 1/3
	// attempt 2/3 (last error: not yet)
	// attempt 3/3 (last error: not yet)
}

var fetchHttpCount = 0

func fetchHttp(_ context.Context) ([]byte, error) {
	fetchHttpCount++
	if fetchHttpCount < 2 {
		return nil, fmt.Errorf("HTTP error fetching %s", "http://my.site.com")
	}
	return []byte(`{"status":"success"}`), nil
}

func ExampleNetwork() {
	val, err := again.Run(context.Background(), fetchHttp,
		again.WithPolicy(again.Network()), again.BaseDelay(time.Millisecond))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("%s", val)
	// Output:
	// {"status":"success"}
}

func ExampleTimeout() {
	slow := func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	err := again.Do(context.Background(), slow, quick, again.MaxAttempts(2), again.Timeout(10*time.Millisecond))
	fmt.Println(errors.Is(err, again.ErrTimeout))
	fmt.Println(err)
	// Output:
	// true
	// operation timed out: attempt 2 exceeded 10ms
}

func ExampleBackoff() {
	for attempt := 1; attempt <= 4; attempt++ {
		d, _ := backoff.Delay(attempt, backoff.Config{
			Base:     100 * time.Millisecond,
			Max:      time.Second,
			Strategy: backoff.Exponential(),
			Jitter:   backoff.Fraction(0.5),
		})
		fmt.Println(d)
	}
	// Output:
	// 300ms
	// 600ms
	// 1.2s
	// 1.5s
}
