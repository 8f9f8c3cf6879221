// Package command runs an external program as a retryable operation.
package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"andy.dev/again"
)

// waitDelay bounds how long Run waits for output pipes after the process
// was killed.
const waitDelay = time.Second

// Command is a program invocation that can be started any number of times.
// Stdin is not forwarded, since it cannot be replayed between attempts.
type Command struct {
	Name   string
	Args   []string
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
}

// New builds a Command from argv. argv must not be empty.
func New(argv []string) (*Command, error) {
	if len(argv) == 0 {
		return nil, errors.New("no command given")
	}

	return &Command{
		Name:   argv[0],
		Args:   argv[1:],
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}, nil
}

// Run starts the program and waits for it to exit. The process is killed
// when ctx is done.
func (c *Command) Run(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Env = c.Env
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	cmd.WaitDelay = waitDelay

	return cmd.Run()
}

func (c *Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// ExitCode maps the result of Run to a process exit status: 0 for nil, the
// program's own status when it exited, and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return exitErr.ExitCode()
	}

	return 1
}

// RetryIf returns the retry predicate for the given exit codes. Timed out
// attempts are always retried, programs that could not be started never
// are. An empty list retries every non-zero exit.
func RetryIf(codes []int) func(error) bool {
	return func(err error) bool {
		if errors.Is(err, again.ErrTimeout) {
			return true
		}

		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return false
		}

		if len(codes) == 0 {
			return true
		}

		return slices.Contains(codes, exitErr.ExitCode())
	}
}

// Environ returns the current environment with the variables of envFile
// layered on top. An empty envFile yields os.Environ unchanged.
func Environ(envFile string) ([]string, error) {
	env := os.Environ()
	if envFile == "" {
		return env, nil
	}

	vars, err := godotenv.Read(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}

	env = slices.DeleteFunc(env, func(kv string) bool {
		key, _, _ := strings.Cut(kv, "=")
		_, ok := vars[key]
		return ok
	})

	for _, key := range slices.Sorted(maps.Keys(vars)) {
		env = append(env, key+"="+vars[key])
	}

	return env, nil
}
