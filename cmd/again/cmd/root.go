package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"andy.dev/again"
	"andy.dev/again/internal/command"
	"andy.dev/again/internal/flags"
	"andy.dev/again/internal/logging"
)

const VersionDev = "dev"

// Exit statuses for failures that are not the command's own.
const (
	exitFailure = 1
	exitUsage   = 2
)

// Cmd represents the base command when called without any subcommands
type Cmd struct {
	// Version params.
	appVersion string
	commitHash string

	flagsApp    *flags.App
	flagsPolicy *flags.Policy
}

func NewCmd(appVersion, commitHash string) *cobra.Command {
	c := &Cmd{
		appVersion: appVersion,
		commitHash: commitHash,

		flagsApp:    flags.NewApp(),
		flagsPolicy: flags.NewPolicy(),
	}

	rootCmd := &cobra.Command{
		Use:   "again [flags] [--] command [args...]",
		Short: "Run a command until it succeeds",
		Args:  c.args,
		RunE:  c.run,
	}

	// Disable sorting
	rootCmd.Flags().SortFlags = false
	// Everything after the command name belongs to the command.
	rootCmd.Flags().SetInterspersed(false)
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	appFlagSet := c.flagsApp.NewFlagSet()
	policyFlagSet := c.flagsPolicy.NewFlagSet()

	rootCmd.Flags().AddFlagSet(appFlagSet)
	rootCmd.Flags().AddFlagSet(policyFlagSet)

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})

	// Beautify help and usage.
	helpFunc := func(cmd *cobra.Command) {
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "Run a command, retrying it while it fails.")
		fmt.Fprintln(w, "\nUsage:")
		fmt.Fprintln(w, "  again [flags] [--] command [args...]")

		fmt.Fprintln(w, "\nGeneral Flags:")
		fmt.Fprint(w, appFlagSet.FlagUsages())

		fmt.Fprintln(w, "\nRetry Policy Flags:\n"+
			"Only flags given on the command line override the preset or the defaults.\n"+
			"Attempts that exceed --timeout are killed and retried regardless of --retry-codes.")
		fmt.Fprint(w, policyFlagSet.FlagUsages())
	}

	rootCmd.SetUsageFunc(func(cmd *cobra.Command) error {
		helpFunc(cmd)
		return nil
	})
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, _ []string) {
		helpFunc(cmd)
	})

	return rootCmd
}

func (c *Cmd) args(cmd *cobra.Command, args []string) error {
	if c.flagsApp.Version {
		return nil
	}

	if err := cobra.MinimumNArgs(1)(cmd, args); err != nil {
		return &usageError{err}
	}

	return nil
}

func (c *Cmd) run(cmd *cobra.Command, args []string) error {
	// Show version.
	if c.flagsApp.Version {
		c.printVersion(cmd.OutOrStdout())

		return nil
	}

	policyOpts, err := c.flagsPolicy.Options()
	if err != nil {
		return &usageError{err}
	}

	// Init logger.
	logger, closeLog, err := logging.New(logging.Options{
		Level:   c.flagsApp.LogLevel,
		File:    c.flagsApp.LogFile,
		NoColor: c.flagsApp.NoColor,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		return &usageError{err}
	}

	defer func() {
		if cerr := closeLog(); cerr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "failed to close log file: %v\n", cerr)
		}
	}()

	env, err := command.Environ(c.flagsApp.EnvFile)
	if err != nil {
		return err
	}

	target, err := command.New(args)
	if err != nil {
		return &usageError{err}
	}

	target.Env = env
	target.Stdout = cmd.OutOrStdout()
	target.Stderr = cmd.ErrOrStderr()

	logger = logger.With(
		slog.String("run_id", uuid.NewString()),
		slog.String("command", target.String()),
	)

	opts := append(policyOpts,
		again.RetryIf(command.RetryIf(c.flagsPolicy.RetryCodes)),
		again.Log(logger),
	)

	start := time.Now()

	err = again.Do(cmd.Context(), func(ctx context.Context) error {
		logger.Debug("starting attempt", slog.String("status", again.GetStatus(ctx).String()))

		return target.Run(ctx)
	}, opts...)
	if err != nil {
		return err
	}

	logger.Debug("command succeeded", slog.Duration("elapsed", time.Since(start)))

	return nil
}

func (c *Cmd) printVersion(w io.Writer) {
	version := c.appVersion
	if c.appVersion == VersionDev {
		version += " (" + c.commitHash + ")"
	}

	fmt.Fprintf(w, "version: %s\n", version)
}

// ExitCode maps an error returned by the root command to a process exit
// status. Invalid flags and policies exit with 2, a command that ran exits
// with its own last status.
func ExitCode(err error) int {
	var uerr *usageError

	switch {
	case err == nil:
		return 0
	case errors.As(err, &uerr), errors.Is(err, again.ErrInvalidConfig):
		return exitUsage
	}

	if code := command.ExitCode(err); code != 0 {
		return code
	}

	return exitFailure
}

type usageError struct {
	err error
}

func (e *usageError) Error() string {
	return e.err.Error()
}

func (e *usageError) Unwrap() error {
	return e.err
}
