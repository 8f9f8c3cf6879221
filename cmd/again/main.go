package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"andy.dev/again/cmd/again/cmd"
)

var (
	appVersion = cmd.VersionDev
	commitHash = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := cmd.NewCmd(appVersion, commitHash)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "again: %v\n", err)
		os.Exit(cmd.ExitCode(err))
	}
}
