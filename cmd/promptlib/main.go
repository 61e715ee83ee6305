// Package main is the entry point for the promptlib server and its admin
// command line. `promptlib serve` runs the API; the settings and admin
// subcommands manage the site configuration from a terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		printError(os.Stderr, "%v", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		return fmt.Errorf("promptlib: %w", err)
	}
	return nil
}
