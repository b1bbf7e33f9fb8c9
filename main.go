// Package main provides the schedtrack CLI entry point.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/openconf/schedtrack/cmd"
)

func main() {
	// Interrupts cancel the context; the parse pipeline polls it
	// between elements and unwinds without touching stored data.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cmd.NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
