// Package cli provides the command-line interface for SectorsGo
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Run starts the CLI application. The first interrupt cancels the query in
// flight; a second one terminates the process.
func Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()

	if err := Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
	stop()
}
