// Command queuectl drives a queue API session from the terminal. Tokens are
// kept in a sqlite file so the session survives between invocations.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jrsteele09/go-queue-client/internal/config"
	"github.com/jrsteele09/go-queue-client/internal/logging"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, ".env load warning: %v\n", err)
	}

	c, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, logging.Config{Level: c.GetLogLevel(), Format: c.GetLogFormat()})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(c, os.Stdout, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "queuectl: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "queuectl: %v\n", err)
		stop()
		a.Close()
		os.Exit(exitCode(err))
	}
}
