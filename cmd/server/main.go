package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/go-queue-client/internal/config"
	"github.com/jrsteele09/go-queue-client/internal/logging"
	"github.com/jrsteele09/go-queue-client/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}
	logger := logging.New(os.Stderr, logging.Config{Level: c.GetLogLevel(), Format: c.GetLogFormat()})
	log.Logger = logger

	displayAppname(c.GetAppName())
	handler, err := server.New(c, server.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	if err := seedDevProvider(handler, logger); err != nil {
		return err
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(httpServer, logger) }()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

// seedDevProvider registers the account named by QUEUECORE_DEV_EMAIL and
// QUEUECORE_DEV_PASSWORD when both are set.
func seedDevProvider(s *server.Server, logger zerolog.Logger) error {
	email, password := os.Getenv("QUEUECORE_DEV_EMAIL"), os.Getenv("QUEUECORE_DEV_PASSWORD")
	if email == "" || password == "" {
		return nil
	}
	p, err := s.RegisterProvider(email, password, "Development provider", "")
	if err != nil {
		return fmt.Errorf("seed provider: %w", err)
	}
	logger.Info().Str("email", p.Email).Int("id", p.ID).Msg("seeded development provider")
	return nil
}

func listenAndServe(server *http.Server, logger zerolog.Logger) error {
	logger.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
