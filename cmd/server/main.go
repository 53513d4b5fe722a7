// Package main is the entry point for the CodeMinder API server.
//
// main only reads configuration, builds the logger and the runtime, and
// runs the HTTP server until SIGINT or SIGTERM. All logic lives in internal/.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sakif/codeminder/internal/app"
	"github.com/sakif/codeminder/internal/config"
	"github.com/sakif/codeminder/internal/server"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// Load reads .env when present and validates the result.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Server.LogLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Error("closing runtime", slog.String("error", err.Error()))
		}
	}()

	return server.New(rt, logger).Start(ctx)
}
