package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"servodash/internal/app"
	"servodash/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("config failed", "err", err)
		os.Exit(1)
	}

	// the TUI owns the terminal, so interactive runs log to a file
	var out io.Writer = os.Stdout
	if !cfg.Headless {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("open log file failed", "err", err, "path", cfg.LogFile)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	logger.Info("starting servodash", "server", cfg.ServerURL, "headless", cfg.Headless, "debug_addr", cfg.DebugAddr)

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("init failed", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := a.Run(ctx); err != nil {
		logger.Error("shutdown with error", "err", err)
		os.Exit(1)
	}
}
