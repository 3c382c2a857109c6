package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/BradenHooton/acctlock/internal/app"
	"github.com/BradenHooton/acctlock/internal/config"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Keep stdout for command output
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connect := func(ctx context.Context) (*services, func(), error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		a, err := app.New(ctx, cfg, prometheus.NewRegistry(), logger)
		if err != nil {
			return nil, nil, err
		}
		return &services{
			locks:       a.Locks,
			activity:    a.Activity,
			maintenance: a.Maintenance,
		}, a.Close, nil
	}

	if err := newRootCmd(connect).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
