// SPDX-License-Identifier: MIT

// Package daemon provides the core daemon bootstrapping and lifecycle management.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/foodscan/internal/config"
	"github.com/ManuGH/foodscan/internal/health"
	"github.com/ManuGH/foodscan/internal/log"
)

// Run builds the runtime from the holder's configuration and serves until
// ctx is cancelled. Configuration reloads are applied to the running services.
func Run(ctx context.Context, holder *config.Holder, opts Options) error {
	cfg := holder.Get()
	logger := log.WithComponent("daemon")

	logger.Info().
		Str("version", cfg.Version).
		Str("config", cfg.String()).
		Msg("Starting foodscan daemon")

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		return fmt.Errorf("startup checks: %w", err)
	}

	rt, err := Build(ctx, cfg, opts)
	if err != nil {
		return err
	}

	mgr, err := NewManager(cfg.Server, Deps{
		Logger:         logger,
		APIHandler:     rt.Handler(),
		MetricsHandler: promhttp.Handler(),
		MetricsAddr:    cfg.Server.MetricsAddr,
	})
	if err != nil {
		_ = rt.Close(context.WithoutCancel(ctx))
		return err
	}
	rt.RegisterShutdownHooks(mgr)
	holder.OnReload(rt.ApplyConfig)

	return NewApp(logger, mgr, holder, rt.Workers()...).Run(ctx)
}

// WaitForShutdown returns a context cancelled on interrupt/termination signals.
func WaitForShutdown() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
