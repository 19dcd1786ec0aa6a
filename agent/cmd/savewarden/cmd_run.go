package main

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/savewarden/savewarden/agent/internal/config"
	"github.com/savewarden/savewarden/agent/internal/monitor"
	"github.com/savewarden/savewarden/agent/internal/retention"
	"github.com/savewarden/savewarden/agent/internal/stats"
	"github.com/savewarden/savewarden/agent/internal/status"
)

// runDaemon runs the monitor loop, the optional status server and the config
// watcher until SIGINT/SIGTERM. A missing watch directory stops everything
// and is reported as an error.
func runDaemon(cmd *cobra.Command, o *options) error {
	cfg, logger, err := o.setup()
	if err != nil {
		return err
	}
	defer logger.Close()

	slog.Info("savewarden starting",
		"version", version,
		"config", o.configPath,
		"watch_dir", cfg.WatchDir,
		"poll_interval", cfg.PollInterval,
	)

	ctx, cancel := signal.NotifyContext(contextOf(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := retention.New(cfg.WatchDir)
	counters := stats.New()
	opts := monitor.Options{Interval: cfg.PollInterval, Stats: counters}

	var hub *status.Hub
	if cfg.Status.Listen != "" {
		hub = status.NewHub(counters, cfg.Status.BroadcastInterval)
		opts.Observers = append(opts.Observers, hub)
	}
	mon := monitor.New(store, opts)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return mon.Run(gctx)
	})

	if hub != nil {
		g.Go(func() error {
			hub.Run(gctx)
			return nil
		})
		g.Go(func() error {
			return serveStatus(gctx, cfg.Status.Listen, status.NewHandler(store, counters, hub))
		})
	}

	// Hot reload only touches the log level; the level flag, when given, wins.
	levelPinned := o.logLevel != ""
	g.Go(func() error {
		err := config.Watch(gctx, o.configPath, func(updated *config.Config) {
			if !levelPinned {
				logger.SetLevel(updated.Log)
			}
		})
		if err != nil && gctx.Err() == nil {
			slog.Warn("config watcher stopped", "err", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("savewarden stopped", "err", err)
		return err
	}
	slog.Info("savewarden stopped")
	return nil
}

// serveStatus runs the status server. The server is optional: when it
// cannot listen or stops early the error is logged and backups go on.
func serveStatus(ctx context.Context, addr string, h http.Handler) error {
	if err := status.ListenAndServe(ctx, addr, h); err != nil {
		slog.Error("status server unavailable, backups continue", "addr", addr, "err", err)
	}
	return nil
}

// contextOf returns cmd's context, or Background when cobra was run without one.
func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
