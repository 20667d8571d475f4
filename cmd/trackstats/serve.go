package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gyaneshwarpardhi/trackstats/internal/api"
	"github.com/gyaneshwarpardhi/trackstats/internal/config"
	"github.com/gyaneshwarpardhi/trackstats/internal/engine"
)

func runServe(cmd *cobra.Command, args []string) error {
	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := loadConfig()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		return err
	}
	cfg := loader.Config()
	slog.Info("config loaded", "path", cfgPath, "reports", len(cfg.Reports))

	// ── Engine ────────────────────────────────────────────────────────────────
	eng := engine.New(cfg)

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.Config) {
		if err := config.Validate(newCfg); err != nil {
			slog.Warn("hot-reload skipped: config invalid", "err", err)
			return
		}
		eng.SwapConfig(newCfg)
		slog.Info("config hot-reloaded", "reports", len(newCfg.Reports))
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.New(eng, loader),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Minute, // report runs fetch hundreds of histories
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down…")
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutCancel()
		return srv.Shutdown(shutCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "err", err)
		return err
	}
	slog.Info("goodbye")
	return nil
}
