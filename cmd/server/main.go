package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jurkash/ha-loe-outages/internal/config"
	httpapi "github.com/Jurkash/ha-loe-outages/internal/http"
	"github.com/Jurkash/ha-loe-outages/internal/loeapi"
	"github.com/Jurkash/ha-loe-outages/internal/logging"
	"github.com/Jurkash/ha-loe-outages/internal/optsync"
	"github.com/Jurkash/ha-loe-outages/internal/poller"
	"github.com/Jurkash/ha-loe-outages/internal/schedule"
	"github.com/Jurkash/ha-loe-outages/internal/service"
	"github.com/Jurkash/ha-loe-outages/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	if err := os.MkdirAll(cfg.DBDir(), 0o755); err != nil {
		logger.Error("failed to create db directory", "err", err)
		os.Exit(1)
	}

	journal, err := storage.New(ctx, cfg.DBPath, logger)
	if err != nil {
		logger.Error("failed to initialize storage", "err", err)
		os.Exit(1)
	}
	defer journal.Close()

	optsManager := optsync.NewManager(optsync.NewClient(cfg.AddonOptionsPath), logger)
	if _, err := optsManager.Refresh(ctx); err != nil {
		logger.Warn("initial options refresh failed", "err", err)
	}

	store := schedule.NewStore()
	apiClient := loeapi.NewClient(cfg.APIBaseURL)
	svc := service.New(store, apiClient, journal, optsManager, logger)
	schedulePoller := poller.New(svc, cfg.UpdateInterval, logger)

	go runOptionsFallbackRefresh(ctx, optsManager, schedulePoller, logger)

	if cfg.SupervisorToken != "" {
		watcher := optsync.NewWatcher(cfg.HABaseURL, cfg.SupervisorToken, logger)
		go watcher.Run(ctx, func() {
			refreshCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			changed, err := optsManager.Refresh(refreshCtx)
			if err != nil {
				logger.Warn("options refresh from event failed", "err", err)
				return
			}
			if changed {
				schedulePoller.TriggerRefresh()
			}
		})
	} else {
		logger.Warn("SUPERVISOR_TOKEN is empty; options event watcher disabled")
	}

	go schedulePoller.Run(ctx)
	schedulePoller.TriggerRefresh()

	api := httpapi.New(svc, schedulePoller, journal, logger)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("server starting", "addr", httpServer.Addr, "group", optsManager.Group())
	if err := httpapi.RunServer(ctx, httpServer, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server terminated with error", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func runOptionsFallbackRefresh(ctx context.Context, opts *optsync.Manager, p *poller.Poller, logger *slog.Logger) {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refreshCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			changed, err := opts.Refresh(refreshCtx)
			cancel()
			if err != nil {
				logger.Warn("periodic options refresh failed", "err", err)
				continue
			}
			if changed {
				p.TriggerRefresh()
			}
		}
	}
}
