// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/fitline/internal/api"
	"github.com/tomtom215/fitline/internal/config"
	"github.com/tomtom215/fitline/internal/logging"
	"github.com/tomtom215/fitline/internal/recommend"
	"github.com/tomtom215/fitline/internal/supervisor"
	"github.com/tomtom215/fitline/internal/supervisor/services"
	"github.com/tomtom215/fitline/internal/visual"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()

	logging.Info().
		Str("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)).
		Bool("visual_enabled", cfg.Visual.Enabled).
		Str("history_backend", cfg.History.Backend).
		Str("catalog_backend", cfg.Catalog.Backend).
		Str("trending_backend", cfg.Trending.Backend).
		Msg("Starting Fitline")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cl := &closer{}
	defer cl.closeAll(logger)

	// === STORAGE ===

	store, err := openHistory(cfg, cl, logging.WithComponent("history"))
	if err != nil {
		return err
	}

	trending, checks, err := openTrending(cfg, store, cl)
	if err != nil {
		return err
	}

	cat, catChecks, err := openCatalog(ctx, cfg, cl, logging.WithComponent("catalog"))
	if err != nil {
		return err
	}
	checks = append(checks, catChecks...)

	// === VISUAL ===

	var vs *visual.Service
	if cfg.Visual.Enabled {
		vs, err = buildVisual(cfg, logging.WithComponent("visual"))
		if err != nil {
			return fmt.Errorf("build visual service: %w", err)
		}
		logging.Info().
			Str("extractor", cfg.Visual.Extractor).
			Str("index_dir", cfg.Visual.IndexDir).
			Msg("Visual similarity enabled")
	} else {
		logging.Info().Msg("Visual similarity disabled (VISUAL_ENABLED=false)")
	}

	// === ENGINE ===

	engine, err := recommend.NewEngine(engineConfig(cfg), recommend.Deps{
		History:    store,
		Catalog:    cat,
		Trending:   trending,
		Strategies: buildStrategies(cfg, store, cat, trending, vs),
	}, logging.WithComponent("recommend"))
	if err != nil {
		return fmt.Errorf("create recommendation engine: %w", err)
	}

	// === HTTP ===

	handlerCfg := api.HandlerConfig{
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	}
	var handler *api.Handler
	if vs != nil {
		handler = api.NewHandler(engine, vs, cat, handlerCfg, checks...)
	} else {
		handler = api.NewHandler(engine, nil, cat, handlerCfg, checks...)
	}

	mwCfg := api.DefaultMiddlewareConfig()
	mwCfg.CORSAllowedOrigins = cfg.Server.CORSOrigins
	mwCfg.RateLimitRequests = cfg.Server.RateLimitReqs
	mwCfg.RateLimitWindow = cfg.Server.RateLimitWindow
	mwCfg.RateLimitDisabled = cfg.Server.RateLimitDisabled

	router := api.NewRouter(handler, api.NewMiddleware(mwCfg))
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	// === SUPERVISOR TREE ===

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	if vs != nil {
		tree.AddIndexService(services.NewIndexService(vs, cat, services.IndexServiceConfig{
			Dir:              cfg.Visual.IndexDir,
			LoadOnStart:      cfg.Visual.LoadOnStart,
			BuildOnStart:     cfg.Visual.BuildOnStart,
			SnapshotInterval: cfg.Visual.SnapshotInterval,
		}, logging.WithComponent("visual-index")))
	}

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, stopping services")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("supervisor tree stopped: %w", err)
		}
		return nil
	}

	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		logging.Warn().Err(err).Msg("Supervisor tree stopped with error")
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}

	logging.Info().Msg("Fitline stopped")
	return nil
}
