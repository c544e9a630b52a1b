// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tomtom215/fitline/internal/api"
	"github.com/tomtom215/fitline/internal/catalog"
	"github.com/tomtom215/fitline/internal/config"
	"github.com/tomtom215/fitline/internal/history"
	"github.com/tomtom215/fitline/internal/recommend"
	"github.com/tomtom215/fitline/internal/recommend/strategies"
	"github.com/tomtom215/fitline/internal/visual"
)

// catalogCacheSize bounds the resolved-item cache.
const catalogCacheSize = 10000

// closer collects cleanup functions and runs them in reverse order.
type closer struct {
	fns []func() error
}

func (c *closer) add(fn func() error) {
	c.fns = append(c.fns, fn)
}

func (c *closer) closeAll(logger zerolog.Logger) {
	for i := len(c.fns) - 1; i >= 0; i-- {
		if err := c.fns[i](); err != nil {
			logger.Error().Err(err).Msg("Error during shutdown cleanup")
		}
	}
}

//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func openHistory(cfg *config.Config, cl *closer, logger zerolog.Logger) (history.Store, error) {
	switch cfg.History.Backend {
	case "memory":
		store := history.NewMemoryStore()
		cl.add(store.Close)
		logger.Warn().Msg("Using in-memory interaction history; data is lost on restart")
		return store, nil
	case "badger", "":
		store, err := history.OpenBadger(cfg.History.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		cl.add(store.Close)
		logger.Info().Str("path", cfg.History.Path).Msg("Interaction history opened")
		return store, nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.History.Backend)
	}
}

func openTrending(cfg *config.Config, store history.Store, cl *closer) (history.TrendingCounter, []api.ReadinessCheck, error) {
	switch cfg.Trending.Backend {
	case "history", "":
		return history.NewHistoryTrending(store), nil, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Trending.RedisAddr,
			Password: cfg.Trending.RedisPassword,
			DB:       cfg.Trending.RedisDB,
		})
		cl.add(client.Close)
		check := api.ReadinessCheck{
			Name: "redis",
			Check: func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			},
		}
		return history.NewRedisTrending(client, cfg.Trending.KeyPrefix, cfg.Trending.BucketTTL), []api.ReadinessCheck{check}, nil
	default:
		return nil, nil, fmt.Errorf("unknown trending backend %q", cfg.Trending.Backend)
	}
}

//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func openCatalog(ctx context.Context, cfg *config.Config, cl *closer, logger zerolog.Logger) (catalog.Catalog, []api.ReadinessCheck, error) {
	var (
		cat    catalog.Catalog
		checks []api.ReadinessCheck
	)
	switch cfg.Catalog.Backend {
	case "sqlite", "":
		sc, err := catalog.OpenSQLite(ctx, cfg.Catalog.DSN, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open catalog: %w", err)
		}
		cl.add(sc.Close)
		cat = sc
		checks = append(checks, api.ReadinessCheck{Name: "catalog", Check: sc.Ping})
	case "http":
		hc, err := catalog.NewHTTPCatalog(catalog.HTTPConfig{
			BaseURL:            cfg.Catalog.BaseURL,
			Timeout:            cfg.Catalog.Timeout,
			BreakerMaxFailures: cfg.Catalog.BreakerMaxFailures,
			BreakerTimeout:     cfg.Catalog.BreakerTimeout,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open catalog: %w", err)
		}
		cat = hc
	default:
		return nil, nil, fmt.Errorf("unknown catalog backend %q", cfg.Catalog.Backend)
	}

	if cfg.Catalog.CacheTTL > 0 {
		cat = catalog.NewCachedCatalog(cat, catalogCacheSize, cfg.Catalog.CacheTTL)
	}
	return cat, checks, nil
}

//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func buildVisual(cfg *config.Config, logger zerolog.Logger) (*visual.Service, error) {
	var ex visual.Extractor
	switch cfg.Visual.Extractor {
	case "pixel", "":
		ex = visual.NewPixelExtractor(cfg.Visual.InputSize)
	case "remote":
		ex = visual.NewRemoteExtractor(visual.RemoteConfig{
			URL:       cfg.Visual.ExtractorURL,
			Dimension: cfg.Visual.Dimension,
			Timeout:   cfg.Visual.ExtractorTimeout,
			RPS:       cfg.Visual.ExtractorRPS,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown feature extractor %q", cfg.Visual.Extractor)
	}

	src := visual.RefSource{
		Local:  visual.FileImageSource{Root: cfg.Visual.ImageRoot},
		Remote: visual.NewHTTPImageSource(cfg.Visual.ExtractorTimeout),
	}
	return visual.NewService(ex, visual.NewIndex(ex.Dimension()), src, visual.ServiceConfig{
		BatchSize: cfg.Visual.BatchSize,
		Workers:   cfg.Visual.Workers,
	}, logger)
}

// buildStrategies returns the strategies for the configured weight table.
// vs is nil when visual similarity is disabled.
func buildStrategies(cfg *config.Config, store history.Store, cat catalog.Catalog, trending history.TrendingCounter, vs *visual.Service) []recommend.Strategy {
	rc := cfg.Recommend
	out := []recommend.Strategy{
		strategies.NewContent(store, cat, rc.ContentLookback, rc.ContentMaxRecords),
		strategies.NewFavorites(store, cat),
		strategies.NewWardrobe(store, cat, rc.WardrobeGapScore),
		strategies.NewCollaborative(store, collaborativeConfig(rc)),
		strategies.NewTrending(trending, rc.TrendingWindow),
	}
	if vs != nil {
		out = append(out, strategies.NewVisual(store, vs, strategies.VisualConfig{
			Recent:      rc.VisualRecent,
			Neighbors:   rc.VisualNeighbors,
			Lookback:    rc.VisualLookback,
			Aggregation: strategies.Aggregation(rc.VisualAggregation),
		}))
	}
	return out
}

func collaborativeConfig(rc config.RecommendConfig) strategies.CollaborativeConfig {
	cc := strategies.DefaultCollaborativeConfig()
	if rc.SimilarityThreshold > 0 {
		cc.Threshold = rc.SimilarityThreshold
	}
	if rc.MaxSimilarUsers > 0 {
		cc.MaxNeighbors = rc.MaxSimilarUsers
	}
	if rc.CandidateUsers > 0 {
		cc.CandidateUsers = rc.CandidateUsers
	}
	if rc.HistoryPerUser > 0 {
		cc.RecordsPerUser = rc.HistoryPerUser
	}
	if rc.NeighborLookback > 0 {
		cc.NeighborLookback = rc.NeighborLookback
	}
	if rc.NeighborRecords > 0 {
		cc.NeighborRecords = rc.NeighborRecords
	}
	cc.FavoriteBase = rc.NeighborFavoriteBase
	cc.InteractionBase = rc.NeighborInteractionBase
	return cc
}

// engineConfig converts the recommend section of the application config.
func engineConfig(cfg *config.Config) recommend.Config {
	rc := cfg.Recommend
	return recommend.Config{
		VisualEnabled:   cfg.Visual.Enabled,
		Weights:         weightsFrom(rc.Weights, true),
		WeightsNoVisual: weightsFrom(rc.WeightsNoVisual, false),
		DefaultLimit:    rc.DefaultLimit,
		MaxLimit:        rc.MaxLimit,
		StrategyTimeout: rc.StrategyTimeout,
	}
}

func weightsFrom(w config.WeightsConfig, withVisual bool) recommend.Weights {
	out := recommend.Weights{
		recommend.StrategyContent:       w.Content,
		recommend.StrategyFavorites:     w.Favorites,
		recommend.StrategyWardrobe:      w.Wardrobe,
		recommend.StrategyCollaborative: w.Collaborative,
		recommend.StrategyTrending:      w.Trending,
	}
	if withVisual {
		out[recommend.StrategyVisual] = w.Visual
	}
	return out
}
