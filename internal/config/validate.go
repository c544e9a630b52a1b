// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package config

import (
	"fmt"
	"math"

	"github.com/tomtom215/fitline/internal/logging"
)

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("logging: unknown level %q", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging: format must be json or console, got %q", c.Logging.Format)
	}
	if err := c.Recommend.Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	if err := c.Visual.Validate(); err != nil {
		return fmt.Errorf("visual: %w", err)
	}
	if err := c.History.Validate(); err != nil {
		return fmt.Errorf("history: %w", err)
	}
	if err := c.Trending.Validate(); err != nil {
		return fmt.Errorf("trending: %w", err)
	}
	if err := c.Catalog.Validate(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	return nil
}

// Validate checks server settings.
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", s.Port)
	}
	if s.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if s.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}
	if !s.RateLimitDisabled && (s.RateLimitReqs <= 0 || s.RateLimitWindow <= 0) {
		return fmt.Errorf("rate limit requires positive requests and window")
	}
	return nil
}

// Sum returns the total of all weights.
func (w WeightsConfig) Sum() float64 {
	return w.Content + w.Favorites + w.Wardrobe + w.Collaborative + w.Trending + w.Visual
}

func (w WeightsConfig) validate(name string) error {
	for _, v := range []float64{w.Content, w.Favorites, w.Wardrobe, w.Collaborative, w.Trending, w.Visual} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%s: weights must be non-negative", name)
		}
	}
	if w.Sum() <= 0 {
		return fmt.Errorf("%s: at least one weight must be positive", name)
	}
	return nil
}

// Validate checks recommendation tuning values.
func (r *RecommendConfig) Validate() error {
	if err := r.Weights.validate("weights"); err != nil {
		return err
	}
	if err := r.WeightsNoVisual.validate("weights_no_visual"); err != nil {
		return err
	}
	if r.WeightsNoVisual.Visual != 0 {
		return fmt.Errorf("weights_no_visual: visual weight must be 0")
	}
	if r.SimilarityThreshold < 0 || r.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be in [0,1], got %v", r.SimilarityThreshold)
	}
	for name, b := range map[string]float64{
		"neighbor_favorite_base":    r.NeighborFavoriteBase,
		"neighbor_interaction_base": r.NeighborInteractionBase,
	} {
		if b < 0 || b > 1 {
			return fmt.Errorf("%s must be in [0,1], got %v", name, b)
		}
	}
	if r.VisualAggregation != "mean" && r.VisualAggregation != "max" {
		return fmt.Errorf("visual_aggregation must be mean or max, got %q", r.VisualAggregation)
	}
	if r.DefaultLimit <= 0 || r.MaxLimit < r.DefaultLimit {
		return fmt.Errorf("default_limit must be positive and not exceed max_limit")
	}
	if r.StrategyTimeout <= 0 {
		return fmt.Errorf("strategy_timeout must be positive")
	}
	return nil
}

// Validate checks visual settings.
func (v *VisualConfig) Validate() error {
	switch v.Extractor {
	case "pixel":
	case "remote":
		if v.ExtractorURL == "" {
			return fmt.Errorf("extractor_url is required for the remote extractor")
		}
		if v.Dimension <= 0 {
			return fmt.Errorf("dimension must be positive")
		}
	default:
		return fmt.Errorf("extractor must be pixel or remote, got %q", v.Extractor)
	}
	if v.InputSize < 32 {
		return fmt.Errorf("input_size must be at least 32, got %d", v.InputSize)
	}
	if v.BatchSize <= 0 || v.Workers <= 0 {
		return fmt.Errorf("batch_size and workers must be positive")
	}
	if v.SnapshotInterval < 0 {
		return fmt.Errorf("snapshot_interval must not be negative")
	}
	return nil
}

// Validate checks history settings.
func (h *HistoryConfig) Validate() error {
	switch h.Backend {
	case "memory":
	case "badger":
		if h.Path == "" {
			return fmt.Errorf("path is required for the badger backend")
		}
	default:
		return fmt.Errorf("backend must be badger or memory, got %q", h.Backend)
	}
	return nil
}

// Validate checks trending settings.
func (t *TrendingConfig) Validate() error {
	switch t.Backend {
	case "history":
	case "redis":
		if t.RedisAddr == "" {
			return fmt.Errorf("redis_addr is required for the redis backend")
		}
		if t.BucketTTL <= 0 {
			return fmt.Errorf("bucket_ttl must be positive")
		}
	default:
		return fmt.Errorf("backend must be history or redis, got %q", t.Backend)
	}
	return nil
}

// Validate checks catalog settings.
func (c *CatalogConfig) Validate() error {
	switch c.Backend {
	case "sqlite":
		if c.DSN == "" {
			return fmt.Errorf("dsn is required for the sqlite backend")
		}
	case "http":
		if c.BaseURL == "" {
			return fmt.Errorf("base_url is required for the http backend")
		}
	default:
		return fmt.Errorf("backend must be sqlite or http, got %q", c.Backend)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative")
	}
	return nil
}
