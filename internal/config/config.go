// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Recommend RecommendConfig `koanf:"recommend"`
	Visual    VisualConfig    `koanf:"visual"`
	History   HistoryConfig   `koanf:"history"`
	Trending  TrendingConfig  `koanf:"trending"`
	Catalog   CatalogConfig   `koanf:"catalog"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_HOST, HTTP_PORT
//   - HTTP_REQUEST_TIMEOUT: per-request deadline for recommendation calls
//   - CORS_ORIGINS: comma-separated allowed origins
//   - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// Default: 15s
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// Default: 30s
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// RequestTimeout bounds a single recommendation or visual search call.
	// Default: 10s
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// ShutdownTimeout is how long in-flight requests get on shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// MaxUploadBytes caps image uploads.
	// Default: 10 MiB
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is json or console.
	// Default: json
	Format string `koanf:"format"`

	// Default: false
	Caller bool `koanf:"caller"`
}

// WeightsConfig is one strategy weight table.
type WeightsConfig struct {
	Content       float64 `koanf:"content"`
	Favorites     float64 `koanf:"favorites"`
	Wardrobe      float64 `koanf:"wardrobe"`
	Collaborative float64 `koanf:"collaborative"`
	Trending      float64 `koanf:"trending"`
	Visual        float64 `koanf:"visual"`
}

// RecommendConfig holds recommendation engine tuning. The defaults
// reproduce the production weight tables and thresholds; change them only
// after an offline evaluation.
type RecommendConfig struct {
	// Weights is used when visual similarity is enabled.
	// Default: content 0.25, favorites 0.20, wardrobe 0.15,
	// collaborative 0.15, trending 0.10, visual 0.15
	Weights WeightsConfig `koanf:"weights"`

	// WeightsNoVisual is used when visual similarity is disabled.
	// Default: content 0.30, favorites 0.25, wardrobe 0.20,
	// collaborative 0.15, trending 0.10
	WeightsNoVisual WeightsConfig `koanf:"weights_no_visual"`

	// SimilarityThreshold is the minimum cosine similarity for a user to
	// count as a collaborative neighbor. Default: 0.3
	SimilarityThreshold float64 `koanf:"similarity_threshold"`

	// Default: 10
	MaxSimilarUsers int `koanf:"max_similar_users"`

	// CandidateUsers bounds the users scanned when looking for neighbors.
	// Default: 50
	CandidateUsers int `koanf:"candidate_users"`

	// HistoryPerUser bounds the interactions read per user to build a
	// taste vector. Default: 50
	HistoryPerUser int `koanf:"history_per_user"`

	// NeighborLookback and NeighborRecords bound each neighbor's
	// interactions that become recommendations. Default: 1440h (60 days), 15
	NeighborLookback time.Duration `koanf:"neighbor_lookback"`
	NeighborRecords  int           `koanf:"neighbor_records"`

	// Base scores for a neighbor's item, scaled by similarity.
	// Default: 0.8 when the neighbor favorited it, 0.5 otherwise
	NeighborFavoriteBase    float64 `koanf:"neighbor_favorite_base"`
	NeighborInteractionBase float64 `koanf:"neighbor_interaction_base"`

	// Default: 720h (30 days)
	ContentLookback time.Duration `koanf:"content_lookback"`

	// Default: 20
	ContentMaxRecords int `koanf:"content_max_records"`

	// Default: 168h (7 days)
	TrendingWindow time.Duration `koanf:"trending_window"`

	// Default: 0.7
	WardrobeGapScore float64 `koanf:"wardrobe_gap_score"`

	// Default: 5
	VisualRecent int `koanf:"visual_recent"`

	// Default: 5
	VisualNeighbors int `koanf:"visual_neighbors"`

	// Default: 336h (14 days)
	VisualLookback time.Duration `koanf:"visual_lookback"`

	// VisualAggregation combines a recurring item's scores: mean or max.
	// Default: mean
	VisualAggregation string `koanf:"visual_aggregation"`

	// Default: 20
	DefaultLimit int `koanf:"default_limit"`

	// Default: 100
	MaxLimit int `koanf:"max_limit"`

	// StrategyTimeout bounds each strategy; a strategy that overruns
	// contributes nothing. Default: 2s
	StrategyTimeout time.Duration `koanf:"strategy_timeout"`
}

// VisualConfig holds feature extraction and similarity index settings.
type VisualConfig struct {
	// Enabled switches the visual strategy and the 6-strategy weight table.
	// Default: true
	Enabled bool `koanf:"enabled"`

	// Extractor selects the feature extractor: pixel or remote.
	// Default: pixel
	Extractor string `koanf:"extractor"`

	// Dimension is the embedding length returned by the remote extractor.
	// Ignored by the pixel extractor, whose layout fixes its own length.
	// Default: 2048
	Dimension int `koanf:"dimension"`

	// Default: 224
	InputSize int `koanf:"input_size"`

	// Default: 32
	BatchSize int `koanf:"batch_size"`

	// Workers bounds concurrent extractions. Default: 4
	Workers int `koanf:"workers"`

	// IndexDir holds the persisted index artifacts.
	// Default: /data/visual_index
	IndexDir string `koanf:"index_dir"`

	// Default: true
	LoadOnStart bool `koanf:"load_on_start"`

	// BuildOnStart indexes the whole catalog when no snapshot was loaded.
	// Default: false
	BuildOnStart bool `koanf:"build_on_start"`

	// SnapshotInterval is how often the index is persisted. 0 disables
	// periodic snapshots; a final snapshot is still taken on shutdown.
	// Default: 15m
	SnapshotInterval time.Duration `koanf:"snapshot_interval"`

	ExtractorURL     string        `koanf:"extractor_url"`
	ExtractorTimeout time.Duration `koanf:"extractor_timeout"`

	// ExtractorRPS paces calls to the remote extractor. Default: 20
	ExtractorRPS float64 `koanf:"extractor_rps"`

	// ImageRoot is the base directory for image references.
	// Default: /data/images
	ImageRoot string `koanf:"image_root"`
}

// HistoryConfig selects the interaction history backend.
type HistoryConfig struct {
	// Backend is badger or memory. Default: badger
	Backend string `koanf:"backend"`

	// Default: /data/history
	Path string `koanf:"path"`
}

// TrendingConfig selects where trending counts come from.
type TrendingConfig struct {
	// Backend is history (scan the interaction log) or redis.
	// Default: history
	Backend string `koanf:"backend"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// Default: fitline
	KeyPrefix string `koanf:"key_prefix"`

	// BucketTTL is how long a daily bucket is kept. Default: 192h
	BucketTTL time.Duration `koanf:"bucket_ttl"`
}

// CatalogConfig selects the catalog backend.
type CatalogConfig struct {
	// Backend is sqlite or http. Default: sqlite
	Backend string `koanf:"backend"`

	// DSN is the SQLite data source. Default: /data/catalog.db
	DSN string `koanf:"dsn"`

	BaseURL string `koanf:"base_url"`

	// Default: 5s
	Timeout time.Duration `koanf:"timeout"`

	// CacheTTL caches resolved items. 0 disables caching. Default: 5m
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// Default: 5
	BreakerMaxFailures uint32 `koanf:"breaker_max_failures"`

	// Default: 30s
	BreakerTimeout time.Duration `koanf:"breaker_timeout"`
}
