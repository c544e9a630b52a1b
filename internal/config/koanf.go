// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/fitline/config.yaml",
	"/etc/fitline/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxUploadBytes:  10 << 20,
			CORSOrigins:     []string{},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Recommend: RecommendConfig{
			Weights: WeightsConfig{
				Content:       0.25,
				Favorites:     0.20,
				Wardrobe:      0.15,
				Collaborative: 0.15,
				Trending:      0.10,
				Visual:        0.15,
			},
			WeightsNoVisual: WeightsConfig{
				Content:       0.30,
				Favorites:     0.25,
				Wardrobe:      0.20,
				Collaborative: 0.15,
				Trending:      0.10,
			},
			SimilarityThreshold:     0.3,
			MaxSimilarUsers:         10,
			CandidateUsers:          50,
			HistoryPerUser:          50,
			NeighborLookback:        60 * 24 * time.Hour,
			NeighborRecords:         15,
			NeighborFavoriteBase:    0.8,
			NeighborInteractionBase: 0.5,
			ContentLookback:         30 * 24 * time.Hour,
			ContentMaxRecords:       20,
			TrendingWindow:          7 * 24 * time.Hour,
			WardrobeGapScore:        0.7,
			VisualRecent:            5,
			VisualNeighbors:         5,
			VisualLookback:          14 * 24 * time.Hour,
			VisualAggregation:       "mean",
			DefaultLimit:            20,
			MaxLimit:                100,
			StrategyTimeout:         2 * time.Second,
		},
		Visual: VisualConfig{
			Enabled:          true,
			Extractor:        "pixel",
			Dimension:        2048,
			InputSize:        224,
			BatchSize:        32,
			Workers:          4,
			IndexDir:         "/data/visual_index",
			LoadOnStart:      true,
			SnapshotInterval: 15 * time.Minute,
			ExtractorTimeout: 10 * time.Second,
			ExtractorRPS:     20,
			ImageRoot:        "/data/images",
		},
		History: HistoryConfig{
			Backend: "badger",
			Path:    "/data/history",
		},
		Trending: TrendingConfig{
			Backend:   "history",
			RedisAddr: "127.0.0.1:6379",
			KeyPrefix: "fitline",
			BucketTTL: 8 * 24 * time.Hour,
		},
		Catalog: CatalogConfig{
			Backend:            "sqlite",
			DSN:                "/data/catalog.db",
			Timeout:            5 * time.Second,
			CacheTTL:           5 * time.Minute,
			BreakerMaxFailures: 5,
			BreakerTimeout:     30 * time.Second,
		},
	}
}

// Default returns the built-in configuration without reading any source.
func Default() *Config {
	return defaultConfig()
}

// Load builds the configuration from defaults, an optional YAML file and
// the environment, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are keys whose env values are comma-separated lists.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to config keys.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	"http_host":            "server.host",
	"http_port":            "server.port",
	"http_read_timeout":    "server.read_timeout",
	"http_write_timeout":   "server.write_timeout",
	"http_request_timeout": "server.request_timeout",
	"max_upload_bytes":     "server.max_upload_bytes",
	"cors_origins":         "server.cors_origins",
	"rate_limit_requests":  "server.rate_limit_requests",
	"rate_limit_window":    "server.rate_limit_window",
	"disable_rate_limit":   "server.rate_limit_disabled",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"recommend_weight_content":            "recommend.weights.content",
	"recommend_weight_favorites":          "recommend.weights.favorites",
	"recommend_weight_wardrobe":           "recommend.weights.wardrobe",
	"recommend_weight_collaborative":      "recommend.weights.collaborative",
	"recommend_weight_trending":           "recommend.weights.trending",
	"recommend_weight_visual":             "recommend.weights.visual",
	"recommend_similarity_threshold":      "recommend.similarity_threshold",
	"recommend_max_similar_users":         "recommend.max_similar_users",
	"recommend_candidate_users":           "recommend.candidate_users",
	"recommend_history_per_user":          "recommend.history_per_user",
	"recommend_neighbor_lookback":         "recommend.neighbor_lookback",
	"recommend_neighbor_records":          "recommend.neighbor_records",
	"recommend_neighbor_favorite_base":    "recommend.neighbor_favorite_base",
	"recommend_neighbor_interaction_base": "recommend.neighbor_interaction_base",
	"recommend_trending_window":           "recommend.trending_window",
	"recommend_visual_aggregation":        "recommend.visual_aggregation",
	"recommend_default_limit":             "recommend.default_limit",
	"recommend_max_limit":                 "recommend.max_limit",
	"recommend_strategy_timeout":          "recommend.strategy_timeout",

	"visual_enabled":           "visual.enabled",
	"visual_extractor":         "visual.extractor",
	"visual_dimension":         "visual.dimension",
	"visual_batch_size":        "visual.batch_size",
	"visual_workers":           "visual.workers",
	"visual_index_dir":         "visual.index_dir",
	"visual_load_on_start":     "visual.load_on_start",
	"visual_build_on_start":    "visual.build_on_start",
	"visual_snapshot_interval": "visual.snapshot_interval",
	"visual_extractor_url":     "visual.extractor_url",
	"visual_extractor_timeout": "visual.extractor_timeout",
	"visual_extractor_rps":     "visual.extractor_rps",
	"visual_image_root":        "visual.image_root",

	"history_backend": "history.backend",
	"history_path":    "history.path",

	"trending_backend":    "trending.backend",
	"redis_addr":          "trending.redis_addr",
	"redis_password":      "trending.redis_password",
	"redis_db":            "trending.redis_db",
	"trending_key_prefix": "trending.key_prefix",

	"catalog_backend":   "catalog.backend",
	"catalog_dsn":       "catalog.dsn",
	"catalog_url":       "catalog.base_url",
	"catalog_timeout":   "catalog.timeout",
	"catalog_cache_ttl": "catalog.cache_ttl",
}

func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
