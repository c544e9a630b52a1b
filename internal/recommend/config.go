// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package recommend

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Weights is the per-strategy blend table.
type Weights map[StrategyName]float64

// DefaultWeights is the table used when visual similarity is enabled.
func DefaultWeights() Weights {
	return Weights{
		StrategyContent:       0.25,
		StrategyFavorites:     0.20,
		StrategyWardrobe:      0.15,
		StrategyCollaborative: 0.15,
		StrategyTrending:      0.10,
		StrategyVisual:        0.15,
	}
}

// DefaultWeightsNoVisual is the table used when visual similarity is
// disabled.
func DefaultWeightsNoVisual() Weights {
	return Weights{
		StrategyContent:       0.30,
		StrategyFavorites:     0.25,
		StrategyWardrobe:      0.20,
		StrategyCollaborative: 0.15,
		StrategyTrending:      0.10,
	}
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	var s float64
	for _, v := range w {
		s += v
	}
	return s
}

// Normalize returns a copy scaled to sum to 1, without zero entries.
func (w Weights) Normalize() Weights {
	sum := w.Sum()
	out := make(Weights, len(w))
	if sum <= 0 {
		return out
	}
	for name, v := range w {
		if v > 0 {
			out[name] = v / sum
		}
	}
	return out
}

// Config holds engine settings. Strategy-specific settings live with the
// strategies.
type Config struct {
	// VisualEnabled selects between Weights and WeightsNoVisual.
	VisualEnabled bool

	Weights         Weights
	WeightsNoVisual Weights

	DefaultLimit    int
	MaxLimit        int
	StrategyTimeout time.Duration
}

// DefaultConfig returns the default engine settings.
func DefaultConfig() Config {
	return Config{
		VisualEnabled:   true,
		Weights:         DefaultWeights(),
		WeightsNoVisual: DefaultWeightsNoVisual(),
		DefaultLimit:    20,
		MaxLimit:        100,
		StrategyTimeout: 2 * time.Second,
	}
}

// ActiveWeights returns the table selected by VisualEnabled.
func (c *Config) ActiveWeights() Weights {
	if c.VisualEnabled {
		return c.Weights
	}
	return c.WeightsNoVisual
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.DefaultLimit <= 0 {
		return errors.New("default limit must be positive")
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("max limit %d is below default limit %d", c.MaxLimit, c.DefaultLimit)
	}
	if c.StrategyTimeout <= 0 {
		return errors.New("strategy timeout must be positive")
	}
	w := c.ActiveWeights()
	for name, v := range w {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("weight for %s must be non-negative", name)
		}
		if !name.Valid() {
			return fmt.Errorf("unknown strategy %q in weights", name)
		}
	}
	if w.Sum() <= 0 {
		return errors.New("at least one strategy weight must be positive")
	}
	if !c.VisualEnabled && w[StrategyVisual] > 0 {
		return errors.New("visual weight must be zero when visual similarity is disabled")
	}
	return nil
}
