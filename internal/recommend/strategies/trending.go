// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package strategies

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/fitline/internal/history"
	"github.com/tomtom215/fitline/internal/recommend"
)

// Trending scores items by try-on count over a trailing window, divided
// by the largest count so the most popular item scores 1.
type Trending struct {
	counter history.TrendingCounter
	window  time.Duration
}

// NewTrending returns the trending strategy.
func NewTrending(counter history.TrendingCounter, window time.Duration) *Trending {
	return &Trending{counter: counter, window: window}
}

func (t *Trending) Name() recommend.StrategyName { return recommend.StrategyTrending }

func (t *Trending) Score(ctx context.Context, in recommend.Input) (map[string]float64, error) {
	counts, err := t.counter.Counts(ctx, in.Now.Add(-t.window), in.Category)
	if err != nil {
		return nil, fmt.Errorf("load trending counts: %w", err)
	}
	maxCount := 0
	for _, n := range counts {
		maxCount = max(maxCount, n)
	}
	scores := make(map[string]float64, len(counts))
	if maxCount == 0 {
		return scores, nil
	}
	for id, n := range counts {
		if n > 0 {
			scores[id] = float64(n) / float64(maxCount)
		}
	}
	return scores, nil
}

var _ recommend.Strategy = (*Trending)(nil)
