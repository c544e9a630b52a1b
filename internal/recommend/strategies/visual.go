// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package strategies

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/fitline/internal/history"
	"github.com/tomtom215/fitline/internal/models"
	"github.com/tomtom215/fitline/internal/recommend"
	"github.com/tomtom215/fitline/internal/visual"
)

// Aggregation combines the scores an item receives from several source
// images.
type Aggregation string

const (
	AggregateMean Aggregation = "mean"
	AggregateMax  Aggregation = "max"
)

// VisualSearcher is the part of visual.Service the strategy needs.
type VisualSearcher interface {
	SimilarForReference(ctx context.Context, ref string, k int, category string) ([]models.SimilarItem, error)
	SimilarByItemID(ctx context.Context, itemID string, k int, category string) ([]models.SimilarItem, error)
}

// VisualConfig tunes the visual strategy.
type VisualConfig struct {
	Recent      int
	Neighbors   int
	Lookback    time.Duration
	Aggregation Aggregation
}

// Visual scores items by embedding similarity to the images of the user's
// most recent try-ons, normalized so the best item scores 1.
type Visual struct {
	store    history.Store
	searcher VisualSearcher
	cfg      VisualConfig
}

// NewVisual returns the visual strategy.
func NewVisual(store history.Store, searcher VisualSearcher, cfg VisualConfig) *Visual {
	if cfg.Aggregation != AggregateMax {
		cfg.Aggregation = AggregateMean
	}
	return &Visual{store: store, searcher: searcher, cfg: cfg}
}

func (v *Visual) Name() recommend.StrategyName { return recommend.StrategyVisual }

// absent reports errors that mean "no usable image" rather than failure.
func absent(err error) bool {
	return errors.Is(err, visual.ErrImageNotFound) ||
		errors.Is(err, visual.ErrItemNotIndexed) ||
		errors.Is(err, visual.ErrExtraction)
}

// similar searches by the record's image, falling back to the indexed
// embedding of its item when the image is missing or cannot be used.
func (v *Visual) similar(ctx context.Context, r *models.Interaction, category string) ([]models.SimilarItem, error) {
	res, err := v.searcher.SimilarForReference(ctx, r.ImageRef, v.cfg.Neighbors, category)
	if err == nil || !absent(err) || r.ItemID == "" {
		return res, err
	}
	return v.searcher.SimilarByItemID(ctx, r.ItemID, v.cfg.Neighbors, category)
}

func (v *Visual) Score(ctx context.Context, in recommend.Input) (map[string]float64, error) {
	records, err := v.store.QueryInteractions(ctx, in.UserID, history.Query{
		Since: in.Now.Add(-v.cfg.Lookback),
		Kinds: []models.InteractionKind{models.KindTryOn},
	})
	if err != nil {
		return nil, fmt.Errorf("load recent try-ons: %w", err)
	}

	sums := make(map[string]float64)
	hits := make(map[string]int)
	sources := 0
	var lastErr error
	for i := range records {
		if sources == v.cfg.Recent {
			break
		}
		r := &records[i]
		if !r.HasImage() && r.ItemID == "" {
			continue
		}
		res, err := v.similar(ctx, r, in.Category)
		if err != nil {
			if !absent(err) {
				lastErr = err
			}
			continue
		}
		sources++
		for _, s := range res {
			if s.Score <= 0 {
				continue
			}
			switch v.cfg.Aggregation {
			case AggregateMax:
				sums[s.ItemID] = max(sums[s.ItemID], s.Score)
			default:
				sums[s.ItemID] += s.Score
			}
			hits[s.ItemID]++
		}
	}
	if sources == 0 && lastErr != nil {
		return nil, fmt.Errorf("visual search: %w", lastErr)
	}

	scores := make(map[string]float64, len(sums))
	best := 0.0
	for id, s := range sums {
		if v.cfg.Aggregation == AggregateMean {
			s /= float64(hits[id])
		}
		scores[id] = s
		best = max(best, s)
	}
	if best > 0 {
		for id := range scores {
			scores[id] /= best
		}
	}
	return scores, nil
}

var _ recommend.Strategy = (*Visual)(nil)
