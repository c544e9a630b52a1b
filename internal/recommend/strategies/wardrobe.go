// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package strategies

import (
	"context"
	"fmt"
	"sort"

	"github.com/tomtom215/fitline/internal/catalog"
	"github.com/tomtom215/fitline/internal/history"
	"github.com/tomtom215/fitline/internal/recommend"
)

// complements maps an owned category to the categories that complete an
// outfit with it.
var complements = map[string][]string{
	"top":       {"bottom", "outerwear", "dress"},
	"bottom":    {"top", "shoes", "outerwear"},
	"dress":     {"shoes", "outerwear", "accessories"},
	"outerwear": {"top", "bottom"},
	"shoes":     {"top", "bottom", "dress"},
}

// Complements returns the complementary categories of category.
func Complements(category string) []string {
	return complements[category]
}

// Wardrobe gives a flat score to catalog items in categories that
// complement what the user already owns.
type Wardrobe struct {
	store   history.Store
	catalog catalog.Catalog
	score   float64
}

// NewWardrobe returns the wardrobe-gap strategy.
func NewWardrobe(store history.Store, cat catalog.Catalog, score float64) *Wardrobe {
	return &Wardrobe{store: store, catalog: cat, score: score}
}

func (w *Wardrobe) Name() recommend.StrategyName { return recommend.StrategyWardrobe }

func (w *Wardrobe) Score(ctx context.Context, in recommend.Input) (map[string]float64, error) {
	owned, err := w.store.QueryWardrobe(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("load wardrobe: %w", err)
	}
	scores := make(map[string]float64)

	wanted := make(map[string]struct{})
	ownedIDs := make(map[string]struct{}, len(owned))
	for _, item := range owned {
		ownedIDs[item.ItemID] = struct{}{}
		for _, c := range complements[item.Category] {
			wanted[c] = struct{}{}
		}
	}
	if len(wanted) == 0 {
		return scores, nil
	}
	cats := make([]string, 0, len(wanted))
	for c := range wanted {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	items, err := w.catalog.SearchByAttributes(ctx, catalog.AttributeQuery{
		Categories:     cats,
		CategoryFilter: in.Category,
	})
	if err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}
	for i := range items {
		if _, ok := ownedIDs[items[i].ID]; ok {
			continue
		}
		scores[items[i].ID] = w.score
	}
	return scores, nil
}

var _ recommend.Strategy = (*Wardrobe)(nil)
