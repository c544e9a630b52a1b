// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package strategies

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/fitline/internal/catalog"
	"github.com/tomtom215/fitline/internal/history"
	"github.com/tomtom215/fitline/internal/models"
	"github.com/tomtom215/fitline/internal/recommend"
)

// unknownCategory stands in for records without a category.
const unknownCategory = "unknown"

// tally counts attribute values over a set of records.
type tally struct {
	categories map[string]int
	colors     map[string]int
	styles     map[string]int
	brands     map[string]int
	records    int
}

func newTally(records []models.Interaction) tally {
	t := tally{
		categories: map[string]int{},
		colors:     map[string]int{},
		styles:     map[string]int{},
		brands:     map[string]int{},
		records:    len(records),
	}
	for i := range records {
		r := &records[i]
		cat := r.Category
		if cat == "" {
			cat = unknownCategory
		}
		t.categories[cat]++
		if r.Color != "" {
			t.colors[r.Color]++
		}
		if r.Style != "" {
			t.styles[r.Style]++
		}
		if r.Brand != "" {
			t.brands[r.Brand]++
		}
	}
	return t
}

func (t *tally) query(category string) catalog.AttributeQuery {
	cats := keys(t.categories)
	// "unknown" is a bucket, not a catalog category.
	for i, c := range cats {
		if c == unknownCategory {
			cats = append(cats[:i], cats[i+1:]...)
			break
		}
	}
	return catalog.AttributeQuery{
		Categories:     cats,
		Colors:         keys(t.colors),
		Styles:         keys(t.styles),
		Brands:         keys(t.brands),
		CategoryFilter: category,
	}
}

func keys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Content scores catalog items by weighted attribute overlap with the
// user's recent try-ons. Each attribute term is the fraction of
// considered records sharing the item's value.
type Content struct {
	store      history.Store
	catalog    catalog.Catalog
	lookback   time.Duration
	maxRecords int
}

// NewContent returns the content strategy.
func NewContent(store history.Store, cat catalog.Catalog, lookback time.Duration, maxRecords int) *Content {
	return &Content{store: store, catalog: cat, lookback: lookback, maxRecords: maxRecords}
}

func (c *Content) Name() recommend.StrategyName { return recommend.StrategyContent }

func (c *Content) Score(ctx context.Context, in recommend.Input) (map[string]float64, error) {
	records, err := c.store.QueryInteractions(ctx, in.UserID, history.Query{
		Since: in.Now.Add(-c.lookback),
		Limit: c.maxRecords,
		Kinds: []models.InteractionKind{models.KindTryOn},
	})
	if err != nil {
		return nil, fmt.Errorf("load recent try-ons: %w", err)
	}
	scores := make(map[string]float64)
	if len(records) == 0 {
		return scores, nil
	}

	t := newTally(records)
	items, err := c.catalog.SearchByAttributes(ctx, t.query(in.Category))
	if err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}

	n := float64(t.records)
	for i := range items {
		it := &items[i]
		s := 0.4*float64(t.categories[it.Category])/n +
			0.3*float64(t.colors[it.Color])/n +
			0.2*float64(t.styles[it.Style])/n +
			0.1*float64(t.brands[it.Brand])/n
		if s > 0 {
			scores[it.ID] = s
		}
	}
	return scores, nil
}

// Favorites scores catalog items by binary attribute overlap with the
// user's favorites.
type Favorites struct {
	store   history.Store
	catalog catalog.Catalog
}

// NewFavorites returns the favorites strategy.
func NewFavorites(store history.Store, cat catalog.Catalog) *Favorites {
	return &Favorites{store: store, catalog: cat}
}

func (f *Favorites) Name() recommend.StrategyName { return recommend.StrategyFavorites }

func (f *Favorites) Score(ctx context.Context, in recommend.Input) (map[string]float64, error) {
	favs, err := f.store.QueryFavorites(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	scores := make(map[string]float64)
	if len(favs) == 0 {
		return scores, nil
	}

	t := newTally(favs)
	q := t.query(in.Category)
	q.Brands = nil
	items, err := f.catalog.SearchByAttributes(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}

	for i := range items {
		it := &items[i]
		var s float64
		if t.categories[it.Category] > 0 {
			s += 0.5
		}
		if t.colors[it.Color] > 0 {
			s += 0.3
		}
		if t.styles[it.Style] > 0 {
			s += 0.2
		}
		if s > 0 {
			scores[it.ID] = s
		}
	}
	return scores, nil
}

var (
	_ recommend.Strategy = (*Content)(nil)
	_ recommend.Strategy = (*Favorites)(nil)
)
