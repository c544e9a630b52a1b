// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package history

import (
	"context"
	"time"

	"github.com/tomtom215/fitline/internal/models"
)

// TrendingCounter counts item popularity over a trailing window.
type TrendingCounter interface {
	// Increment records ix if it is a counted kind with an item.
	Increment(ctx context.Context, ix *models.Interaction) error

	// Counts returns per-item counts at or after since. A non-empty
	// category restricts the count to that category.
	Counts(ctx context.Context, since time.Time, category string) (map[string]int, error)
}

// countsTowardTrending reports whether ix is a try-on of a known item.
// Only try-ons count; views and favorites are too noisy or too sparse to
// rank popularity on.
func countsTowardTrending(ix *models.Interaction) bool {
	return ix.ItemID != "" && ix.Kind == models.KindTryOn
}

// HistoryTrending derives trending counts by scanning the interaction log.
type HistoryTrending struct {
	store Store
}

// NewHistoryTrending returns a counter backed by store.
func NewHistoryTrending(store Store) *HistoryTrending {
	return &HistoryTrending{store: store}
}

// Increment is a no-op; the log itself is the counter.
func (h *HistoryTrending) Increment(context.Context, *models.Interaction) error {
	return nil
}

// Counts scans every interaction at or after since.
func (h *HistoryTrending) Counts(ctx context.Context, since time.Time, category string) (map[string]int, error) {
	all, err := h.store.QueryAll(ctx, since)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for i := range all {
		ix := &all[i]
		if !countsTowardTrending(ix) {
			continue
		}
		if category != "" && ix.Category != category {
			continue
		}
		counts[ix.ItemID]++
	}
	return counts, nil
}

var _ TrendingCounter = (*HistoryTrending)(nil)
