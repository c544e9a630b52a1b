// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package recommend

import (
	"context"
	"fmt"
	"math"

	"github.com/tomtom215/fitline/internal/history"
	"github.com/tomtom215/fitline/internal/models"
)

// BuildProfile aggregates the positive interactions of userID. A user
// without history gets an empty profile.
func BuildProfile(ctx context.Context, store history.Store, userID string) (*models.StyleProfile, error) {
	records, err := store.QueryInteractions(ctx, userID, history.Query{Kinds: models.PositiveKinds()})
	if err != nil {
		return nil, fmt.Errorf("load history for profile: %w", err)
	}
	return ProfileFromRecords(userID, records), nil
}

// ProfileFromRecords aggregates records into a StyleProfile. Views and
// ignores are skipped.
func ProfileFromRecords(userID string, records []models.Interaction) *models.StyleProfile {
	p := models.NewStyleProfile(userID)
	var (
		sum float64
		n   int
	)
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range records {
		r := &records[i]
		if !r.Kind.Positive() {
			continue
		}
		bump(p.CategoryCounts, r.Category)
		bump(p.ColorCounts, r.Color)
		bump(p.BrandCounts, r.Brand)
		bump(p.StyleCounts, r.Style)

		switch r.Kind {
		case models.KindTryOn:
			p.TotalTryOns++
		case models.KindFavorite:
			p.TotalFavorites++
		}

		if r.Price > 0 {
			sum += r.Price
			n++
			lo = math.Min(lo, r.Price)
			hi = math.Max(hi, r.Price)
		}
	}
	if n > 0 {
		p.AveragePrice = sum / float64(n)
		p.PriceMin = lo
		p.PriceMax = hi
	}
	return p
}

func bump(counts map[string]int, v string) {
	if v != "" {
		counts[v]++
	}
}
