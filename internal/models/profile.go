// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package models

import "sort"

// StyleProfile aggregates a user's interaction history. It is derived on
// demand and never stored.
type StyleProfile struct {
	UserID         string         `json:"user_id"`
	CategoryCounts map[string]int `json:"category_counts"`
	ColorCounts    map[string]int `json:"color_counts"`
	BrandCounts    map[string]int `json:"brand_counts"`
	StyleCounts    map[string]int `json:"style_counts"`
	AveragePrice   float64        `json:"average_price"`
	PriceMin       float64        `json:"price_min"`
	PriceMax       float64        `json:"price_max"`
	TotalTryOns    int            `json:"total_tryons"`
	TotalFavorites int            `json:"total_favorites"`
}

// NewStyleProfile returns an empty profile with non-nil maps.
func NewStyleProfile(userID string) *StyleProfile {
	return &StyleProfile{
		UserID:         userID,
		CategoryCounts: map[string]int{},
		ColorCounts:    map[string]int{},
		BrandCounts:    map[string]int{},
		StyleCounts:    map[string]int{},
	}
}

// AttributeCount is one entry of a ranked attribute view.
type AttributeCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// TopN returns the n most frequent entries of counts, ordered by count
// descending and value ascending. n <= 0 returns every entry.
func TopN(counts map[string]int, n int) []AttributeCount {
	out := make([]AttributeCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, AttributeCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
