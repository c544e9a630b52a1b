// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package recommend

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidUser is returned for empty or malformed user IDs.
	ErrInvalidUser = errors.New("invalid user id")

	// ErrInvalidLimit is returned for negative limits.
	ErrInvalidLimit = errors.New("limit must not be negative")
)

// StrategyName identifies a scoring strategy.
type StrategyName string

const (
	StrategyContent       StrategyName = "content"
	StrategyFavorites     StrategyName = "favorites"
	StrategyWardrobe      StrategyName = "wardrobe"
	StrategyCollaborative StrategyName = "collaborative"
	StrategyTrending      StrategyName = "trending"
	StrategyVisual        StrategyName = "visual"
)

// strategyOrder breaks ties when choosing a result's reason.
var strategyOrder = []StrategyName{
	StrategyContent,
	StrategyFavorites,
	StrategyWardrobe,
	StrategyCollaborative,
	StrategyTrending,
	StrategyVisual,
}

var reasons = map[StrategyName]string{
	StrategyContent:       "Based on your recent try-ons",
	StrategyFavorites:     "Similar to your favorites",
	StrategyWardrobe:      "Complements your wardrobe",
	StrategyCollaborative: "Popular with similar users",
	StrategyTrending:      "Trending this week",
	StrategyVisual:        "Visually similar to items you tried",
}

// Valid reports whether n is a known strategy.
func (n StrategyName) Valid() bool {
	_, ok := reasons[n]
	return ok
}

// Reason returns the user-facing explanation for n.
func (n StrategyName) Reason() string {
	return reasons[n]
}

// Input is the per-request data handed to every strategy.
type Input struct {
	UserID string

	// Category restricts candidates when non-empty.
	Category string

	// Now is the request time; lookback windows are relative to it.
	Now time.Time
}

// Strategy produces raw item scores for one signal.
type Strategy interface {
	Name() StrategyName

	// Score returns item ID -> score. Missing data yields an empty map,
	// not an error.
	Score(ctx context.Context, in Input) (map[string]float64, error)
}

// StrategyResult is the outcome of one strategy for one request.
type StrategyResult struct {
	Name     StrategyName
	Scores   map[string]float64
	Err      error
	Duration time.Duration
}

// OK reports whether the strategy produced usable scores.
func (r *StrategyResult) OK() bool {
	return r.Err == nil
}

// Request is a recommendation request.
type Request struct {
	UserID       string
	Limit        int
	Category     string
	ExcludeTried bool
}

// RecommendationResult is one ranked, catalog-resolved item.
type RecommendationResult struct {
	ItemID    string                   `json:"item_id"`
	Name      string                   `json:"name"`
	Category  string                   `json:"category"`
	Color     string                   `json:"color,omitempty"`
	Brand     string                   `json:"brand,omitempty"`
	Style     string                   `json:"style,omitempty"`
	Price     float64                  `json:"price"`
	ImageURL  string                   `json:"image_url,omitempty"`
	Score     float64                  `json:"recommendation_score"`
	Reason    string                   `json:"reason"`
	Strategy  StrategyName             `json:"strategy"`
	Breakdown map[StrategyName]float64 `json:"score_breakdown,omitempty"`
}

// StrategyReport summarizes one strategy's run for response metadata.
type StrategyReport struct {
	Name       StrategyName `json:"name"`
	Weight     float64      `json:"weight"`
	Items      int          `json:"items"`
	DurationMS int64        `json:"duration_ms"`
	Error      string       `json:"error,omitempty"`
}

// Response is the result of Engine.Recommend.
type Response struct {
	UserID      string                 `json:"user_id"`
	Results     []RecommendationResult `json:"recommendations"`
	Strategies  []StrategyReport       `json:"strategies"`
	Candidates  int                    `json:"candidates"`
	Unresolved  int                    `json:"unresolved"`
	GeneratedAt time.Time              `json:"generated_at"`
	DurationMS  int64                  `json:"duration_ms"`
	RequestID   string                 `json:"request_id,omitempty"`
}
