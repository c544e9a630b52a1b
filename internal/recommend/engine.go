// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/fitline/internal/catalog"
	"github.com/tomtom215/fitline/internal/history"
	"github.com/tomtom215/fitline/internal/logging"
	"github.com/tomtom215/fitline/internal/metrics"
	"github.com/tomtom215/fitline/internal/models"
)

// Deps are the collaborators of an Engine.
type Deps struct {
	History history.Store
	Catalog catalog.Catalog

	// Trending is notified of recorded interactions. Optional.
	Trending history.TrendingCounter

	Strategies []Strategy
}

// Engine ranks catalog items for users. It is safe for concurrent use;
// its weights and strategy set are fixed at construction.
type Engine struct {
	cfg        Config
	weights    Weights
	strategies []Strategy
	store      history.Store
	catalog    catalog.Catalog
	trending   history.TrendingCounter
	logger     zerolog.Logger
	now        func() time.Time
}

// NewEngine validates cfg and builds an engine. Strategies without a
// positive weight in the active table are not run.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg Config, deps Deps, logger zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.History == nil || deps.Catalog == nil {
		return nil, errors.New("history store and catalog are required")
	}

	weights := cfg.ActiveWeights().Normalize()
	var active []Strategy
	seen := make(map[StrategyName]bool)
	for _, s := range deps.Strategies {
		name := s.Name()
		if seen[name] {
			return nil, fmt.Errorf("strategy %s registered twice", name)
		}
		seen[name] = true
		if weights[name] > 0 {
			active = append(active, s)
		}
	}

	e := &Engine{
		cfg:        cfg,
		weights:    weights,
		strategies: active,
		store:      deps.History,
		catalog:    deps.Catalog,
		trending:   deps.Trending,
		logger:     logger.With().Str("component", "recommend").Logger(),
		now:        time.Now,
	}

	names := make([]string, len(active))
	for i, s := range active {
		names[i] = string(s.Name())
	}
	e.logger.Info().
		Bool("visual_enabled", cfg.VisualEnabled).
		Strs("strategies", names).
		Msg("recommendation engine ready")
	return e, nil
}

// Weights returns a copy of the active, normalized weight table.
func (e *Engine) Weights() Weights {
	out := make(Weights, len(e.weights))
	for k, v := range e.weights {
		out[k] = v
	}
	return out
}

func validateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" || strings.ContainsRune(userID, 0) {
		return ErrInvalidUser
	}
	return nil
}

// Recommend ranks items for req.UserID.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := e.now()
	resp, err := e.recommend(ctx, req, start)
	n := 0
	if resp != nil {
		n = len(resp.Results)
	}
	metrics.RecordRecommendation(time.Since(start), n, err)
	return resp, err
}

func (e *Engine) recommend(ctx context.Context, req Request, start time.Time) (*Response, error) {
	if err := validateUserID(req.UserID); err != nil {
		return nil, err
	}
	switch {
	case req.Limit < 0:
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, req.Limit)
	case req.Limit == 0:
		req.Limit = e.cfg.DefaultLimit
	case req.Limit > e.cfg.MaxLimit:
		req.Limit = e.cfg.MaxLimit
	}

	log := logging.Ctx(ctx).With().
		Str("component", "recommend").
		Str("user_id", req.UserID).
		Logger()

	in := Input{UserID: req.UserID, Category: req.Category, Now: start.UTC()}
	results := e.runStrategies(ctx, in)

	totals, breakdown := e.blend(results)

	if req.ExcludeTried && len(totals) > 0 {
		tried, err := e.store.QueryInteractions(ctx, req.UserID, history.Query{
			Kinds: []models.InteractionKind{models.KindTryOn},
		})
		if err != nil {
			return nil, fmt.Errorf("load try-on history: %w", err)
		}
		for i := range tried {
			delete(totals, tried[i].ItemID)
		}
	}

	ranked := rank(totals)
	out, unresolved := e.resolve(ctx, ranked, breakdown, req, log)

	resp := &Response{
		UserID:      req.UserID,
		Results:     out,
		Strategies:  e.reports(results),
		Candidates:  len(ranked),
		Unresolved:  unresolved,
		GeneratedAt: start.UTC(),
		DurationMS:  time.Since(start).Milliseconds(),
		RequestID:   logging.RequestIDFromContext(ctx),
	}
	log.Debug().
		Int("candidates", resp.Candidates).
		Int("results", len(out)).
		Int("unresolved", unresolved).
		Int64("duration_ms", resp.DurationMS).
		Msg("recommendations computed")
	return resp, nil
}

// runStrategies runs every active strategy in parallel.
func (e *Engine) runStrategies(ctx context.Context, in Input) []StrategyResult {
	results := make([]StrategyResult, len(e.strategies))
	var wg sync.WaitGroup
	for i, s := range e.strategies {
		wg.Add(1)
		go func(idx int, s Strategy) {
			defer wg.Done()
			results[idx] = e.runStrategy(ctx, s, in)
		}(i, s)
	}
	wg.Wait()
	return results
}

func (e *Engine) runStrategy(ctx context.Context, s Strategy, in Input) (res StrategyResult) {
	res.Name = s.Name()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res.Scores = nil
			res.Err = fmt.Errorf("strategy panicked: %v", r)
		}
		res.Duration = time.Since(start)
		metrics.RecordStrategy(string(res.Name), res.Duration, res.Err)
		if res.Err != nil {
			logging.Ctx(ctx).Warn().
				Str("component", "recommend").
				Str("strategy", string(res.Name)).
				Err(res.Err).
				Msg("strategy failed, contributing no scores")
		}
	}()

	sctx, cancel := context.WithTimeout(ctx, e.cfg.StrategyTimeout)
	defer cancel()

	scores, err := s.Score(sctx, in)
	if err == nil && sctx.Err() != nil {
		err = sctx.Err()
	}
	if err != nil {
		return StrategyResult{Name: res.Name, Err: err}
	}
	res.Scores = scores
	return res
}

// blend combines strategy scores by weight. breakdown keeps each
// strategy's weighted contribution per item.
func (e *Engine) blend(results []StrategyResult) (map[string]float64, map[string]map[StrategyName]float64) {
	totals := make(map[string]float64)
	breakdown := make(map[string]map[StrategyName]float64)
	for i := range results {
		r := &results[i]
		if !r.OK() {
			continue
		}
		w := e.weights[r.Name]
		for item, score := range r.Scores {
			if item == "" || score <= 0 || math.IsNaN(score) || math.IsInf(score, 0) {
				continue
			}
			contrib := w * score
			totals[item] += contrib
			if breakdown[item] == nil {
				breakdown[item] = make(map[StrategyName]float64)
			}
			breakdown[item][r.Name] += contrib
		}
	}
	return totals, breakdown
}

type rankedItem struct {
	id    string
	score float64
}

// rank orders items by score descending, then ID ascending.
func rank(totals map[string]float64) []rankedItem {
	out := make([]rankedItem, 0, len(totals))
	for id, s := range totals {
		out = append(out, rankedItem{id: id, score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].id < out[j].id
	})
	return out
}

// resolve walks the ranking until limit items resolve through the
// catalog. Items that fail to resolve, or resolve outside the requested
// category, are skipped.
func (e *Engine) resolve(ctx context.Context, ranked []rankedItem, breakdown map[string]map[StrategyName]float64, req Request, log zerolog.Logger) ([]RecommendationResult, int) {
	out := make([]RecommendationResult, 0, min(req.Limit, len(ranked)))
	unresolved := 0
	for _, r := range ranked {
		if len(out) == req.Limit {
			break
		}
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Msg("request cancelled during catalog resolution")
			break
		}
		item, err := e.catalog.Resolve(ctx, r.id)
		if err != nil {
			unresolved++
			metrics.RecordCatalogResolutionFailure()
			if !errors.Is(err, catalog.ErrItemNotFound) {
				log.Warn().Err(err).Str("item_id", r.id).Msg("catalog lookup failed")
			}
			continue
		}
		if req.Category != "" && item.Category != req.Category {
			continue
		}
		top := topStrategy(breakdown[r.id])
		for name, c := range breakdown[r.id] {
			breakdown[r.id][name] = roundScore(c)
		}
		out = append(out, RecommendationResult{
			ItemID:    r.id,
			Name:      item.Name,
			Category:  item.Category,
			Color:     item.Color,
			Brand:     item.Brand,
			Style:     item.Style,
			Price:     item.Price,
			ImageURL:  item.ImageRef,
			Score:     roundScore(r.score),
			Reason:    top.Reason(),
			Strategy:  top,
			Breakdown: breakdown[r.id],
		})
	}
	return out, unresolved
}

// roundScore rounds to three decimals. Ranking uses unrounded scores.
func roundScore(s float64) float64 {
	return math.Round(s*1000) / 1000
}

// topStrategy returns the strategy with the largest contribution, using
// strategyOrder for ties.
func topStrategy(contrib map[StrategyName]float64) StrategyName {
	best := StrategyName("")
	bestScore := math.Inf(-1)
	for _, name := range strategyOrder {
		if c, ok := contrib[name]; ok && c > bestScore {
			best, bestScore = name, c
		}
	}
	return best
}

func (e *Engine) reports(results []StrategyResult) []StrategyReport {
	out := make([]StrategyReport, len(results))
	for i := range results {
		r := &results[i]
		out[i] = StrategyReport{
			Name:       r.Name,
			Weight:     e.weights[r.Name],
			Items:      len(r.Scores),
			DurationMS: r.Duration.Milliseconds(),
		}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
		}
	}
	return out
}

// RecordInteraction appends an interaction for userID. Item attributes
// are copied from the catalog when the item resolves; an unknown item is
// still recorded. Nothing is recomputed at write time.
func (e *Engine) RecordInteraction(ctx context.Context, userID, itemID string, kind models.InteractionKind) (*models.Interaction, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownInteractionKind, kind)
	}

	ix := &models.Interaction{UserID: userID, ItemID: itemID, Kind: kind, Timestamp: e.now().UTC()}
	if itemID != "" {
		item, err := e.catalog.Resolve(ctx, itemID)
		switch {
		case err == nil:
			ix.ApplyItem(&item)
		case errors.Is(err, catalog.ErrItemNotFound):
			logging.Ctx(ctx).Debug().Str("item_id", itemID).Msg("recording interaction for unknown item")
		default:
			logging.Ctx(ctx).Warn().Err(err).Str("item_id", itemID).Msg("catalog unavailable, recording interaction without attributes")
		}
	}

	if err := e.store.Append(ctx, ix); err != nil {
		return nil, fmt.Errorf("record interaction: %w", err)
	}
	metrics.RecordInteraction(string(kind))

	if e.trending != nil {
		if err := e.trending.Increment(ctx, ix); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("item_id", itemID).Msg("trending counter update failed")
		}
	}
	return ix, nil
}

// AddWardrobeItem records that userID owns itemID. An empty category is
// filled from the catalog.
func (e *Engine) AddWardrobeItem(ctx context.Context, userID, itemID, category string) (*models.WardrobeItem, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if category == "" && itemID != "" {
		if item, err := e.catalog.Resolve(ctx, itemID); err == nil {
			category = item.Category
		}
	}
	w := models.WardrobeItem{UserID: userID, ItemID: itemID, Category: category, AddedAt: e.now().UTC()}
	if err := e.store.AddWardrobeItem(ctx, w); err != nil {
		return nil, fmt.Errorf("add wardrobe item: %w", err)
	}
	return &w, nil
}

// StyleProfile builds the user's style profile.
func (e *Engine) StyleProfile(ctx context.Context, userID string) (*models.StyleProfile, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	return BuildProfile(ctx, e.store, userID)
}
