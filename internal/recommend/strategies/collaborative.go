// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package strategies

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tomtom215/fitline/internal/history"
	"github.com/tomtom215/fitline/internal/models"
	"github.com/tomtom215/fitline/internal/recommend"
)

// CollaborativeConfig tunes neighbor search and scoring.
type CollaborativeConfig struct {
	// Threshold is the exclusive lower bound on neighbor similarity.
	Threshold float64
	// MaxNeighbors is how many similar users contribute.
	MaxNeighbors int
	// CandidateUsers bounds the users compared against the target.
	CandidateUsers int
	// RecordsPerUser bounds the history read per user to build vectors.
	RecordsPerUser int
	// NeighborLookback and NeighborRecords bound each neighbor's
	// interactions that become recommendations.
	NeighborLookback time.Duration
	NeighborRecords  int
	// FavoriteBase and InteractionBase are a neighbor's evidence for an
	// item it favorited or merely engaged with, before scaling by
	// similarity.
	FavoriteBase    float64
	InteractionBase float64
}

// DefaultCollaborativeConfig returns the default neighbor settings.
func DefaultCollaborativeConfig() CollaborativeConfig {
	return CollaborativeConfig{
		Threshold:        0.3,
		MaxNeighbors:     10,
		CandidateUsers:   50,
		RecordsPerUser:   50,
		NeighborLookback: 60 * 24 * time.Hour,
		NeighborRecords:  15,
		FavoriteBase:     0.8,
		InteractionBase:  0.5,
	}
}

// UserSimilarity is a neighbor and its cosine similarity to the target.
type UserSimilarity struct {
	UserID     string  `json:"user_id"`
	Similarity float64 `json:"similarity"`
}

// Collaborative recommends items engaged with by users whose category and
// style distribution resembles the target's. Evidence for an item adds up
// across neighbors.
type Collaborative struct {
	store history.Store
	cfg   CollaborativeConfig
}

// NewCollaborative returns the collaborative strategy.
func NewCollaborative(store history.Store, cfg CollaborativeConfig) *Collaborative {
	return &Collaborative{store: store, cfg: cfg}
}

func (c *Collaborative) Name() recommend.StrategyName { return recommend.StrategyCollaborative }

// tasteVector counts category and style values together; a value seen as
// both adds up under one key.
func tasteVector(records []models.Interaction) map[string]float64 {
	v := make(map[string]float64)
	for i := range records {
		cat := records[i].Category
		if cat == "" {
			cat = unknownCategory
		}
		v[cat]++
		style := records[i].Style
		if style == "" {
			style = unknownCategory
		}
		v[style]++
	}
	return v
}

// cosine computes cosine similarity over the union of keys.
func cosine(a, b map[string]float64) float64 {
	var dot, na, nb float64
	for k, x := range a {
		na += x * x
		dot += x * b[k]
	}
	for _, y := range b {
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// tasteQuery selects the positive records a taste vector is built from.
func (c *Collaborative) tasteQuery() history.Query {
	return history.Query{Limit: c.cfg.RecordsPerUser, Kinds: models.PositiveKinds()}
}

// FindSimilarUsers returns up to limit users with similarity above the
// threshold, most similar first. A user without history has no
// neighbors.
func (c *Collaborative) FindSimilarUsers(ctx context.Context, userID string, limit int) ([]UserSimilarity, error) {
	mine, err := c.store.QueryInteractions(ctx, userID, c.tasteQuery())
	if err != nil {
		return nil, fmt.Errorf("load target history: %w", err)
	}
	if len(mine) == 0 || limit <= 0 {
		return nil, nil
	}
	target := tasteVector(mine)

	others, err := c.store.Users(ctx, userID, c.cfg.CandidateUsers)
	if err != nil {
		return nil, fmt.Errorf("list candidate users: %w", err)
	}

	var out []UserSimilarity
	for _, other := range others {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		theirs, err := c.store.QueryInteractions(ctx, other, c.tasteQuery())
		if err != nil {
			return nil, fmt.Errorf("load history of %s: %w", other, err)
		}
		if len(theirs) == 0 {
			continue
		}
		sim := cosine(target, tasteVector(theirs))
		if sim > c.cfg.Threshold {
			out = append(out, UserSimilarity{UserID: other, Similarity: sim})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].UserID < out[j].UserID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *Collaborative) Score(ctx context.Context, in recommend.Input) (map[string]float64, error) {
	neighbors, err := c.FindSimilarUsers(ctx, in.UserID, c.cfg.MaxNeighbors)
	if err != nil {
		return nil, err
	}
	scores := make(map[string]float64)

	for _, n := range neighbors {
		recent, err := c.store.QueryInteractions(ctx, n.UserID, history.Query{
			Since: in.Now.Add(-c.cfg.NeighborLookback),
			Limit: c.cfg.NeighborRecords,
		})
		if err != nil {
			return nil, fmt.Errorf("load recent history of %s: %w", n.UserID, err)
		}
		favs, err := c.store.QueryFavorites(ctx, n.UserID)
		if err != nil {
			return nil, fmt.Errorf("load favorites of %s: %w", n.UserID, err)
		}
		favorited := make(map[string]struct{}, len(favs))
		for i := range favs {
			favorited[favs[i].ItemID] = struct{}{}
		}

		// Each neighbor vouches for an item once.
		seen := make(map[string]struct{})
		for i := range recent {
			r := &recent[i]
			if r.ItemID == "" || r.Kind == models.KindIgnore {
				continue
			}
			if in.Category != "" && r.Category != in.Category {
				continue
			}
			if _, dup := seen[r.ItemID]; dup {
				continue
			}
			seen[r.ItemID] = struct{}{}

			base := c.cfg.InteractionBase
			if _, ok := favorited[r.ItemID]; ok {
				base = c.cfg.FavoriteBase
			}
			scores[r.ItemID] += base * n.Similarity
		}
	}
	return scores, nil
}

var _ recommend.Strategy = (*Collaborative)(nil)
