// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package strategies

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/fitline/internal/catalog"
	"github.com/tomtom215/fitline/internal/history"
	"github.com/tomtom215/fitline/internal/models"
	"github.com/tomtom215/fitline/internal/recommend"
	"github.com/tomtom215/fitline/internal/visual"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeCatalog matches any attribute value, like the SQL backend.
type fakeCatalog struct {
	items []models.CatalogItem
}

func (f *fakeCatalog) Resolve(_ context.Context, id string) (models.CatalogItem, error) {
	for _, it := range f.items {
		if it.ID == id {
			return it, nil
		}
	}
	return models.CatalogItem{}, catalog.ErrItemNotFound
}

func contains(vals []string, v string) bool {
	for _, x := range vals {
		if x == v {
			return true
		}
	}
	return false
}

func (f *fakeCatalog) SearchByAttributes(_ context.Context, q catalog.AttributeQuery) ([]models.CatalogItem, error) {
	var out []models.CatalogItem
	for _, it := range f.items {
		if q.CategoryFilter != "" && it.Category != q.CategoryFilter {
			continue
		}
		if contains(q.Categories, it.Category) || contains(q.Colors, it.Color) ||
			contains(q.Styles, it.Style) || contains(q.Brands, it.Brand) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeCatalog) List(context.Context, catalog.ListQuery) ([]models.CatalogItem, error) {
	return f.items, nil
}

func add(t *testing.T, s history.Store, ix models.Interaction) {
	t.Helper()
	if err := s.Append(context.Background(), &ix); err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func input(user string) recommend.Input {
	return recommend.Input{UserID: user, Now: base.Add(24 * time.Hour)}
}

func TestContent_AttributeOverlap(t *testing.T) {
	ctx := context.Background()
	store := history.NewMemoryStore()
	for i := 0; i < 3; i++ {
		add(t, store, models.Interaction{UserID: "u", ItemID: "seen", Kind: models.KindTryOn,
			Category: "top", Color: "blue", Timestamp: base.Add(time.Duration(i) * time.Hour)})
	}
	cat := &fakeCatalog{items: []models.CatalogItem{
		{ID: "top-blue", Category: "top", Color: "blue"},
		{ID: "bottom-red", Category: "bottom", Color: "red"},
	}}

	scores, err := NewContent(store, cat, 30*24*time.Hour, 50).Score(ctx, input("u"))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !approx(scores["top-blue"], 0.7) {
		t.Errorf("score[top-blue] = %v, want 0.7", scores["top-blue"])
	}
	if scores["top-blue"] <= scores["bottom-red"] {
		t.Errorf("top-blue (%v) should outrank bottom-red (%v)", scores["top-blue"], scores["bottom-red"])
	}
}

func TestContent_LargeCatalogKeepsBestMatch(t *testing.T) {
	ctx := context.Background()
	cat, err := catalog.OpenSQLite(ctx, ":memory:", zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = cat.Close() })

	items := make([]models.CatalogItem, 0, 601)
	for i := 0; i < 600; i++ {
		items = append(items, models.CatalogItem{ID: fmt.Sprintf("a%04d", i), Name: "Slacks", Category: "bottom", Color: "blue"})
	}
	items = append(items, models.CatalogItem{ID: "z-top-blue", Name: "Polo", Category: "top", Color: "blue"})
	if err := cat.Upsert(ctx, items...); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	store := history.NewMemoryStore()
	for i := 0; i < 3; i++ {
		add(t, store, models.Interaction{UserID: "u", ItemID: "seen", Kind: models.KindTryOn,
			Category: "top", Color: "blue", Timestamp: base.Add(time.Duration(i) * time.Hour)})
	}

	scores, err := NewContent(store, cat, 30*24*time.Hour, 50).Score(ctx, input("u"))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !approx(scores["z-top-blue"], 0.7) {
		t.Errorf("score[z-top-blue] = %v, want 0.7", scores["z-top-blue"])
	}
	if !approx(scores["a0599"], 0.3) {
		t.Errorf("score[a0599] = %v, want 0.3", scores["a0599"])
	}
}

func TestContent_IgnoresOldAndNonTryOn(t *testing.T) {
	ctx := context.Background()
	store := history.NewMemoryStore()
	add(t, store, models.Interaction{UserID: "u", Kind: models.KindTryOn, Category: "top", Timestamp: base.Add(-60 * 24 * time.Hour)})
	add(t, store, models.Interaction{UserID: "u", Kind: models.KindView, Category: "top", Timestamp: base})
	cat := &fakeCatalog{items: []models.CatalogItem{{ID: "t", Category: "top"}}}

	scores, err := NewContent(store, cat, 30*24*time.Hour, 50).Score(ctx, input("u"))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("scores = %v, want empty", scores)
	}
}

func TestFavorites_BinaryWeights(t *testing.T) {
	ctx := context.Background()
	store := history.NewMemoryStore()
	add(t, store, models.Interaction{UserID: "u", ItemID: "f", Kind: models.KindFavorite,
		Category: "top", Color: "blue", Style: "casual", Timestamp: base})
	add(t, store, models.Interaction{UserID: "u", ItemID: "f", Kind: models.KindFavorite,
		Category: "top", Color: "blue", Style: "casual", Timestamp: base.Add(time.Hour)})
	cat := &fakeCatalog{items: []models.CatalogItem{
		{ID: "all", Category: "top", Color: "blue", Style: "casual"},
		{ID: "cat-only", Category: "top", Color: "red"},
		{ID: "style-only", Category: "shoes", Style: "casual"},
		{ID: "none", Category: "dress", Color: "green"},
	}}

	scores, err := NewFavorites(store, cat).Score(ctx, input("u"))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	tests := []struct {
		id   string
		want float64
	}{
		{"all", 1.0},
		{"cat-only", 0.5},
		{"style-only", 0.2},
		{"none", 0},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := scores[tt.id]; !approx(got, tt.want) {
				t.Errorf("score[%s] = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestWardrobe_Complements(t *testing.T) {
	ctx := context.Background()
	store := history.NewMemoryStore()
	if err := store.AddWardrobeItem(ctx, models.WardrobeItem{UserID: "u", ItemID: "my-top", Category: "top", AddedAt: base}); err != nil {
		t.Fatalf("AddWardrobeItem: %v", err)
	}
	if err := store.AddWardrobeItem(ctx, models.WardrobeItem{UserID: "u", ItemID: "my-jeans", Category: "bottom", AddedAt: base}); err != nil {
		t.Fatalf("AddWardrobeItem: %v", err)
	}
	cat := &fakeCatalog{items: []models.CatalogItem{
		{ID: "my-jeans", Category: "bottom"},
		{ID: "skirt", Category: "bottom"},
		{ID: "sneakers", Category: "shoes"},
		{ID: "hat", Category: "accessories"},
	}}

	w := NewWardrobe(store, cat, 0.6)
	scores, err := w.Score(ctx, input("u"))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if _, ok := scores["my-jeans"]; ok {
		t.Error("owned item should not be recommended")
	}
	if !approx(scores["skirt"], 0.6) || !approx(scores["sneakers"], 0.6) {
		t.Errorf("scores = %v, want skirt and sneakers at 0.6", scores)
	}
	if _, ok := scores["hat"]; ok {
		t.Error("accessories do not complement tops or bottoms")
	}

	in := input("u")
	in.Category = "shoes"
	scores, err = w.Score(ctx, in)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(scores) != 1 || scores["sneakers"] == 0 {
		t.Errorf("filtered scores = %v, want only sneakers", scores)
	}
}

func TestComplements_Unknown(t *testing.T) {
	if got := Complements("socks"); got != nil {
		t.Errorf("Complements(socks) = %v, want nil", got)
	}
}

func TestCollaborative_FindSimilarUsers(t *testing.T) {
	ctx := context.Background()
	store := history.NewMemoryStore()
	for i, u := range []string{"u1", "u2"} {
		add(t, store, models.Interaction{UserID: u, ItemID: "a", Kind: models.KindTryOn, Category: "top", Style: "casual", Timestamp: base.Add(time.Duration(i) * time.Minute)})
		add(t, store, models.Interaction{UserID: u, ItemID: "b", Kind: models.KindTryOn, Category: "bottom", Style: "formal", Timestamp: base.Add(time.Hour)})
	}
	add(t, store, models.Interaction{UserID: "u3", ItemID: "c", Kind: models.KindTryOn, Category: "shoes", Style: "sporty", Timestamp: base})

	c := NewCollaborative(store, DefaultCollaborativeConfig())
	got, err := c.FindSimilarUsers(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("FindSimilarUsers: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("FindSimilarUsers = %v, want only u2", got)
	}
	if got[0].UserID != "u2" || !approx(got[0].Similarity, 1.0) {
		t.Errorf("neighbor = %+v, want u2 with similarity 1", got[0])
	}

	if sim := cosine(tasteVector([]models.Interaction{{Category: "top", Style: "casual"}}),
		tasteVector([]models.Interaction{{Category: "shoes", Style: "sporty"}})); sim != 0 {
		t.Errorf("disjoint similarity = %v, want 0", sim)
	}
}

func TestCollaborative_IgnoresViewsAndIgnores(t *testing.T) {
	ctx := context.Background()
	store := history.NewMemoryStore()
	for i := 0; i < 3; i++ {
		add(t, store, models.Interaction{UserID: "u", ItemID: "x", Kind: models.KindIgnore,
			Category: "top", Style: "casual", Timestamp: base.Add(time.Duration(i) * time.Minute)})
	}
	add(t, store, models.Interaction{UserID: "u", ItemID: "v", Kind: models.KindView, Category: "top", Style: "casual", Timestamp: base})
	add(t, store, models.Interaction{UserID: "fan", ItemID: "a", Kind: models.KindTryOn, Category: "top", Style: "casual", Timestamp: base})

	c := NewCollaborative(store, DefaultCollaborativeConfig())
	got, err := c.FindSimilarUsers(ctx, "u", 10)
	if err != nil {
		t.Fatalf("FindSimilarUsers: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("FindSimilarUsers = %v, want none for a user with only views and ignores", got)
	}

	// Ignoring what "fan" tried must not make "fan" a neighbor either.
	add(t, store, models.Interaction{UserID: "w", ItemID: "b", Kind: models.KindTryOn, Category: "shoes", Style: "sporty", Timestamp: base})
	for i := 0; i < 5; i++ {
		add(t, store, models.Interaction{UserID: "w", ItemID: "a", Kind: models.KindIgnore,
			Category: "top", Style: "casual", Timestamp: base.Add(time.Duration(i) * time.Minute)})
	}
	got, err = c.FindSimilarUsers(ctx, "w", 10)
	if err != nil {
		t.Fatalf("FindSimilarUsers: %v", err)
	}
	for _, n := range got {
		if n.UserID == "fan" {
			t.Errorf("fan is a neighbor of w with similarity %v, want excluded", n.Similarity)
		}
	}
}

func TestCollaborative_NoHistory(t *testing.T) {
	store := history.NewMemoryStore()
	add(t, store, models.Interaction{UserID: "other", ItemID: "a", Kind: models.KindTryOn, Category: "top", Timestamp: base})
	got, err := NewCollaborative(store, DefaultCollaborativeConfig()).FindSimilarUsers(context.Background(), "new", 10)
	if err != nil {
		t.Fatalf("FindSimilarUsers: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("FindSimilarUsers = %v, want none", got)
	}
}

func TestCollaborative_Score(t *testing.T) {
	ctx := context.Background()
	store := history.NewMemoryStore()
	add(t, store, models.Interaction{UserID: "me", ItemID: "mine", Kind: models.KindTryOn, Category: "top", Style: "casual", Timestamp: base})
	add(t, store, models.Interaction{UserID: "n", ItemID: "x", Kind: models.KindTryOn, Category: "top", Style: "casual", Timestamp: base})
	add(t, store, models.Interaction{UserID: "n", ItemID: "y", Kind: models.KindFavorite, Category: "top", Style: "casual", Timestamp: base.Add(time.Minute)})
	add(t, store, models.Interaction{UserID: "n", ItemID: "y", Kind: models.KindTryOn, Category: "top", Style: "casual", Timestamp: base.Add(2 * time.Minute)})

	scores, err := NewCollaborative(store, DefaultCollaborativeConfig()).Score(ctx, input("me"))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !approx(scores["x"], 0.5) {
		t.Errorf("score[x] = %v, want 0.5", scores["x"])
	}
	if !approx(scores["y"], 0.8) {
		t.Errorf("score[y] = %v, want 0.8 (favorited, counted once)", scores["y"])
	}

	cfg := DefaultCollaborativeConfig()
	cfg.FavoriteBase, cfg.InteractionBase = 1, 0.25
	scores, err = NewCollaborative(store, cfg).Score(ctx, input("me"))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !approx(scores["x"], 0.25) || !approx(scores["y"], 1) {
		t.Errorf("scores with configured bases = %v, want x 0.25 and y 1", scores)
	}
}

func TestTrending_NormalizedByMax(t *testing.T) {
	ctx := context.Background()
	store := history.NewMemoryStore()
	for i := 0; i < 4; i++ {
		add(t, store, models.Interaction{UserID: "u", ItemID: "hot", Kind: models.KindTryOn, Category: "top", Timestamp: base.Add(time.Duration(i) * time.Hour)})
	}
	for i := 0; i < 2; i++ {
		add(t, store, models.Interaction{UserID: "v", ItemID: "warm", Kind: models.KindTryOn, Category: "bottom", Timestamp: base.Add(time.Duration(i) * time.Hour)})
	}
	add(t, store, models.Interaction{UserID: "v", ItemID: "stale", Kind: models.KindTryOn, Timestamp: base.Add(-30 * 24 * time.Hour)})

	tr := NewTrending(history.NewHistoryTrending(store), 7*24*time.Hour)
	scores, err := tr.Score(ctx, input("anyone"))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if scores["hot"] != 1.0 {
		t.Errorf("score[hot] = %v, want 1.0", scores["hot"])
	}
	if scores["warm"] != 0.5 {
		t.Errorf("score[warm] = %v, want 0.5", scores["warm"])
	}
	if _, ok := scores["stale"]; ok {
		t.Error("interactions outside the window should not count")
	}
}

type fakeSearcher struct {
	byRef  map[string][]models.SimilarItem
	byItem map[string][]models.SimilarItem
	err    error
}

func (f *fakeSearcher) SimilarForReference(_ context.Context, ref string, _ int, _ string) ([]models.SimilarItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	res, ok := f.byRef[ref]
	if !ok {
		return nil, visual.ErrImageNotFound
	}
	return res, nil
}

func (f *fakeSearcher) SimilarByItemID(_ context.Context, id string, _ int, _ string) ([]models.SimilarItem, error) {
	res, ok := f.byItem[id]
	if !ok {
		return nil, visual.ErrItemNotIndexed
	}
	return res, nil
}

func visualStore(t *testing.T) history.Store {
	t.Helper()
	store := history.NewMemoryStore()
	add(t, store, models.Interaction{UserID: "u", ItemID: "i1", Kind: models.KindTryOn, ImageRef: "img1", Timestamp: base})
	add(t, store, models.Interaction{UserID: "u", ItemID: "i2", Kind: models.KindTryOn, ImageRef: "img2", Timestamp: base.Add(time.Hour)})
	add(t, store, models.Interaction{UserID: "u", ItemID: "i3", Kind: models.KindTryOn, Timestamp: base.Add(2 * time.Hour)})
	return store
}

func TestVisual_Aggregation(t *testing.T) {
	searcher := &fakeSearcher{byRef: map[string][]models.SimilarItem{
		"img1": {{ItemID: "p", Score: 0.9}, {ItemID: "q", Score: 0.5}},
		"img2": {{ItemID: "p", Score: 0.7}},
	}}
	tests := []struct {
		agg   Aggregation
		wantQ float64
	}{
		{AggregateMean, 0.5 / 0.8},
		{AggregateMax, 0.5 / 0.9},
	}
	for _, tt := range tests {
		t.Run(string(tt.agg), func(t *testing.T) {
			v := NewVisual(visualStore(t), searcher, VisualConfig{Recent: 5, Neighbors: 5, Lookback: 14 * 24 * time.Hour, Aggregation: tt.agg})
			scores, err := v.Score(context.Background(), input("u"))
			if err != nil {
				t.Fatalf("Score: %v", err)
			}
			if !approx(scores["p"], 1.0) {
				t.Errorf("score[p] = %v, want 1.0", scores["p"])
			}
			if !approx(scores["q"], tt.wantQ) {
				t.Errorf("score[q] = %v, want %v", scores["q"], tt.wantQ)
			}
		})
	}
}

func TestVisual_FallsBackToIndexedItem(t *testing.T) {
	searcher := &fakeSearcher{
		byRef:  map[string][]models.SimilarItem{},
		byItem: map[string][]models.SimilarItem{"i2": {{ItemID: "z", Score: 0.4}}},
	}
	v := NewVisual(visualStore(t), searcher, VisualConfig{Recent: 5, Neighbors: 5, Lookback: 14 * 24 * time.Hour})
	scores, err := v.Score(context.Background(), input("u"))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(scores) != 1 || !approx(scores["z"], 1.0) {
		t.Errorf("scores = %v, want z at 1.0", scores)
	}
}

func TestVisual_TryOnWithoutImageUsesIndexedItem(t *testing.T) {
	store := history.NewMemoryStore()
	add(t, store, models.Interaction{UserID: "u", ItemID: "i9", Kind: models.KindTryOn, Timestamp: base})
	add(t, store, models.Interaction{UserID: "u", Kind: models.KindTryOn, Timestamp: base.Add(time.Hour)})
	searcher := &fakeSearcher{
		byRef:  map[string][]models.SimilarItem{},
		byItem: map[string][]models.SimilarItem{"i9": {{ItemID: "z", Score: 0.6}, {ItemID: "y", Score: 0.3}}},
	}

	v := NewVisual(store, searcher, VisualConfig{Recent: 5, Neighbors: 5, Lookback: 14 * 24 * time.Hour})
	scores, err := v.Score(context.Background(), input("u"))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !approx(scores["z"], 1.0) || !approx(scores["y"], 0.5) {
		t.Errorf("scores = %v, want z at 1.0 and y at 0.5", scores)
	}
}

func TestVisual_ReportsBackendFailure(t *testing.T) {
	boom := errors.New("index unavailable")
	v := NewVisual(visualStore(t), &fakeSearcher{err: boom}, VisualConfig{Recent: 5, Neighbors: 5, Lookback: 14 * 24 * time.Hour})
	if _, err := v.Score(context.Background(), input("u")); !errors.Is(err, boom) {
		t.Errorf("Score error = %v, want %v", err, boom)
	}
}
