// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tomtom215/fitline/internal/models"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type storeFactory func(t *testing.T) Store

func stores() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"badger": func(t *testing.T) Store {
			s, err := OpenBadger("", zerolog.Nop())
			if err != nil {
				t.Fatalf("OpenBadger: %v", err)
			}
			return s
		},
	}
}

func mustAppend(t *testing.T, s Store, ix models.Interaction) models.Interaction {
	t.Helper()
	if err := s.Append(context.Background(), &ix); err != nil {
		t.Fatalf("Append(%+v): %v", ix, err)
	}
	return ix
}

func seed(t *testing.T, s Store) {
	t.Helper()
	mustAppend(t, s, models.Interaction{UserID: "u1", ItemID: "a", Kind: models.KindTryOn, Category: "top", Timestamp: base})
	mustAppend(t, s, models.Interaction{UserID: "u1", ItemID: "b", Kind: models.KindFavorite, Category: "bottom", Timestamp: base.Add(time.Hour)})
	mustAppend(t, s, models.Interaction{UserID: "u2", ItemID: "a", Kind: models.KindTryOn, Category: "top", Timestamp: base.Add(2 * time.Hour)})
	mustAppend(t, s, models.Interaction{UserID: "u1", ItemID: "c", Kind: models.KindTryOn, Category: "top", Timestamp: base.Add(3 * time.Hour)})
	mustAppend(t, s, models.Interaction{UserID: "u3", ItemID: "d", Kind: models.KindView, Timestamp: base.Add(4 * time.Hour)})
}

func itemIDs(ixs []models.Interaction) []string {
	out := make([]string, len(ixs))
	for i := range ixs {
		out[i] = ixs[i].ItemID
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStore_Append(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()

			ix := mustAppend(t, s, models.Interaction{UserID: "u1", ItemID: "a", Kind: models.KindTryOn})
			if ix.ID == "" {
				t.Error("Append did not assign an ID")
			}
			if ix.Timestamp.IsZero() {
				t.Error("Append did not assign a timestamp")
			}
			if ix.Timestamp.Location() != time.UTC {
				t.Errorf("Timestamp location = %v, want UTC", ix.Timestamp.Location())
			}

			tests := []struct {
				name string
				ix   models.Interaction
			}{
				{"empty user", models.Interaction{ItemID: "a", Kind: models.KindTryOn}},
				{"bad kind", models.Interaction{UserID: "u1", Kind: "wear"}},
				{"nul in user", models.Interaction{UserID: "u\x001", Kind: models.KindView}},
			}
			for _, tt := range tests {
				ix := tt.ix
				if err := s.Append(context.Background(), &ix); !errors.Is(err, ErrInvalidInteraction) {
					t.Errorf("%s: Append() error = %v, want ErrInvalidInteraction", tt.name, err)
				}
			}
		})
	}
}

func TestStore_QueryInteractions(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()
			seed(t, s)
			ctx := context.Background()

			tests := []struct {
				name string
				q    Query
				want []string
			}{
				{"all newest first", Query{}, []string{"c", "b", "a"}},
				{"limit", Query{Limit: 2}, []string{"c", "b"}},
				{"since", Query{Since: base.Add(30 * time.Minute)}, []string{"c", "b"}},
				{"kinds", Query{Kinds: []models.InteractionKind{models.KindTryOn}}, []string{"c", "a"}},
				{"since excludes all", Query{Since: base.Add(10 * time.Hour)}, nil},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					got, err := s.QueryInteractions(ctx, "u1", tt.q)
					if err != nil {
						t.Fatalf("QueryInteractions: %v", err)
					}
					if ids := itemIDs(got); !equalStrings(ids, tt.want) {
						t.Errorf("QueryInteractions = %v, want %v", ids, tt.want)
					}
				})
			}

			got, err := s.QueryInteractions(ctx, "nobody", Query{})
			if err != nil {
				t.Fatalf("QueryInteractions(nobody): %v", err)
			}
			if len(got) != 0 {
				t.Errorf("QueryInteractions(nobody) = %d records, want 0", len(got))
			}
		})
	}
}

func TestStore_QueryAll(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()
			seed(t, s)

			got, err := s.QueryAll(context.Background(), base.Add(time.Hour))
			if err != nil {
				t.Fatalf("QueryAll: %v", err)
			}
			want := []string{"b", "a", "c", "d"}
			if ids := itemIDs(got); !equalStrings(ids, want) {
				t.Errorf("QueryAll = %v, want %v", ids, want)
			}
		})
	}
}

func TestStore_QueryFavorites(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()
			seed(t, s)

			got, err := s.QueryFavorites(context.Background(), "u1")
			if err != nil {
				t.Fatalf("QueryFavorites: %v", err)
			}
			if ids := itemIDs(got); !equalStrings(ids, []string{"b"}) {
				t.Errorf("QueryFavorites = %v, want [b]", ids)
			}
		})
	}
}

func TestStore_Wardrobe(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()
			ctx := context.Background()

			for _, item := range []models.WardrobeItem{
				{UserID: "u1", ItemID: "w2", Category: "bottom"},
				{UserID: "u1", ItemID: "w1", Category: "top"},
				{UserID: "u1", ItemID: "w2", Category: "shoes"},
				{UserID: "u2", ItemID: "w9", Category: "dress"},
			} {
				if err := s.AddWardrobeItem(ctx, item); err != nil {
					t.Fatalf("AddWardrobeItem(%+v): %v", item, err)
				}
			}

			got, err := s.QueryWardrobe(ctx, "u1")
			if err != nil {
				t.Fatalf("QueryWardrobe: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("QueryWardrobe len = %d, want 2", len(got))
			}
			if got[0].ItemID != "w1" || got[1].ItemID != "w2" {
				t.Errorf("QueryWardrobe order = [%s %s], want [w1 w2]", got[0].ItemID, got[1].ItemID)
			}
			if got[1].Category != "shoes" {
				t.Errorf("replaced entry Category = %q, want shoes", got[1].Category)
			}

			err = s.AddWardrobeItem(ctx, models.WardrobeItem{UserID: "u1"})
			if !errors.Is(err, ErrInvalidInteraction) {
				t.Errorf("AddWardrobeItem(no item) error = %v, want ErrInvalidInteraction", err)
			}
		})
	}
}

func TestStore_Users(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()
			seed(t, s)
			ctx := context.Background()

			got, err := s.Users(ctx, "u1", 0)
			if err != nil {
				t.Fatalf("Users: %v", err)
			}
			if want := []string{"u3", "u2"}; !equalStrings(got, want) {
				t.Errorf("Users = %v, want %v", got, want)
			}

			got, err = s.Users(ctx, "", 2)
			if err != nil {
				t.Fatalf("Users(limit): %v", err)
			}
			if want := []string{"u3", "u1"}; !equalStrings(got, want) {
				t.Errorf("Users(limit 2) = %v, want %v", got, want)
			}
		})
	}
}

func TestStore_Closed(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			if err := s.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}
			ix := models.Interaction{UserID: "u1", Kind: models.KindView}
			if err := s.Append(context.Background(), &ix); !errors.Is(err, ErrClosed) {
				t.Errorf("Append after Close error = %v, want ErrClosed", err)
			}
		})
	}
}

func TestBadgerStore_Persists(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenBadger(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	seed(t, s)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = OpenBadger(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	n, err := s.Len()
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if n != 5 {
		t.Errorf("Len after reopen = %d, want 5", n)
	}
}

func TestHistoryTrending_Counts(t *testing.T) {
	s := NewMemoryStore()
	seed(t, s)
	mustAppend(t, s, models.Interaction{UserID: "u4", ItemID: "c", Kind: models.KindTryOn, Category: "top", Timestamp: base.Add(5 * time.Hour)})
	mustAppend(t, s, models.Interaction{UserID: "u4", ItemID: "e", Kind: models.KindTryOn, Category: "shoes", Timestamp: base.Add(5 * time.Hour)})
	tr := NewHistoryTrending(s)

	tests := []struct {
		name     string
		since    time.Time
		category string
		want     map[string]int
	}{
		{"all", base, "", map[string]int{"a": 2, "c": 2, "e": 1}},
		{"window", base.Add(150 * time.Minute), "", map[string]int{"c": 2, "e": 1}},
		{"category", base, "shoes", map[string]int{"e": 1}},
		{"empty category", base, "dress", map[string]int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tr.Counts(context.Background(), tt.since, tt.category)
			if err != nil {
				t.Fatalf("Counts: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Counts = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("Counts[%s] = %d, want %d", k, got[k], v)
				}
			}
		})
	}
}

func TestRedisTrending_BucketKeys(t *testing.T) {
	r := NewRedisTrending(nil, "fitline", 8*24*time.Hour)
	r.now = func() time.Time { return time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC) }

	got := r.bucketKeys(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC), "top")
	want := []string{
		"fitline:trending:20260301:top",
		"fitline:trending:20260302:top",
		"fitline:trending:20260303:top",
	}
	if !equalStrings(got, want) {
		t.Errorf("bucketKeys = %v, want %v", got, want)
	}

	if k := r.bucketKey(time.Date(2026, 3, 1, 23, 0, 0, 0, time.FixedZone("x", -5*3600)), ""); k != "fitline:trending:20260302" {
		t.Errorf("bucketKey = %q, want UTC day 20260302", k)
	}
}

func TestRedisTrending_IncrementSkipsUncounted(t *testing.T) {
	r := NewRedisTrending(nil, "fitline", time.Hour)
	// A nil client would panic if Increment reached Redis.
	for _, ix := range []*models.Interaction{
		{UserID: "u1", ItemID: "a", Kind: models.KindView},
		{UserID: "u1", Kind: models.KindTryOn},
	} {
		if err := r.Increment(context.Background(), ix); err != nil {
			t.Errorf("Increment(%s) error = %v", ix.Kind, err)
		}
	}
}

func TestRedisTrending_IncrementAndCounts(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ttl := 8 * 24 * time.Hour
	r := NewRedisTrending(client, "fitline", ttl)
	r.now = func() time.Time { return time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC) }

	ctx := context.Background()
	day := func(d, h int) time.Time { return time.Date(2026, 3, d, h, 0, 0, 0, time.UTC) }
	for _, ix := range []*models.Interaction{
		{UserID: "u1", ItemID: "a", Kind: models.KindTryOn, Category: "top", Timestamp: day(1, 10)},
		{UserID: "u2", ItemID: "a", Kind: models.KindTryOn, Category: "top", Timestamp: day(3, 8)},
		{UserID: "u1", ItemID: "b", Kind: models.KindTryOn, Category: "shoes", Timestamp: day(2, 12)},
		{UserID: "u3", ItemID: "c", Kind: models.KindTryOn, Timestamp: day(3, 7)},
		{UserID: "u3", ItemID: "a", Kind: models.KindView, Category: "top", Timestamp: day(3, 7)},
		{UserID: "u4", ItemID: "old", Kind: models.KindTryOn, Category: "top", Timestamp: time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)},
	} {
		if err := r.Increment(ctx, ix); err != nil {
			t.Fatalf("Increment(%s): %v", ix.ItemID, err)
		}
	}

	if got := mr.TTL("fitline:trending:20260301:top"); got != ttl {
		t.Errorf("bucket TTL = %v, want %v", got, ttl)
	}
	if mr.Exists("fitline:trending:20260303:") {
		t.Error("uncategorized try-on created an empty category bucket")
	}

	tests := []struct {
		name     string
		since    time.Time
		category string
		want     map[string]int
	}{
		{"three days", day(1, 18), "", map[string]int{"a": 2, "b": 1, "c": 1}},
		{"two days", day(2, 0), "", map[string]int{"a": 1, "b": 1, "c": 1}},
		{"category", day(1, 0), "top", map[string]int{"a": 2}},
		{"empty bucket", day(3, 0), "shoes", map[string]int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Counts(ctx, tt.since, tt.category)
			if err != nil {
				t.Fatalf("Counts: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Counts = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("Counts[%s] = %d, want %d", k, got[k], v)
				}
			}
		})
	}
}
