// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/fitline/internal/models"
)

// MemoryStore is an in-process Store. Records are kept in append order,
// which is also timestamp order unless callers supply explicit timestamps.
type MemoryStore struct {
	mu       sync.RWMutex
	log      []models.Interaction
	wardrobe map[string]map[string]models.WardrobeItem
	closed   bool
	now      func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		wardrobe: make(map[string]map[string]models.WardrobeItem),
		now:      time.Now,
	}
}

// Append stores ix, keeping the log sorted by timestamp.
func (s *MemoryStore) Append(_ context.Context, ix *models.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := prepare(ix, s.now()); err != nil {
		return err
	}

	// Insert after every record with an equal or earlier timestamp.
	i := sort.Search(len(s.log), func(i int) bool {
		return s.log[i].Timestamp.After(ix.Timestamp)
	})
	s.log = append(s.log, models.Interaction{})
	copy(s.log[i+1:], s.log[i:])
	s.log[i] = *ix
	return nil
}

// QueryInteractions returns the user's records newest first.
func (s *MemoryStore) QueryInteractions(_ context.Context, userID string, q Query) ([]models.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	var out []models.Interaction
	for i := len(s.log) - 1; i >= 0; i-- {
		ix := s.log[i]
		if !q.Since.IsZero() && ix.Timestamp.Before(q.Since) {
			break
		}
		if ix.UserID != userID || !q.matchesKind(ix.Kind) {
			continue
		}
		out = append(out, ix)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

// QueryAll returns every record at or after since, oldest first.
func (s *MemoryStore) QueryAll(_ context.Context, since time.Time) ([]models.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	start := sort.Search(len(s.log), func(i int) bool {
		return !s.log[i].Timestamp.Before(since)
	})
	out := make([]models.Interaction, len(s.log)-start)
	copy(out, s.log[start:])
	return out, nil
}

// QueryFavorites returns the user's favorite records newest first.
func (s *MemoryStore) QueryFavorites(ctx context.Context, userID string) ([]models.Interaction, error) {
	return s.QueryInteractions(ctx, userID, Query{Kinds: []models.InteractionKind{models.KindFavorite}})
}

// QueryWardrobe returns the user's wardrobe ordered by item ID.
func (s *MemoryStore) QueryWardrobe(_ context.Context, userID string) ([]models.WardrobeItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	items := s.wardrobe[userID]
	out := make([]models.WardrobeItem, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

// AddWardrobeItem stores or replaces a wardrobe entry.
func (s *MemoryStore) AddWardrobeItem(_ context.Context, item models.WardrobeItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := validateWardrobeItem(&item); err != nil {
		return err
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = s.now().UTC()
	}
	if s.wardrobe[item.UserID] == nil {
		s.wardrobe[item.UserID] = make(map[string]models.WardrobeItem)
	}
	s.wardrobe[item.UserID][item.ItemID] = item
	return nil
}

// Users returns distinct users, most recently active first.
func (s *MemoryStore) Users(_ context.Context, exclude string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	var out []string
	seen := make(map[string]struct{})
	for i := len(s.log) - 1; i >= 0; i-- {
		u := s.log[i].UserID
		if u == exclude {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ Store = (*MemoryStore)(nil)
