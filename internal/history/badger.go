// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package history

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/fitline/internal/models"
)

// Key layout:
//
//	ix:<user>\x00<inverted-nanos>:<id>  per-user log, newest first
//	ts:<nanos>:<user>\x00<id>           global log, oldest first
//	wd:<user>\x00<item>                 wardrobe
//
// Timestamps are fixed-width hex so lexicographic order is numeric order.
const (
	userLogPrefix   = "ix:"
	globalLogPrefix = "ts:"
	wardrobePrefix  = "wd:"
	keySep          = '\x00'
)

func encodeNanos(n int64) string {
	return fmt.Sprintf("%016x", uint64(n))
}

func userPrefix(prefix, userID string) []byte {
	return []byte(prefix + userID + string(keySep))
}

func userLogKey(ix *models.Interaction) []byte {
	inv := math.MaxInt64 - ix.Timestamp.UnixNano()
	return []byte(userLogPrefix + ix.UserID + string(keySep) + encodeNanos(inv) + ":" + ix.ID)
}

func globalLogKey(ix *models.Interaction) []byte {
	return []byte(globalLogPrefix + encodeNanos(ix.Timestamp.UnixNano()) + ":" + ix.UserID + string(keySep) + ix.ID)
}

// userFromGlobalKey extracts the user ID from a ts: key.
func userFromGlobalKey(key []byte) string {
	rest := key[len(globalLogPrefix)+16+1:]
	for i, b := range rest {
		if b == keySep {
			return string(rest[:i])
		}
	}
	return string(rest)
}

// BadgerStore is a Store backed by BadgerDB.
type BadgerStore struct {
	db     *badger.DB
	owned  bool
	closed atomic.Bool
	logger zerolog.Logger
}

// OpenBadger opens (or creates) a BadgerDB at path. An empty path opens an
// in-memory database.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func OpenBadger(path string, logger zerolog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	s := NewBadgerStore(db, logger)
	s.owned = true
	return s, nil
}

// NewBadgerStore wraps an already open database. Close does not close db.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewBadgerStore(db *badger.DB, logger zerolog.Logger) *BadgerStore {
	return &BadgerStore{
		db:     db,
		logger: logger.With().Str("component", "history").Str("backend", "badger").Logger(),
	}
}

// Append stores ix under both the per-user and the global key.
func (s *BadgerStore) Append(_ context.Context, ix *models.Interaction) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := prepare(ix, time.Now()); err != nil {
		return err
	}
	data, err := json.Marshal(ix)
	if err != nil {
		return fmt.Errorf("marshal interaction: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(userLogKey(ix), data); err != nil {
			return fmt.Errorf("set user log entry: %w", err)
		}
		if err := txn.Set(globalLogKey(ix), data); err != nil {
			return fmt.Errorf("set global log entry: %w", err)
		}
		return nil
	})
}

// QueryInteractions scans the user's log newest first and stops at the
// first record older than q.Since.
func (s *BadgerStore) QueryInteractions(ctx context.Context, userID string, q Query) ([]models.Interaction, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	var out []models.Interaction
	prefix := userPrefix(userLogPrefix, userID)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var ix models.Interaction
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &ix)
			}); err != nil {
				return fmt.Errorf("decode interaction: %w", err)
			}
			if !q.Since.IsZero() && ix.Timestamp.Before(q.Since) {
				break
			}
			if !q.matchesKind(ix.Kind) {
				continue
			}
			out = append(out, ix)
			if q.Limit > 0 && len(out) >= q.Limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query interactions for %s: %w", userID, err)
	}
	return out, nil
}

// QueryAll scans the global log from since to the end.
func (s *BadgerStore) QueryAll(ctx context.Context, since time.Time) ([]models.Interaction, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	var out []models.Interaction
	prefix := []byte(globalLogPrefix)
	start := prefix
	if !since.IsZero() {
		start = []byte(globalLogPrefix + encodeNanos(since.UnixNano()))
	}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(start); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var ix models.Interaction
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &ix)
			}); err != nil {
				return fmt.Errorf("decode interaction: %w", err)
			}
			out = append(out, ix)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query all interactions: %w", err)
	}
	return out, nil
}

// QueryFavorites returns the user's favorite interactions.
func (s *BadgerStore) QueryFavorites(ctx context.Context, userID string) ([]models.Interaction, error) {
	return s.QueryInteractions(ctx, userID, Query{Kinds: []models.InteractionKind{models.KindFavorite}})
}

// QueryWardrobe returns the user's wardrobe ordered by item ID.
func (s *BadgerStore) QueryWardrobe(_ context.Context, userID string) ([]models.WardrobeItem, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	var out []models.WardrobeItem
	prefix := userPrefix(wardrobePrefix, userID)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var item models.WardrobeItem
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &item)
			}); err != nil {
				return fmt.Errorf("decode wardrobe item: %w", err)
			}
			out = append(out, item)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query wardrobe for %s: %w", userID, err)
	}
	return out, nil
}

// AddWardrobeItem stores or replaces a wardrobe entry.
func (s *BadgerStore) AddWardrobeItem(_ context.Context, item models.WardrobeItem) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := validateWardrobeItem(&item); err != nil {
		return err
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now().UTC()
	}
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal wardrobe item: %w", err)
	}
	key := append(userPrefix(wardrobePrefix, item.UserID), item.ItemID...)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// Users walks the global log backwards, collecting distinct users.
func (s *BadgerStore) Users(ctx context.Context, exclude string, limit int) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	var out []string
	seen := make(map[string]struct{})
	prefix := []byte(globalLogPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(append(append([]byte{}, prefix...), 0xff)); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			user := userFromGlobalKey(it.Item().Key())
			if user == exclude {
				continue
			}
			if _, ok := seen[user]; ok {
				continue
			}
			seen[user] = struct{}{}
			out = append(out, user)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// Close closes the database if the store opened it.
func (s *BadgerStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if !s.owned {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close badger: %w", err)
	}
	s.logger.Debug().Msg("history store closed")
	return nil
}

// Len counts stored interactions. Used by health checks.
func (s *BadgerStore) Len() (int, error) {
	n := 0
	prefix := []byte(globalLogPrefix)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

var _ Store = (*BadgerStore)(nil)
