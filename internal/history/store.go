// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/fitline/internal/models"
)

var (
	// ErrInvalidInteraction is returned by Append for records that cannot
	// be stored.
	ErrInvalidInteraction = errors.New("invalid interaction")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("history store closed")
)

// Query narrows a per-user interaction scan.
type Query struct {
	// Since excludes records older than this instant. Zero means no bound.
	Since time.Time

	// Limit caps the number of records returned. 0 means no cap.
	Limit int

	// Kinds restricts the scan to these kinds. Empty means all kinds.
	Kinds []models.InteractionKind
}

func (q *Query) matchesKind(k models.InteractionKind) bool {
	if len(q.Kinds) == 0 {
		return true
	}
	for _, want := range q.Kinds {
		if want == k {
			return true
		}
	}
	return false
}

// Store is the interaction history store. All reads return newest-first
// unless documented otherwise.
type Store interface {
	// Append validates ix, assigns an ID and timestamp when missing, and
	// stores it. The stored record is written back into ix.
	Append(ctx context.Context, ix *models.Interaction) error

	// QueryInteractions returns userID's interactions, newest first.
	QueryInteractions(ctx context.Context, userID string, q Query) ([]models.Interaction, error)

	// QueryAll returns every user's interactions at or after since, oldest
	// first.
	QueryAll(ctx context.Context, since time.Time) ([]models.Interaction, error)

	// QueryFavorites returns userID's favorite interactions, newest first.
	QueryFavorites(ctx context.Context, userID string) ([]models.Interaction, error)

	// QueryWardrobe returns the garments userID owns.
	QueryWardrobe(ctx context.Context, userID string) ([]models.WardrobeItem, error)

	// AddWardrobeItem stores or replaces a wardrobe entry.
	AddWardrobeItem(ctx context.Context, item models.WardrobeItem) error

	// Users returns up to limit user IDs other than exclude, most recently
	// active first.
	Users(ctx context.Context, exclude string, limit int) ([]string, error)

	Close() error
}

// prepare validates and completes an interaction before it is stored.
func prepare(ix *models.Interaction, now time.Time) error {
	if err := validateUserID(ix.UserID); err != nil {
		return err
	}
	if !ix.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidInteraction, ix.Kind)
	}
	if ix.ID == "" {
		ix.ID = uuid.NewString()
	}
	if ix.Timestamp.IsZero() {
		ix.Timestamp = now
	}
	ix.Timestamp = ix.Timestamp.UTC()
	return nil
}

func validateUserID(userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: empty user id", ErrInvalidInteraction)
	}
	if strings.ContainsRune(userID, keySep) {
		return fmt.Errorf("%w: user id contains a NUL byte", ErrInvalidInteraction)
	}
	return nil
}

func validateWardrobeItem(item *models.WardrobeItem) error {
	if err := validateUserID(item.UserID); err != nil {
		return err
	}
	if item.ItemID == "" {
		return fmt.Errorf("%w: empty wardrobe item id", ErrInvalidInteraction)
	}
	return nil
}
