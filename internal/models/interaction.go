// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// InteractionKind is the kind of user action an Interaction records.
type InteractionKind string

const (
	KindTryOn    InteractionKind = "tryon"
	KindFavorite InteractionKind = "favorite"
	KindView     InteractionKind = "view"
	KindPurchase InteractionKind = "purchase"
	KindIgnore   InteractionKind = "ignore"
)

// ErrUnknownInteractionKind is returned when parsing an unrecognized kind.
var ErrUnknownInteractionKind = errors.New("unknown interaction kind")

var interactionKinds = map[string]InteractionKind{
	"tryon":    KindTryOn,
	"try-on":   KindTryOn,
	"try":      KindTryOn,
	"favorite": KindFavorite,
	"view":     KindView,
	"purchase": KindPurchase,
	"ignore":   KindIgnore,
}

// ParseInteractionKind maps an API string to an InteractionKind.
// "try" and "try-on" are accepted as aliases of "tryon".
func ParseInteractionKind(s string) (InteractionKind, error) {
	if k, ok := interactionKinds[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownInteractionKind, s)
}

// Valid reports whether k is one of the defined kinds.
func (k InteractionKind) Valid() bool {
	switch k {
	case KindTryOn, KindFavorite, KindView, KindPurchase, KindIgnore:
		return true
	}
	return false
}

// Positive reports whether k expresses interest in the item. Views and
// ignores do not.
func (k InteractionKind) Positive() bool {
	switch k {
	case KindTryOn, KindFavorite, KindPurchase:
		return true
	}
	return false
}

// PositiveKinds returns the kinds for which Positive is true.
func PositiveKinds() []InteractionKind {
	return []InteractionKind{KindTryOn, KindFavorite, KindPurchase}
}

// Interaction is one immutable user action, optionally tied to an item.
// Item attributes are denormalized at record time so history-derived
// signals never need a catalog round trip.
type Interaction struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	ItemID    string          `json:"item_id,omitempty"`
	Kind      InteractionKind `json:"kind"`
	Category  string          `json:"category,omitempty"`
	Color     string          `json:"color,omitempty"`
	Style     string          `json:"style,omitempty"`
	Brand     string          `json:"brand,omitempty"`
	Price     float64         `json:"price,omitempty"`
	ImageRef  string          `json:"image_ref,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// HasImage reports whether the interaction references an image.
func (i *Interaction) HasImage() bool {
	return i.ImageRef != ""
}

// ApplyItem copies catalog attributes onto the interaction, leaving
// already-populated fields untouched.
func (i *Interaction) ApplyItem(item *CatalogItem) {
	if i.Category == "" {
		i.Category = item.Category
	}
	if i.Color == "" {
		i.Color = item.Color
	}
	if i.Style == "" {
		i.Style = item.Style
	}
	if i.Brand == "" {
		i.Brand = item.Brand
	}
	if i.Price == 0 {
		i.Price = item.Price
	}
	if i.ImageRef == "" {
		i.ImageRef = item.ImageRef
	}
}

// WardrobeItem is a garment the user owns.
type WardrobeItem struct {
	UserID   string    `json:"user_id"`
	ItemID   string    `json:"item_id"`
	Category string    `json:"category"`
	AddedAt  time.Time `json:"added_at"`
}
