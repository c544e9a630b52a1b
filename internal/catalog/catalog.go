// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package catalog

import (
	"context"
	"errors"

	"github.com/tomtom215/fitline/internal/models"
)

// ErrItemNotFound is returned by Resolve for unknown item IDs.
var ErrItemNotFound = errors.New("catalog item not found")

// Catalog is the item metadata source consulted by the recommender.
type Catalog interface {
	// Resolve returns the item with the given ID or ErrItemNotFound.
	Resolve(ctx context.Context, itemID string) (models.CatalogItem, error)

	// SearchByAttributes returns items matching any of the attribute
	// values in q, restricted to q.CategoryFilter when set.
	SearchByAttributes(ctx context.Context, q AttributeQuery) ([]models.CatalogItem, error)

	// List pages through the catalog.
	List(ctx context.Context, q ListQuery) ([]models.CatalogItem, error)
}

// AttributeQuery selects items sharing attributes with a user's taste.
type AttributeQuery struct {
	Categories []string `json:"categories,omitempty"`
	Colors     []string `json:"colors,omitempty"`
	Styles     []string `json:"styles,omitempty"`
	Brands     []string `json:"brands,omitempty"`

	// CategoryFilter, when set, is a hard restriction on category.
	CategoryFilter string `json:"category_filter,omitempty"`

	// Limit caps the result. 0 returns every match. Limited results keep
	// the items matching the most attribute groups.
	Limit int `json:"limit,omitempty"`
}

// Empty reports whether the query has no attribute values.
func (q *AttributeQuery) Empty() bool {
	return len(q.Categories) == 0 && len(q.Colors) == 0 && len(q.Styles) == 0 && len(q.Brands) == 0
}

// ListQuery pages through the catalog with optional filters and ordering.
type ListQuery struct {
	Filters   map[Field]string
	SortField Field
	Desc      bool
	Limit     int
	Offset    int
}

const (
	// DefaultListLimit applies when ListQuery.Limit is zero.
	DefaultListLimit = 50
	// MaxListLimit caps ListQuery.Limit.
	MaxListLimit = 500
)

func (q *ListQuery) normalize() {
	if q.Limit <= 0 {
		q.Limit = DefaultListLimit
	}
	if q.Limit > MaxListLimit {
		q.Limit = MaxListLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.SortField == FieldNone {
		q.SortField = FieldName
	}
}

// Walk pages through c in name order, calling fn for each page. It stops
// at the first short page or the first error.
func Walk(ctx context.Context, c Catalog, pageSize int, fn func([]models.CatalogItem) error) error {
	if pageSize <= 0 || pageSize > MaxListLimit {
		pageSize = MaxListLimit
	}
	for offset := 0; ; offset += pageSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := c.List(ctx, ListQuery{SortField: FieldName, Limit: pageSize, Offset: offset})
		if err != nil {
			return err
		}
		if len(page) > 0 {
			if err := fn(page); err != nil {
				return err
			}
		}
		if len(page) < pageSize {
			return nil
		}
	}
}
