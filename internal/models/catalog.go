// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package models

// CatalogItem is a purchasable or tryable garment. It is read-only
// reference data owned by the catalog backend.
type CatalogItem struct {
	ID       string  `json:"id" db:"id"`
	Name     string  `json:"name" db:"name"`
	Category string  `json:"category" db:"category"`
	Color    string  `json:"color,omitempty" db:"color"`
	Brand    string  `json:"brand,omitempty" db:"brand"`
	Style    string  `json:"style,omitempty" db:"style"`
	Price    float64 `json:"price" db:"price"`
	ImageRef string  `json:"image,omitempty" db:"image_ref"`
}

// Metadata returns the subset of fields stored alongside an embedding.
func (c *CatalogItem) Metadata() ItemMetadata {
	return ItemMetadata{
		Name:     c.Name,
		Category: c.Category,
		Brand:    c.Brand,
		Price:    c.Price,
		ImageURL: c.ImageRef,
	}
}

// ItemMetadata is stored next to each vector in the similarity index.
type ItemMetadata struct {
	Name     string  `json:"name,omitempty"`
	Category string  `json:"category,omitempty"`
	Brand    string  `json:"brand,omitempty"`
	Price    float64 `json:"price,omitempty"`
	ImageURL string  `json:"image_url,omitempty"`
}

// SimilarItem is one visual search hit.
type SimilarItem struct {
	ItemID   string       `json:"item_id"`
	Score    float64      `json:"similarity_score"`
	Metadata ItemMetadata `json:"metadata"`
}
