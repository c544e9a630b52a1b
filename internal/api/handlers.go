// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package api

import (
	"context"
	"image"
	"time"

	"github.com/tomtom215/fitline/internal/catalog"
	"github.com/tomtom215/fitline/internal/models"
	"github.com/tomtom215/fitline/internal/recommend"
)

// Recommender is the part of recommend.Engine the handlers use.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
	RecordInteraction(ctx context.Context, userID, itemID string, kind models.InteractionKind) (*models.Interaction, error)
	AddWardrobeItem(ctx context.Context, userID, itemID, category string) (*models.WardrobeItem, error)
	StyleProfile(ctx context.Context, userID string) (*models.StyleProfile, error)
}

// VisualSearcher is the part of visual.Service the handlers use.
type VisualSearcher interface {
	SimilarByImage(ctx context.Context, img image.Image, k int, category string) ([]models.SimilarItem, error)
	SimilarByItemID(ctx context.Context, itemID string, k int, category string) ([]models.SimilarItem, error)
	AddItem(ctx context.Context, itemID string, img image.Image, meta models.ItemMetadata) error
	Len() int
}

// ReadinessCheck is one dependency probed by /health/ready.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HandlerConfig holds request limits.
type HandlerConfig struct {
	// RequestTimeout bounds recommendation and visual calls.
	RequestTimeout time.Duration

	// MaxUploadBytes caps image uploads.
	MaxUploadBytes int64
}

// Handler serves the API endpoints.
type Handler struct {
	engine    Recommender
	visual    VisualSearcher
	catalog   catalog.Catalog
	checks    []ReadinessCheck
	cfg       HandlerConfig
	startTime time.Time
}

// NewHandler returns a handler. visual may be nil, in which case the
// visual endpoints answer 503.
func NewHandler(engine Recommender, vs VisualSearcher, cat catalog.Catalog, cfg HandlerConfig, checks ...ReadinessCheck) *Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	return &Handler{
		engine:    engine,
		visual:    vs,
		catalog:   cat,
		checks:    checks,
		cfg:       cfg,
		startTime: time.Now(),
	}
}

func (h *Handler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, h.cfg.RequestTimeout)
}
