// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/fitline/internal/models"
	"github.com/tomtom215/fitline/internal/recommend"
)

// Recommendations handles GET /api/v1/users/{userID}/recommendations.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID := chi.URLParam(r, "userID")

	limit, err := intParam(r, "limit", 0)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	exclude, err := boolParam(r, "exclude_tried")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	req := RecommendationsRequest{
		Limit:        limit,
		Category:     strings.TrimSpace(r.URL.Query().Get("category")),
		ExcludeTried: exclude,
	}
	if !validate(w, r, &req) {
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	resp, err := h.engine.Recommend(ctx, recommend.Request{
		UserID:       userID,
		Limit:        req.Limit,
		Category:     req.Category,
		ExcludeTried: req.ExcludeTried,
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, resp, start)
}

// StyleProfile handles GET /api/v1/users/{userID}/style-profile.
func (h *Handler) StyleProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	profile, err := h.engine.StyleProfile(ctx, chi.URLParam(r, "userID"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, profile, start)
}

// RecordInteraction handles POST /api/v1/users/{userID}/interactions.
// The interaction is stored synchronously; recommendations pick it up on
// the next request, so the response is 202.
func (h *Handler) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req InteractionRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	kind, err := models.ParseInteractionKind(req.Kind)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	ix, err := h.engine.RecordInteraction(r.Context(), chi.URLParam(r, "userID"), req.ItemID, kind)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, r, http.StatusAccepted, ix, start)
}

// AddWardrobeItem handles POST /api/v1/users/{userID}/wardrobe.
func (h *Handler) AddWardrobeItem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req WardrobeRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	item, err := h.engine.AddWardrobeItem(r.Context(), chi.URLParam(r, "userID"), req.ItemID, req.Category)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, r, http.StatusCreated, item, start)
}
