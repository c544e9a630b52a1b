// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fitline/internal/validation"
)

// RecommendationsRequest is the query of GET .../recommendations.
type RecommendationsRequest struct {
	Limit        int    `json:"limit" validate:"gte=0,lte=1000"`
	Category     string `json:"category" validate:"omitempty,max=64"`
	ExcludeTried bool   `json:"exclude_tried"`
}

// InteractionRequest is the body of POST .../interactions.
type InteractionRequest struct {
	ItemID string `json:"item_id" validate:"omitempty,item_id"`
	Kind   string `json:"kind" validate:"required,interaction_kind"`
}

// WardrobeRequest is the body of POST .../wardrobe.
type WardrobeRequest struct {
	ItemID   string `json:"item_id" validate:"required,item_id"`
	Category string `json:"category" validate:"omitempty,max=64"`
}

// SimilarRequest is the query of the visual search endpoints.
type SimilarRequest struct {
	K        int    `json:"k" validate:"min=1,max=100"`
	Category string `json:"category" validate:"omitempty,max=64"`
}

// IndexItemRequest is the form of POST /visual/items.
type IndexItemRequest struct {
	ItemID   string  `json:"item_id" validate:"required,item_id"`
	Name     string  `json:"name" validate:"max=256"`
	Category string  `json:"category" validate:"max=64"`
	Brand    string  `json:"brand" validate:"max=128"`
	Price    float64 `json:"price" validate:"gte=0"`
}

// CatalogListRequest is the validated part of GET /catalog/items.
type CatalogListRequest struct {
	Limit  int    `json:"limit" validate:"gte=0,lte=500"`
	Offset int    `json:"offset" validate:"gte=0"`
	Order  string `json:"order" validate:"omitempty,oneof=asc desc"`
}

const defaultK = 10

// paramError is a malformed query parameter.
type paramError struct {
	name  string
	value string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("invalid value %q for parameter %s", e.value, e.name)
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &paramError{name: name, value: raw}
	}
	return v, nil
}

func boolParam(r *http.Request, name string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &paramError{name: name, value: raw}
	}
	return v, nil
}

func floatValue(name, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &paramError{name: name, value: raw}
	}
	return v, nil
}

// decodeJSONBody decodes a bounded JSON body into dst and validates it.
// It writes the error response itself and reports whether to continue.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		badRequest(w, r, ErrCodeBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return validate(w, r, dst)
}

// validate runs the struct validator, writing a 400 on failure.
func validate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if verr := validation.ValidateStruct(v); verr != nil {
		respondError(w, r, http.StatusBadRequest, verr.ToAPIError())
		return false
	}
	return true
}

func itoa(n int) string { return strconv.Itoa(n) }
