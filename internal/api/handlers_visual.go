// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package api

import (
	"errors"
	"image"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/fitline/internal/logging"
	"github.com/tomtom215/fitline/internal/models"
	"github.com/tomtom215/fitline/internal/visual"
)

// multipartOverhead is headroom above MaxUploadBytes for form fields and
// part headers.
const multipartOverhead = 64 << 10

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// uploadedImage reads and decodes the request image: the "image" part of a
// multipart form, or the raw body otherwise. It writes the error response
// itself and reports whether to continue.
func (h *Handler) uploadedImage(w http.ResponseWriter, r *http.Request) (image.Image, bool) {
	var (
		data []byte
		err  error
	)
	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes+multipartOverhead)
		if err = r.ParseMultipartForm(h.cfg.MaxUploadBytes); err == nil {
			file, _, ferr := r.FormFile("image")
			if ferr != nil {
				badRequest(w, r, ErrCodeBadRequest, "multipart field \"image\" is required")
				return nil, false
			}
			defer file.Close()
			data, err = io.ReadAll(io.LimitReader(file, h.cfg.MaxUploadBytes+1))
		}
	} else {
		data, err = io.ReadAll(http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes))
	}

	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &tooBig) || int64(len(data)) > h.cfg.MaxUploadBytes:
		respondError(w, r, http.StatusRequestEntityTooLarge, &models.APIError{
			Code:    ErrCodeTooLarge,
			Message: "image exceeds the upload limit",
		})
		return nil, false
	case err != nil:
		badRequest(w, r, ErrCodeBadRequest, "could not read upload: "+err.Error())
		return nil, false
	case len(data) == 0:
		badRequest(w, r, ErrCodeBadRequest, "image is required")
		return nil, false
	}

	img, format, err := visual.DecodeImage(data)
	if err != nil {
		if errors.Is(err, visual.ErrImageTooLarge) {
			respondErr(w, r, err)
			return nil, false
		}
		badRequest(w, r, ErrCodeInvalidImage, err.Error())
		return nil, false
	}
	logging.Ctx(r.Context()).Debug().
		Str("format", format).
		Int("bytes", len(data)).
		Msg("decoded uploaded image")
	return img, true
}

func cleanupForm(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

func similarRequest(r *http.Request) (SimilarRequest, error) {
	k, err := intParam(r, "k", defaultK)
	if err != nil {
		return SimilarRequest{}, err
	}
	return SimilarRequest{K: k, Category: strings.TrimSpace(r.URL.Query().Get("category"))}, nil
}

// SimilarByImage handles POST /api/v1/visual/similar.
func (h *Handler) SimilarByImage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.visual == nil {
		respondErr(w, r, ErrVisualDisabled)
		return
	}
	defer cleanupForm(r)

	req, err := similarRequest(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if !validate(w, r, &req) {
		return
	}
	img, ok := h.uploadedImage(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	items, err := h.visual.SimilarByImage(ctx, img, req.K, req.Category)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	}, start)
}

// SimilarByItem handles GET /api/v1/visual/items/{itemID}/similar.
func (h *Handler) SimilarByItem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.visual == nil {
		respondErr(w, r, ErrVisualDisabled)
		return
	}
	req, err := similarRequest(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if !validate(w, r, &req) {
		return
	}

	itemID := chi.URLParam(r, "itemID")
	items, err := h.visual.SimilarByItemID(r.Context(), itemID, req.K, req.Category)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, map[string]interface{}{
		"item_id": itemID,
		"items":   items,
		"count":   len(items),
	}, start)
}

// IndexItem handles POST /api/v1/visual/items, a multipart form with the
// item fields and its image.
func (h *Handler) IndexItem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.visual == nil {
		respondErr(w, r, ErrVisualDisabled)
		return
	}
	if !isMultipart(r) {
		badRequest(w, r, ErrCodeBadRequest, "expected multipart/form-data")
		return
	}
	defer cleanupForm(r)

	img, ok := h.uploadedImage(w, r)
	if !ok {
		return
	}
	price, err := floatValue("price", r.FormValue("price"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	req := IndexItemRequest{
		ItemID:   strings.TrimSpace(r.FormValue("item_id")),
		Name:     r.FormValue("name"),
		Category: r.FormValue("category"),
		Brand:    r.FormValue("brand"),
		Price:    price,
	}
	if !validate(w, r, &req) {
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	meta := models.ItemMetadata{Name: req.Name, Category: req.Category, Brand: req.Brand, Price: req.Price}
	if err := h.visual.AddItem(ctx, req.ItemID, img, meta); err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, r, http.StatusCreated, map[string]interface{}{
		"item_id":    req.ItemID,
		"index_size": h.visual.Len(),
	}, start)
}
