// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/fitline/internal/catalog"
	"github.com/tomtom215/fitline/internal/history"
	"github.com/tomtom215/fitline/internal/models"
	"github.com/tomtom215/fitline/internal/recommend"
	"github.com/tomtom215/fitline/internal/visual"
)

// Error codes for API responses.
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeInvalidImage       = "INVALID_IMAGE"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeTooLarge           = "PAYLOAD_TOO_LARGE"
	ErrCodeTimeout            = "TIMEOUT"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeVisualDisabled     = "VISUAL_DISABLED"
)

// ErrVisualDisabled is returned by visual endpoints when the server runs
// without a similarity index.
var ErrVisualDisabled = errors.New("visual similarity is disabled")

// statusFor maps a domain error to an HTTP status and error code.
func statusFor(err error) (int, string) {
	var pe *paramError
	switch {
	case errors.As(err, &pe):
		return http.StatusBadRequest, ErrCodeBadRequest

	case errors.Is(err, recommend.ErrInvalidUser),
		errors.Is(err, recommend.ErrInvalidLimit),
		errors.Is(err, models.ErrUnknownInteractionKind),
		errors.Is(err, history.ErrInvalidInteraction),
		errors.Is(err, catalog.ErrUnknownField),
		errors.Is(err, visual.ErrInvalidK):
		return http.StatusBadRequest, ErrCodeBadRequest

	case errors.Is(err, visual.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge, ErrCodeTooLarge

	case errors.Is(err, visual.ErrExtraction),
		errors.Is(err, visual.ErrImageAspect):
		return http.StatusUnprocessableEntity, ErrCodeInvalidImage

	case errors.Is(err, visual.ErrItemNotIndexed),
		errors.Is(err, catalog.ErrItemNotFound):
		return http.StatusNotFound, ErrCodeNotFound

	case errors.Is(err, ErrVisualDisabled):
		return http.StatusServiceUnavailable, ErrCodeVisualDisabled

	case errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests),
		errors.Is(err, history.ErrClosed):
		return http.StatusServiceUnavailable, ErrCodeServiceUnavailable

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrCodeTimeout
	}
	return http.StatusInternalServerError, ErrCodeInternalError
}
