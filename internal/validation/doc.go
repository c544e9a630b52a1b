// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

// Package validation validates API request structs with
// go-playground/validator v10.
//
// A single validator instance is shared by all handlers; it caches struct
// metadata after the first use. Besides the built-in tags it registers:
//
//   - interaction_kind: the value parses with models.ParseInteractionKind
//   - item_id: 1-128 printable characters without path separators
//
// Failures are returned as *RequestValidationError, which converts to the
// API error envelope with ToAPIError:
//
//	type InteractionRequest struct {
//	    ItemID string `json:"item_id" validate:"omitempty,item_id"`
//	    Kind   string `json:"kind" validate:"required,interaction_kind"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    respondValidation(w, verr.ToAPIError())
//	    return
//	}
package validation
