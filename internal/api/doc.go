// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

// Package api serves the Fitline HTTP API on a chi router.
//
// Routes:
//
//	GET  /api/v1/health/live
//	GET  /api/v1/health/ready
//	GET  /api/v1/users/{userID}/recommendations?limit&category&exclude_tried
//	GET  /api/v1/users/{userID}/style-profile
//	POST /api/v1/users/{userID}/interactions
//	POST /api/v1/users/{userID}/wardrobe
//	POST /api/v1/visual/similar?k&category
//	GET  /api/v1/visual/items/{itemID}/similar?k&category
//	POST /api/v1/visual/items
//	GET  /api/v1/catalog/items?sort&order&limit&offset&<filter>=value
//	GET  /metrics
//
// Every JSON response uses the models.APIResponse envelope. Domain errors
// are mapped to status codes in one place (statusFor) so handlers only
// decide what to call, never how to report failure.
package api
