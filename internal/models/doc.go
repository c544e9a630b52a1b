// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

// Package models holds the data types shared across Fitline packages:
// interaction records, catalog items, style profiles, visual search hits
// and the JSON envelope used by every API response.
//
// Types here carry no behavior beyond validation and small derived views so
// that history, catalog, visual and recommend can depend on them without
// depending on each other.
package models
