// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

// Package cache provides a bounded, thread-safe LRU cache with per-entry TTL.
// It fronts slow collaborators such as remote catalog lookups.
package cache
