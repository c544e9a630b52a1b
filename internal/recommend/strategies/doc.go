// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

// Package strategies implements the scoring strategies blended by the
// recommend engine.
//
// Every strategy reads history and catalog data through interfaces and
// returns an empty score map when it has nothing to go on. Errors are
// reserved for unavailable collaborators.
package strategies
