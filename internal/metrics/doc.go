// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

// Package metrics defines Fitline's Prometheus instrumentation.
//
// Collectors are registered on the default registry through promauto and
// exposed at /metrics. Callers use the Record* helpers rather than touching
// the collectors directly so label sets stay consistent.
package metrics
