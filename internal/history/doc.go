// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

// Package history stores user interactions and wardrobe items.
//
// The interaction log is append-only: records are never updated, and every
// history-derived signal (style profiles, recommendation strategies) is
// recomputed from it on read. Two Store implementations exist:
//
//   - BadgerStore persists to BadgerDB with key layouts tuned for the
//     per-user newest-first scan and the cross-user time window scan.
//   - MemoryStore keeps everything in process and backs tests and
//     single-node demos.
//
// Trending counts come from a TrendingCounter, either derived from the
// log itself (HistoryTrending) or kept in Redis sorted sets (RedisTrending).
package history
