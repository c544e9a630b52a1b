// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

// Package logging provides zerolog-based structured logging for Fitline.
//
// A single global logger is configured once from main and shared by every
// component. Components derive child loggers carrying a "component" field:
//
//	logger := logging.WithComponent("recommend")
//	logger.Info().Str("user_id", userID).Msg("generated recommendations")
//
// Request-scoped logging carries request and correlation IDs through
// context.Context:
//
//	ctx = logging.ContextWithRequestID(ctx, requestID)
//	logging.Ctx(ctx).Warn().Err(err).Msg("strategy failed")
//
// The slog adapter exists for libraries that speak log/slog, most notably
// sutureslog in the supervisor tree.
package logging
