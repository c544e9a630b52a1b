// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

/*
Package recommend blends independent scoring strategies into a ranked list
of catalog items for a user.

# Strategies

Each Strategy maps item IDs to a raw score in roughly [0, 1]. The
implementations live in the strategies subpackage:

  - content: attribute overlap with recent try-ons
  - favorites: attribute overlap with favorited items
  - wardrobe: categories that complement owned garments
  - collaborative: items engaged with by similar users
  - trending: normalized try-on counts over a trailing window
  - visual: embedding similarity to recently tried-on garments

# Blending

The engine runs every strategy concurrently, each under its own timeout.
A strategy that fails, panics, or times out contributes nothing for that
request and is reported in the response metadata; the others still count.

	total[item] = sum over strategies of weight[s] * score[s][item]

Items are ranked by total score descending with ties broken by item ID,
so a longer limit never reorders a shorter one. Ranked items are resolved
through the catalog in order; items the catalog cannot resolve are dropped
and the next-ranked item takes their place.

Each result carries the reason of the strategy with the largest weighted
contribution to its score.

# Weights

Two weight tables exist: one with visual similarity and one without. The
active table is chosen once in NewEngine and never changes for the life
of the Engine.
*/
package recommend
