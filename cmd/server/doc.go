// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

/*
Package main is the entry point for the Fitline server.

Fitline records what users try on, favorite and own, and answers
"what should this user try next" by blending six scoring strategies
(content, favorites, wardrobe, collaborative, trending, visual). It also
serves visual similarity search over catalog item images.

# Application Architecture

	RootSupervisor ("fitline")
	├── IndexSupervisor ("index-layer")
	│   └── Visual index service (load/build, periodic snapshots)
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Component initialization order:

 1. Configuration: Koanf v2 with defaults, optional YAML file, environment
 2. Logging: zerolog with JSON/console output modes
 3. History: BadgerDB (or in-memory) interaction log
 4. Trending: history scan or Redis daily buckets
 5. Catalog: SQLite (sqlx) or remote HTTP catalog behind a circuit breaker
 6. Visual: feature extractor, similarity index, visual service
 7. Engine: strategies and weight table
 8. HTTP Server: Chi router with middleware stack
 9. Supervisor Tree: Suture v4 process supervision

# Configuration

Configuration is loaded from, in increasing precedence:

  - built-in defaults
  - the YAML file named by CONFIG_PATH (or ./config.yaml when present)
  - environment variables

# Signals

SIGINT and SIGTERM trigger a graceful shutdown: the HTTP server drains
in-flight requests, the visual index takes a final snapshot, and the
stores are closed.
*/
package main
