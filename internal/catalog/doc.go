// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

/*
Package catalog resolves item identifiers to catalog metadata.

Three implementations of Catalog are provided:

  - SQLiteCatalog: a local SQLite table accessed through sqlx
  - HTTPCatalog: a client for an external catalog service, guarded by a
    circuit breaker
  - CachedCatalog: a TTL cache in front of any other Catalog

Sort and filter parameters coming from the API are mapped through a fixed
field table (see Field). Only columns from that table ever reach SQL;
values are always bound as arguments.
*/
package catalog
