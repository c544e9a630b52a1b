// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/tomtom215/fitline/internal/metrics"
	"github.com/tomtom215/fitline/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS catalog_items (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL DEFAULT '',
	category  TEXT NOT NULL DEFAULT '',
	color     TEXT NOT NULL DEFAULT '',
	brand     TEXT NOT NULL DEFAULT '',
	style     TEXT NOT NULL DEFAULT '',
	price     REAL NOT NULL DEFAULT 0,
	image_ref TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_catalog_items_category ON catalog_items(category);
CREATE INDEX IF NOT EXISTS idx_catalog_items_brand ON catalog_items(brand);
`

const itemColumns = "id, name, category, color, brand, style, price, image_ref"

// SQLiteCatalog stores the catalog in a single SQLite table.
type SQLiteCatalog struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

// OpenSQLite connects to dsn and applies the schema. ":memory:" is
// accepted for tests and limited to one connection so every query sees
// the same database.
func OpenSQLite(ctx context.Context, dsn string, logger zerolog.Logger) (*SQLiteCatalog, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite catalog: %w", err)
	}
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	c, err := NewSQLiteCatalog(ctx, db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// NewSQLiteCatalog wraps an open database and applies the schema.
func NewSQLiteCatalog(ctx context.Context, db *sqlx.DB, logger zerolog.Logger) (*SQLiteCatalog, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply catalog schema: %w", err)
	}
	return &SQLiteCatalog{
		db:     db,
		logger: logger.With().Str("component", "catalog").Str("backend", "sqlite").Logger(),
	}, nil
}

// Upsert inserts items or replaces existing rows with the same ID.
func (c *SQLiteCatalog) Upsert(ctx context.Context, items ...models.CatalogItem) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const q = `INSERT INTO catalog_items (` + itemColumns + `)
		VALUES (:id, :name, :category, :color, :brand, :style, :price, :image_ref)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			color = excluded.color,
			brand = excluded.brand,
			style = excluded.style,
			price = excluded.price,
			image_ref = excluded.image_ref`
	for i := range items {
		if items[i].ID == "" {
			return fmt.Errorf("upsert catalog item %d: empty id", i)
		}
		if _, err := tx.NamedExecContext(ctx, q, &items[i]); err != nil {
			return fmt.Errorf("upsert catalog item %s: %w", items[i].ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	c.logger.Debug().Int("items", len(items)).Msg("catalog items upserted")
	return nil
}

// Resolve looks up a single item.
func (c *SQLiteCatalog) Resolve(ctx context.Context, itemID string) (models.CatalogItem, error) {
	var item models.CatalogItem
	err := c.db.GetContext(ctx, &item, `SELECT `+itemColumns+` FROM catalog_items WHERE id = ?`, itemID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		metrics.RecordCatalogRequest("sqlite", nil)
		return item, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	case err != nil:
		metrics.RecordCatalogRequest("sqlite", err)
		return item, fmt.Errorf("resolve %s: %w", itemID, err)
	}
	metrics.RecordCatalogRequest("sqlite", nil)
	return item, nil
}

// SearchByAttributes matches items sharing any listed attribute value.
// Results are ordered by the number of attribute groups matched, then by
// id, so a limited search keeps the closest matches.
func (c *SQLiteCatalog) SearchByAttributes(ctx context.Context, q AttributeQuery) ([]models.CatalogItem, error) {
	if q.Empty() {
		return nil, nil
	}

	var (
		ors       []string
		args      []interface{}
		matches   []string
		matchArgs []interface{}
	)
	for _, group := range []struct {
		field  Field
		values []string
	}{
		{FieldCategory, q.Categories},
		{FieldColor, q.Colors},
		{FieldStyle, q.Styles},
		{FieldBrand, q.Brands},
	} {
		if len(group.values) == 0 {
			continue
		}
		ors = append(ors, group.field.Column()+" IN (?)")
		args = append(args, group.values)
		matches = append(matches, "("+group.field.Column()+" IN (?))")
		matchArgs = append(matchArgs, group.values)
	}

	query := `SELECT ` + itemColumns + ` FROM catalog_items WHERE (` + strings.Join(ors, " OR ") + `)`
	if q.CategoryFilter != "" {
		query += ` AND category = ?`
		args = append(args, q.CategoryFilter)
	}
	query += ` ORDER BY (` + strings.Join(matches, " + ") + `) DESC, id`
	args = append(args, matchArgs...)
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("expand attribute query: %w", err)
	}
	var items []models.CatalogItem
	if err := c.db.SelectContext(ctx, &items, c.db.Rebind(query), args...); err != nil {
		metrics.RecordCatalogRequest("sqlite", err)
		return nil, fmt.Errorf("search by attributes: %w", err)
	}
	metrics.RecordCatalogRequest("sqlite", nil)
	return items, nil
}

// List pages through the table. Ties on the sort column break by id.
func (c *SQLiteCatalog) List(ctx context.Context, q ListQuery) ([]models.CatalogItem, error) {
	q.normalize()
	if !q.SortField.Sortable() {
		return nil, &FieldError{Name: q.SortField.String(), Role: "sort"}
	}

	var (
		where []string
		args  []interface{}
	)
	// Deterministic filter order keeps the generated SQL stable.
	for _, f := range []Field{FieldCategory, FieldColor, FieldBrand, FieldStyle} {
		v, ok := q.Filters[f]
		if !ok {
			continue
		}
		where = append(where, f.Column()+" = ?")
		args = append(args, v)
	}
	for f := range q.Filters {
		if !f.Filterable() {
			return nil, &FieldError{Name: f.String(), Role: "filter"}
		}
	}

	query := `SELECT ` + itemColumns + ` FROM catalog_items`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	query += fmt.Sprintf(` ORDER BY %s %s, id ASC LIMIT ? OFFSET ?`, q.SortField.Column(), dir)
	args = append(args, q.Limit, q.Offset)

	var items []models.CatalogItem
	if err := c.db.SelectContext(ctx, &items, query, args...); err != nil {
		metrics.RecordCatalogRequest("sqlite", err)
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	metrics.RecordCatalogRequest("sqlite", nil)
	return items, nil
}

// Count returns the number of catalog rows.
func (c *SQLiteCatalog) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM catalog_items`); err != nil {
		return 0, fmt.Errorf("count catalog: %w", err)
	}
	return n, nil
}

// Ping checks the database connection.
func (c *SQLiteCatalog) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database.
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

var _ Catalog = (*SQLiteCatalog)(nil)
