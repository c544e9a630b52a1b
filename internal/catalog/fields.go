// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/fitline/internal/models"
)

// ErrUnknownField is wrapped by FieldError.
var ErrUnknownField = errors.New("unknown catalog field")

// Field is a catalog attribute addressable from the API.
type Field int

const (
	FieldNone Field = iota
	FieldName
	FieldCategory
	FieldColor
	FieldBrand
	FieldStyle
	FieldPrice
)

type fieldInfo struct {
	api        string
	column     string
	sortable   bool
	filterable bool
}

var fieldTable = map[Field]fieldInfo{
	FieldName:     {api: "name", column: "name", sortable: true},
	FieldCategory: {api: "category", column: "category", sortable: true, filterable: true},
	FieldColor:    {api: "color", column: "color", filterable: true},
	FieldBrand:    {api: "brand", column: "brand", sortable: true, filterable: true},
	FieldStyle:    {api: "style", column: "style", filterable: true},
	FieldPrice:    {api: "price", column: "price", sortable: true},
}

var fieldsByAPIName = func() map[string]Field {
	m := make(map[string]Field, len(fieldTable))
	for f, info := range fieldTable {
		m[info.api] = f
	}
	return m
}()

// String returns the API name of f.
func (f Field) String() string {
	if info, ok := fieldTable[f]; ok {
		return info.api
	}
	return "none"
}

// Column returns the SQL column backing f.
func (f Field) Column() string {
	return fieldTable[f].column
}

// Sortable reports whether f may be used as a sort key.
func (f Field) Sortable() bool { return fieldTable[f].sortable }

// Filterable reports whether f may be used as an equality filter.
func (f Field) Filterable() bool { return fieldTable[f].filterable }

// Value reads f from item.
func (f Field) Value(item *models.CatalogItem) string {
	switch f {
	case FieldName:
		return item.Name
	case FieldCategory:
		return item.Category
	case FieldColor:
		return item.Color
	case FieldBrand:
		return item.Brand
	case FieldStyle:
		return item.Style
	case FieldPrice:
		return fmt.Sprintf("%.2f", item.Price)
	}
	return ""
}

// FieldError reports a sort or filter name that is unknown or not allowed
// in the requested role.
type FieldError struct {
	Name string
	Role string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %q cannot be used to %s", ErrUnknownField, e.Name, e.Role)
}

func (e *FieldError) Unwrap() error { return ErrUnknownField }

// ParseSortField maps an API sort name to a Field. An empty name yields
// FieldNone.
func ParseSortField(name string) (Field, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return FieldNone, nil
	}
	f, ok := fieldsByAPIName[name]
	if !ok || !f.Sortable() {
		return FieldNone, &FieldError{Name: name, Role: "sort"}
	}
	return f, nil
}

// ParseFilterField maps an API filter name to a Field.
func ParseFilterField(name string) (Field, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	f, ok := fieldsByAPIName[name]
	if !ok || !f.Filterable() {
		return FieldNone, &FieldError{Name: name, Role: "filter"}
	}
	return f, nil
}

// FilterNames lists the API names accepted by ParseFilterField.
func FilterNames() []string {
	var out []string
	for _, f := range []Field{FieldCategory, FieldColor, FieldBrand, FieldStyle} {
		out = append(out, f.String())
	}
	return out
}
