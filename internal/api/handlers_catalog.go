// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package api

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/fitline/internal/catalog"
)

// reserved query parameters of the catalog listing; anything else is a
// filter and must name a filterable field.
var catalogParams = map[string]bool{"sort": true, "order": true, "limit": true, "offset": true}

// ListCatalog handles GET /api/v1/catalog/items.
func (h *Handler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()

	limit, err := intParam(r, "limit", 0)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	req := CatalogListRequest{Limit: limit, Offset: offset, Order: strings.ToLower(q.Get("order"))}
	if !validate(w, r, &req) {
		return
	}

	sortField, err := catalog.ParseSortField(q.Get("sort"))
	if err != nil {
		respondErr(w, r, err)
		return
	}

	names := make([]string, 0, len(q))
	for name := range q {
		if !catalogParams[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	filters := make(map[catalog.Field]string, len(names))
	for _, name := range names {
		f, err := catalog.ParseFilterField(name)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		filters[f] = q.Get(name)
	}

	items, err := h.catalog.List(r.Context(), catalog.ListQuery{
		Filters:   filters,
		SortField: sortField,
		Desc:      req.Order == "desc",
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, map[string]interface{}{
		"items":   items,
		"count":   len(items),
		"offset":  req.Offset,
		"filters": catalog.FilterNames(),
	}, start)
}
