// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/fitline/internal/metrics"
	"github.com/tomtom215/fitline/internal/models"
)

// maxResponseBytes bounds catalog service responses.
const maxResponseBytes = 8 << 20

// HTTPConfig configures HTTPCatalog.
type HTTPConfig struct {
	BaseURL            string
	Timeout            time.Duration
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration
}

// HTTPCatalog talks to an external catalog service:
//
//	GET  {base}/items/{id}
//	GET  {base}/items?sort=&order=&limit=&offset=&<filter>=
//	POST {base}/items/search   (AttributeQuery body)
//
// List and search responses are {"items": [...]}.
type HTTPCatalog struct {
	base   *url.URL
	client *http.Client
	cb     *gobreaker.CircuitBreaker[[]byte]
	logger zerolog.Logger
}

type itemsResponse struct {
	Items []models.CatalogItem `json:"items"`
}

// statusError is a non-2xx response from the catalog service.
type statusError struct {
	Code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("catalog service returned %d", e.Code)
}

// NewHTTPCatalog returns a client for the service at cfg.BaseURL.
func NewHTTPCatalog(cfg HTTPConfig, logger zerolog.Logger) (*HTTPCatalog, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse catalog base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("catalog base url %q: scheme must be http or https", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.BreakerMaxFailures == 0 {
		cfg.BreakerMaxFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	log := logger.With().Str("component", "catalog").Str("backend", "http").Logger()
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "catalog-http",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
		},
		// A missing item is a valid answer, not a service failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrItemNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("catalog circuit breaker state change")
		},
	})

	return &HTTPCatalog{
		base:   base,
		client: &http.Client{Timeout: cfg.Timeout},
		cb:     cb,
		logger: log,
	}, nil
}

func (c *HTTPCatalog) do(ctx context.Context, method, path string, query url.Values, body interface{}) ([]byte, error) {
	data, err := c.cb.Execute(func() ([]byte, error) {
		var reader io.Reader
		if body != nil {
			payload, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("marshal request: %w", err)
			}
			reader = bytes.NewReader(payload)
		}

		u := *c.base
		u.Path += path
		u.RawQuery = query.Encode()
		req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrItemNotFound
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &statusError{Code: resp.StatusCode}
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	})
	if errors.Is(err, ErrItemNotFound) {
		metrics.RecordCatalogRequest("http", nil)
	} else {
		metrics.RecordCatalogRequest("http", err)
	}
	return data, err
}

// Resolve fetches one item.
func (c *HTTPCatalog) Resolve(ctx context.Context, itemID string) (models.CatalogItem, error) {
	var item models.CatalogItem
	data, err := c.do(ctx, http.MethodGet, "/items/"+url.PathEscape(itemID), nil, nil)
	if errors.Is(err, ErrItemNotFound) {
		return item, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	if err != nil {
		return item, fmt.Errorf("resolve %s: %w", itemID, err)
	}
	if err := json.Unmarshal(data, &item); err != nil {
		return item, fmt.Errorf("decode item %s: %w", itemID, err)
	}
	if item.ID == "" {
		item.ID = itemID
	}
	return item, nil
}

// SearchByAttributes posts q to the search endpoint.
func (c *HTTPCatalog) SearchByAttributes(ctx context.Context, q AttributeQuery) ([]models.CatalogItem, error) {
	if q.Empty() {
		return nil, nil
	}
	data, err := c.do(ctx, http.MethodPost, "/items/search", nil, q)
	if err != nil {
		return nil, fmt.Errorf("search by attributes: %w", err)
	}
	var resp itemsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return resp.Items, nil
}

// List forwards the query as URL parameters.
func (c *HTTPCatalog) List(ctx context.Context, q ListQuery) ([]models.CatalogItem, error) {
	q.normalize()
	params := url.Values{}
	params.Set("sort", q.SortField.String())
	if q.Desc {
		params.Set("order", "desc")
	} else {
		params.Set("order", "asc")
	}
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("offset", strconv.Itoa(q.Offset))
	for f, v := range q.Filters {
		if !f.Filterable() {
			return nil, &FieldError{Name: f.String(), Role: "filter"}
		}
		params.Set(f.String(), v)
	}

	data, err := c.do(ctx, http.MethodGet, "/items", params, nil)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	var resp itemsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode list response: %w", err)
	}
	return resp.Items, nil
}

// State reports the circuit breaker state for health checks.
func (c *HTTPCatalog) State() gobreaker.State {
	return c.cb.State()
}

var _ Catalog = (*HTTPCatalog)(nil)
