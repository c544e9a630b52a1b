// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package visual

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// RemoteConfig configures RemoteExtractor.
type RemoteConfig struct {
	URL       string
	Dimension int
	Timeout   time.Duration

	// RPS limits requests per second. 0 disables limiting.
	RPS float64

	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration
}

// RemoteExtractor posts PNG-encoded images to a hosted embedding model and
// expects {"embedding": [...]} back.
type RemoteExtractor struct {
	url     string
	dim     int
	client  *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[Vector]
	logger  zerolog.Logger
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// NewRemoteExtractor returns an extractor calling cfg.URL.
func NewRemoteExtractor(cfg RemoteConfig, logger zerolog.Logger) *RemoteExtractor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BreakerMaxFailures == 0 {
		cfg.BreakerMaxFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	limit := rate.Inf
	burst := 1
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
		burst = max(1, int(cfg.RPS))
	}

	log := logger.With().Str("component", "visual").Str("extractor", "remote").Logger()
	return &RemoteExtractor{
		url:     cfg.URL,
		dim:     cfg.Dimension,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, burst),
		cb: gobreaker.NewCircuitBreaker[Vector](gobreaker.Settings{
			Name:        "feature-extractor",
			MaxRequests: 1,
			Timeout:     cfg.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
					Msg("extractor circuit breaker state change")
			},
		}),
		logger: log,
	}
}

func (r *RemoteExtractor) Dimension() int { return r.dim }

func (r *RemoteExtractor) Extract(ctx context.Context, img image.Image) Vector {
	return extractOrZero(ctx, r, img)
}

func (r *RemoteExtractor) ExtractStrict(ctx context.Context, img image.Image) (Vector, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrExtraction)
	}
	var body bytes.Buffer
	if err := png.Encode(&body, img); err != nil {
		return nil, fmt.Errorf("%w: encode png: %w", ErrExtraction, err)
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	v, err := r.cb.Execute(func() (Vector, error) {
		return r.call(ctx, body.Bytes())
	})
	if err != nil {
		r.logger.Debug().Err(err).Msg("remote extraction failed")
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	return v, nil
}

func (r *RemoteExtractor) call(ctx context.Context, payload []byte) (Vector, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("extractor returned %d", resp.StatusCode)
	}

	var out embeddingResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 16<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode embedding: %w", err)
	}
	if len(out.Embedding) != r.dim {
		return nil, fmt.Errorf("embedding has %d dimensions, want %d", len(out.Embedding), r.dim)
	}
	v := Vector(out.Embedding).Normalize()
	if v.IsZero() {
		return nil, fmt.Errorf("extractor returned a zero embedding")
	}
	return v, nil
}

var _ Extractor = (*RemoteExtractor)(nil)
