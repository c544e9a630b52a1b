// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package visual

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	_ "golang.org/x/image/webp" // register WebP decoder
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/fitline/internal/metrics"
)

const (
	// MaxImagePixels bounds the decoded size of uploaded and catalog images.
	MaxImagePixels = 40_000_000

	// MaxAspectRatio bounds the ratio of the long side to the short side.
	MaxAspectRatio = 20
)

var (
	// ErrExtraction is wrapped by every ExtractStrict failure.
	ErrExtraction = errors.New("feature extraction failed")

	// ErrImageTooLarge is returned by DecodeImage for oversized images.
	ErrImageTooLarge = errors.New("image too large")

	// ErrImageAspect is returned by DecodeImage for images too elongated
	// to crop meaningfully.
	ErrImageAspect = errors.New("image aspect ratio out of range")
)

// Extractor converts images into L2-normalized embeddings.
type Extractor interface {
	// Extract returns the embedding of img, or a zero vector if extraction
	// fails.
	Extract(ctx context.Context, img image.Image) Vector

	// ExtractStrict returns the embedding of img or an error wrapping
	// ErrExtraction.
	ExtractStrict(ctx context.Context, img image.Image) (Vector, error)

	// Dimension is the length of every returned vector.
	Dimension() int
}

// extractOrZero implements Extract in terms of ExtractStrict.
func extractOrZero(ctx context.Context, ex Extractor, img image.Image) Vector {
	v, err := ex.ExtractStrict(ctx, img)
	metrics.RecordExtraction(err)
	if err != nil {
		return Zero(ex.Dimension())
	}
	return v
}

// ExtractBatch extracts every image in order. Images are processed in
// batches of batchSize with at most workers extractions in flight; a nil
// image or a failed extraction yields a zero vector at its position. Only
// context cancellation aborts the batch.
func ExtractBatch(ctx context.Context, ex Extractor, images []image.Image, batchSize, workers int) ([]Vector, error) {
	if batchSize <= 0 {
		batchSize = len(images)
	}
	if workers <= 0 {
		workers = 1
	}
	out := make([]Vector, len(images))

	for start := 0; start < len(images); start += batchSize {
		end := min(start+batchSize, len(images))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i := start; i < end; i++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				if images[i] == nil {
					metrics.RecordExtraction(ErrExtraction)
					out[i] = Zero(ex.Dimension())
					return nil
				}
				out[i] = ex.Extract(gctx, images[i])
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DecodeImage decodes a JPEG, PNG, or WebP image, rejecting images whose
// declared size exceeds MaxImagePixels before decoding pixel data.
func DecodeImage(data []byte) (image.Image, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, "", fmt.Errorf("decode image: empty %dx%d %s", cfg.Width, cfg.Height, format)
	}
	if cfg.Width*cfg.Height > MaxImagePixels {
		return nil, "", fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	if long, short := max(cfg.Width, cfg.Height), min(cfg.Width, cfg.Height); long > short*MaxAspectRatio {
		return nil, "", fmt.Errorf("%w: %dx%d", ErrImageAspect, cfg.Width, cfg.Height)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode %s image: %w", format, err)
	}
	return img, format, nil
}
