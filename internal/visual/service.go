// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package visual

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/fitline/internal/metrics"
	"github.com/tomtom215/fitline/internal/models"
)

var (
	// ErrItemNotIndexed is returned by SimilarByItemID for unknown items.
	ErrItemNotIndexed = errors.New("item not indexed")

	// ErrInvalidK is returned for non-positive result counts.
	ErrInvalidK = errors.New("k must be positive")
)

// ServiceConfig tunes batch extraction during index builds.
type ServiceConfig struct {
	BatchSize int
	Workers   int
}

// Service answers visual similarity queries.
type Service struct {
	extractor Extractor
	index     *Index
	source    ImageSource
	cfg       ServiceConfig
	logger    zerolog.Logger
}

// BuildStats summarizes an index build.
type BuildStats struct {
	Indexed    int
	NoImage    int
	Failed     int
	Duration   time.Duration
	IndexTotal int
}

// NewService returns a service over index. The index dimension must match
// the extractor.
func NewService(ex Extractor, index *Index, src ImageSource, cfg ServiceConfig, logger zerolog.Logger) (*Service, error) {
	if ex.Dimension() != index.Dimension() {
		return nil, fmt.Errorf("%w: extractor %d, index %d", ErrDimensionMismatch, ex.Dimension(), index.Dimension())
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	metrics.SetVisualIndexSize(index.Len())
	return &Service{
		extractor: ex,
		index:     index,
		source:    src,
		cfg:       cfg,
		logger:    logger.With().Str("component", "visual").Logger(),
	}, nil
}

// Len returns the number of indexed entries.
func (s *Service) Len() int { return s.index.Len() }

// SimilarByImage returns the k items most similar to img. Twice k
// candidates are fetched so the category filter still leaves k results
// in the common case.
func (s *Service) SimilarByImage(ctx context.Context, img image.Image, k int, category string) ([]models.SimilarItem, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	q, err := s.extractor.ExtractStrict(ctx, img)
	metrics.RecordExtraction(err)
	if err != nil {
		return nil, err
	}
	return s.search(q, 2*k, k, category, "")
}

// SimilarByItemID returns the k items most similar to an indexed item,
// never including the item itself. Every entry stored under the item's ID
// is fetched on top of k, since duplicates rank at the top.
func (s *Service) SimilarByItemID(ctx context.Context, itemID string, k int, category string) ([]models.SimilarItem, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	q, dups, ok := s.index.lookup(itemID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrItemNotIndexed, itemID)
	}
	fetch := k + dups
	if category != "" {
		fetch = 2*k + dups
	}
	return s.search(q, fetch, k, category, itemID)
}

// SimilarForReference resolves ref through the image source and searches
// by the resulting image. An empty ref is ErrImageNotFound.
func (s *Service) SimilarForReference(ctx context.Context, ref string, k int, category string) ([]models.SimilarItem, error) {
	if ref == "" {
		return nil, ErrImageNotFound
	}
	img, err := s.source.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.SimilarByImage(ctx, img, k, category)
}

func (s *Service) search(q Vector, fetch, k int, category, exclude string) ([]models.SimilarItem, error) {
	start := time.Now()
	matches, err := s.index.Search(q, fetch)
	metrics.RecordVisualSearch(time.Since(start))
	if err != nil {
		return nil, err
	}

	out := make([]models.SimilarItem, 0, k)
	for _, m := range matches {
		if exclude != "" && m.ItemID == exclude {
			continue
		}
		if category != "" && m.Metadata.Category != category {
			continue
		}
		out = append(out, models.SimilarItem{ItemID: m.ItemID, Score: m.Score, Metadata: m.Metadata})
		if len(out) == k {
			break
		}
	}
	return out, nil
}

// AddItem extracts and indexes a single image.
func (s *Service) AddItem(ctx context.Context, itemID string, img image.Image, meta models.ItemMetadata) error {
	if itemID == "" {
		return errors.New("add item: empty item id")
	}
	v, err := s.extractor.ExtractStrict(ctx, img)
	metrics.RecordExtraction(err)
	if err != nil {
		return err
	}
	if err := s.index.AddItems([]Vector{v}, []string{itemID}, []models.ItemMetadata{meta}); err != nil {
		return err
	}
	metrics.SetVisualIndexSize(s.index.Len())
	s.logger.Debug().Str("item_id", itemID).Msg("item added to visual index")
	return nil
}

// BuildIndexFromCatalog indexes every item whose image resolves. Items
// without a resolvable image, or whose extraction fails, are skipped.
// When persistDir is set the index is saved afterwards.
func (s *Service) BuildIndexFromCatalog(ctx context.Context, items []models.CatalogItem, persistDir string) (BuildStats, error) {
	start := time.Now()
	var stats BuildStats

	for off := 0; off < len(items); off += s.cfg.BatchSize {
		chunk := items[off:min(off+s.cfg.BatchSize, len(items))]

		images := make([]image.Image, 0, len(chunk))
		kept := make([]models.CatalogItem, 0, len(chunk))
		for i := range chunk {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			img, err := s.source.Open(ctx, chunk[i].ImageRef)
			if err != nil {
				stats.NoImage++
				s.logger.Debug().Err(err).Str("item_id", chunk[i].ID).Msg("skipping item without image")
				continue
			}
			images = append(images, img)
			kept = append(kept, chunk[i])
		}

		vectors, err := ExtractBatch(ctx, s.extractor, images, s.cfg.BatchSize, s.cfg.Workers)
		if err != nil {
			return stats, err
		}

		var (
			vs    []Vector
			ids   []string
			metas []models.ItemMetadata
		)
		for i, v := range vectors {
			if v.IsZero() {
				stats.Failed++
				s.logger.Warn().Str("item_id", kept[i].ID).Msg("feature extraction failed, item not indexed")
				continue
			}
			vs = append(vs, v)
			ids = append(ids, kept[i].ID)
			metas = append(metas, kept[i].Metadata())
		}
		if err := s.index.AddItems(vs, ids, metas); err != nil {
			return stats, err
		}
		stats.Indexed += len(vs)
	}

	stats.IndexTotal = s.index.Len()
	stats.Duration = time.Since(start)
	metrics.SetVisualIndexSize(stats.IndexTotal)
	s.logger.Info().
		Int("indexed", stats.Indexed).
		Int("no_image", stats.NoImage).
		Int("failed", stats.Failed).
		Dur("duration", stats.Duration).
		Msg("visual index built from catalog")

	if persistDir != "" {
		if err := s.Snapshot(persistDir); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// Snapshot persists the index to dir.
func (s *Service) Snapshot(dir string) error {
	err := s.index.Save(dir)
	metrics.RecordIndexSnapshot(err)
	if err != nil {
		return fmt.Errorf("snapshot visual index: %w", err)
	}
	s.logger.Debug().Str("dir", dir).Int("items", s.index.Len()).Msg("visual index snapshot written")
	return nil
}

// Load restores the index from dir. The stored dimension must match the
// extractor.
func (s *Service) Load(dir string) error {
	staged := NewIndex(s.extractor.Dimension())
	if err := staged.Load(dir); err != nil {
		return err
	}
	if staged.Dimension() != s.extractor.Dimension() {
		return fmt.Errorf("%w: stored index %d, extractor %d", ErrDimensionMismatch, staged.Dimension(), s.extractor.Dimension())
	}
	s.index.adopt(staged)
	metrics.SetVisualIndexSize(s.index.Len())
	s.logger.Info().Str("dir", dir).Int("items", s.index.Len()).Msg("visual index loaded")
	return nil
}
