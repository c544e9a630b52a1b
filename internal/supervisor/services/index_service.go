// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/fitline/internal/catalog"
	"github.com/tomtom215/fitline/internal/models"
	"github.com/tomtom215/fitline/internal/visual"
)

// VisualIndex is the part of visual.Service the index service manages.
type VisualIndex interface {
	Load(dir string) error
	Snapshot(dir string) error
	BuildIndexFromCatalog(ctx context.Context, items []models.CatalogItem, persistDir string) (visual.BuildStats, error)
	Len() int
}

// IndexServiceConfig controls index startup and persistence.
type IndexServiceConfig struct {
	Dir string

	// LoadOnStart restores a snapshot from Dir when one exists.
	LoadOnStart bool

	// BuildOnStart indexes the catalog when nothing was loaded.
	BuildOnStart bool

	// SnapshotInterval is how often a changed index is persisted. 0
	// disables periodic snapshots; one is still taken on shutdown.
	SnapshotInterval time.Duration

	// BuildTimeout bounds the startup build. Default: 1h
	BuildTimeout time.Duration

	// PageSize is the catalog page size for the startup build.
	// Default: 500
	PageSize int
}

// IndexService owns the similarity index lifecycle: it loads or builds
// the index once, then snapshots it while it changes.
type IndexService struct {
	index   VisualIndex
	catalog catalog.Catalog
	cfg     IndexServiceConfig
	logger  zerolog.Logger

	initOnce sync.Once
	initErr  error
	savedLen int
}

// NewIndexService returns the index service. cat may be nil when
// BuildOnStart is false.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewIndexService(index VisualIndex, cat catalog.Catalog, cfg IndexServiceConfig, logger zerolog.Logger) *IndexService {
	if cfg.BuildTimeout <= 0 {
		cfg.BuildTimeout = time.Hour
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = catalog.MaxListLimit
	}
	return &IndexService{
		index:    index,
		catalog:  cat,
		cfg:      cfg,
		logger:   logger.With().Str("service", "visual-index").Logger(),
		savedLen: -1,
	}
}

// Serve implements suture.Service. Initialization runs once per process;
// a restart after a failure resumes the snapshot loop only.
func (s *IndexService) Serve(ctx context.Context) error {
	s.initOnce.Do(func() { s.initErr = s.initialize(ctx) })
	if s.initErr != nil {
		if errors.Is(s.initErr, context.Canceled) {
			return ctx.Err()
		}
		s.logger.Error().Err(s.initErr).Msg("visual index initialization failed, serving an empty index")
	}

	var tick <-chan time.Time
	if s.cfg.SnapshotInterval > 0 && s.cfg.Dir != "" {
		ticker := time.NewTicker(s.cfg.SnapshotInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			if err := s.snapshotIfChanged(); err != nil {
				s.logger.Error().Err(err).Msg("final visual index snapshot failed")
			}
			return ctx.Err()
		case <-tick:
			if err := s.snapshotIfChanged(); err != nil {
				return err
			}
		}
	}
}

func (s *IndexService) initialize(ctx context.Context) error {
	if s.cfg.LoadOnStart && s.cfg.Dir != "" && visual.Exists(s.cfg.Dir) {
		if err := s.index.Load(s.cfg.Dir); err != nil {
			s.logger.Warn().Err(err).Str("dir", s.cfg.Dir).Msg("could not load visual index snapshot")
		} else {
			s.savedLen = s.index.Len()
			return nil
		}
	}
	if !s.cfg.BuildOnStart {
		s.logger.Info().Msg("no visual index loaded and build on start disabled")
		return nil
	}
	if s.catalog == nil {
		return errors.New("build on start requires a catalog")
	}

	bctx, cancel := context.WithTimeout(ctx, s.cfg.BuildTimeout)
	defer cancel()

	var items []models.CatalogItem
	err := catalog.Walk(bctx, s.catalog, s.cfg.PageSize, func(page []models.CatalogItem) error {
		items = append(items, page...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("read catalog for index build: %w", err)
	}
	stats, err := s.index.BuildIndexFromCatalog(bctx, items, s.cfg.Dir)
	if err != nil {
		return fmt.Errorf("build visual index: %w", err)
	}
	if s.cfg.Dir != "" {
		s.savedLen = stats.IndexTotal
	}
	return nil
}

// snapshotIfChanged persists the index when its size differs from the
// last snapshot. The index only grows, so size is a sufficient change
// marker.
func (s *IndexService) snapshotIfChanged() error {
	if s.cfg.Dir == "" {
		return nil
	}
	n := s.index.Len()
	if n == s.savedLen || n == 0 {
		return nil
	}
	if err := s.index.Snapshot(s.cfg.Dir); err != nil {
		return err
	}
	s.savedLen = n
	return nil
}

func (s *IndexService) String() string {
	return "visual-index"
}
