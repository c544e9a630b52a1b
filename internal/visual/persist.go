// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package visual

import (
	"compress/gzip"
	"crypto/sha256"
	"encoding/binary"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fitline/internal/models"
)

const (
	vectorsFile = "vectors.gob.gz"
	itemsFile   = "items.json"

	formatVersion = 1
)

// ErrCorruptIndex is returned by Load when the artifacts are inconsistent.
var ErrCorruptIndex = errors.New("corrupt index artifacts")

type storedVectors struct {
	Version   int
	Dimension int
	Count     int
	Data      []float32
	Checksum  string
}

type storedItem struct {
	ItemID   string              `json:"item_id"`
	Metadata models.ItemMetadata `json:"metadata"`
}

type storedItems struct {
	Version         int          `json:"version"`
	Dimension       int          `json:"dimension"`
	VectorsChecksum string       `json:"vectors_checksum"`
	SavedAt         time.Time    `json:"saved_at"`
	Items           []storedItem `json:"items"`
}

func checksumVectors(data []float32) string {
	h := sha256.New()
	var buf [4]byte
	for _, x := range data {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(x))
		_, _ = h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Save writes both artifacts into dir, creating it if needed. Each file is
// written to a temporary name and renamed into place.
func (ix *Index) Save(dir string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	sum := checksumVectors(ix.data)
	vec := storedVectors{
		Version:   formatVersion,
		Dimension: ix.dim,
		Count:     len(ix.ids),
		Data:      ix.data,
		Checksum:  sum,
	}
	items := storedItems{
		Version:         formatVersion,
		Dimension:       ix.dim,
		VectorsChecksum: sum,
		SavedAt:         time.Now().UTC(),
		Items:           make([]storedItem, len(ix.ids)),
	}
	for i, id := range ix.ids {
		items.Items[i] = storedItem{ItemID: id, Metadata: ix.metas[i]}
	}

	if err := writeFileAtomic(filepath.Join(dir, vectorsFile), func(f *os.File) error {
		gzw := gzip.NewWriter(f)
		if err := gob.NewEncoder(gzw).Encode(vec); err != nil {
			return fmt.Errorf("encode vectors: %w", err)
		}
		return gzw.Close()
	}); err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(dir, itemsFile), func(f *os.File) error {
		enc := json.NewEncoder(f)
		return enc.Encode(items)
	})
}

func writeFileAtomic(path string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Load replaces the index contents with the artifacts in dir. On error the
// index is left unchanged. The loaded dimension replaces the current one.
func (ix *Index) Load(dir string) error {
	vec, err := readVectors(filepath.Join(dir, vectorsFile))
	if err != nil {
		return err
	}
	items, err := readItems(filepath.Join(dir, itemsFile))
	if err != nil {
		return err
	}

	switch {
	case vec.Version != formatVersion || items.Version != formatVersion:
		return fmt.Errorf("%w: unsupported version %d/%d", ErrCorruptIndex, vec.Version, items.Version)
	case vec.Dimension <= 0 || vec.Dimension != items.Dimension:
		return fmt.Errorf("%w: dimension %d vs %d", ErrCorruptIndex, vec.Dimension, items.Dimension)
	case len(vec.Data) != vec.Count*vec.Dimension || len(items.Items) != vec.Count:
		return fmt.Errorf("%w: %d vectors, %d values, %d items", ErrCorruptIndex, vec.Count, len(vec.Data), len(items.Items))
	}
	sum := checksumVectors(vec.Data)
	if sum != vec.Checksum || sum != items.VectorsChecksum {
		return fmt.Errorf("%w: checksum mismatch", ErrCorruptIndex)
	}

	ids := make([]string, len(items.Items))
	metas := make([]models.ItemMetadata, len(items.Items))
	rows := make(map[string]itemRows, len(items.Items))
	for i, it := range items.Items {
		ids[i] = it.ItemID
		metas[i] = it.Metadata
		r, ok := rows[it.ItemID]
		if !ok {
			r.first = i
		}
		r.count++
		rows[it.ItemID] = r
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.dim = vec.Dimension
	ix.data = vec.Data
	ix.ids = ids
	ix.metas = metas
	ix.rows = rows
	return nil
}

func readVectors(path string) (*storedVectors, error) {
	f, err := os.Open(path) //nolint:gosec // path is built from the configured index directory
	if err != nil {
		return nil, fmt.Errorf("open vectors: %w", err)
	}
	defer func() { _ = f.Close() }()

	gzr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress vectors: %w", ErrCorruptIndex, err)
	}
	defer func() { _ = gzr.Close() }()

	var vec storedVectors
	if err := gob.NewDecoder(gzr).Decode(&vec); err != nil {
		return nil, fmt.Errorf("%w: decode vectors: %w", ErrCorruptIndex, err)
	}
	return &vec, nil
}

func readItems(path string) (*storedItems, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is built from the configured index directory
	if err != nil {
		return nil, fmt.Errorf("open items: %w", err)
	}
	var items storedItems
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: decode items: %w", ErrCorruptIndex, err)
	}
	return &items, nil
}

// Exists reports whether dir holds both index artifacts.
func Exists(dir string) bool {
	for _, name := range []string{vectorsFile, itemsFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

// adopt replaces ix's contents with o's. o must not be used afterwards.
func (ix *Index) adopt(o *Index) {
	o.mu.RLock()
	dim, data, ids, metas, rows := o.dim, o.data, o.ids, o.metas, o.rows
	o.mu.RUnlock()

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.dim, ix.data, ix.ids, ix.metas, ix.rows = dim, data, ids, metas, rows
}
