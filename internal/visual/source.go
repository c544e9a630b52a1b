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
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// maxImageBytes bounds the encoded size of a fetched or read image.
const maxImageBytes = 32 << 20

// ErrImageNotFound is returned when an image reference cannot be resolved.
var ErrImageNotFound = errors.New("image not found")

// ImageSource resolves an image reference to a decoded image.
type ImageSource interface {
	Open(ctx context.Context, ref string) (image.Image, error)
}

// FileImageSource reads images relative to Root. References that escape
// Root are treated as not found.
type FileImageSource struct {
	Root string
}

func (s FileImageSource) Open(ctx context.Context, ref string) (image.Image, error) {
	if ref == "" {
		return nil, ErrImageNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(ref, "/")))
	if rel == "." || !filepath.IsLocal(rel) {
		return nil, fmt.Errorf("%w: %q is outside the image root", ErrImageNotFound, ref)
	}
	path := filepath.Join(s.Root, rel)

	f, err := os.Open(path) //nolint:gosec // path is confined to Root above
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrImageNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", ref, err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", ref, err)
	}
	img, _, err := DecodeImage(data)
	return img, err
}

// HTTPImageSource fetches absolute http(s) image URLs.
type HTTPImageSource struct {
	Client *http.Client
}

// NewHTTPImageSource returns a source with the given request timeout.
func NewHTTPImageSource(timeout time.Duration) *HTTPImageSource {
	return &HTTPImageSource{Client: &http.Client{Timeout: timeout}}
}

func (s *HTTPImageSource) Open(ctx context.Context, ref string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageNotFound, err)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image %s: %w", ref, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("%w: %s", ErrImageNotFound, ref)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch image %s: status %d", ref, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", ref, err)
	}
	img, _, err := DecodeImage(data)
	return img, err
}

// RefSource routes http(s) references to Remote and everything else to
// Local. A nil Remote treats URLs as not found.
type RefSource struct {
	Local  ImageSource
	Remote ImageSource
}

func (s RefSource) Open(ctx context.Context, ref string) (image.Image, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		if s.Remote == nil {
			return nil, fmt.Errorf("%w: remote images disabled", ErrImageNotFound)
		}
		return s.Remote.Open(ctx, ref)
	}
	return s.Local.Open(ctx, ref)
}
