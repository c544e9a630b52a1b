// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package visual

import (
	"context"
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Descriptor layout.
const (
	gridCells   = 4  // spatial grid is gridCells x gridCells
	hueBins     = 12 // weighted by saturation
	satBins     = 6
	valBins     = 6
	edgeBins    = 8 // orientation bins over [0, pi)
	edgeRegions = 4 // image quadrants

	gridLen  = gridCells * gridCells * 3
	colorLen = hueBins + satBins + valBins
	edgeLen  = edgeBins * edgeRegions

	// PixelDimension is the length of a PixelExtractor embedding.
	PixelDimension = gridLen + colorLen + edgeLen

	// DefaultInputSize is the side of the center crop.
	DefaultInputSize = 224
)

// ImageNet channel statistics.
var (
	channelMean = [3]float64{0.485, 0.456, 0.406}
	channelStd  = [3]float64{0.229, 0.224, 0.225}
)

// PixelExtractor computes a deterministic descriptor from pixel data.
// Images are center-cropped to the square a resize of the shorter side to
// inputSize*256/224 would keep, scaled to inputSize with Catmull-Rom, and
// channel-normalized with ImageNet statistics. Each descriptor block is L2-normalized before the
// whole vector is, so no block dominates by scale.
type PixelExtractor struct {
	inputSize int
}

// NewPixelExtractor returns an extractor cropping to inputSize pixels.
func NewPixelExtractor(inputSize int) *PixelExtractor {
	if inputSize < 8 {
		inputSize = DefaultInputSize
	}
	return &PixelExtractor{inputSize: inputSize}
}

func (p *PixelExtractor) Dimension() int { return PixelDimension }

func (p *PixelExtractor) Extract(ctx context.Context, img image.Image) Vector {
	return extractOrZero(ctx, p, img)
}

func (p *PixelExtractor) ExtractStrict(ctx context.Context, img image.Image) (Vector, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrExtraction)
	}
	b := img.Bounds()
	if b.Dx() < 2 || b.Dy() < 2 {
		return nil, fmt.Errorf("%w: image %dx%d too small", ErrExtraction, b.Dx(), b.Dy())
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	px := p.preprocess(img)

	v := make(Vector, 0, PixelDimension)
	v = append(v, normalizedBlock(gridMeans(px, p.inputSize))...)
	v = append(v, normalizedBlock(colorHistogram(px))...)
	v = append(v, normalizedBlock(edgeHistogram(px, p.inputSize))...)
	v.Normalize()
	if v.IsZero() {
		return nil, fmt.Errorf("%w: degenerate descriptor", ErrExtraction)
	}
	return v, nil
}

// pixels holds the cropped image as raw [0,1] RGB, row-major.
type pixels struct {
	size int
	rgb  [][3]float64
}

// preprocess crops before scaling; the scaled buffer is always
// inputSize square.
func (p *PixelExtractor) preprocess(img image.Image) pixels {
	b := img.Bounds()
	short := p.inputSize * 256 / 224
	w, h := b.Dx(), b.Dy()
	side := int(math.Round(float64(min(w, h)) * float64(p.inputSize) / float64(short)))
	side = max(side, 1)
	src := image.Rect(0, 0, side, side).Add(image.Pt(b.Min.X+(w-side)/2, b.Min.Y+(h-side)/2))

	scaled := image.NewRGBA(image.Rect(0, 0, p.inputSize, p.inputSize))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, src, draw.Src, nil)

	out := pixels{size: p.inputSize, rgb: make([][3]float64, p.inputSize*p.inputSize)}
	for y := 0; y < p.inputSize; y++ {
		row := scaled.Pix[y*scaled.Stride:]
		for x := 0; x < p.inputSize; x++ {
			o := x * 4
			out.rgb[y*p.inputSize+x] = [3]float64{
				float64(row[o]) / 255,
				float64(row[o+1]) / 255,
				float64(row[o+2]) / 255,
			}
		}
	}
	return out
}

// gridMeans averages ImageNet-normalized channels over a spatial grid.
func gridMeans(px pixels, size int) []float64 {
	out := make([]float64, gridLen)
	counts := make([]float64, gridCells*gridCells)
	for y := 0; y < size; y++ {
		gy := y * gridCells / size
		for x := 0; x < size; x++ {
			cell := gy*gridCells + x*gridCells/size
			c := px.rgb[y*size+x]
			for ch := 0; ch < 3; ch++ {
				out[cell*3+ch] += (c[ch] - channelMean[ch]) / channelStd[ch]
			}
			counts[cell]++
		}
	}
	for cell, n := range counts {
		if n == 0 {
			continue
		}
		for ch := 0; ch < 3; ch++ {
			out[cell*3+ch] /= n
		}
	}
	return out
}

// colorHistogram bins hue (weighted by saturation), saturation, and value.
func colorHistogram(px pixels) []float64 {
	out := make([]float64, colorLen)
	hue := out[:hueBins]
	sat := out[hueBins : hueBins+satBins]
	val := out[hueBins+satBins:]
	for _, c := range px.rgb {
		h, s, v := rgbToHSV(c[0], c[1], c[2])
		hue[binOf(h, hueBins)] += s
		sat[binOf(s, satBins)]++
		val[binOf(v, valBins)]++
	}
	n := float64(len(px.rgb))
	for i := range out {
		out[i] /= n
	}
	return out
}

// edgeHistogram accumulates Sobel gradient magnitude by orientation for
// each image quadrant.
func edgeHistogram(px pixels, size int) []float64 {
	out := make([]float64, edgeLen)
	gray := make([]float64, len(px.rgb))
	for i, c := range px.rgb {
		gray[i] = 0.299*c[0] + 0.587*c[1] + 0.114*c[2]
	}
	at := func(x, y int) float64 { return gray[y*size+x] }
	half := size / 2

	for y := 1; y < size-1; y++ {
		for x := 1; x < size-1; x++ {
			gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			mag := math.Hypot(gx, gy)
			if mag == 0 {
				continue
			}
			theta := math.Atan2(gy, gx)
			if theta < 0 {
				theta += math.Pi
			}
			region := 0
			if x >= half {
				region++
			}
			if y >= half {
				region += 2
			}
			out[region*edgeBins+binOf(theta/math.Pi, edgeBins)] += mag
		}
	}
	return out
}

// normalizedBlock converts a block to float32 with unit L2 norm.
func normalizedBlock(block []float64) Vector {
	v := make(Vector, len(block))
	for i, x := range block {
		v[i] = float32(x)
	}
	return v.Normalize()
}

// binOf maps x in [0,1] to one of n bins.
func binOf(x float64, n int) int {
	b := int(x * float64(n))
	if b >= n {
		b = n - 1
	}
	if b < 0 {
		b = 0
	}
	return b
}

// rgbToHSV converts [0,1] RGB to hue, saturation, and value in [0,1].
func rgbToHSV(r, g, b float64) (h, s, v float64) {
	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	v = maxC
	d := maxC - minC
	if maxC > 0 {
		s = d / maxC
	}
	if d == 0 {
		return 0, s, v
	}
	switch maxC {
	case r:
		h = math.Mod((g-b)/d, 6)
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	h /= 6
	if h < 0 {
		h++
	}
	return h, s, v
}

var _ Extractor = (*PixelExtractor)(nil)
