package pieces

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

const maxCachedSizes = 2

// SVGImage is a piece backed by SVG source, rasterized at whatever size is requested.
type SVGImage struct {
	source []byte
	w, h   int

	mu    sync.RWMutex
	cache map[int]image.Image
}

// NewSVG parses data and fails when it is not a drawable SVG icon.
func NewSVG(data []byte) (*SVGImage, error) {
	clean := sanitizeSVG(data)
	icon, err := oksvg.ReadIconStream(bytes.NewReader(clean))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	w := int(icon.ViewBox.W)
	h := int(icon.ViewBox.H)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("piece svg has empty viewBox")
	}
	return &SVGImage{source: clean, w: w, h: h, cache: map[int]image.Image{}}, nil
}

func (s *SVGImage) Width() int  { return s.w }
func (s *SVGImage) Height() int { return s.h }
func (s *SVGImage) Ready() bool { return s != nil && len(s.source) > 0 }

func (s *SVGImage) Rasterize(size int) (image.Image, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid raster size %d", size)
	}
	s.mu.RLock()
	if img, ok := s.cache[size]; ok {
		s.mu.RUnlock()
		return img, nil
	}
	s.mu.RUnlock()

	// SetTarget mutates the icon, so each size gets a fresh parse.
	icon, err := oksvg.ReadIconStream(bytes.NewReader(s.source))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	s.mu.Lock()
	if len(s.cache) >= maxCachedSizes {
		clear(s.cache)
	}
	s.cache[size] = img
	s.mu.Unlock()

	return img, nil
}

func (s *SVGImage) DataURI() (string, error) {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(s.source), nil
}

func sanitizeSVG(svg []byte) []byte {
	fixed := bytes.ReplaceAll(svg, []byte("fill:000000"), []byte("fill:#000000"))
	fixed = bytes.ReplaceAll(fixed, []byte("fill: 000000"), []byte("fill:#000000"))
	fixed = bytes.ReplaceAll(fixed, []byte("stroke: 000000"), []byte("stroke:#000000"))
	fixed = bytes.ReplaceAll(fixed, []byte("fill: #"), []byte("fill:#"))
	fixed = bytes.ReplaceAll(fixed, []byte("stroke: #"), []byte("stroke:#"))
	fixed = bytes.ReplaceAll(fixed, []byte("stop-color: #"), []byte("stop-color:#"))
	return fixed
}
