// Package pieces provides the decoded piece images the renderers draw.
package pieces

import (
	"image"

	"github.com/park285/fenshot/internal/fen"
)

// Image is a decoded piece image. A piece whose image is not Ready is drawn as an empty square.
type Image interface {
	Width() int
	Height() int
	Ready() bool
	// Rasterize returns the image scaled to fit a size x size pixel box.
	Rasterize(size int) (image.Image, error)
	// DataURI returns the image as an inline data URI for vector output.
	DataURI() (string, error)
}

// Set maps piece codes to images.
type Set map[fen.Piece]Image

// Lookup returns the image for p only when it is present and ready.
func (s Set) Lookup(p fen.Piece) (Image, bool) {
	if s == nil || p == fen.Empty {
		return nil, false
	}
	img, ok := s[p]
	if !ok || img == nil || !img.Ready() {
		return nil, false
	}
	return img, true
}

// AssetName returns the conventional base file name for a piece ("wK", "bP").
func AssetName(p fen.Piece) string {
	prefix := "b"
	if p.White() {
		prefix = "w"
	}
	upper := p
	if !p.White() {
		upper = p - ('a' - 'A')
	}
	return prefix + string(rune(upper))
}
