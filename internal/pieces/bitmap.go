package pieces

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/disintegration/imaging"
)

// BitmapImage is a piece backed by a decoded raster image.
type BitmapImage struct {
	img image.Image

	mu     sync.Mutex
	size   int
	scaled image.Image
}

func NewBitmap(img image.Image) *BitmapImage {
	return &BitmapImage{img: img}
}

// DecodeBitmap decodes any format registered with imaging (PNG, JPEG, GIF, BMP, TIFF).
func DecodeBitmap(r io.Reader) (*BitmapImage, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode piece bitmap: %w", err)
	}
	return NewBitmap(img), nil
}

func (b *BitmapImage) Width() int {
	if b == nil || b.img == nil {
		return 0
	}
	return b.img.Bounds().Dx()
}

func (b *BitmapImage) Height() int {
	if b == nil || b.img == nil {
		return 0
	}
	return b.img.Bounds().Dy()
}

func (b *BitmapImage) Ready() bool {
	return b != nil && b.img != nil && !b.img.Bounds().Empty()
}

func (b *BitmapImage) Rasterize(size int) (image.Image, error) {
	if !b.Ready() {
		return nil, fmt.Errorf("piece bitmap not loaded")
	}
	if size <= 0 {
		return nil, fmt.Errorf("invalid raster size %d", size)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.scaled != nil && b.size == size {
		return b.scaled, nil
	}
	if b.Width() >= b.Height() {
		b.scaled = imaging.Resize(b.img, size, 0, imaging.Lanczos)
	} else {
		b.scaled = imaging.Resize(b.img, 0, size, imaging.Lanczos)
	}
	b.size = size
	return b.scaled, nil
}

func (b *BitmapImage) DataURI() (string, error) {
	if !b.Ready() {
		return "", fmt.Errorf("piece bitmap not loaded")
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, b.img, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode piece bitmap: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
