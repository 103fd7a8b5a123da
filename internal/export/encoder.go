package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
	"github.com/park285/fenshot/internal/render"
)

// DefaultJPEGQuality is the fixed lossy quality used for JPEG output.
const DefaultJPEGQuality = 95

// rasterShare is the part of a raster job's progress spent drawing; the rest is encoding.
const rasterShare = 0.8

// Payload is one encoded image ready for delivery.
type Payload struct {
	Name    string
	Format  Format
	MIME    string
	Data    []byte
	Quality render.Quality
}

// Filename is Name plus the format extension.
func (p *Payload) Filename() string {
	return p.Name + "." + p.Format.Extension()
}

// Exporter turns a render configuration into an encoded payload.
type Exporter interface {
	Export(ctx context.Context, cfg render.Config, format Format, name string, progress render.ProgressFunc) (*Payload, error)
}

// Encoder is the Exporter backed by the board renderer.
type Encoder struct {
	renderer    *render.Renderer
	jpegQuality int
}

func NewEncoder(r *render.Renderer) *Encoder {
	return &Encoder{renderer: r, jpegQuality: DefaultJPEGQuality}
}

// WithJPEGQuality returns a copy encoding JPEG at q (1-100).
func (e *Encoder) WithJPEGQuality(q int) *Encoder {
	cp := *e
	cp.jpegQuality = min(max(q, 1), 100)
	return &cp
}

func (e *Encoder) Export(ctx context.Context, cfg render.Config, format Format, name string, progress render.ProgressFunc) (*Payload, error) {
	if progress == nil {
		progress = func(float64) {}
	}
	progress(0)

	p := &Payload{Name: name, Format: format, MIME: format.MIME()}
	var buf bytes.Buffer
	switch format {
	case FormatSVG:
		if err := render.EncodeSVG(&buf, cfg); err != nil {
			return nil, fmt.Errorf("encode svg: %w", err)
		}
	case FormatPNG, FormatJPEG:
		surface, err := e.renderer.Render(ctx, cfg, func(f float64) { progress(f * rasterShare) })
		if err != nil {
			return nil, err
		}
		p.Quality = surface.Quality
		if err := encodeRaster(&buf, surface.Image, format, e.jpegQuality); err != nil {
			return nil, fmt.Errorf("encode %s: %w", format, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	p.Data = buf.Bytes()
	progress(1)
	return p, nil
}

func encodeRaster(w io.Writer, img image.Image, format Format, quality int) error {
	if format == FormatJPEG {
		return imaging.Encode(w, flattenOnWhite(img), imaging.JPEG, imaging.JPEGQuality(quality))
	}
	return imaging.Encode(w, img, imaging.PNG)
}

// flattenOnWhite composites img over an opaque white background, since JPEG has no alpha.
func flattenOnWhite(img image.Image) *image.NRGBA {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1)
}
