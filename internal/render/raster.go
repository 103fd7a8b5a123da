package render

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/park285/fenshot/internal/fen"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// ProgressFunc receives the completed fraction of a single image in [0, 1].
type ProgressFunc func(fraction float64)

// Surface is a finished raster owned by one render call.
type Surface struct {
	Image   *image.RGBA
	Quality Quality
	Border  float64
}

// Renderer draws boards onto raster surfaces.
type Renderer struct {
	policy QualityPolicy
	logger *zap.Logger
}

func NewRenderer(policy QualityPolicy, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{policy: policy, logger: logger}
}

// Render parses cfg.FEN (falling back to an empty board) and rasterizes it.
func (r *Renderer) Render(ctx context.Context, cfg Config, progress ProgressFunc) (*Surface, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return r.RenderBoard(ctx, fen.Parse(cfg.FEN), cfg, cfg.Border(), progress)
}

// RenderBoard rasterizes board at the quality multiplier the policy allows.
func (r *Renderer) RenderBoard(ctx context.Context, board fen.Board, cfg Config, border float64, progress ProgressFunc) (*Surface, error) {
	if progress == nil {
		progress = func(float64) {}
	}
	pal, err := cfg.palette()
	if err != nil {
		return nil, err
	}
	q, err := r.policy.Resolve(cfg.Quality, cfg.BoardSize, border)
	if err != nil {
		return nil, err
	}
	if q.Reduced {
		r.logger.Warn("quality_reduced",
			zap.Int("requested", q.Requested),
			zap.Int("effective", q.Effective),
			zap.Float64("board_size", cfg.BoardSize),
		)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	scale := float64(q.Effective)
	logical := cfg.BoardSize + 2*border
	side := int(math.Ceil(logical * scale))
	dc := gg.NewContext(side, side)
	dc.Scale(scale, scale)

	if border > 0 {
		dc.SetColor(pal.border)
		dc.DrawRectangle(0, 0, logical, logical)
		dc.Fill()
	}

	squareSize := cfg.SquareSize()
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			g := SquareAt(row, col, squareSize, border, cfg.Flipped)
			if (row+col)%2 == 0 {
				dc.SetColor(pal.light)
			} else {
				dc.SetColor(pal.dark)
			}
			dc.DrawRectangle(g.X, g.Y, g.Width, g.Height)
			dc.Fill()
		}
	}
	progress(0.25)

	r.drawPieces(dc, board, cfg, border, scale)
	progress(0.75)

	if cfg.ShowCoordinates {
		r.drawCoordinates(dc, cfg, pal, border, scale)
	}
	progress(1)

	img, ok := dc.Image().(*image.RGBA)
	if !ok {
		return nil, fmt.Errorf("unexpected surface type %T", dc.Image())
	}
	return &Surface{Image: img, Quality: q, Border: border}, nil
}

// drawPieces works in device pixels so piece art is rasterized at full resolution
// instead of being upscaled.
func (r *Renderer) drawPieces(dc *gg.Context, board fen.Board, cfg Config, border, scale float64) {
	squareSize := cfg.SquareSize()
	size := int(math.Round(squareSize * PieceScale * scale))
	if size <= 0 {
		return
	}
	dc.Push()
	defer dc.Pop()
	dc.Identity()
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := board[row][col]
			img, ok := cfg.Pieces.Lookup(p)
			if !ok {
				continue
			}
			sprite, err := img.Rasterize(size)
			if err != nil || sprite == nil {
				r.logger.Debug("piece_skipped", zap.String("piece", p.String()), zap.Error(err))
				continue
			}
			g := SquareAt(row, col, squareSize, border, cfg.Flipped)
			dc.DrawImageAnchored(sprite, int(math.Round(g.CenterX*scale)), int(math.Round(g.CenterY*scale)), 0.5, 0.5)
		}
	}
}

func (r *Renderer) drawCoordinates(dc *gg.Context, cfg Config, pal palette, border, scale float64) {
	m := MetricsFor(cfg.SquareSize())
	face, err := labelFace(m.FontSize * scale)
	if err != nil {
		r.logger.Warn("label_font_unavailable", zap.Error(err))
		return
	}
	defer face.Close()

	dc.Push()
	defer dc.Pop()
	dc.Identity()
	dc.SetFontFace(face)

	stroke := m.LineWidth * scale
	for _, l := range LabelPositions(cfg.SquareSize(), border, cfg.Flipped, m) {
		x, y := l.X*scale, l.Y*scale
		if pal.stroke != nil {
			dc.SetColor(*pal.stroke)
			for _, off := range strokeOffsets {
				dc.DrawStringAnchored(l.Text, x+off[0]*stroke, y+off[1]*stroke, l.AnchorX, l.AnchorY)
			}
		}
		dc.SetColor(pal.text)
		dc.DrawStringAnchored(l.Text, x, y, l.AnchorX, l.AnchorY)
	}
}

var strokeOffsets = [][2]float64{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

var (
	labelFontOnce sync.Once
	labelFont     *opentype.Font
	labelFontErr  error
)

func labelFace(size float64) (font.Face, error) {
	labelFontOnce.Do(func() {
		labelFont, labelFontErr = opentype.Parse(goregular.TTF)
	})
	if labelFontErr != nil {
		return nil, fmt.Errorf("parse label font: %w", labelFontErr)
	}
	return opentype.NewFace(labelFont, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
