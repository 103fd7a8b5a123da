package render

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/park285/fenshot/internal/pieces"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var red = color.NRGBA{R: 255, A: 255}

func solidPiece(c color.Color) *pieces.BitmapImage {
	img := image.NewNRGBA(image.Rect(0, 0, 12, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 12; x++ {
			img.Set(x, y, c)
		}
	}
	return pieces.NewBitmap(img)
}

func plainConfig(fenStr string) Config {
	cfg := DefaultConfig()
	cfg.FEN = fenStr
	cfg.ShowCoordinates = false
	cfg.Quality = 1
	return cfg
}

func assertPixel(t *testing.T, img *image.RGBA, x, y int, want color.NRGBA) {
	t.Helper()
	got := img.RGBAAt(x, y)
	diff := func(a, b uint8) int {
		if a > b {
			return int(a - b)
		}
		return int(b - a)
	}
	if diff(got.R, want.R) > 2 || diff(got.G, want.G) > 2 || diff(got.B, want.B) > 2 || got.A != 255 {
		t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
	}
}

func mustHex(t *testing.T, s string) color.NRGBA {
	t.Helper()
	c, err := ParseHexColor(s)
	if err != nil {
		t.Fatalf("ParseHexColor(%q): %v", s, err)
	}
	return c
}

func TestRenderEmptyBoardColors(t *testing.T) {
	r := NewRenderer(DefaultQualityPolicy(), nil)
	s, err := r.Render(context.Background(), plainConfig("8/8/8/8/8/8/8/8 w - - 0 1"), nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if b := s.Image.Bounds(); b.Dx() != 400 || b.Dy() != 400 {
		t.Fatalf("unexpected bounds %v", b)
	}
	light, dark := mustHex(t, DefaultLightColor), mustHex(t, DefaultDarkColor)
	assertPixel(t, s.Image, 25, 25, light)
	assertPixel(t, s.Image, 75, 25, dark)
	assertPixel(t, s.Image, 25, 375, dark)
	assertPixel(t, s.Image, 375, 375, light)
	if s.Border != 0 || s.Quality.Effective != 1 {
		t.Fatalf("unexpected surface metadata %+v", s)
	}
}

func TestRenderFlippedMovesA1ToTopRight(t *testing.T) {
	r := NewRenderer(DefaultQualityPolicy(), nil)
	cfg := plainConfig("8/8/8/8/8/8/8/R7 w - - 0 1")
	cfg.Pieces = pieces.Set{'R': solidPiece(red)}

	s, err := r.Render(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	assertPixel(t, s.Image, 25, 375, red)

	cfg.Flipped = true
	s, err = r.Render(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Render flipped: %v", err)
	}
	assertPixel(t, s.Image, 375, 25, red)
	assertPixel(t, s.Image, 25, 375, mustHex(t, DefaultDarkColor))
}

func TestRenderInvalidFENDrawsEmptyBoard(t *testing.T) {
	r := NewRenderer(DefaultQualityPolicy(), nil)
	cfg := plainConfig("not a fen")
	cfg.Pieces = pieces.Set{'K': solidPiece(red), 'k': solidPiece(red)}
	s, err := r.Render(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	assertPixel(t, s.Image, 225, 375, mustHex(t, DefaultDarkColor))
	assertPixel(t, s.Image, 225, 25, mustHex(t, DefaultLightColor))
}

func TestRenderSkipsMissingPieces(t *testing.T) {
	r := NewRenderer(DefaultQualityPolicy(), nil)
	cfg := plainConfig("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	cfg.Pieces = pieces.Set{'K': solidPiece(red)}
	s, err := r.Render(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	assertPixel(t, s.Image, 225, 375, red)
	assertPixel(t, s.Image, 175, 375, mustHex(t, DefaultLightColor))
}

func TestRenderBorderAndLabels(t *testing.T) {
	r := NewRenderer(DefaultQualityPolicy(), nil)
	cfg := DefaultConfig()
	cfg.FEN = "8/8/8/8/8/8/8/8 w - - 0 1"
	cfg.Quality = 2

	s, err := r.Render(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if s.Border != 20 || s.Image.Bounds().Dx() != 880 {
		t.Fatalf("unexpected border %v / size %v", s.Border, s.Image.Bounds())
	}
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	assertPixel(t, s.Image, 4, 4, white)
	assertPixel(t, s.Image, 90, 90, mustHex(t, DefaultLightColor))

	inked := 0
	for y := 40; y < 840; y++ {
		for x := 0; x < 40; x++ {
			if s.Image.RGBAAt(x, y) != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
				inked++
			}
		}
	}
	if inked == 0 {
		t.Fatalf("expected rank labels in the left border")
	}
}

func TestRenderDisplayTargetBorder(t *testing.T) {
	r := NewRenderer(DefaultQualityPolicy(), nil)
	cfg := DefaultConfig()
	cfg.Quality = 1
	cfg.Target = TargetDisplay
	s, err := r.Render(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	assertPixel(t, s.Image, 2, 2, displayBorderColor)

	cfg.BorderColor = "#123456"
	s, err = r.Render(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	assertPixel(t, s.Image, 2, 2, mustHex(t, "#123456"))
}

func TestRenderReducesQualityAndLogs(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r := NewRenderer(QualityPolicy{MaxDimension: 500, MinMultiplier: 8}, zap.New(core))
	cfg := plainConfig("8/8/8/8/8/8/8/8")
	cfg.Quality = 4

	var steps []float64
	s, err := r.Render(context.Background(), cfg, func(f float64) { steps = append(steps, f) })
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if s.Image.Bounds().Dx() != 400 {
		t.Fatalf("expected reduced 400px surface, got %v", s.Image.Bounds())
	}
	want := Quality{Requested: 4, Effective: 1, Reduced: true}
	if diff := cmp.Diff(want, s.Quality); diff != "" {
		t.Fatalf("quality mismatch (-want +got):\n%s", diff)
	}
	if logs.FilterMessage("quality_reduced").Len() != 1 {
		t.Fatalf("expected quality_reduced warning, got %v", logs.All())
	}
	if diff := cmp.Diff([]float64{0.25, 0.75, 1}, steps); diff != "" {
		t.Fatalf("progress mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderErrors(t *testing.T) {
	r := NewRenderer(DefaultQualityPolicy(), nil)

	cfg := plainConfig("8/8/8/8/8/8/8/8")
	cfg.BoardSize = 0
	if _, err := r.Render(context.Background(), cfg, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}

	cfg = plainConfig("8/8/8/8/8/8/8/8")
	cfg.LightColor = "tan"
	if _, err := r.Render(context.Background(), cfg, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for bad colour, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Render(ctx, plainConfig("8/8/8/8/8/8/8/8"), nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
