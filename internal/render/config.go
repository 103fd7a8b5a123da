package render

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/park285/fenshot/internal/pieces"
)

// Target selects label contrast: dark glyphs for print, stroked light glyphs for dark UIs.
type Target int

const (
	TargetExport Target = iota
	TargetDisplay
)

func (t Target) String() string {
	if t == TargetDisplay {
		return "display"
	}
	return "export"
}

func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "export", "print":
		return TargetExport, nil
	case "display", "screen":
		return TargetDisplay, nil
	}
	return TargetExport, fmt.Errorf("unknown render target %q", s)
}

const (
	DefaultBoardSize  = 400
	DefaultQuality    = 8
	DefaultLightColor = "#F0D9B5"
	DefaultDarkColor  = "#B58863"

	// PieceScale is the piece edge as a fraction of the square edge.
	PieceScale = 0.95
)

var (
	exportTextColor    = color.NRGBA{R: 51, G: 51, B: 51, A: 255}
	exportBorderColor  = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	displayTextColor   = color.NRGBA{R: 240, G: 240, B: 240, A: 255}
	displayStrokeColor = color.NRGBA{R: 0, G: 0, B: 0, A: 160}
	displayBorderColor = color.NRGBA{R: 38, G: 36, B: 33, A: 255}
)

var ErrInvalidConfig = errors.New("invalid render config")

// Config describes one render. It is passed by value and never modified.
type Config struct {
	FEN             string
	BoardSize       float64
	ShowCoordinates bool
	LightColor      string
	DarkColor       string
	// BorderColor overrides the target's default border fill when set.
	BorderColor string
	Flipped     bool
	Pieces      pieces.Set
	Quality     int
	Target      Target
}

func DefaultConfig() Config {
	return Config{
		BoardSize:       DefaultBoardSize,
		ShowCoordinates: true,
		LightColor:      DefaultLightColor,
		DarkColor:       DefaultDarkColor,
		Quality:         DefaultQuality,
		Target:          TargetExport,
	}
}

func (c Config) Validate() error {
	if c.BoardSize <= 0 {
		return fmt.Errorf("%w: board size %v", ErrInvalidConfig, c.BoardSize)
	}
	_, err := c.palette()
	return err
}

// Border is the label margin on each side; zero without coordinates.
func (c Config) Border() float64 {
	if !c.ShowCoordinates {
		return 0
	}
	return BorderFor(c.BoardSize)
}

func (c Config) SquareSize() float64 { return c.BoardSize / 8 }

type palette struct {
	light, dark  color.NRGBA
	border, text color.NRGBA
	stroke       *color.NRGBA
}

func (c Config) palette() (palette, error) {
	var p palette
	var err error
	if p.light, err = ParseHexColor(c.LightColor); err != nil {
		return p, fmt.Errorf("%w: light color: %v", ErrInvalidConfig, err)
	}
	if p.dark, err = ParseHexColor(c.DarkColor); err != nil {
		return p, fmt.Errorf("%w: dark color: %v", ErrInvalidConfig, err)
	}
	if c.Target == TargetDisplay {
		stroke := displayStrokeColor
		p.border, p.text, p.stroke = displayBorderColor, displayTextColor, &stroke
	} else {
		p.border, p.text = exportBorderColor, exportTextColor
	}
	if strings.TrimSpace(c.BorderColor) != "" {
		if p.border, err = ParseHexColor(c.BorderColor); err != nil {
			return p, fmt.Errorf("%w: border color: %v", ErrInvalidConfig, err)
		}
	}
	return p, nil
}

// ParseHexColor accepts six hex digits with an optional leading '#'.
func ParseHexColor(s string) (color.NRGBA, error) {
	v := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(v) != 6 {
		return color.NRGBA{}, fmt.Errorf("color %q: want 6 hex digits", s)
	}
	hex, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return color.NRGBA{
		R: uint8((hex >> 16) & 0xff),
		G: uint8((hex >> 8) & 0xff),
		B: uint8(hex & 0xff),
		A: 0xff,
	}, nil
}

func colorHex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
