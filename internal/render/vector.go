package render

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"
	"github.com/park285/fenshot/internal/fen"
)

// EncodeSVG writes the vector equivalent of Render for cfg. It uses the same
// geometry as the rasterizer at multiplier 1.
func EncodeSVG(w io.Writer, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return EncodeBoardSVG(w, fen.Parse(cfg.FEN), cfg, cfg.Border())
}

func EncodeBoardSVG(w io.Writer, board fen.Board, cfg Config, border float64) error {
	pal, err := cfg.palette()
	if err != nil {
		return err
	}
	ew := &errWriter{w: w}
	logical := int(math.Round(cfg.BoardSize + 2*border))
	canvas := svg.New(ew)
	canvas.Startview(logical, logical, 0, 0, logical, logical)

	m := MetricsFor(cfg.SquareSize())
	if cfg.ShowCoordinates {
		canvas.Style("text/css", labelCSS(pal, m))
	}
	if border > 0 {
		canvas.Rect(0, 0, logical, logical, "fill:"+colorHex(pal.border))
	}

	squareSize := cfg.SquareSize()
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			g := SquareAt(row, col, squareSize, border, cfg.Flipped)
			fill := pal.dark
			if (row+col)%2 == 0 {
				fill = pal.light
			}
			canvas.Rect(int(g.X), int(g.Y), int(g.Width), int(g.Height), "fill:"+colorHex(fill))
		}
	}

	pieceSize := int(math.Round(squareSize * PieceScale))
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			img, ok := cfg.Pieces.Lookup(board[row][col])
			if !ok {
				continue
			}
			href, err := img.DataURI()
			if err != nil {
				continue
			}
			g := SquareAt(row, col, squareSize, border, cfg.Flipped)
			x := int(math.Round(g.CenterX - float64(pieceSize)/2))
			y := int(math.Round(g.CenterY - float64(pieceSize)/2))
			canvas.Image(x, y, pieceSize, pieceSize, href)
		}
	}

	if cfg.ShowCoordinates {
		for _, l := range LabelPositions(squareSize, border, cfg.Flipped, m) {
			canvas.Text(int(l.X), int(l.Y), l.Text, `class="coord"`, anchorStyle(l))
		}
	}
	canvas.End()
	return ew.err
}

func labelCSS(pal palette, m Metrics) string {
	css := fmt.Sprintf(".coord{font-family:'Go','Helvetica',sans-serif;font-size:%.1fpx;fill:%s;",
		m.FontSize, colorHex(pal.text))
	if pal.stroke != nil {
		css += fmt.Sprintf("stroke:%s;stroke-opacity:%.2f;stroke-width:%.2fpx;paint-order:stroke;",
			colorHex(*pal.stroke), float64(pal.stroke.A)/255, 2*m.LineWidth)
	}
	return css + "}"
}

func anchorStyle(l Label) string {
	anchor := "middle"
	switch {
	case l.AnchorX <= 0:
		anchor = "start"
	case l.AnchorX >= 1:
		anchor = "end"
	}
	baseline := "central"
	switch {
	case l.AnchorY <= 0:
		baseline = "alphabetic"
	case l.AnchorY >= 1:
		baseline = "hanging"
	}
	return "text-anchor:" + anchor + ";dominant-baseline:" + baseline
}

// errWriter keeps the first write error; svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
