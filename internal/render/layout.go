package render

import "math"

// SquareGeometry is one board cell in logical surface coordinates.
type SquareGeometry struct {
	X, Y, Width, Height float64
	CenterX, CenterY    float64
}

// edge rounds each cell edge on its own so neighbours share the same pixel boundary.
func edge(border, size float64, i int) float64 {
	return math.Round(border + float64(i)*size)
}

// SquareAt returns the geometry of board cell (row, col), row 0 being rank 8.
func SquareAt(row, col int, squareSize, border float64, flipped bool) SquareGeometry {
	dr, dc := row, col
	if flipped {
		dr, dc = 7-row, 7-col
	}
	x0, x1 := edge(border, squareSize, dc), edge(border, squareSize, dc+1)
	y0, y1 := edge(border, squareSize, dr), edge(border, squareSize, dr+1)
	return SquareGeometry{
		X:       x0,
		Y:       y0,
		Width:   x1 - x0,
		Height:  y1 - y0,
		CenterX: (x0 + x1) / 2,
		CenterY: (y0 + y1) / 2,
	}
}

// Label is a coordinate glyph. AnchorX is 0 start, 0.5 middle, 1 end; AnchorY is
// 0 baseline, 0.5 middle, 1 hanging.
type Label struct {
	Text    string
	X, Y    float64
	AnchorX float64
	AnchorY float64
}

// LabelPositions places rank labels left of the first display column and file
// labels under the last display row.
func LabelPositions(squareSize, border float64, flipped bool, m Metrics) []Label {
	labels := make([]Label, 0, 16)
	for i := 0; i < 8; i++ {
		rank := 8 - i
		if flipped {
			rank = i + 1
		}
		y0, y1 := edge(border, squareSize, i), edge(border, squareSize, i+1)
		labels = append(labels, Label{
			Text:    string(rune('0' + rank)),
			X:       math.Round(border - m.Padding),
			Y:       math.Round((y0 + y1) / 2),
			AnchorX: 1,
			AnchorY: 0.5,
		})
	}
	bottom := edge(border, squareSize, 8)
	for j := 0; j < 8; j++ {
		file := 'a' + rune(j)
		if flipped {
			file = 'h' - rune(j)
		}
		x0, x1 := edge(border, squareSize, j), edge(border, squareSize, j+1)
		labels = append(labels, Label{
			Text:    string(file),
			X:       math.Round((x0 + x1) / 2),
			Y:       math.Round(bottom + m.Padding),
			AnchorX: 0.5,
			AnchorY: 1,
		})
	}
	return labels
}
