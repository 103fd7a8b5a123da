package render

import "math"

// Metrics are the coordinate label dimensions for one square size.
type Metrics struct {
	FontSize  float64
	Padding   float64
	LineWidth float64
}

var fontBreakpoints = []struct {
	below float64
	size  float64
}{
	{28, 6}, {33, 7}, {38, 8}, {45, 9}, {55, 10}, {68, 11}, {82, 12},
}

const maxFontSize = 13

// MetricsFor maps a square size in logical pixels to label metrics.
func MetricsFor(squareSize float64) Metrics {
	size := float64(maxFontSize)
	for _, bp := range fontBreakpoints {
		if squareSize < bp.below {
			size = bp.size
			break
		}
	}
	return Metrics{
		FontSize:  size,
		Padding:   math.Max(2.5, size*0.28),
		LineWidth: math.Max(0.5, size*0.08),
	}
}

const (
	BorderRatio = 0.05
	MinBorder   = 12
	MaxBorder   = 40
)

// BorderFor returns the label margin for a board size, rounded to whole pixels.
func BorderFor(boardSize float64) float64 {
	b := math.Round(boardSize * BorderRatio)
	return math.Min(math.Max(b, MinBorder), MaxBorder)
}
