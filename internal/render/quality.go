package render

import (
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultMaxDimension is a conservative per-side raster limit.
	DefaultMaxDimension  = 16384
	DefaultMinMultiplier = 8
)

var ErrSurfaceTooLarge = errors.New("render surface exceeds raster limit")

// QualityPolicy bounds the raster surface a render may allocate.
//
// MaxDimension is a hard ceiling. MinMultiplier is not a floor on the result: it only
// replaces a missing request (<= 0). An explicit small request such as 1 is honoured,
// and a request over the ceiling is lowered to floor(MaxDimension / side) even when
// that falls below MinMultiplier, so the ceiling always wins.
type QualityPolicy struct {
	MaxDimension  int
	MinMultiplier int
}

func DefaultQualityPolicy() QualityPolicy {
	return QualityPolicy{MaxDimension: DefaultMaxDimension, MinMultiplier: DefaultMinMultiplier}
}

// Quality is the outcome of resolving a requested multiplier.
type Quality struct {
	Requested int
	Effective int
	Reduced   bool
}

// Resolve clamps requested so that (boardSize + 2*border) * multiplier stays within
// MaxDimension. Requests already within the limit are returned unchanged.
func (p QualityPolicy) Resolve(requested int, boardSize, border float64) (Quality, error) {
	maxDim := p.MaxDimension
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	if requested <= 0 {
		requested = max(p.MinMultiplier, 1)
	}
	q := Quality{Requested: requested, Effective: requested}

	side := boardSize + 2*border
	if side <= 0 {
		return q, fmt.Errorf("%w: board side %v", ErrInvalidConfig, side)
	}
	if math.Ceil(side*float64(requested)) <= float64(maxDim) {
		return q, nil
	}
	limit := int(math.Floor(float64(maxDim) / side))
	if limit < 1 {
		return q, fmt.Errorf("%w: %.0fpx side over %dpx", ErrSurfaceTooLarge, side, maxDim)
	}
	q.Effective = limit
	q.Reduced = true
	return q, nil
}

// ResolveQuality applies the default policy.
func ResolveQuality(requested int, boardSize, border float64) (int, error) {
	q, err := DefaultQualityPolicy().Resolve(requested, boardSize, border)
	return q.Effective, err
}
