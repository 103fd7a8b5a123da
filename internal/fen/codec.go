package fen

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// Piece is a single-letter piece code. Uppercase is white, lowercase is black, zero is an empty square.
type Piece byte

const Empty Piece = 0

// Codes lists the twelve valid piece codes.
var Codes = []Piece{'K', 'Q', 'R', 'B', 'N', 'P', 'k', 'q', 'r', 'b', 'n', 'p'}

func (p Piece) Valid() bool {
	switch p {
	case 'K', 'Q', 'R', 'B', 'N', 'P', 'k', 'q', 'r', 'b', 'n', 'p':
		return true
	}
	return false
}

func (p Piece) White() bool { return p >= 'A' && p <= 'Z' }

func (p Piece) String() string {
	if p == Empty {
		return ""
	}
	return string(rune(p))
}

// Board is an 8x8 grid, rank 8 first, file a first within each rank.
type Board [8][8]Piece

// At returns the piece on the square named by algebraic coordinates ("a1".."h8").
func (b Board) At(square string) Piece {
	if len(square) != 2 {
		return Empty
	}
	col := int(square[0] - 'a')
	rank := int(square[1] - '0')
	if col < 0 || col > 7 || rank < 1 || rank > 8 {
		return Empty
	}
	return b[8-rank][col]
}

// Empty reports whether no square holds a piece.
func (b Board) Empty() bool {
	for _, rank := range b {
		for _, p := range rank {
			if p != Empty {
				return false
			}
		}
	}
	return true
}

// Count returns the number of occupied squares.
func (b Board) Count() int {
	n := 0
	for _, rank := range b {
		for _, p := range rank {
			if p != Empty {
				n++
			}
		}
	}
	return n
}

var ErrInvalidFEN = errors.New("invalid FEN placement")

// RandomTrailer is appended to generated placements to form a full FEN record.
const RandomTrailer = " w KQkq - 0 1"

// Parse decodes the piece-placement field of fen. Malformed input yields an all-empty
// board; callers that must reject bad input call Validate first.
func Parse(fen string) Board {
	b, err := decode(fen)
	if err != nil {
		return Board{}
	}
	return b
}

// Validate reports whether the placement field of fen is structurally valid.
func Validate(fen string) bool {
	_, err := decode(fen)
	return err == nil
}

// Check is Validate with the reason for rejection.
func Check(fen string) error {
	_, err := decode(fen)
	return err
}

func decode(fen string) (Board, error) {
	var b Board
	fields := strings.Fields(fen)
	if len(fields) == 0 {
		return b, fmt.Errorf("%w: empty", ErrInvalidFEN)
	}
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return b, fmt.Errorf("%w: %d ranks", ErrInvalidFEN, len(ranks))
	}
	for row, rank := range ranks {
		col := 0
		for _, c := range rank {
			switch {
			case c >= '1' && c <= '8':
				col += int(c - '0')
				if col > 8 {
					return Board{}, fmt.Errorf("%w: rank %q overflows", ErrInvalidFEN, rank)
				}
			case Piece(c).Valid():
				if col >= 8 {
					return Board{}, fmt.Errorf("%w: rank %q overflows", ErrInvalidFEN, rank)
				}
				b[row][col] = Piece(c)
				col++
			default:
				return Board{}, fmt.Errorf("%w: unknown piece %q", ErrInvalidFEN, c)
			}
		}
		if col != 8 {
			return Board{}, fmt.Errorf("%w: %d files at rank %q", ErrInvalidFEN, col, rank)
		}
	}
	return b, nil
}

// ValidateRecord checks every field of a full FEN record (side to move, castling,
// en passant, clocks), not only the placement. It does not check legality.
func ValidateRecord(fen string) error {
	if err := Check(fen); err != nil {
		return err
	}
	if _, err := nchess.FEN(strings.TrimSpace(fen)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	return nil
}

// Encode writes the placement field for b.
func Encode(b Board) string {
	var sb strings.Builder
	for row, rank := range b {
		if row > 0 {
			sb.WriteByte('/')
		}
		run := 0
		for _, p := range rank {
			if p == Empty {
				run++
				continue
			}
			if run > 0 {
				sb.WriteByte(byte('0' + run))
				run = 0
			}
			sb.WriteByte(byte(p))
		}
		if run > 0 {
			sb.WriteByte(byte('0' + run))
		}
	}
	return sb.String()
}

// GenerateRandom builds a random placement that passes Validate. It is not
// necessarily a reachable position.
func GenerateRandom() string {
	return generate(rand.Float64, rand.IntN)
}

func generate(chance func() float64, pick func(int) int) string {
	var b Board
	for row := range b {
		for col := range b[row] {
			if chance() < 0.4 {
				b[row][col] = Codes[pick(len(Codes))]
			}
		}
	}
	return Encode(b) + RandomTrailer
}
