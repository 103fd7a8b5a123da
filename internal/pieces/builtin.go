package pieces

import (
	"fmt"
	"sync"

	"github.com/park285/fenshot/internal/fen"
)

const builtinBase = `<rect x="11" y="36" width="23" height="4"/>`

// Silhouettes on a 45x45 canvas, shared by both colours.
var builtinShapes = map[byte]string{
	'P': `<circle cx="22.5" cy="15" r="5.5"/>` +
		`<path d="M16 36 L29 36 L26 22 L19 22 Z"/>`,
	'R': `<path d="M12 12 L15 12 L15 15 L20 15 L20 12 L25 12 L25 15 L30 15 L30 12 L33 12 L33 18 L30 20 L30 32 L33 34 L33 36 L12 36 L12 34 L15 32 L15 20 L12 18 Z"/>`,
	'N': `<path d="M14 36 L31 36 C31 26 29 16 22 10 L20 8 L18 11 C14 13 11 18 10 23 L13 25 L18 21 C18 25 15 29 14 36 Z"/>`,
	'B': `<circle cx="22.5" cy="9" r="2.5"/>` +
		`<path d="M22.5 12 C16 17 15 24 17 30 L28 30 C30 24 29 17 22.5 12 Z"/>` +
		`<path d="M14 36 L31 36 L28 30 L17 30 Z"/>`,
	'Q': `<circle cx="10" cy="13" r="2"/><circle cx="19" cy="10" r="2"/><circle cx="26" cy="10" r="2"/><circle cx="35" cy="13" r="2"/>` +
		`<path d="M10 14 L14 30 L31 30 L35 14 L28 24 L26 11 L22.5 23 L19 11 L17 24 Z"/>` +
		`<path d="M13 30 L32 30 L31 36 L14 36 Z"/>`,
	'K': `<path d="M22.5 5 L22.5 13 M19 8.5 L26 8.5" fill="none"/>` +
		`<path d="M22.5 15 C28 12 36 15 33 23 L30 30 L15 30 L12 23 C9 15 17 12 22.5 15 Z"/>` +
		`<path d="M14 30 L31 30 L31 36 L14 36 Z"/>`,
}

var (
	builtinOnce sync.Once
	builtinSet  Set
	builtinErr  error
)

// Builtin returns the generated default piece set.
func Builtin() (Set, error) {
	builtinOnce.Do(func() {
		set := make(Set, len(fen.Codes))
		for _, code := range fen.Codes {
			img, err := NewSVG(builtinSVG(code))
			if err != nil {
				builtinErr = fmt.Errorf("builtin piece %s: %w", code, err)
				return
			}
			set[code] = img
		}
		builtinSet = set
	})
	return builtinSet, builtinErr
}

func builtinSVG(p fen.Piece) []byte {
	fill, stroke := "#ffffff", "#000000"
	shape := byte(p)
	if !p.White() {
		fill, stroke = "#000000", "#000000"
		shape = byte(p) - ('a' - 'A')
	}
	return []byte(fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="45" height="45" viewBox="0 0 45 45">`+
			`<g fill="%s" stroke="%s" stroke-width="1.5" stroke-linejoin="round">%s%s</g></svg>`,
		fill, stroke, builtinShapes[shape], builtinBase))
}
