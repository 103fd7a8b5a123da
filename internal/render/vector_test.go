package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/park285/fenshot/internal/pieces"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestEncodeSVGStartPosition(t *testing.T) {
	set, err := pieces.Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	cfg := DefaultConfig()
	cfg.FEN = startFEN
	cfg.Pieces = set

	var buf bytes.Buffer
	if err := EncodeSVG(&buf, cfg); err != nil {
		t.Fatalf("EncodeSVG: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `viewBox="0 0 440 440"`) {
		t.Fatalf("missing viewBox: %.200s", out)
	}
	if n := strings.Count(out, "<rect "); n != 65 {
		t.Fatalf("expected 64 squares plus border, got %d rects", n)
	}
	if n := strings.Count(out, "<image "); n != 32 {
		t.Fatalf("expected 32 piece images, got %d", n)
	}
	if n := strings.Count(out, "<text "); n != 16 {
		t.Fatalf("expected 16 labels, got %d", n)
	}
	for _, want := range []string{
		`<rect x="0" y="0" width="440" height="440" style="fill:#ffffff"`,
		`<rect x="20" y="20" width="50" height="50" style="fill:#f0d9b5"`,
		`<rect x="70" y="20" width="50" height="50" style="fill:#b58863"`,
		`data:image/svg+xml;base64,`,
		`class="coord"`,
		`text-anchor:end;dominant-baseline:central`,
		`text-anchor:middle;dominant-baseline:hanging`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q", want)
		}
	}
}

func TestEncodeSVGWithoutCoordinates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FEN = "8/8/8/8/8/8/8/8"
	cfg.ShowCoordinates = false
	cfg.Flipped = true

	var buf bytes.Buffer
	if err := EncodeSVG(&buf, cfg); err != nil {
		t.Fatalf("EncodeSVG: %v", err)
	}
	out := buf.String()
	if n := strings.Count(out, "<rect "); n != 64 {
		t.Fatalf("expected 64 rects, got %d", n)
	}
	if strings.Contains(out, "<text ") || strings.Contains(out, "<style") {
		t.Fatalf("labels should be omitted")
	}
	if !strings.Contains(out, `<rect x="0" y="0" width="50" height="50" style="fill:#f0d9b5"`) {
		t.Fatalf("flipped h1 should be a light square at the top-left")
	}
}

func TestEncodeSVGDisplayStroke(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Target = TargetDisplay
	var buf bytes.Buffer
	if err := EncodeSVG(&buf, cfg); err != nil {
		t.Fatalf("EncodeSVG: %v", err)
	}
	if !strings.Contains(buf.String(), "paint-order:stroke") {
		t.Fatalf("display target should stroke labels")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestEncodeSVGReportsWriteError(t *testing.T) {
	if err := EncodeSVG(failingWriter{}, DefaultConfig()); err == nil {
		t.Fatalf("expected write error")
	}
}
