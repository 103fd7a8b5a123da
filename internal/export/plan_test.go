package export

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPlanJobsSinglePosition(t *testing.T) {
	jobs := PlanJobs([]string{emptyFEN}, []Format{FormatPNG, FormatSVG, FormatPNG}, "board")
	want := []Job{
		{Index: 0, Position: 0, FEN: emptyFEN, Format: FormatPNG, Name: "board"},
		{Index: 1, Position: 0, FEN: emptyFEN, Format: FormatSVG, Name: "board"},
	}
	if diff := cmp.Diff(want, jobs); diff != "" {
		t.Fatalf("jobs mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanJobsIndexesCollidingNames(t *testing.T) {
	jobs := PlanJobs(positions(3), []Format{FormatJPEG}, "  ")
	var names []string
	for _, j := range jobs {
		names = append(names, j.Name+"."+j.Format.Extension())
	}
	want := []string{"chess-board-1.jpg", "chess-board-2.jpg", "chess-board-3.jpg"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFormats(t *testing.T) {
	got, err := ParseFormats("PNG, jpg,.svg,jpeg")
	if err != nil {
		t.Fatalf("ParseFormats: %v", err)
	}
	if diff := cmp.Diff([]Format{FormatPNG, FormatJPEG, FormatSVG}, got); diff != "" {
		t.Fatalf("formats mismatch (-want +got):\n%s", diff)
	}
	if _, err := ParseFormats("png,webp"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	if _, err := ParseFormats(" , "); err == nil {
		t.Fatalf("expected error for empty list")
	}
}
