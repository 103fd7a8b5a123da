package httpapi

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/park285/fenshot/internal/batchstore"
	"github.com/park285/fenshot/internal/export"
	"github.com/park285/fenshot/internal/fen"
	"github.com/park285/fenshot/internal/pieces"
	"github.com/park285/fenshot/internal/render"
	"github.com/park285/fenshot/pkg/exportdto"
	"github.com/valyala/fasthttp/fasthttputil"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func newTestServer(t *testing.T, policy render.QualityPolicy, store batchstore.Store) *Client {
	t.Helper()
	set, err := pieces.Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	base := render.DefaultConfig()
	base.BoardSize = 160
	base.Quality = 2
	base.Pieces = set

	enc := export.NewEncoder(render.NewRenderer(policy, nil))
	srv := NewServer(enc, base, Options{Store: store})

	ln := fasthttputil.NewInmemoryListener()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Errorf("server did not shut down")
		}
		_ = ln.Close()
	})
	return NewClient("http://fenshot.test",
		WithDial(func(string) (net.Conn, error) { return ln.Dial() }),
		WithRetry(1),
		WithTimeout(30*time.Second),
	)
}

func domainCode(err error) string {
	var de exportdto.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func TestRenderPNG(t *testing.T) {
	c := newTestServer(t, render.DefaultQualityPolicy(), nil)
	res, err := c.Render(context.Background(), exportdto.RenderRequest{FEN: startFEN, Name: "opening"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.Filename != "opening.png" || res.MIME != "image/png" {
		t.Fatalf("unexpected download meta %q %q", res.Filename, res.MIME)
	}
	img, err := png.Decode(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 368 {
		t.Fatalf("unexpected size %v", img.Bounds())
	}
	if diff := cmp.Diff(render.Quality{Requested: 2, Effective: 2}, res.Quality); diff != "" {
		t.Fatalf("quality (-want +got):\n%s", diff)
	}
}

func TestRenderSVGWithoutCoordinates(t *testing.T) {
	c := newTestServer(t, render.DefaultQualityPolicy(), nil)
	off := false
	res, err := c.Render(context.Background(), exportdto.RenderRequest{FEN: startFEN, Format: "svg", Coordinates: &off, Flipped: true})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	body := string(res.Data)
	if res.MIME != "image/svg+xml" || !strings.Contains(body, "<svg") || strings.Contains(body, "<text") {
		t.Fatalf("unexpected svg response %q: %.120s", res.MIME, body)
	}
	if res.Filename != "chess-board.svg" {
		t.Fatalf("unexpected filename %q", res.Filename)
	}
}

func TestRenderReducedQuality(t *testing.T) {
	c := newTestServer(t, render.QualityPolicy{MaxDimension: 400, MinMultiplier: 1}, nil)
	res, err := c.Render(context.Background(), exportdto.RenderRequest{FEN: startFEN, Quality: 4})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !res.Quality.Reduced || res.Quality.Effective != 2 || res.Quality.Requested != 4 {
		t.Fatalf("expected reduction 4 -> 2, got %+v", res.Quality)
	}
}

func TestRenderErrors(t *testing.T) {
	c := newTestServer(t, render.QualityPolicy{MaxDimension: 400, MinMultiplier: 1}, nil)
	ctx := context.Background()
	cases := []struct {
		name string
		req  exportdto.RenderRequest
		code string
	}{
		{"bad fen", exportdto.RenderRequest{FEN: "8/8/8"}, exportdto.CodeInvalidFEN},
		{"bad format", exportdto.RenderRequest{FEN: startFEN, Format: "gif"}, exportdto.CodeUnknownFormat},
		{"bad colour", exportdto.RenderRequest{FEN: startFEN, LightColor: "pink"}, exportdto.CodeInvalidRequest},
		{"bad target", exportdto.RenderRequest{FEN: startFEN, Target: "poster"}, exportdto.CodeInvalidRequest},
		{"too large", exportdto.RenderRequest{FEN: startFEN, BoardSize: 1000}, exportdto.CodeSurfaceTooLarge},
	}
	for _, tc := range cases {
		_, err := c.Render(ctx, tc.req)
		if got := domainCode(err); got != tc.code {
			t.Fatalf("%s: expected code %q, got %q (%v)", tc.name, tc.code, got, err)
		}
	}
}

func TestValidateAndRandom(t *testing.T) {
	c := newTestServer(t, render.DefaultQualityPolicy(), nil)
	ctx := context.Background()

	v, err := c.Validate(ctx, startFEN)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if diff := cmp.Diff(exportdto.ValidateResponse{Placement: true, Record: true}, *v); diff != "" {
		t.Fatalf("start position (-want +got):\n%s", diff)
	}
	v, err = c.Validate(ctx, "8/8/8/8/8/8/8/8 x - - 0 1")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !v.Placement || v.Record || v.Error == "" {
		t.Fatalf("bad side to move should fail only the record check: %+v", v)
	}
	v, _ = c.Validate(ctx, "9/8/8/8/8/8/8/8")
	if v.Placement {
		t.Fatalf("bad placement accepted")
	}

	r, err := c.Random(ctx)
	if err != nil {
		t.Fatalf("Random: %v", err)
	}
	if !fen.Validate(r) {
		t.Fatalf("random FEN %q does not validate", r)
	}
}

func TestBatchStatus(t *testing.T) {
	store := batchstore.NewMemoryStore()
	snap := &batchstore.Snapshot{
		ID:         "abc",
		State:      "cancelled",
		Total:      3,
		Succeeded:  1,
		Failed:     1,
		Fraction:   0.66,
		NotStarted: []int{2},
		Jobs: []batchstore.JobRecord{
			{Index: 0, Name: "b-1", Format: "jpeg", Requested: 8, Effective: 8, Bytes: 10},
			{Index: 1, Name: "b-2", Format: "png", Error: "boom"},
		},
		UpdatedAt: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
	}
	if err := store.Save(context.Background(), snap); err != nil {
		t.Fatalf("Save: %v", err)
	}
	c := newTestServer(t, render.DefaultQualityPolicy(), store)
	ctx := context.Background()

	got, err := c.Batch(ctx, "abc")
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	want := exportdto.BatchStatus{
		ID:         "abc",
		State:      "cancelled",
		Total:      3,
		Succeeded:  1,
		Failed:     1,
		Progress:   0.66,
		NotStarted: []int{2},
		Finished:   true,
		Jobs: []exportdto.BatchJob{
			{Index: 0, File: "b-1.jpg", OK: true, Requested: 8, Effective: 8, Bytes: 10},
			{Index: 1, File: "b-2.png", Error: "boom"},
		},
		UpdatedAt: "2026-03-04T05:06:07Z",
	}
	if diff := cmp.Diff(want, *got); diff != "" {
		t.Fatalf("status (-want +got):\n%s", diff)
	}

	ids, err := c.Batches(ctx)
	if err != nil {
		t.Fatalf("Batches: %v", err)
	}
	if diff := cmp.Diff([]string{"abc"}, ids); diff != "" {
		t.Fatalf("ids (-want +got):\n%s", diff)
	}
	if _, err := c.Batch(ctx, "nope"); domainCode(err) != exportdto.CodeNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestBatchRoutesWithoutStore(t *testing.T) {
	c := newTestServer(t, render.DefaultQualityPolicy(), nil)
	if _, err := c.Batches(context.Background()); domainCode(err) != exportdto.CodeUnavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
