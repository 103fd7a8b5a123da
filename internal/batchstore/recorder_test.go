package batchstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/park285/fenshot/internal/export"
	"github.com/park285/fenshot/internal/render"
)

type stubExporter struct{ fail string }

func (s stubExporter) Export(_ context.Context, cfg render.Config, f export.Format, name string, progress render.ProgressFunc) (*export.Payload, error) {
	progress(1)
	if name == s.fail {
		return nil, errors.New("encoder failed")
	}
	return &export.Payload{Name: name, Format: f, Data: []byte("abc"), Quality: render.Quality{Requested: cfg.Quality, Effective: cfg.Quality}}, nil
}

var discard = export.SinkFunc(func(context.Context, *export.Payload) error { return nil })

const emptyFEN = "8/8/8/8/8/8/8/8 w - - 0 1"

func TestRecorderMirrorsSession(t *testing.T) {
	store := NewMemoryStore()
	rec := NewRecorder(store, nil)
	s := export.NewSession(stubExporter{fail: "b-2"}, discard, render.DefaultConfig(), export.Options{Listener: rec})

	jobs := export.PlanJobs([]string{emptyFEN, emptyFEN, emptyFEN}, []export.Format{export.FormatPNG}, "b")
	if _, err := s.Start(context.Background(), jobs); err != nil {
		t.Fatalf("Start: %v", err)
	}

	got, err := store.Load(context.Background(), s.ID())
	if err != nil || got == nil {
		t.Fatalf("Load: %v %v", got, err)
	}
	if got.State != "completed" || !got.Finished() {
		t.Fatalf("expected completed snapshot, got %q", got.State)
	}
	if got.Succeeded != 2 || got.Failed != 1 || got.Total != 3 || got.Fraction != 1 {
		t.Fatalf("unexpected counts %+v", got)
	}
	want := []JobRecord{
		{Index: 0, Name: "b-1", Format: "png", Requested: 8, Effective: 8, Bytes: 3},
		{Index: 1, Name: "b-2", Format: "png", Error: "encoder failed"},
		{Index: 2, Name: "b-3", Format: "png", Requested: 8, Effective: 8, Bytes: 3},
	}
	if diff := cmp.Diff(want, got.Jobs); diff != "" {
		t.Fatalf("jobs (-want +got):\n%s", diff)
	}

	// A second run of the same session starts from a clean snapshot.
	if _, err := s.Start(context.Background(), jobs[:1]); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	got, _ = store.Load(context.Background(), s.ID())
	if len(got.Jobs) != 1 || got.Total != 1 {
		t.Fatalf("snapshot not reset for the new run: %+v", got)
	}
}

type countingStore struct {
	Store
	saves int
}

func (c *countingStore) Save(ctx context.Context, s *Snapshot) error {
	c.saves++
	return c.Store.Save(ctx, s)
}

func TestRecorderThrottlesProgress(t *testing.T) {
	store := &countingStore{Store: NewMemoryStore()}
	rec := NewRecorder(store, nil)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rec.now = func() time.Time { return now }

	rec.StateChanged("s", export.StateRunning)
	for i := 0; i < 10; i++ {
		rec.Progress(export.Progress{SessionID: "s", Fraction: float64(i) / 10, Total: 10, Job: i})
	}
	if store.saves != 1 {
		t.Fatalf("progress inside the interval should not save, got %d saves", store.saves)
	}
	now = now.Add(DefaultProgressInterval)
	rec.Progress(export.Progress{SessionID: "s", Fraction: 0.95, Total: 10, Job: 9})
	if store.saves != 2 {
		t.Fatalf("expected a save once the interval elapsed, got %d", store.saves)
	}
	if snap := rec.Snapshot(); snap.Fraction != 0.95 || snap.State != "running" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}
