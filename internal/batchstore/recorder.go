package batchstore

import (
	"context"
	"sync"
	"time"

	"github.com/park285/fenshot/internal/export"
	"go.uber.org/zap"
)

// DefaultProgressInterval limits how often plain progress updates are written.
const DefaultProgressInterval = 250 * time.Millisecond

// Recorder is an export.Listener that mirrors a session into a Store. State changes,
// finished jobs and the final summary are always written; progress is throttled.
type Recorder struct {
	store    Store
	logger   *zap.Logger
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	snap     Snapshot
	lastSave time.Time
}

func NewRecorder(store Store, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{store: store, logger: logger, interval: DefaultProgressInterval, now: time.Now}
}

// Snapshot returns a copy of the latest recorded state.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *cloneSnapshot(&r.snap)
}

func (r *Recorder) Progress(p export.Progress) {
	r.mu.Lock()
	r.bind(p.SessionID)
	r.snap.Fraction = p.Fraction
	r.snap.CurrentJob = p.Job
	r.snap.Total = p.Total
	due := r.now().Sub(r.lastSave) >= r.interval
	r.mu.Unlock()
	if due {
		r.flush()
	}
}

func (r *Recorder) StateChanged(id string, st export.State) {
	r.mu.Lock()
	r.bind(id)
	prev := r.snap.State
	switch {
	case st == export.StateRunning && prev != export.StatePaused.String():
		// a fresh run of a reused session
		r.snap = Snapshot{ID: id}
	case st == export.StateIdle && prev == export.StateCompleted.String():
		// keep the terminal state visible to pollers
		r.mu.Unlock()
		return
	}
	r.snap.State = st.String()
	r.mu.Unlock()
	r.flush()
}

func (r *Recorder) JobFinished(id string, o export.Outcome) {
	rec := JobRecord{
		Index:     o.Index,
		Name:      o.Name,
		Format:    string(o.Format),
		Requested: o.Quality.Requested,
		Effective: o.Quality.Effective,
		Bytes:     o.Bytes,
	}
	r.mu.Lock()
	r.bind(id)
	if o.Err != nil {
		rec.Error = o.Err.Error()
		r.snap.Failed++
	} else {
		r.snap.Succeeded++
	}
	r.snap.Jobs = append(r.snap.Jobs, rec)
	r.mu.Unlock()
	r.flush()
}

func (r *Recorder) BatchFinished(s export.Summary) {
	r.mu.Lock()
	r.bind(s.SessionID)
	r.snap.Total = s.Total
	r.snap.Succeeded = s.Succeeded()
	r.snap.Failed = s.Failed()
	r.snap.NotStarted = append([]int(nil), s.NotStarted...)
	if s.Cancelled {
		r.snap.State = export.StateCancelled.String()
	} else {
		r.snap.State = export.StateCompleted.String()
		r.snap.Fraction = 1
	}
	r.mu.Unlock()
	r.flush()
}

// bind resets the snapshot when a new session id shows up. Caller holds r.mu.
func (r *Recorder) bind(id string) {
	if r.snap.ID == id {
		return
	}
	r.snap = Snapshot{ID: id}
}

func (r *Recorder) flush() {
	r.mu.Lock()
	r.snap.UpdatedAt = r.now().UTC()
	r.lastSave = r.now()
	snap := cloneSnapshot(&r.snap)
	r.mu.Unlock()
	if r.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.store.Save(ctx, snap); err != nil {
		r.logger.Warn("batch_snapshot_save_failed", zap.String("session", snap.ID), zap.Error(err))
	}
}
