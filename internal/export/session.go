package export

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/park285/fenshot/internal/fen"
	"github.com/park285/fenshot/internal/obslog"
	"github.com/park285/fenshot/internal/render"
	"go.uber.org/zap"
)

// State is the lifecycle of a batch session.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateCancelled
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCancelled:
		return "cancelled"
	case StateCompleted:
		return "completed"
	}
	return "idle"
}

var (
	ErrSessionActive = errors.New("batch session already running")
	ErrNotRunning    = errors.New("batch session not running")
)

const DefaultPollInterval = 100 * time.Millisecond

type Options struct {
	// PollInterval is how often a paused session checks for resume or cancel.
	PollInterval time.Duration
	Listener     Listener
	Logger       *zap.Logger
}

// Session runs export jobs strictly one after another. Pause and cancel take effect
// between jobs; a job that has started always runs to completion.
type Session struct {
	id       string
	exporter Exporter
	sink     Sink
	base     render.Config
	poll     time.Duration
	listener Listener
	logger   *zap.Logger

	mu    sync.Mutex
	state State
	// busy is held by a run from Start until its final state has been published.
	busy      bool
	paused    bool
	cancelled bool
	current   int
}

func NewSession(exp Exporter, sink Sink, base render.Config, opts Options) *Session {
	s := &Session{
		id:       uuid.NewString(),
		exporter: exp,
		sink:     sink,
		base:     base,
		poll:     opts.PollInterval,
		listener: opts.Listener,
		logger:   opts.Logger,
	}
	if s.poll <= 0 {
		s.poll = DefaultPollInterval
	}
	if s.listener == nil {
		s.listener = NopListener{}
	}
	if s.logger == nil {
		s.logger = obslog.L()
	}
	s.logger = s.logger.With(zap.String("session", s.id))
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current is the index of the job being processed or waited on.
func (s *Session) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	s.listener.StateChanged(s.id, st)
}

// Pause stops the session before its next job. Pausing a paused session is a no-op.
func (s *Session) Pause() error {
	s.mu.Lock()
	if s.state != StateRunning && s.state != StatePaused {
		s.mu.Unlock()
		return ErrNotRunning
	}
	changed := s.state == StateRunning && !s.cancelled
	if changed {
		s.paused = true
		s.state = StatePaused
	}
	s.mu.Unlock()
	if changed {
		s.logger.Info("batch_paused")
		s.listener.StateChanged(s.id, StatePaused)
	}
	return nil
}

// Resume clears a pause. Resuming a running session is a no-op.
func (s *Session) Resume() error {
	s.mu.Lock()
	if s.state != StateRunning && s.state != StatePaused {
		s.mu.Unlock()
		return ErrNotRunning
	}
	changed := s.state == StatePaused
	if changed {
		s.paused = false
		s.state = StateRunning
	}
	s.mu.Unlock()
	if changed {
		s.logger.Info("batch_resumed")
		s.listener.StateChanged(s.id, StateRunning)
	}
	return nil
}

// Cancel stops the session once the in-flight job, if any, has finished.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning && s.state != StatePaused {
		return ErrNotRunning
	}
	s.cancelled = true
	s.logger.Info("batch_cancel_requested", zap.Int("job", s.current))
	return nil
}

// Start runs jobs in order and blocks until they finish or the session is cancelled.
// A failed job is recorded and the batch moves on. Cancelling ctx behaves like Cancel.
// Start is rejected until the previous run has returned.
func (s *Session) Start(ctx context.Context, jobs []Job) (Summary, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return Summary{}, ErrSessionActive
	}
	s.busy = true
	s.state = StateRunning
	s.paused, s.cancelled, s.current = false, false, 0
	s.mu.Unlock()
	s.listener.StateChanged(s.id, StateRunning)
	s.logger.Info("batch_started", zap.Int("jobs", len(jobs)))

	sum := Summary{SessionID: s.id, Total: len(jobs)}
	for i, job := range jobs {
		if !s.waitTurn(ctx, i) {
			for _, rest := range jobs[i:] {
				sum.NotStarted = append(sum.NotStarted, rest.Index)
			}
			sum.Cancelled = true
			break
		}
		o := s.runJob(ctx, i, job, len(jobs))
		sum.Outcomes = append(sum.Outcomes, o)
		s.listener.JobFinished(s.id, o)
		s.report(i, len(jobs), 1, job.Format)
	}

	if sum.Cancelled {
		s.setState(StateCancelled)
		s.logger.Info("batch_cancelled",
			zap.Int("completed", len(sum.Outcomes)),
			zap.Ints("not_started", sum.NotStarted),
		)
	} else {
		s.setState(StateCompleted)
		s.logger.Info("batch_completed",
			zap.Int("succeeded", sum.Succeeded()),
			zap.Int("failed", sum.Failed()),
		)
	}
	s.listener.BatchFinished(sum)
	if !sum.Cancelled {
		s.setState(StateIdle)
	}
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
	return sum, nil
}

// waitTurn blocks while paused and reports whether job i may start.
func (s *Session) waitTurn(ctx context.Context, i int) bool {
	var ticker *time.Ticker
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()
	for {
		s.mu.Lock()
		s.current = i
		cancelled, paused := s.cancelled, s.paused
		s.mu.Unlock()
		if cancelled || ctx.Err() != nil {
			return false
		}
		if !paused {
			return true
		}
		if ticker == nil {
			ticker = time.NewTicker(s.poll)
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

func (s *Session) runJob(ctx context.Context, i int, job Job, total int) Outcome {
	o := Outcome{Index: job.Index, Name: job.Name, Format: job.Format}
	s.report(i, total, 0, job.Format)

	if err := fen.Check(job.FEN); err != nil {
		o.Err = err
		s.logger.Warn("export_job_failed", zap.Int("job", job.Index), zap.String("name", job.Name), zap.Error(err))
		return o
	}
	cfg := s.base
	cfg.FEN = job.FEN
	// The in-flight job is never interrupted, so it does not see ctx cancellation.
	jobCtx := context.WithoutCancel(ctx)
	p, err := s.exporter.Export(jobCtx, cfg, job.Format, job.Name, func(f float64) {
		s.report(i, total, f, job.Format)
	})
	if err == nil {
		o.Quality = p.Quality
		o.Bytes = len(p.Data)
		err = s.sink.Deliver(jobCtx, p)
	}
	if err != nil {
		o.Err = err
		s.logger.Warn("export_job_failed", zap.Int("job", job.Index), zap.String("name", job.Name), zap.Error(err))
		return o
	}
	s.logger.Info("export_job_done",
		zap.Int("job", job.Index),
		zap.String("name", job.Name),
		zap.String("format", string(job.Format)),
		zap.Int("bytes", o.Bytes),
		zap.Int("quality", o.Quality.Effective),
	)
	return o
}

func (s *Session) report(i, total int, fraction float64, f Format) {
	if total <= 0 {
		return
	}
	fraction = min(max(fraction, 0), 1)
	s.listener.Progress(Progress{
		SessionID: s.id,
		Fraction:  (float64(i) + fraction) / float64(total),
		Job:       i,
		Total:     total,
		Format:    f,
	})
}
