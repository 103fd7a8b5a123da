//go:build unix

package main

import (
	"context"
	"os"
	"syscall"
	"testing"

	"github.com/park285/fenshot/internal/export"
	"github.com/park285/fenshot/internal/render"
	"go.uber.org/zap"
)

type nopSink struct{}

func (nopSink) Deliver(context.Context, *export.Payload) error { return nil }

type countingExporter struct{ calls int }

func (c *countingExporter) Export(_ context.Context, _ render.Config, f export.Format, name string, _ render.ProgressFunc) (*export.Payload, error) {
	c.calls++
	return &export.Payload{Name: name, Format: f, Data: []byte("x")}, nil
}

func TestInterruptBeforeStartCancelsBatch(t *testing.T) {
	exp := &countingExporter{}
	s := export.NewSession(exp, nopSink{}, render.DefaultConfig(), export.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := &batchSignals{session: s, cancel: cancel, logger: zap.NewNop()}

	if b.handle(os.Interrupt) {
		t.Fatal("first interrupt should not force an exit")
	}
	jobs := export.PlanJobs([]string{startFEN, startFEN}, []export.Format{export.FormatSVG}, "b")
	sum, err := s.Start(ctx, jobs)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !sum.Cancelled || len(sum.NotStarted) != 2 || exp.calls != 0 {
		t.Fatalf("expected nothing to run, got %+v (calls=%d)", sum, exp.calls)
	}
	if st := s.State(); st != export.StateCancelled {
		t.Fatalf("state = %v, want cancelled", st)
	}
}

func TestSecondInterruptForcesExit(t *testing.T) {
	s := export.NewSession(&countingExporter{}, nopSink{}, render.DefaultConfig(), export.Options{})
	b := &batchSignals{session: s, cancel: func() {}, logger: zap.NewNop()}
	if b.handle(syscall.SIGTERM) {
		t.Fatal("first interrupt should not force an exit")
	}
	if !b.handle(os.Interrupt) {
		t.Fatal("second interrupt should force an exit")
	}
}

func TestPauseSignalWithoutBatchIsIgnored(t *testing.T) {
	s := export.NewSession(&countingExporter{}, nopSink{}, render.DefaultConfig(), export.Options{})
	b := &batchSignals{session: s, cancel: func() {}, logger: zap.NewNop()}
	if b.handle(syscall.SIGUSR1) || b.handle(syscall.SIGUSR2) {
		t.Fatal("pause and resume must not exit")
	}
	if st := s.State(); st != export.StateIdle {
		t.Fatalf("state = %v, want idle", st)
	}
}
