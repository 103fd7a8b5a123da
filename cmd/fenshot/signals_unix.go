//go:build unix

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/park285/fenshot/internal/export"
	"go.uber.org/zap"
)

// batchSignals maps SIGUSR1 to pause, SIGUSR2 to resume and SIGINT/SIGTERM to cancel.
type batchSignals struct {
	session    *export.Session
	cancel     context.CancelFunc
	logger     *zap.Logger
	interrupts int
}

// handle applies one signal and reports whether the process should exit now,
// which happens on a second interrupt.
func (b *batchSignals) handle(sig os.Signal) (exit bool) {
	var err error
	switch sig {
	case syscall.SIGUSR1:
		err = b.session.Pause()
	case syscall.SIGUSR2:
		err = b.session.Resume()
	default:
		b.interrupts++
		if b.interrupts > 1 {
			b.logger.Warn("batch_forced_exit", zap.String("session_id", b.session.ID()))
			return true
		}
		// The session may not be running yet; cancelling its ctx stops it before the first job.
		b.cancel()
		err = b.session.Cancel()
	}
	if err != nil && !errors.Is(err, export.ErrNotRunning) {
		b.logger.Warn("batch_signal_failed", zap.String("signal", sig.String()), zap.Error(err))
	}
	return false
}

// watchSignals routes process signals to s until stop is called.
func watchSignals(s *export.Session, cancel context.CancelFunc, logger *zap.Logger) (stop func()) {
	ch := make(chan os.Signal, 4)
	signal.Notify(ch, syscall.SIGUSR1, syscall.SIGUSR2, os.Interrupt, syscall.SIGTERM)
	b := &batchSignals{session: s, cancel: cancel, logger: logger}
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case sig := <-ch:
				if b.handle(sig) {
					os.Exit(130)
				}
			}
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}
