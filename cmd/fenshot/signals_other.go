//go:build !unix

package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/park285/fenshot/internal/export"
	"go.uber.org/zap"
)

// watchSignals only supports cancel here; pause and resume need SIGUSR1/SIGUSR2.
func watchSignals(s *export.Session, cancel context.CancelFunc, logger *zap.Logger) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	done := make(chan struct{})
	go func() {
		select {
		case <-done:
		case <-ch:
			cancel()
			if err := s.Cancel(); err != nil {
				logger.Debug("batch_signal_before_start", zap.Error(err))
			}
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}
