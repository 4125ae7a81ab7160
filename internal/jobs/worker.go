// Package jobs runs background work on a polling loop.
package jobs

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// JobProcessor handles one batch of pending work per call.
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker calls a JobProcessor once at start-up and then every poll
// interval until stopped.
type Worker struct {
	processor    JobProcessor
	pollInterval time.Duration
	logger       zerolog.Logger

	started  atomic.Bool
	stopOnce sync.Once
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewWorker creates a worker. A non-positive interval defaults to 30s.
func NewWorker(processor JobProcessor, pollInterval time.Duration, logger zerolog.Logger) *Worker {
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	return &Worker{
		processor:    processor,
		pollInterval: pollInterval,
		logger:       logger,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start blocks until ctx is cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	w.started.Store(true)
	defer close(w.doneChan)

	w.logger.Info().Dur("poll_interval", w.pollInterval).Msg("worker started")

	select {
	case <-w.stopChan:
		return
	default:
	}
	w.runOnce(ctx)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("worker stopped: context cancelled")
			return
		case <-w.stopChan:
			w.logger.Info().Msg("worker stopped: stop signal received")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := w.processor.ProcessJobs(ctx); err != nil {
		w.logger.Error().Err(err).Msg("error processing jobs")
	}
}

// Stop signals the loop and waits for the pass in flight. It is safe to
// call more than once, and before Start.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
	if !w.started.Load() {
		return
	}
	<-w.doneChan
	w.logger.Info().Msg("worker shutdown complete")
}
