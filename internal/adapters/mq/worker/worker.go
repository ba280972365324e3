// Package worker runs the pool that drains the report queue and applies
// score reports to the rank indexes.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/podiumlabs/podium/internal/domain/model"
	"github.com/podiumlabs/podium/pkg/logger"
	"github.com/podiumlabs/podium/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 10 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Report is what workers read off the queue.
type Report = model.ScoreReport

// Ingestor applies a score report to every rank index the report's
// board resolves to.
type Ingestor interface {
	Apply(ctx context.Context, r Report) error
}

// Queue defines how workers receive reports.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Report
}

// Worker processes reports until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker on top of a queue and an ingestor.
type InMemoryWorker struct {
	queue    Queue
	ingestor Ingestor
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(queue Queue, ingestor Ingestor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		ingestor: ingestor,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	reports := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case r, ok := <-reports:
			if !ok {
				return
			}
			if err := w.process(ctx, r); err != nil {
				w.logger.Error(ctx, "error processing report", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, r Report) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := w.ingestor.Apply(ctx, r); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "ingest_error")
		w.logger.Error(ctx, "ingest failed for report",
			logger.String("reportID", r.ReportID),
			logger.String("board", r.Board),
			logger.Error(err),
		)
		return fmt.Errorf("failed to ingest report %s: %w", r.ReportID, err)
	}

	return nil
}

// Pool manages multiple workers draining the same queue.
type Pool struct {
	workers  []*InMemoryWorker
	queue    Queue
	ingestor Ingestor

	logger logger.Logger
}

// NewPool creates a worker pool. A non-positive count defaults to a
// multiple of the CPU count.
func NewPool(workerCount int, queue Queue, ingestor Ingestor) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    queue,
		ingestor: ingestor,
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			ingestor,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop stops all workers without waiting on a caller-supplied context.
func (p *Pool) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
	defer cancel()
	for _, w := range p.workers {
		_ = w.Shutdown(ctx)
	}
}

// Shutdown closes the queue and waits for workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
