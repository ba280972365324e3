// Package app wires the ranking engine together: board registry, rank
// index, ingestion pipeline, snapshot scheduler, and the read facade the
// HTTP layer is built on.
package app

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	reportqueue "github.com/podiumlabs/podium/internal/adapters/mq/queue"
	workerpool "github.com/podiumlabs/podium/internal/adapters/mq/worker"
	"github.com/podiumlabs/podium/internal/adapters/repository"
	"github.com/podiumlabs/podium/internal/archive"
	"github.com/podiumlabs/podium/internal/domain/board"
	"github.com/podiumlabs/podium/internal/domain/dedupe"
	"github.com/podiumlabs/podium/internal/domain/ingest"
	"github.com/podiumlabs/podium/internal/domain/model"
	"github.com/podiumlabs/podium/pkg/logger"
	"github.com/podiumlabs/podium/pkg/metrics"
)

const defaultMaxPageSize = 100

// Service is the engine facade. Construct with New, then Start before use.
type Service struct {
	mu sync.RWMutex

	registry *board.Registry
	store    *repository.IndexStore
	deduper  dedupe.Deduper
	queue    reportqueue.Queue
	ingestor *ingest.Service
	pool     *workerpool.Pool
	archiver archive.Archive

	scheduler *Scheduler

	workerCount      int
	queueSize        int
	dedupeSize       int
	maxPageSize      int
	snapshotInterval time.Duration
	snapshotRetries  int

	started bool
	stopCh  chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of ingestion workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the report queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the report deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxPageSize caps the page size of top-N queries.
func WithMaxPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.maxPageSize = size
		}
	}
}

// WithArchive sets the snapshot archive. Defaults to in-memory.
func WithArchive(a archive.Archive) Option {
	return func(s *Service) {
		if a != nil {
			s.archiver = a
		}
	}
}

// WithSnapshotInterval sets the scheduler's capture cadence. A
// non-positive value disables the scheduler.
func WithSnapshotInterval(d time.Duration) Option {
	return func(s *Service) {
		s.snapshotInterval = d
	}
}

// WithSnapshotRetryLimit bounds capture retries per boundary per tick.
func WithSnapshotRetryLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.snapshotRetries = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a Service over the given board registry.
func New(registry *board.Registry, opts ...Option) *Service {
	s := &Service{
		registry:         registry,
		workerCount:      runtime.NumCPU() * 2,
		queueSize:        100000,
		dedupeSize:       500000,
		maxPageSize:      defaultMaxPageSize,
		snapshotInterval: time.Hour,
		snapshotRetries:  3,
		stopCh:           make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the engine components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("app")
	}

	s.logger.Info(ctx, "starting ranking engine...")

	s.store = repository.NewIndexStore()
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = reportqueue.NewInMemoryQueue(
		reportqueue.WithCapacity(s.queueSize),
	)
	s.ingestor = ingest.NewService(s.registry, s.store)
	if s.archiver == nil {
		s.archiver = archive.NewMemoryArchive()
	}

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.ingestor)
	s.pool.Start(ctx)

	if s.snapshotInterval > 0 {
		s.scheduler = NewScheduler(s, s.snapshotInterval, s.snapshotRetries)
		s.scheduler.Start(ctx)
	}

	s.started = true
	s.logger.Info(ctx, "ranking engine started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("boards", len(s.registry.All())),
		logger.Duration("snapshotInterval", s.snapshotInterval),
	)

	return nil
}

// Stop gracefully shuts down the engine.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping ranking engine...")

	if s.scheduler != nil {
		s.scheduler.Stop()
	}

	// Shutdown closes the queue and drains in-flight reports.
	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}

	if s.archiver != nil {
		_ = s.archiver.Close()
	}

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(ctx, "ranking engine stopped")
}

// SubmitScore accepts a score report for asynchronous ingestion.
// Accepted is true when the report was enqueued or recognized as a
// duplicate; false when the queue rejected it. Duplicate marks reports
// already seen by the idempotency cache.
func (s *Service) SubmitScore(ctx context.Context, r model.ScoreReport) (accepted, duplicate bool, err error) {
	def, err := s.registry.Resolve(r.Board)
	if err != nil {
		return false, false, err
	}
	if err := r.Subject.Validate(); err != nil {
		return false, false, err
	}
	if r.Subject.Kind() != def.Subject {
		return false, false, fmt.Errorf("%w: board %s ranks %s, got %s",
			ingest.ErrSubjectMismatch, def.Slug, def.Subject, r.Subject.Kind())
	}
	if r.ObservedAt.IsZero() {
		r.ObservedAt = time.Now().UTC()
	}
	if r.ReportID == "" {
		r.ReportID = uuid.NewString()
	}

	if s.deduper.SeenAndRecord(ctx, r.ReportID) {
		metrics.RecordReportDuplicate()
		s.logger.Debug(ctx, "duplicate report dropped",
			logger.String("reportID", r.ReportID),
			logger.String("board", r.Board),
		)
		return true, true, nil
	}

	if !s.queue.Enqueue(ctx, r) {
		// Let the producer resubmit the same report after backoff.
		s.deduper.Unrecord(ctx, r.ReportID)
		return false, false, nil
	}

	// The entries gauge is refreshed by the periodic stats poll, not on
	// the submit hot path.
	return true, false, nil
}

// Disqualify removes the subject from the board's live standings, or,
// when interval identifiers are given, from those buckets only.
func (s *Service) Disqualify(ctx context.Context, boardSlug string, subject model.SubjectRef, intervals ...string) (bool, error) {
	return s.ingestor.Disqualify(ctx, boardSlug, subject, time.Now().UTC(), intervals...)
}

// GetTop returns one page of the current standings, rank ascending.
// An empty intervalID addresses the all-time bucket.
func (s *Service) GetTop(ctx context.Context, boardSlug, intervalID string, page, pageSize int) ([]repository.Entry, error) {
	if _, err := s.registry.Resolve(boardSlug); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}
	return s.store.Top(ctx, boardSlug, intervalID, pageSize, (page-1)*pageSize)
}

// GetRank returns the subject's current entry, or repository.ErrUnranked.
func (s *Service) GetRank(ctx context.Context, boardSlug, intervalID string, subject model.SubjectRef) (repository.Entry, error) {
	if _, err := s.registry.Resolve(boardSlug); err != nil {
		return repository.Entry{}, err
	}
	if err := subject.Validate(); err != nil {
		return repository.Entry{}, err
	}
	return s.store.RankOf(ctx, boardSlug, intervalID, subject)
}

// GetAround returns entries ranked within radius of the subject's rank.
func (s *Service) GetAround(ctx context.Context, boardSlug, intervalID string, subject model.SubjectRef, radius int) ([]repository.Entry, error) {
	if _, err := s.registry.Resolve(boardSlug); err != nil {
		return nil, err
	}
	if err := subject.Validate(); err != nil {
		return nil, err
	}
	if radius < 0 {
		radius = 0
	}
	return s.store.Around(ctx, boardSlug, intervalID, subject, radius)
}

// CaptureSnapshot freezes the current standings of a board+interval into
// the archive. Capturing an already-captured boundary is a no-op success
// reporting created=false.
func (s *Service) CaptureSnapshot(ctx context.Context, boardSlug, intervalID string, at time.Time) (uuid.UUID, bool, error) {
	if _, err := s.registry.Resolve(boardSlug); err != nil {
		return uuid.Nil, false, err
	}

	start := time.Now()
	standings, err := s.store.Standings(ctx, boardSlug, intervalID)
	if err != nil {
		metrics.RecordSnapshotFailure()
		return uuid.Nil, false, fmt.Errorf("read standings %s/%s: %w", boardSlug, intervalID, err)
	}

	entries := make([]archive.SnapshotEntry, 0, len(standings))
	for _, e := range standings {
		entries = append(entries, archive.SnapshotEntry{
			Rank:         e.Rank,
			Subject:      e.Subject,
			InitialScore: e.InitialScore,
			Score:        e.Score,
		})
	}

	id, created, err := s.archiver.Save(ctx, archive.Snapshot{
		Board:      boardSlug,
		Interval:   intervalID,
		CapturedAt: at,
		Entries:    entries,
	})
	if err != nil {
		metrics.RecordSnapshotFailure()
		return uuid.Nil, false, fmt.Errorf("save snapshot %s/%s: %w", boardSlug, intervalID, err)
	}

	if created {
		metrics.RecordSnapshotCapture(float64(time.Since(start).Milliseconds()))
		metrics.UpdateSnapshotLastUnix(float64(at.UTC().Unix()))
		s.logger.Info(ctx, "snapshot captured",
			logger.String("board", boardSlug),
			logger.String("interval", intervalID),
			logger.Int("entries", len(entries)),
		)
	} else {
		metrics.RecordSnapshotDuplicate()
	}
	return id, created, nil
}

// GetSnapshot returns a previously captured snapshot.
func (s *Service) GetSnapshot(ctx context.Context, boardSlug, intervalID string, capturedAt time.Time) (archive.Snapshot, error) {
	if _, err := s.registry.Resolve(boardSlug); err != nil {
		return archive.Snapshot{}, err
	}
	return s.archiver.Get(ctx, boardSlug, intervalID, capturedAt)
}

// ListSnapshotIntervals returns the intervals with at least one capture.
func (s *Service) ListSnapshotIntervals(ctx context.Context, boardSlug string) ([]string, error) {
	if _, err := s.registry.Resolve(boardSlug); err != nil {
		return nil, err
	}
	return s.archiver.ListIntervals(ctx, boardSlug)
}

// ListSnapshotCaptures returns the capture timestamps for an interval.
func (s *Service) ListSnapshotCaptures(ctx context.Context, boardSlug, intervalID string) ([]time.Time, error) {
	if _, err := s.registry.Resolve(boardSlug); err != nil {
		return nil, err
	}
	return s.archiver.ListCaptures(ctx, boardSlug, intervalID)
}

// Boards returns the configured board definitions.
func (s *Service) Boards() []board.Definition {
	return s.registry.All()
}

// GetStats returns engine statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"boards":      len(s.registry.All()),
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		entries := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["totalEntries"] = entries
		stats["indexes"] = s.store.IndexCount(ctx)
		stats["dedupeSize"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateEntriesTotal(entries)
	}

	return stats
}
