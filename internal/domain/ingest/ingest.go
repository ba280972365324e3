// Package ingest applies validated score reports to the rank indexes.
//
// A report fans out to every interval bucket its board resolves to: the
// all-time bucket always, plus the current periodic bucket when the
// observation falls inside the board's validity window.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/podiumlabs/podium/internal/adapters/repository"
	"github.com/podiumlabs/podium/internal/domain/board"
	"github.com/podiumlabs/podium/internal/domain/model"
	"github.com/podiumlabs/podium/pkg/logger"
	"github.com/podiumlabs/podium/pkg/metrics"
)

// Store is the subset of the rank index surface ingestion writes to.
type Store interface {
	Upsert(ctx context.Context, boardSlug, intervalID string, subject model.SubjectRef, score float64, observedAt time.Time, minScore float64) (repository.Outcome, error)
	Disqualify(ctx context.Context, boardSlug, intervalID string, subject model.SubjectRef) (bool, error)
}

// Service validates reports against the board registry and writes them
// through to the store.
type Service struct {
	registry *board.Registry
	store    Store
	logger   logger.Logger
}

// NewService creates an ingest service bound to a registry and store.
func NewService(registry *board.Registry, store Store, opts ...Option) *Service {
	s := &Service{
		registry: registry,
		store:    store,
		logger:   logger.Get().Named("ingest"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply validates the report and upserts it into each interval bucket
// of its board. A stale or below-threshold outcome is not an error; the
// report is simply recorded as such.
func (s *Service) Apply(ctx context.Context, r model.ScoreReport) error {
	def, err := s.registry.Resolve(r.Board)
	if err != nil {
		metrics.RecordErrorByComponent("ingest", "unknown_board")
		return err
	}

	if err := r.Subject.Validate(); err != nil {
		metrics.RecordErrorByComponent("ingest", "invalid_subject")
		return err
	}
	if r.Subject.Kind() != def.Subject {
		metrics.RecordErrorByComponent("ingest", "subject_mismatch")
		return fmt.Errorf("%w: board %s ranks %s, got %s",
			ErrSubjectMismatch, def.Slug, def.Subject, r.Subject.Kind())
	}

	for _, intervalID := range board.Intervals(def, r.ObservedAt) {
		outcome, err := s.store.Upsert(ctx, def.Slug, intervalID, r.Subject, r.Score, r.ObservedAt, def.MinScore)
		if err != nil {
			return fmt.Errorf("upsert %s/%s: %w", def.Slug, intervalID, err)
		}
		metrics.RecordReportOutcome(outcome.String())

		if outcome == repository.OutcomeStale {
			s.logger.Debug(ctx, "dropped stale report",
				logger.String("reportID", r.ReportID),
				logger.String("board", def.Slug),
				logger.String("interval", intervalID),
				logger.Time("observedAt", r.ObservedAt),
			)
		}
	}

	return nil
}

// Disqualify removes the subject from the named interval buckets, or,
// when none are given, from every live bucket: the all-time bucket and,
// when one is open, the current periodic bucket. Returns true if at
// least one entry was removed. board.AllTimeInterval names the all-time
// bucket explicitly.
func (s *Service) Disqualify(ctx context.Context, boardSlug string, subject model.SubjectRef, now time.Time, intervals ...string) (bool, error) {
	def, err := s.registry.Resolve(boardSlug)
	if err != nil {
		return false, err
	}
	if err := subject.Validate(); err != nil {
		return false, err
	}
	if subject.Kind() != def.Subject {
		return false, fmt.Errorf("%w: board %s ranks %s, got %s",
			ErrSubjectMismatch, def.Slug, def.Subject, subject.Kind())
	}

	if len(intervals) == 0 {
		intervals = board.Intervals(def, now)
	}
	removed := false
	for _, intervalID := range intervals {
		ok, err := s.store.Disqualify(ctx, def.Slug, intervalID, subject)
		if err != nil {
			return removed, fmt.Errorf("disqualify %s/%s: %w", def.Slug, intervalID, err)
		}
		removed = removed || ok
	}
	if removed {
		metrics.RecordDisqualification()
		s.logger.Info(ctx, "subject disqualified",
			logger.String("board", def.Slug),
			logger.String("subject", subject.Key()),
		)
	}
	return removed, nil
}
