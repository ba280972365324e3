// Package repository implements the rank index: the live, ordered standings
// of every (board, interval) pair.
package repository

import (
	"context"
	"time"

	"github.com/podiumlabs/podium/internal/domain/model"
)

// Entry is one row of a board's current standings.
type Entry struct {
	Rank         int
	EntryID      uint64
	Subject      model.SubjectRef
	InitialScore float64
	Score        float64
	LastObserved time.Time
}

// Outcome classifies what an upsert did.
type Outcome int

const (
	// OutcomeCreated: a new entry (or a fresh lineage after removal) was created.
	OutcomeCreated Outcome = iota
	// OutcomeUpdated: an existing entry's score or observation time advanced.
	OutcomeUpdated
	// OutcomeStale: the report was older than the stored observation; dropped.
	OutcomeStale
	// OutcomeBelowThreshold: no entry exists and the score does not qualify.
	OutcomeBelowThreshold
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	case OutcomeStale:
		return "stale"
	case OutcomeBelowThreshold:
		return "below_threshold"
	default:
		return "unknown"
	}
}

// Store provides read/write access to ranking state. Every method addresses
// one (board, interval) index; interval "" is the all-time bucket.
type Store interface {
	// Upsert applies one score observation under the index lock, enforcing
	// the threshold gate for new entries and the stale-drop rule for
	// existing ones.
	Upsert(ctx context.Context, boardSlug, intervalID string, subject model.SubjectRef, score float64, observedAt time.Time, minScore float64) (Outcome, error)

	// Disqualify soft-removes a subject's entry: it leaves the ranked tree
	// but its record is retained. Returns false when no live entry exists.
	Disqualify(ctx context.Context, boardSlug, intervalID string, subject model.SubjectRef) (bool, error)

	// RankOf returns the subject's current entry with its 1-based rank.
	// Returns ErrUnranked for unknown or removed subjects.
	RankOf(ctx context.Context, boardSlug, intervalID string, subject model.SubjectRef) (Entry, error)

	// Top returns up to n live entries starting at offset (0-based), best
	// first.
	Top(ctx context.Context, boardSlug, intervalID string, n, offset int) ([]Entry, error)

	// Around returns the entries ranked within radius positions of the
	// subject's own rank, the subject included.
	Around(ctx context.Context, boardSlug, intervalID string, subject model.SubjectRef, radius int) ([]Entry, error)

	// Standings returns every live entry in rank order, read at a single
	// consistent instant. Snapshot capture relies on this.
	Standings(ctx context.Context, boardSlug, intervalID string) ([]Entry, error)

	// Count returns the number of live entries across all indexes.
	Count(ctx context.Context) int

	// IndexCount returns the number of materialized (board, interval) indexes.
	IndexCount(ctx context.Context) int
}
