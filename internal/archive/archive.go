// Package archive stores immutable leaderboard snapshots.
//
// A snapshot freezes the full standings of one board+interval at a single
// instant. Snapshots are write-once: saving the same (board, interval,
// captured-at) boundary twice is a no-op that reports the existing capture.
package archive

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/podiumlabs/podium/internal/domain/model"
)

// SnapshotEntry is a frozen copy of one leaderboard entry at capture time.
type SnapshotEntry struct {
	Rank         int              `json:"rank" db:"rank"`
	Subject      model.SubjectRef `json:"subject" db:"-"`
	InitialScore float64          `json:"initial_score" db:"initial_score"`
	Score        float64          `json:"score" db:"score"`
}

// Snapshot is an immutable, timestamped freeze of a board+interval.
type Snapshot struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	Board      string          `json:"board" db:"board"`
	Interval   string          `json:"interval" db:"interval"`
	CapturedAt time.Time       `json:"captured_at" db:"captured_at"`
	Entries    []SnapshotEntry `json:"entries"`
}

// Archive persists snapshots. Implementations must enforce uniqueness on
// the (board, interval, captured-at) natural key.
type Archive interface {
	// Save writes the snapshot unless its boundary was already captured.
	// Returns the stored snapshot's ID and whether this call created it.
	Save(ctx context.Context, snap Snapshot) (uuid.UUID, bool, error)

	// Get returns the snapshot captured for the given boundary,
	// entries included, or ErrSnapshotNotFound.
	Get(ctx context.Context, board, interval string, capturedAt time.Time) (Snapshot, error)

	// ListIntervals returns the distinct interval identifiers that have
	// at least one capture for the board, in ascending order.
	ListIntervals(ctx context.Context, board string) ([]string, error)

	// ListCaptures returns the capture timestamps recorded for a
	// board+interval, in ascending order.
	ListCaptures(ctx context.Context, board, interval string) ([]time.Time, error)

	// Close releases any resources held by the archive.
	Close() error
}

// boundaryTime normalizes a capture timestamp so the natural key is
// stable across serializations: UTC, second precision.
func boundaryTime(ts time.Time) time.Time {
	return ts.UTC().Truncate(time.Second)
}
