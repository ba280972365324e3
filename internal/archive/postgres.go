package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/podiumlabs/podium/internal/domain/model"
)

const pqUniqueViolation = "23505"

// PostgresArchive persists snapshots in postgres. The unique index on
// (board, interval_id, captured_at) makes Save idempotent at the
// database regardless of concurrent writers.
type PostgresArchive struct {
	db *sqlx.DB
}

// NewPostgresArchive connects to postgres and verifies the connection.
func NewPostgresArchive(ctx context.Context, dsn string) (*PostgresArchive, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres archive: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &PostgresArchive{db: db}, nil
}

// NewPostgresArchiveFromDB wraps an existing connection, mainly for tests.
func NewPostgresArchiveFromDB(db *sqlx.DB) *PostgresArchive {
	return &PostgresArchive{db: db}
}

type snapshotRow struct {
	ID         uuid.UUID `db:"id"`
	Board      string    `db:"board"`
	Interval   string    `db:"interval_id"`
	CapturedAt time.Time `db:"captured_at"`
}

type entryRow struct {
	SnapshotID   uuid.UUID `db:"snapshot_id"`
	Rank         int       `db:"rank"`
	SubjectKind  string    `db:"subject_kind"`
	SubjectID    string    `db:"subject_id"`
	InitialScore float64   `db:"initial_score"`
	Score        float64   `db:"score"`
}

// Save writes the snapshot and its entries in one transaction. A
// conflicting capture for the same boundary resolves to the existing
// snapshot's ID with created=false.
func (a *PostgresArchive) Save(ctx context.Context, snap Snapshot) (uuid.UUID, bool, error) {
	if snap.ID == uuid.Nil {
		snap.ID = uuid.New()
	}
	capturedAt := boundaryTime(snap.CapturedAt)

	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("begin tx save snapshot: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, board, interval_id, captured_at) VALUES ($1, $2, $3, $4)`,
		snap.ID, snap.Board, snap.Interval, capturedAt)
	if err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := a.lookupID(ctx, snap.Board, snap.Interval, capturedAt)
			if lookupErr != nil {
				return uuid.Nil, false, lookupErr
			}
			return existing, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("insert snapshot: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx,
		`INSERT INTO snapshot_entries (snapshot_id, rank, subject_kind, subject_id, initial_score, score)
		 VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("prepare insert snapshot entries: %w", err)
	}
	defer stmt.Close()

	for _, e := range snap.Entries {
		if _, err := stmt.ExecContext(ctx, snap.ID, e.Rank, string(e.Subject.Kind()), e.Subject.Key(), e.InitialScore, e.Score); err != nil {
			return uuid.Nil, false, fmt.Errorf("insert snapshot entry rank %d: %w", e.Rank, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, false, fmt.Errorf("commit save snapshot tx: %w", err)
	}
	return snap.ID, true, nil
}

// Get returns the snapshot for the boundary, entries in rank order.
func (a *PostgresArchive) Get(ctx context.Context, board, interval string, capturedAt time.Time) (Snapshot, error) {
	var row snapshotRow
	err := a.db.GetContext(ctx, &row,
		`SELECT id, board, interval_id, captured_at FROM snapshots
		 WHERE board = $1 AND interval_id = $2 AND captured_at = $3`,
		board, interval, boundaryTime(capturedAt))
	if err != nil {
		if err == sql.ErrNoRows {
			return Snapshot{}, ErrSnapshotNotFound
		}
		return Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}

	var entryRows []entryRow
	err = a.db.SelectContext(ctx, &entryRows,
		`SELECT snapshot_id, rank, subject_kind, subject_id, initial_score, score
		 FROM snapshot_entries WHERE snapshot_id = $1 ORDER BY rank`,
		row.ID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get snapshot entries: %w", err)
	}

	entries := make([]SnapshotEntry, 0, len(entryRows))
	for _, e := range entryRows {
		entries = append(entries, SnapshotEntry{
			Rank:         e.Rank,
			Subject:      subjectFromKindID(e.SubjectKind, e.SubjectID),
			InitialScore: e.InitialScore,
			Score:        e.Score,
		})
	}

	return Snapshot{
		ID:         row.ID,
		Board:      row.Board,
		Interval:   row.Interval,
		CapturedAt: row.CapturedAt.UTC(),
		Entries:    entries,
	}, nil
}

// ListIntervals returns distinct captured intervals for a board, ascending.
func (a *PostgresArchive) ListIntervals(ctx context.Context, board string) ([]string, error) {
	var out []string
	err := a.db.SelectContext(ctx, &out,
		`SELECT DISTINCT interval_id FROM snapshots WHERE board = $1 ORDER BY interval_id`,
		board)
	if err != nil {
		return nil, fmt.Errorf("list snapshot intervals: %w", err)
	}
	return out, nil
}

// ListCaptures returns capture timestamps for a board+interval, ascending.
func (a *PostgresArchive) ListCaptures(ctx context.Context, board, interval string) ([]time.Time, error) {
	var out []time.Time
	err := a.db.SelectContext(ctx, &out,
		`SELECT captured_at FROM snapshots WHERE board = $1 AND interval_id = $2 ORDER BY captured_at`,
		board, interval)
	if err != nil {
		return nil, fmt.Errorf("list snapshot captures: %w", err)
	}
	for i := range out {
		out[i] = out[i].UTC()
	}
	return out, nil
}

// Close closes the underlying connection pool.
func (a *PostgresArchive) Close() error {
	return a.db.Close()
}

func (a *PostgresArchive) lookupID(ctx context.Context, board, interval string, capturedAt time.Time) (uuid.UUID, error) {
	var id uuid.UUID
	err := a.db.GetContext(ctx, &id,
		`SELECT id FROM snapshots WHERE board = $1 AND interval_id = $2 AND captured_at = $3`,
		board, interval, capturedAt)
	if err != nil {
		return uuid.Nil, fmt.Errorf("lookup existing snapshot: %w", err)
	}
	return id, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}

func subjectFromKindID(kind, id string) model.SubjectRef {
	switch model.SubjectKind(kind) {
	case model.SubjectProfileMember:
		return model.SubjectRef{ProfileMemberID: id}
	case model.SubjectGuild:
		return model.SubjectRef{GuildID: id}
	default:
		return model.SubjectRef{ProfileID: id}
	}
}
