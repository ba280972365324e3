package archive

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryKey struct {
	board    string
	interval string
	captured int64
}

// MemoryArchive keeps snapshots in process memory. Suited to tests and
// single-node runs where history does not need to outlive the process.
type MemoryArchive struct {
	mu    sync.RWMutex
	snaps map[memoryKey]Snapshot
}

// NewMemoryArchive creates an empty in-memory archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{
		snaps: make(map[memoryKey]Snapshot),
	}
}

func (a *MemoryArchive) key(board, interval string, capturedAt time.Time) memoryKey {
	return memoryKey{board: board, interval: interval, captured: boundaryTime(capturedAt).Unix()}
}

// Save stores the snapshot unless the boundary was already captured.
func (a *MemoryArchive) Save(ctx context.Context, snap Snapshot) (uuid.UUID, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	k := a.key(snap.Board, snap.Interval, snap.CapturedAt)
	if existing, ok := a.snaps[k]; ok {
		return existing.ID, false, nil
	}

	if snap.ID == uuid.Nil {
		snap.ID = uuid.New()
	}
	snap.CapturedAt = boundaryTime(snap.CapturedAt)
	// Copy the entries so callers cannot mutate the stored snapshot.
	entries := make([]SnapshotEntry, len(snap.Entries))
	copy(entries, snap.Entries)
	snap.Entries = entries

	a.snaps[k] = snap
	return snap.ID, true, nil
}

// Get returns the snapshot for the boundary or ErrSnapshotNotFound.
func (a *MemoryArchive) Get(ctx context.Context, board, interval string, capturedAt time.Time) (Snapshot, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	snap, ok := a.snaps[a.key(board, interval, capturedAt)]
	if !ok {
		return Snapshot{}, ErrSnapshotNotFound
	}
	entries := make([]SnapshotEntry, len(snap.Entries))
	copy(entries, snap.Entries)
	snap.Entries = entries
	return snap, nil
}

// ListIntervals returns distinct captured intervals for a board, ascending.
func (a *MemoryArchive) ListIntervals(ctx context.Context, board string) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	seen := make(map[string]struct{})
	for k := range a.snaps {
		if k.board == board {
			seen[k.interval] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for interval := range seen {
		out = append(out, interval)
	}
	sort.Strings(out)
	return out, nil
}

// ListCaptures returns capture timestamps for a board+interval, ascending.
func (a *MemoryArchive) ListCaptures(ctx context.Context, board, interval string) ([]time.Time, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var out []time.Time
	for k, snap := range a.snaps {
		if k.board == board && k.interval == interval {
			out = append(out, snap.CapturedAt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// Close is a no-op for the in-memory archive.
func (a *MemoryArchive) Close() error {
	return nil
}
