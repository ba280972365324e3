package repository

import (
	"context"
	"sync"
	"time"

	"github.com/podiumlabs/podium/internal/domain/model"
	"github.com/podiumlabs/podium/pkg/metrics"
)

type indexKey struct {
	board    string
	interval string
}

// IndexStore implements Store with one treap-backed index per
// (board, interval) pair, materialized lazily on first write.
type IndexStore struct {
	mu      sync.RWMutex
	indexes map[indexKey]*boardIndex
}

// NewIndexStore constructs an empty in-memory rank index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{
		indexes: make(map[indexKey]*boardIndex),
	}
}

func (s *IndexStore) index(board, interval string, create bool) *boardIndex {
	key := indexKey{board: board, interval: interval}

	s.mu.RLock()
	idx, ok := s.indexes[key]
	s.mu.RUnlock()
	if ok || !create {
		return idx
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok = s.indexes[key]; ok {
		return idx
	}
	idx = newBoardIndex()
	s.indexes[key] = idx
	metrics.UpdateBoardsTotal(len(s.indexes))
	return idx
}

// Upsert implements Store.Upsert.
func (s *IndexStore) Upsert(ctx context.Context, boardSlug, intervalID string, subject model.SubjectRef, score float64, observedAt time.Time, minScore float64) (Outcome, error) {
	start := time.Now()
	defer func() {
		metrics.RecordIndexUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	idx := s.index(boardSlug, intervalID, true)
	return idx.upsert(subject, score, observedAt, minScore), nil
}

// Disqualify implements Store.Disqualify.
func (s *IndexStore) Disqualify(ctx context.Context, boardSlug, intervalID string, subject model.SubjectRef) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordIndexUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	idx := s.index(boardSlug, intervalID, false)
	if idx == nil {
		return false, nil
	}
	removed := idx.disqualify(subject)
	if removed {
		metrics.RecordDisqualification()
	}
	return removed, nil
}

// RankOf implements Store.RankOf.
func (s *IndexStore) RankOf(ctx context.Context, boardSlug, intervalID string, subject model.SubjectRef) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordIndexQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	idx := s.index(boardSlug, intervalID, false)
	if idx == nil {
		return Entry{}, ErrUnranked
	}
	entry, ok := idx.rankOf(subject)
	if !ok {
		return Entry{}, ErrUnranked
	}
	return entry, nil
}

// Top implements Store.Top.
func (s *IndexStore) Top(ctx context.Context, boardSlug, intervalID string, n, offset int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordIndexQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 || offset < 0 {
		return nil, ErrInvalidLimit
	}
	idx := s.index(boardSlug, intervalID, false)
	if idx == nil {
		return []Entry{}, nil
	}
	return idx.top(n, offset), nil
}

// Around implements Store.Around.
func (s *IndexStore) Around(ctx context.Context, boardSlug, intervalID string, subject model.SubjectRef, radius int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordIndexQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if radius < 0 {
		return nil, ErrInvalidLimit
	}
	idx := s.index(boardSlug, intervalID, false)
	if idx == nil {
		return nil, ErrUnranked
	}
	entries, ok := idx.around(subject, radius)
	if !ok {
		return nil, ErrUnranked
	}
	return entries, nil
}

// Standings implements Store.Standings.
func (s *IndexStore) Standings(ctx context.Context, boardSlug, intervalID string) ([]Entry, error) {
	idx := s.index(boardSlug, intervalID, false)
	if idx == nil {
		return []Entry{}, nil
	}
	return idx.standings(), nil
}

// Count implements Store.Count.
func (s *IndexStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, idx := range s.indexes {
		total += idx.liveCount()
	}
	return total
}

// IndexCount implements Store.IndexCount.
func (s *IndexStore) IndexCount(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.indexes)
}
