package repository

import (
	"sync"
	"time"

	"github.com/podiumlabs/podium/internal/domain/model"
)

// record is a subject's entry within one (board, interval) index. Removed
// records keep their row so history and snapshot references stay intact;
// only live records have a node in the treap.
type record struct {
	entryID      uint64
	subject      model.SubjectRef
	initial      scoreFP
	current      scoreFP
	removed      bool
	lastObserved time.Time
}

// boardIndex holds the standings of one (board, interval) pair. The mutex
// serializes writes per index, which linearizes concurrent upserts for the
// same subject; indexes for other boards or intervals proceed in parallel.
type boardIndex struct {
	mu        sync.RWMutex
	root      *node
	bySubject map[string]*record
	byEntryID map[uint64]*record
	seq       uint64
}

func newBoardIndex() *boardIndex {
	return &boardIndex{
		bySubject: make(map[string]*record),
		byEntryID: make(map[uint64]*record),
	}
}

func (b *boardIndex) upsert(subject model.SubjectRef, score float64, observedAt time.Time, minScore float64) Outcome {
	ns := toFixedPoint(score)

	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.bySubject[subject.Key()]
	if !ok || rec.removed {
		if ns < toFixedPoint(minScore) {
			return OutcomeBelowThreshold
		}
		// First qualification, or a fresh lineage after removal: the prior
		// record (if any) is superseded in place, its history lives on in
		// snapshots only.
		if ok {
			delete(b.byEntryID, rec.entryID)
		}
		b.seq++
		rec = &record{
			entryID:      b.seq,
			subject:      subject,
			initial:      ns,
			current:      ns,
			lastObserved: observedAt,
		}
		b.bySubject[subject.Key()] = rec
		b.byEntryID[rec.entryID] = rec
		b.root = insert(b.root, rec.entryID, ns)
		return OutcomeCreated
	}

	if observedAt.Before(rec.lastObserved) {
		return OutcomeStale
	}
	rec.lastObserved = observedAt
	if ns != rec.current {
		b.root = remove(b.root, rec.entryID, rec.current)
		rec.current = ns
		b.root = insert(b.root, rec.entryID, ns)
	}
	return OutcomeUpdated
}

func (b *boardIndex) disqualify(subject model.SubjectRef) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.bySubject[subject.Key()]
	if !ok || rec.removed {
		return false
	}
	b.root = remove(b.root, rec.entryID, rec.current)
	rec.removed = true
	return true
}

func (b *boardIndex) rankOf(subject model.SubjectRef) (Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.bySubject[subject.Key()]
	if !ok || rec.removed {
		return Entry{}, false
	}
	idx := indexOf(b.root, rec.entryID, rec.current)
	if idx < 0 {
		return Entry{}, false
	}
	return b.entryAt(rec, idx+1), true
}

func (b *boardIndex) top(n, offset int) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.rangeEntries(offset, offset+n)
}

func (b *boardIndex) around(subject model.SubjectRef, radius int) ([]Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.bySubject[subject.Key()]
	if !ok || rec.removed {
		return nil, false
	}
	idx := indexOf(b.root, rec.entryID, rec.current)
	if idx < 0 {
		return nil, false
	}
	return b.rangeEntries(maxInt(0, idx-radius), idx+radius+1), true
}

func (b *boardIndex) standings() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Entry, 0, nsize(b.root))
	rank := 0
	walkAll(b.root, func(entryID uint64) {
		rank++
		if rec, ok := b.byEntryID[entryID]; ok {
			out = append(out, b.entryAt(rec, rank))
		}
	})
	return out
}

func (b *boardIndex) liveCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return nsize(b.root)
}

// rangeEntries collects positions [start, end). Callers hold the read lock.
func (b *boardIndex) rangeEntries(start, end int) []Entry {
	if start < 0 {
		start = 0
	}
	out := make([]Entry, 0, maxInt(0, end-start))
	pos := start
	walkRange(b.root, start, end, func(entryID uint64) {
		pos++
		if rec, ok := b.byEntryID[entryID]; ok {
			out = append(out, b.entryAt(rec, pos))
		}
	})
	return out
}

func (b *boardIndex) entryAt(rec *record, rank int) Entry {
	return Entry{
		Rank:         rank,
		EntryID:      rec.entryID,
		Subject:      rec.subject,
		InitialScore: toFloat(rec.initial),
		Score:        toFloat(rec.current),
		LastObserved: rec.lastObserved,
	}
}
