// Package dedupe tracks seen report IDs for at-most-once ingestion.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen report IDs so retried or duplicated deliveries are
// acknowledged without re-processing.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records it if
	// not. Returns true when id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID, allowing a retry. Used when a report was
	// marked seen but could not be enqueued (backpressure).
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper implements Deduper with a map plus a FIFO ring of IDs for
// bounded eviction. maxSize <= 0 disables eviction entirely.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	ring    []string
	next    int
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates an in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50_000,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	if d.maxSize > 0 {
		d.ring = make([]string, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(ctx context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	if d.maxSize > 0 {
		// The ring slot about to be reused holds the oldest recorded ID.
		if victim := d.ring[d.next]; victim != "" {
			if _, ok := d.seen[victim]; ok {
				delete(d.seen, victim)
				d.size.Add(-1)
			}
		}
		d.ring[d.next] = id
		d.next = (d.next + 1) % d.maxSize
	}

	d.seen[id] = struct{}{}
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(ctx context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; !ok {
		return
	}
	delete(d.seen, id)
	d.size.Add(-1)
	// The ring slot is left as-is; a stale ring entry whose ID is no longer
	// in the map is skipped at eviction time.
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
