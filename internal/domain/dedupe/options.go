// Package dedupe tracks seen report IDs for at-most-once ingestion.
package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize bounds the number of IDs kept in memory. Once full, the oldest
// recorded ID is evicted. maxSize <= 0 disables eviction.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}
