// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults come from New; Load layers file and env on top.
// - External errors are wrapped via this package's sentinel errors.
package config

import "runtime"

// BoardConfig declares one leaderboard definition. The registry validates
// and freezes these at startup.
type BoardConfig struct {
	// Slug is the unique, immutable board identifier.
	Slug string `koanf:"slug"`

	// Interval selects the rolling bucket: alltime, weekly, monthly, custom.
	Interval string `koanf:"interval"`

	// Subject selects what is ranked: profile, profile_member, guild.
	Subject string `koanf:"subject"`

	// ScoreType is integer or decimal; it affects presentation only.
	ScoreType string `koanf:"score_type"`

	// MinScore is the minimum qualifying score for an entry to exist.
	MinScore float64 `koanf:"min_score"`

	// Starts/Ends bound custom-dated (event) boards, RFC3339. Empty means
	// unbounded.
	Starts string `koanf:"starts"`
	Ends   string `koanf:"ends"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory score report queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of ingestion workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the report idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxPageSize caps top/around page sizes served over HTTP.
	MaxPageSize int `koanf:"max_page_size"`

	// SnapshotIntervalMinutes sets the capture cadence for periodic boards.
	SnapshotIntervalMinutes int `koanf:"snapshot_interval_minutes"`

	// SnapshotRetryLimit bounds capture retries before a boundary is logged
	// for manual backfill.
	SnapshotRetryLimit int `koanf:"snapshot_retry_limit"`

	// ArchiveDriver selects the snapshot archive backend: memory or postgres.
	ArchiveDriver string `koanf:"archive_driver"`

	// PostgresDSN is required when ArchiveDriver is postgres.
	PostgresDSN string `koanf:"postgres_dsn"`

	// Boards declares the leaderboard definitions served by this process.
	Boards []BoardConfig `koanf:"boards"`
}

// New returns the built-in defaults. The default board set covers one board
// per interval type so a bare process is immediately usable.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		Addr:                    ":9080",
		QueueSize:               100_000,
		WorkerCount:             runtime.NumCPU() * 10,
		DedupeSize:              500_000,
		MaxPageSize:             100,
		SnapshotIntervalMinutes: 60,
		SnapshotRetryLimit:      3,
		ArchiveDriver:           "memory",
		Boards: []BoardConfig{
			{Slug: "networth", Interval: "alltime", Subject: "profile", ScoreType: "integer"},
			{Slug: "farming-weight", Interval: "weekly", Subject: "profile_member", ScoreType: "decimal"},
			{Slug: "skill-xp", Interval: "monthly", Subject: "profile_member", ScoreType: "integer", MinScore: 1},
			{Slug: "guild-networth", Interval: "alltime", Subject: "guild", ScoreType: "integer"},
		},
	}
}
