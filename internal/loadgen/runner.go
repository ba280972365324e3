package loadgen

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/podiumlabs/podium/pkg/logger"
)

const settleDelay = 2 * time.Second

// Run executes a full load cycle: health check, generate, submit,
// settle, verify.
func Run(ctx context.Context, cfg *Config) error {
	stats := &Stats{Started: time.Now()}
	log := logger.Get().Named("loadgen")

	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("board", cfg.Board),
		logger.Int("reports", cfg.NumReports),
		logger.Int("workers", cfg.Workers),
	)

	client := newHTTPClient(cfg.Timeout)
	if err := client.get(ctx, cfg.BaseURL+"/healthz", nil); err != nil {
		return fmt.Errorf("health check: %w", err)
	}

	reports := generateReports(cfg, stats)
	submitReports(ctx, cfg, client, reports, stats)

	// Let the worker pool drain before reading the board.
	log.Info(ctx, "waiting for ingestion to settle")
	time.Sleep(settleDelay)

	top, err := fetchTop(ctx, cfg, client)
	if err != nil {
		return fmt.Errorf("fetch leaderboard: %w", err)
	}
	stats.TopEntries = len(top)

	if err := verifyOrdering(top); err != nil {
		return fmt.Errorf("verify leaderboard: %w", err)
	}

	stats.Duration = time.Since(stats.Started)
	log.Info(ctx, "load run completed",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
		logger.Int("topEntries", stats.TopEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("reportsPerSecond", float64(stats.Submitted)/stats.Duration.Seconds()),
	)
	return nil
}

func submitReports(ctx context.Context, cfg *Config, client *httpClient, reports []scoreRequest, stats *Stats) {
	var accepted, duplicate, failed int64

	url := cfg.BaseURL + "/scores"
	p := pool.New().WithMaxGoroutines(cfg.Workers)
	for _, report := range reports {
		report := report
		p.Go(func() {
			if ctx.Err() != nil {
				atomic.AddInt64(&failed, 1)
				return
			}
			switch client.postScore(ctx, url, report) {
			case "accepted":
				atomic.AddInt64(&accepted, 1)
			case "duplicate":
				atomic.AddInt64(&duplicate, 1)
			default:
				atomic.AddInt64(&failed, 1)
			}
		})
	}
	p.Wait()

	stats.Accepted = int(accepted)
	stats.Duplicate = int(duplicate)
	stats.Failed = int(failed)
	stats.Submitted = stats.Accepted + stats.Duplicate + stats.Failed
}

func fetchTop(ctx context.Context, cfg *Config, client *httpClient) ([]leaderboardEntry, error) {
	url := fmt.Sprintf("%s/leaderboards/%s/top?page=1&page_size=%d", cfg.BaseURL, cfg.Board, cfg.TopN)
	var out []leaderboardEntry
	if err := client.get(ctx, url, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// verifyOrdering checks that the board comes back rank-ascending with
// non-increasing scores.
func verifyOrdering(entries []leaderboardEntry) error {
	for i, e := range entries {
		if e.Rank != i+1 {
			return fmt.Errorf("entry %d has rank %d", i, e.Rank)
		}
		if i > 0 && e.Score > entries[i-1].Score {
			return fmt.Errorf("rank %d outranks a lower score (%.2f > %.2f)", e.Rank, e.Score, entries[i-1].Score)
		}
	}
	return nil
}
