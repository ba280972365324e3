package app

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/podiumlabs/podium/internal/domain/board"
	"github.com/podiumlabs/podium/pkg/logger"
	"github.com/podiumlabs/podium/pkg/metrics"
)

const (
	captureConcurrency = 4
	captureBackoff     = 500 * time.Millisecond
)

// Scheduler periodically freezes every board's live buckets into the
// archive. Capture boundaries are tick times truncated to the cadence,
// so a restarted scheduler re-attempts the same boundary and the
// archive's idempotence absorbs the duplicate.
type Scheduler struct {
	svc      *Service
	interval time.Duration
	retries  int

	stopCh chan struct{}
	done   chan struct{}

	logger logger.Logger
}

// NewScheduler creates a scheduler over the service's boards.
func NewScheduler(svc *Service, interval time.Duration, retries int) *Scheduler {
	if retries < 1 {
		retries = 1
	}
	return &Scheduler{
		svc:      svc,
		interval: interval,
		retries:  retries,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("scheduler"),
	}
}

// Start launches the capture loop.
func (sc *Scheduler) Start(ctx context.Context) {
	go sc.run(ctx)
}

// Stop signals the loop and waits for the in-flight sweep to finish.
func (sc *Scheduler) Stop() {
	close(sc.stopCh)
	<-sc.done
}

func (sc *Scheduler) run(ctx context.Context) {
	defer close(sc.done)

	ticker := time.NewTicker(sc.interval)
	defer ticker.Stop()

	lastTick := time.Now().UTC()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sc.stopCh:
			return
		case now := <-ticker.C:
			now = now.UTC()
			if gap := now.Sub(lastTick); gap > sc.interval+sc.interval/2 {
				sc.logger.Warn(ctx, "snapshot boundary missed",
					logger.Duration("gap", gap),
					logger.Duration("cadence", sc.interval),
				)
			}
			lastTick = now
			sc.sweep(ctx, now.Truncate(sc.interval))
		}
	}
}

// captureTarget pairs a bucket with the instant its snapshot is keyed at.
type captureTarget struct {
	intervalID string
	at         time.Time
}

// captureTargets lists the buckets to freeze for one boundary: every live
// bucket, plus a bucket the boundary just closed. Closed buckets are keyed
// at their close instant, so repeated sweeps collapse into the archive's
// duplicate no-op instead of minting fresh snapshots.
func (sc *Scheduler) captureTargets(def board.Definition, boundary time.Time) []captureTarget {
	targets := make([]captureTarget, 0, 3)
	for _, id := range board.Intervals(def, boundary) {
		targets = append(targets, captureTarget{intervalID: id, at: boundary})
	}

	switch def.Interval {
	case board.IntervalCustom:
		// An event window that has closed gets one final capture at its
		// end, so standings ingested up to the close are frozen.
		if !def.Ends.IsZero() && boundary.After(def.Ends) {
			targets = append(targets, captureTarget{
				intervalID: board.CurrentIntervalIdentifier(def, boundary),
				at:         def.Ends.UTC(),
			})
		}
	case board.IntervalWeekly, board.IntervalMonthly:
		// A rollover inside the last cadence retires the previous period.
		// Freeze its final standings, late reports included, at the
		// rollover instant.
		prevTick := boundary.Add(-sc.interval)
		if !def.ActiveAt(prevTick) {
			break
		}
		closed := board.CurrentIntervalIdentifier(def, prevTick)
		open := false
		for _, t := range targets {
			open = open || t.intervalID == closed
		}
		if !open {
			targets = append(targets, captureTarget{
				intervalID: closed,
				at:         board.IntervalEnd(def, prevTick),
			})
		}
	}
	return targets
}

// sweep captures every target bucket of every board for one boundary.
func (sc *Scheduler) sweep(ctx context.Context, boundary time.Time) {
	p := pool.New().WithMaxGoroutines(captureConcurrency).WithErrors().WithContext(ctx)

	for _, def := range sc.svc.Boards() {
		def := def
		p.Go(func(ctx context.Context) error {
			for _, target := range sc.captureTargets(def, boundary) {
				sc.captureWithRetry(ctx, def.Slug, target.intervalID, target.at)
			}
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		sc.logger.Error(ctx, "snapshot sweep aborted", logger.Error(err))
	}
}

func (sc *Scheduler) captureWithRetry(ctx context.Context, slug, intervalID string, boundary time.Time) {
	var err error
	for attempt := 0; attempt < sc.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(captureBackoff << attempt):
			}
		}
		if _, _, err = sc.svc.CaptureSnapshot(ctx, slug, intervalID, boundary); err == nil {
			return
		}
	}
	metrics.RecordErrorByComponent("scheduler", "capture_failed")
	sc.logger.Error(ctx, "snapshot capture failed",
		logger.String("board", slug),
		logger.String("interval", intervalID),
		logger.Int("attempts", sc.retries),
		logger.Error(err),
	)
}
