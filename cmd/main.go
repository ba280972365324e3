package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/podiumlabs/podium/internal/adapters/http/api"
	"github.com/podiumlabs/podium/internal/adapters/http/swagger"
	"github.com/podiumlabs/podium/internal/app"
	"github.com/podiumlabs/podium/internal/archive"
	"github.com/podiumlabs/podium/internal/config"
	"github.com/podiumlabs/podium/internal/domain/board"
	"github.com/podiumlabs/podium/pkg/logger"
	"github.com/podiumlabs/podium/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	systemMetricsInterval  = 10 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// The private registry carries our own system gauges; drop the default
	// collectors so /metrics stays deduplicated.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	registry, err := board.NewRegistry(cfg.Boards)
	if err != nil {
		log.Error(ctx, "invalid board configuration", logger.Error(err))
		return
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithMaxPageSize(cfg.MaxPageSize),
		app.WithSnapshotInterval(time.Duration(cfg.SnapshotIntervalMinutes) * time.Minute),
		app.WithSnapshotRetryLimit(cfg.SnapshotRetryLimit),
	}

	if cfg.ArchiveDriver == "postgres" {
		arc, err := archive.NewPostgresArchive(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error(ctx, "failed to connect snapshot archive", logger.Error(err))
			return
		}
		opts = append(opts, app.WithArchive(arc))
	}

	svc := app.New(registry, opts...)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start engine", logger.Error(err))
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	mux := http.NewServeMux()
	swagger.Register(mux)
	api.NewServer(svc).Register(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.Int("boards", len(registry.All())))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// startSystemMetricsUpdater refreshes process-level gauges on a fixed cadence.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			metrics.UpdateSystemMemoryUsage(m.Alloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
		}
	}
}

// startServiceMetricsUpdater refreshes engine gauges from GetStats, which
// pushes queue depth and entry totals as a side effect.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := svc.GetStats()
			if workerCount, ok := stats["workerCount"].(int); ok {
				metrics.UpdateWorkerCount(workerCount)
			}
			if boards, ok := stats["boards"].(int); ok {
				metrics.UpdateBoardsTotal(boards)
			}
		}
	}
}
