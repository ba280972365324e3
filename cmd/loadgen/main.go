// Command loadgen floods a running podium server with synthetic score
// reports and verifies the resulting standings.
package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/podiumlabs/podium/internal/loadgen"
	"github.com/podiumlabs/podium/pkg/logger"
)

const (
	defaultNumReports = 10000
	defaultTopN       = 50
	defaultTimeout    = 30 * time.Second
	runDeadline       = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the server")
		boardSlug  = flag.String("board", "networth", "Board slug to target")
		numReports = flag.Int("reports", defaultNumReports, "Number of score reports to submit")
		numActors  = flag.Int("actors", 0, "Distinct profiles reporting scores (default reports/10)")
		topN       = flag.Int("top", defaultTopN, "Leaderboard page size for verification")
		workers    = flag.Int("workers", runtime.NumCPU()*2, "Concurrent submitters")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose    = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), runDeadline)
	defer cancel()

	cfg := &loadgen.Config{
		BaseURL:    *baseURL,
		Board:      *boardSlug,
		NumReports: *numReports,
		NumActors:  *numActors,
		TopN:       *topN,
		Workers:    *workers,
		Timeout:    *timeout,
		Verbose:    *verbose,
	}

	if err := loadgen.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("load run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
