package loadgen

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/google/uuid"
)

const randomFloatDivisor = 1_000_000

// Score distribution bands. Most actors land in the middle so the top
// of the board stays contested.
const (
	bandAverage = iota
	bandHigh
	bandLow
	bandElite
	bandCount
)

func randomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// generateReports produces reports spread across a fixed actor set.
// Multiple reports per actor exercise the best-score-wins path on the
// server; monotonically increasing observed-at keeps them all fresh.
func generateReports(cfg *Config, stats *Stats) []scoreRequest {
	actors := make([]string, cfg.actorCount())
	for i := range actors {
		actors[i] = uuid.NewString()
	}

	base := time.Now().UTC().Add(-time.Duration(cfg.NumReports) * time.Millisecond)
	reports := make([]scoreRequest, cfg.NumReports)
	for i := range reports {
		pick, _ := rand.Int(rand.Reader, big.NewInt(int64(len(actors))))
		reports[i] = scoreRequest{
			ReportID:   uuid.NewString(),
			Board:      cfg.Board,
			ProfileID:  actors[pick.Int64()],
			Score:      variedScore(),
			ObservedAt: base.Add(time.Duration(i) * time.Millisecond).Format(time.RFC3339Nano),
		}
	}

	stats.Generated = len(reports)
	return reports
}

// actorCount returns the configured actor count, defaulting to one
// actor per ten reports.
func (c *Config) actorCount() int {
	if c.NumActors > 0 {
		return c.NumActors
	}
	n := c.NumReports / 10
	if n < 1 {
		n = 1
	}
	return n
}

func variedScore() float64 {
	band, _ := rand.Int(rand.Reader, big.NewInt(bandCount))
	switch band.Int64() {
	case bandHigh:
		return 7_000_000 + randomFloat()*2_000_000
	case bandLow:
		return 100_000 + randomFloat()*2_900_000
	case bandElite:
		return 9_000_000 + randomFloat()*1_000_000
	default:
		return 3_000_000 + randomFloat()*4_000_000
	}
}
