// Package loadgen drives a running podium server with synthetic score
// traffic and verifies the resulting leaderboard ordering.
package loadgen

import "time"

// Config holds the knobs of one load run.
type Config struct {
	BaseURL    string        // base URL of the server
	Board      string        // board slug to target
	NumReports int           // reports to generate
	NumActors  int           // distinct profiles reporting scores
	TopN       int           // leaderboard page size for verification
	Workers    int           // concurrent submitters
	Timeout    time.Duration // per-request timeout
	Verbose    bool
}

// scoreRequest is the wire form of POST /scores.
type scoreRequest struct {
	ReportID   string  `json:"report_id"`
	Board      string  `json:"board"`
	ProfileID  string  `json:"profile_id"`
	Score      float64 `json:"score"`
	ObservedAt string  `json:"observed_at"`
}

// ackResponse is the server's answer to a score submission.
type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// leaderboardEntry is one row of GET /leaderboards/{slug}/top.
type leaderboardEntry struct {
	Rank      int     `json:"rank"`
	ProfileID string  `json:"profile_id"`
	Score     float64 `json:"score"`
}

// Stats accumulates run counters for the final report.
type Stats struct {
	Generated  int
	Submitted  int
	Accepted   int
	Duplicate  int
	Failed     int
	TopEntries int
	Started    time.Time
	Duration   time.Duration
}
