package model

import "time"

// ScoreReport is one computed score delivered by an upstream aggregation
// job. Reports may arrive out of order and more than once; ReportID feeds
// the idempotency cache and ObservedAt drives the stale-drop rule.
type ScoreReport struct {
	ReportID   string     // unique id for idempotency
	Board      string     // leaderboard slug
	Subject    SubjectRef // exactly one subject
	Score      float64    // computed score value
	ObservedAt time.Time  // when the score was computed upstream
}
