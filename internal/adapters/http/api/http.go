// Package api exposes the ranking engine over HTTP. It is a thin
// boundary layer: handlers validate and translate, the engine does the
// work.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/podiumlabs/podium/internal/adapters/repository"
	"github.com/podiumlabs/podium/internal/archive"
	"github.com/podiumlabs/podium/internal/domain/board"
	"github.com/podiumlabs/podium/internal/domain/model"
)

// Engine bundles the operations handlers need. Satisfied by app.Service.
type Engine interface {
	SubmitScore(ctx context.Context, r model.ScoreReport) (accepted, duplicate bool, err error)
	Disqualify(ctx context.Context, boardSlug string, subject model.SubjectRef, intervals ...string) (bool, error)

	GetTop(ctx context.Context, boardSlug, intervalID string, page, pageSize int) ([]repository.Entry, error)
	GetRank(ctx context.Context, boardSlug, intervalID string, subject model.SubjectRef) (repository.Entry, error)
	GetAround(ctx context.Context, boardSlug, intervalID string, subject model.SubjectRef, radius int) ([]repository.Entry, error)

	GetSnapshot(ctx context.Context, boardSlug, intervalID string, capturedAt time.Time) (archive.Snapshot, error)
	ListSnapshotIntervals(ctx context.Context, boardSlug string) ([]string, error)
	ListSnapshotCaptures(ctx context.Context, boardSlug, intervalID string) ([]time.Time, error)

	Boards() []board.Definition
	GetStats() map[string]interface{}
}

// Server wires HTTP routes for the ranking API.
type Server struct {
	engine Engine
}

// NewServer creates an API server backed by the engine.
func NewServer(engine Engine) *Server {
	return &Server{engine: engine}
}

// Register attaches all routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.handleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.handleStats, "stats"))
	mux.HandleFunc("GET /boards", MetricsMiddleware(s.handleListBoards, "boards"))

	mux.HandleFunc("POST /scores", MetricsMiddleware(s.handlePostScore, "scores"))
	mux.HandleFunc("POST /disqualify", MetricsMiddleware(s.handleDisqualify, "disqualify"))

	mux.HandleFunc("GET /leaderboards/{slug}/top", MetricsMiddleware(s.handleTop, "top"))
	mux.HandleFunc("GET /leaderboards/{slug}/rank", MetricsMiddleware(s.handleRank, "rank"))
	mux.HandleFunc("GET /leaderboards/{slug}/around", MetricsMiddleware(s.handleAround, "around"))
	mux.HandleFunc("GET /leaderboards/{slug}/snapshots", MetricsMiddleware(s.handleSnapshots, "snapshots"))
}

// scoreRequest mirrors the wire schema for POST /scores.
type scoreRequest struct {
	ReportID        string  `json:"report_id"`
	Board           string  `json:"board"`
	ProfileID       string  `json:"profile_id,omitempty"`
	ProfileMemberID string  `json:"profile_member_id,omitempty"`
	GuildID         string  `json:"guild_id,omitempty"`
	Score           float64 `json:"score"`
	ObservedAt      string  `json:"observed_at"`
}

func (r scoreRequest) toReport() (model.ScoreReport, error) {
	report := model.ScoreReport{
		ReportID: r.ReportID,
		Board:    r.Board,
		Subject: model.SubjectRef{
			ProfileID:       r.ProfileID,
			ProfileMemberID: r.ProfileMemberID,
			GuildID:         r.GuildID,
		},
		Score: r.Score,
	}
	if report.ReportID == "" {
		report.ReportID = uuid.NewString()
	}
	if r.ObservedAt != "" {
		ts, err := time.Parse(time.RFC3339, r.ObservedAt)
		if err != nil {
			return model.ScoreReport{}, NewKind("api.post_score", ErrBadRequest)
		}
		report.ObservedAt = ts
	}
	return report, nil
}

type disqualifyRequest struct {
	Board           string `json:"board"`
	ProfileID       string `json:"profile_id,omitempty"`
	ProfileMemberID string `json:"profile_member_id,omitempty"`
	GuildID         string `json:"guild_id,omitempty"`

	// Interval scopes the removal to one bucket. A pointer separates the
	// absent case (all live buckets) from "" (the all-time bucket).
	Interval *string `json:"interval,omitempty"`
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Removed   bool   `json:"removed,omitempty"`
}

type entryResponse struct {
	Rank            int     `json:"rank"`
	ProfileID       string  `json:"profile_id,omitempty"`
	ProfileMemberID string  `json:"profile_member_id,omitempty"`
	GuildID         string  `json:"guild_id,omitempty"`
	Score           float64 `json:"score"`
	InitialScore    float64 `json:"initial_score"`
	LastObserved    string  `json:"last_observed,omitempty"`
}

// unrankedResponse answers rank lookups for subjects with no live entry.
// Unranked is a normal result, not an error: rank is null and the flag is
// set so consumers need no status-code special case.
type unrankedResponse struct {
	Rank     *int `json:"rank"`
	Unranked bool `json:"unranked"`
}

func toEntryResponse(e repository.Entry) entryResponse {
	out := entryResponse{
		Rank:            e.Rank,
		ProfileID:       e.Subject.ProfileID,
		ProfileMemberID: e.Subject.ProfileMemberID,
		GuildID:         e.Subject.GuildID,
		Score:           e.Score,
		InitialScore:    e.InitialScore,
	}
	if !e.LastObserved.IsZero() {
		out.LastObserved = e.LastObserved.UTC().Format(time.RFC3339)
	}
	return out
}

func toEntryResponses(entries []repository.Entry) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	return out
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// subjectFromQuery builds a SubjectRef from query parameters; the
// mutual-exclusivity check happens downstream in the engine.
func subjectFromQuery(r *http.Request) model.SubjectRef {
	q := r.URL.Query()
	return model.SubjectRef{
		ProfileID:       q.Get("profile_id"),
		ProfileMemberID: q.Get("profile_member_id"),
		GuildID:         q.Get("guild_id"),
	}
}
