package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/podiumlabs/podium/internal/archive"
	"github.com/podiumlabs/podium/internal/domain/board"
)

type snapshotEntryResponse struct {
	Rank            int     `json:"rank"`
	ProfileID       string  `json:"profile_id,omitempty"`
	ProfileMemberID string  `json:"profile_member_id,omitempty"`
	GuildID         string  `json:"guild_id,omitempty"`
	InitialScore    float64 `json:"initial_score"`
	Score           float64 `json:"score"`
}

type snapshotResponse struct {
	ID         string                  `json:"id"`
	Board      string                  `json:"board"`
	Interval   string                  `json:"interval"`
	CapturedAt string                  `json:"captured_at"`
	Entries    []snapshotEntryResponse `json:"entries"`
}

func toSnapshotResponse(snap archive.Snapshot) snapshotResponse {
	entries := make([]snapshotEntryResponse, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		entries = append(entries, snapshotEntryResponse{
			Rank:            e.Rank,
			ProfileID:       e.Subject.ProfileID,
			ProfileMemberID: e.Subject.ProfileMemberID,
			GuildID:         e.Subject.GuildID,
			InitialScore:    e.InitialScore,
			Score:           e.Score,
		})
	}
	return snapshotResponse{
		ID:         snap.ID.String(),
		Board:      snap.Board,
		Interval:   snap.Interval,
		CapturedAt: snap.CapturedAt.UTC().Format(time.RFC3339),
		Entries:    entries,
	}
}

// handleSnapshots handles GET /leaderboards/{slug}/snapshots.
//
// Without parameters it lists the intervals that have captures. With
// ?interval= it lists that interval's capture timestamps. With
// ?interval=&captured_at= it returns the full frozen snapshot.
func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_snapshots"
	slug := r.PathValue("slug")
	q := r.URL.Query()

	capturedAtParam := q.Get("captured_at")
	_, hasInterval := q["interval"]

	switch {
	case capturedAtParam != "":
		capturedAt, err := time.Parse(time.RFC3339, capturedAtParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		snap, err := s.engine.GetSnapshot(r.Context(), slug, q.Get("interval"), capturedAt)
		if err != nil {
			writeSnapshotError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, toSnapshotResponse(snap))

	case hasInterval:
		captures, err := s.engine.ListSnapshotCaptures(r.Context(), slug, q.Get("interval"))
		if err != nil {
			writeSnapshotError(w, op, err)
			return
		}
		out := make([]string, 0, len(captures))
		for _, ts := range captures {
			out = append(out, ts.UTC().Format(time.RFC3339))
		}
		writeJSON(w, http.StatusOK, map[string]any{"captures": out})

	default:
		intervals, err := s.engine.ListSnapshotIntervals(r.Context(), slug)
		if err != nil {
			writeSnapshotError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"intervals": intervals})
	}
}

func writeSnapshotError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, board.ErrUnknownBoard):
		writeError(w, http.StatusNotFound, "unknown_board", err)
	case errors.Is(err, archive.ErrSnapshotNotFound):
		writeError(w, http.StatusNotFound, "snapshot_not_found", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
