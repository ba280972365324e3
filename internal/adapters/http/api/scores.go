package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/podiumlabs/podium/internal/domain/board"
	"github.com/podiumlabs/podium/internal/domain/ingest"
	"github.com/podiumlabs/podium/internal/domain/model"
)

// handlePostScore accepts a score report for asynchronous ingestion.
func (s *Server) handlePostScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_score"

	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	report, err := req.toReport()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	accepted, duplicate, err := s.engine.SubmitScore(r.Context(), report)
	if err != nil {
		switch {
		case errors.Is(err, board.ErrUnknownBoard):
			writeError(w, http.StatusNotFound, "unknown_board", err)
		case errors.Is(err, model.ErrInvalidSubjectRef), errors.Is(err, ingest.ErrSubjectMismatch):
			writeError(w, http.StatusBadRequest, "bad_request", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}
	if !accepted {
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "accepted", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}

// handleDisqualify removes a subject from a board's live standings.
func (s *Server) handleDisqualify(w http.ResponseWriter, r *http.Request) {
	const op = "api.disqualify"

	var req disqualifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	subject := model.SubjectRef{
		ProfileID:       req.ProfileID,
		ProfileMemberID: req.ProfileMemberID,
		GuildID:         req.GuildID,
	}
	var intervals []string
	if req.Interval != nil {
		intervals = []string{*req.Interval}
	}
	removed, err := s.engine.Disqualify(r.Context(), req.Board, subject, intervals...)
	if err != nil {
		switch {
		case errors.Is(err, board.ErrUnknownBoard):
			writeError(w, http.StatusNotFound, "unknown_board", err)
		case errors.Is(err, model.ErrInvalidSubjectRef), errors.Is(err, ingest.ErrSubjectMismatch):
			writeError(w, http.StatusBadRequest, "bad_request", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "ok", Removed: removed})
}
