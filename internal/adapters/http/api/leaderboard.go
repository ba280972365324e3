package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/podiumlabs/podium/internal/adapters/repository"
	"github.com/podiumlabs/podium/internal/domain/board"
	"github.com/podiumlabs/podium/internal/domain/model"
)

// handleTop handles GET /leaderboards/{slug}/top?interval=&page=&page_size=.
func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_top"
	slug := r.PathValue("slug")
	q := r.URL.Query()

	page := 1
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		page = n
	}
	pageSize := 0
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		pageSize = n
	}

	entries, err := s.engine.GetTop(r.Context(), slug, q.Get("interval"), page, pageSize)
	if err != nil {
		if errors.Is(err, board.ErrUnknownBoard) {
			writeError(w, http.StatusNotFound, "unknown_board", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, toEntryResponses(entries))
}

// handleRank handles GET /leaderboards/{slug}/rank?interval=&<subject>.
func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	slug := r.PathValue("slug")

	entry, err := s.engine.GetRank(r.Context(), slug, r.URL.Query().Get("interval"), subjectFromQuery(r))
	if err != nil {
		switch {
		case errors.Is(err, board.ErrUnknownBoard):
			writeError(w, http.StatusNotFound, "unknown_board", err)
		case errors.Is(err, repository.ErrUnranked):
			writeJSON(w, http.StatusOK, unrankedResponse{Unranked: true})
		case errors.Is(err, model.ErrInvalidSubjectRef):
			writeError(w, http.StatusBadRequest, "bad_request", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}
	writeJSON(w, http.StatusOK, toEntryResponse(entry))
}

// handleAround handles GET /leaderboards/{slug}/around?radius=&<subject>.
func (s *Server) handleAround(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_around"
	slug := r.PathValue("slug")
	q := r.URL.Query()

	radius := 5
	if v := q.Get("radius"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		radius = n
	}

	entries, err := s.engine.GetAround(r.Context(), slug, q.Get("interval"), subjectFromQuery(r), radius)
	if err != nil {
		switch {
		case errors.Is(err, board.ErrUnknownBoard):
			writeError(w, http.StatusNotFound, "unknown_board", err)
		case errors.Is(err, repository.ErrUnranked):
			writeError(w, http.StatusNotFound, "unranked", err)
		case errors.Is(err, model.ErrInvalidSubjectRef):
			writeError(w, http.StatusBadRequest, "bad_request", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}
	writeJSON(w, http.StatusOK, toEntryResponses(entries))
}

// handleListBoards handles GET /boards.
func (s *Server) handleListBoards(w http.ResponseWriter, r *http.Request) {
	type boardResponse struct {
		Slug      string  `json:"slug"`
		Interval  string  `json:"interval"`
		Subject   string  `json:"subject"`
		ScoreType string  `json:"score_type"`
		MinScore  float64 `json:"min_score,omitempty"`
	}

	defs := s.engine.Boards()
	out := make([]boardResponse, 0, len(defs))
	for _, d := range defs {
		out = append(out, boardResponse{
			Slug:      d.Slug,
			Interval:  string(d.Interval),
			Subject:   string(d.Subject),
			ScoreType: string(d.ScoreType),
			MinScore:  d.MinScore,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
