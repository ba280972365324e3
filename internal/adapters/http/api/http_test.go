package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/podiumlabs/podium/internal/adapters/http/api"
	"github.com/podiumlabs/podium/internal/adapters/repository"
	"github.com/podiumlabs/podium/internal/archive"
	"github.com/podiumlabs/podium/internal/domain/board"
	"github.com/podiumlabs/podium/internal/domain/model"
)

type mockEngine struct {
	submitted  []model.ScoreReport
	accepted   bool
	duplicate  bool
	submitErr  error
	topEntries []repository.Entry
	rankEntry  repository.Entry
	rankErr    error
	snapshot   archive.Snapshot
	snapErr    error
	intervals  []string
	captures   []time.Time
	removed    bool

	disqualified []string
}

func (m *mockEngine) SubmitScore(ctx context.Context, r model.ScoreReport) (bool, bool, error) {
	if m.submitErr != nil {
		return false, false, m.submitErr
	}
	m.submitted = append(m.submitted, r)
	return m.accepted, m.duplicate, nil
}

func (m *mockEngine) Disqualify(ctx context.Context, boardSlug string, subject model.SubjectRef, intervals ...string) (bool, error) {
	m.disqualified = append(m.disqualified, intervals...)
	return m.removed, m.submitErr
}

func (m *mockEngine) GetTop(ctx context.Context, boardSlug, intervalID string, page, pageSize int) ([]repository.Entry, error) {
	if m.rankErr != nil {
		return nil, m.rankErr
	}
	return m.topEntries, nil
}

func (m *mockEngine) GetRank(ctx context.Context, boardSlug, intervalID string, subject model.SubjectRef) (repository.Entry, error) {
	if m.rankErr != nil {
		return repository.Entry{}, m.rankErr
	}
	return m.rankEntry, nil
}

func (m *mockEngine) GetAround(ctx context.Context, boardSlug, intervalID string, subject model.SubjectRef, radius int) ([]repository.Entry, error) {
	if m.rankErr != nil {
		return nil, m.rankErr
	}
	return m.topEntries, nil
}

func (m *mockEngine) GetSnapshot(ctx context.Context, boardSlug, intervalID string, capturedAt time.Time) (archive.Snapshot, error) {
	if m.snapErr != nil {
		return archive.Snapshot{}, m.snapErr
	}
	return m.snapshot, nil
}

func (m *mockEngine) ListSnapshotIntervals(ctx context.Context, boardSlug string) ([]string, error) {
	return m.intervals, m.snapErr
}

func (m *mockEngine) ListSnapshotCaptures(ctx context.Context, boardSlug, intervalID string) ([]time.Time, error) {
	return m.captures, m.snapErr
}

func (m *mockEngine) Boards() []board.Definition {
	return []board.Definition{
		{Slug: "networth", Interval: board.IntervalAllTime, Subject: model.SubjectProfile, ScoreType: board.ScoreInteger},
	}
}

func (m *mockEngine) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func newTestMux(engine *mockEngine) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(engine).Register(mux)
	return mux
}

func TestDisqualifyEndpoint(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		engine := &mockEngine{removed: true}
		mux := newTestMux(engine)

		Convey("When disqualifying without an interval", func() {
			body := `{"board":"networth","profile_id":"p1"}`
			req := httptest.NewRequest(http.MethodPost, "/disqualify", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then every live bucket is swept", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(engine.disqualified, ShouldBeEmpty)
			})
		})

		Convey("When disqualifying from a named interval", func() {
			body := `{"board":"farming-weight","profile_id":"p1","interval":"2024-W11"}`
			req := httptest.NewRequest(http.MethodPost, "/disqualify", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then only that bucket is named", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(engine.disqualified, ShouldResemble, []string{"2024-W11"})
			})
		})

		Convey("When disqualifying from the all-time bucket explicitly", func() {
			body := `{"board":"networth","profile_id":"p1","interval":""}`
			req := httptest.NewRequest(http.MethodPost, "/disqualify", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the empty identifier is passed through", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(engine.disqualified, ShouldResemble, []string{""})
			})
		})
	})
}

func TestPostScore(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		engine := &mockEngine{accepted: true}
		mux := newTestMux(engine)

		Convey("When posting a valid score", func() {
			body := `{"report_id":"r1","board":"networth","profile_id":"p1","score":5000,"observed_at":"2024-03-15T12:00:00Z"}`
			req := httptest.NewRequest(http.MethodPost, "/scores", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it is accepted", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(engine.submitted, ShouldHaveLength, 1)
				So(engine.submitted[0].Subject.ProfileID, ShouldEqual, "p1")
				So(engine.submitted[0].ObservedAt.UTC().Hour(), ShouldEqual, 12)
			})
		})

		Convey("When posting without a report ID", func() {
			body := `{"board":"networth","profile_id":"p1","score":10}`
			req := httptest.NewRequest(http.MethodPost, "/scores", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then one is generated", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(engine.submitted, ShouldHaveLength, 1)
				So(engine.submitted[0].ReportID, ShouldNotBeEmpty)
			})
		})

		Convey("When resubmitting a seen report", func() {
			engine.duplicate = true
			body := `{"report_id":"r1","board":"networth","profile_id":"p1","score":5000}`
			req := httptest.NewRequest(http.MethodPost, "/scores", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the ack flags the duplicate", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got["duplicate"], ShouldEqual, true)
			})
		})

		Convey("When posting malformed JSON", func() {
			req := httptest.NewRequest(http.MethodPost, "/scores", strings.NewReader("{nope"))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When posting a bad timestamp", func() {
			body := `{"board":"networth","profile_id":"p1","score":10,"observed_at":"yesterday"}`
			req := httptest.NewRequest(http.MethodPost, "/scores", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the board is unknown", func() {
			engine.submitErr = board.ErrUnknownBoard
			body := `{"board":"nope","profile_id":"p1","score":10}`
			req := httptest.NewRequest(http.MethodPost, "/scores", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it returns 404", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the queue rejects the report", func() {
			engine.accepted = false
			body := `{"board":"networth","profile_id":"p1","score":10}`
			req := httptest.NewRequest(http.MethodPost, "/scores", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it returns 429", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			})
		})
	})
}

func TestLeaderboardReads(t *testing.T) {
	Convey("Given a registered API server with standings", t, func() {
		engine := &mockEngine{
			topEntries: []repository.Entry{
				{Rank: 1, Subject: model.SubjectRef{ProfileID: "p2"}, Score: 900, InitialScore: 100},
				{Rank: 2, Subject: model.SubjectRef{ProfileID: "p1"}, Score: 800, InitialScore: 200},
			},
			rankEntry: repository.Entry{Rank: 2, Subject: model.SubjectRef{ProfileID: "p1"}, Score: 800},
		}
		mux := newTestMux(engine)

		Convey("When fetching the top page", func() {
			req := httptest.NewRequest(http.MethodGet, "/leaderboards/networth/top?page=1&page_size=10", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then entries come back in rank order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got []map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got, ShouldHaveLength, 2)
				So(got[0]["profile_id"], ShouldEqual, "p2")
				So(got[0]["rank"], ShouldEqual, 1)
			})
		})

		Convey("When passing a non-numeric page", func() {
			req := httptest.NewRequest(http.MethodGet, "/leaderboards/networth/top?page=abc", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When fetching a rank", func() {
			req := httptest.NewRequest(http.MethodGet, "/leaderboards/networth/rank?profile_id=p1", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the entry is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got["rank"], ShouldEqual, 2)
			})
		})

		Convey("When the subject is unranked", func() {
			engine.rankErr = repository.ErrUnranked
			req := httptest.NewRequest(http.MethodGet, "/leaderboards/networth/rank?profile_id=ghost", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it is a normal result, not an error", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got["unranked"], ShouldBeTrue)
				So(got["rank"], ShouldBeNil)
			})
		})

		Convey("When fetching around a subject", func() {
			req := httptest.NewRequest(http.MethodGet, "/leaderboards/networth/around?profile_id=p1&radius=1", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When listing boards", func() {
			req := httptest.NewRequest(http.MethodGet, "/boards", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then definitions are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got []map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got, ShouldHaveLength, 1)
				So(got[0]["slug"], ShouldEqual, "networth")
			})
		})
	})
}

func TestSnapshotsEndpoint(t *testing.T) {
	Convey("Given a registered API server with snapshot history", t, func() {
		capturedAt := time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC)
		engine := &mockEngine{
			intervals: []string{"2024-02", "2024-03"},
			captures:  []time.Time{capturedAt},
			snapshot: archive.Snapshot{
				ID:         uuid.New(),
				Board:      "skill-xp",
				Interval:   "2024-03",
				CapturedAt: capturedAt,
				Entries: []archive.SnapshotEntry{
					{Rank: 1, Subject: model.SubjectRef{ProfileID: "p1"}, InitialScore: 100, Score: 900},
				},
			},
		}
		mux := newTestMux(engine)

		Convey("When listing intervals", func() {
			req := httptest.NewRequest(http.MethodGet, "/leaderboards/skill-xp/snapshots", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the intervals are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got map[string][]string
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got["intervals"], ShouldResemble, []string{"2024-02", "2024-03"})
			})
		})

		Convey("When listing captures of an interval", func() {
			req := httptest.NewRequest(http.MethodGet, "/leaderboards/skill-xp/snapshots?interval=2024-03", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the capture timestamps are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got map[string][]string
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got["captures"], ShouldResemble, []string{"2024-03-18T00:00:00Z"})
			})
		})

		Convey("When fetching a full snapshot", func() {
			req := httptest.NewRequest(http.MethodGet, "/leaderboards/skill-xp/snapshots?interval=2024-03&captured_at=2024-03-18T00:00:00Z", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the frozen entries are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got["board"], ShouldEqual, "skill-xp")
				entries := got["entries"].([]any)
				So(entries, ShouldHaveLength, 1)
			})
		})

		Convey("When the snapshot does not exist", func() {
			engine.snapErr = archive.ErrSnapshotNotFound
			req := httptest.NewRequest(http.MethodGet, "/leaderboards/skill-xp/snapshots?interval=2024-03&captured_at=2024-03-18T00:00:00Z", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the captured_at parameter is malformed", func() {
			req := httptest.NewRequest(http.MethodGet, "/leaderboards/skill-xp/snapshots?interval=2024-03&captured_at=yesterday", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newTestMux(&mockEngine{})

		Convey("When hitting /healthz", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When hitting /stats", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When hitting /metrics", func() {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
		})
	})
}
