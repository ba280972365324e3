package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/podiumlabs/podium/internal/app"
	"github.com/podiumlabs/podium/internal/config"
	"github.com/podiumlabs/podium/internal/domain/board"
	"github.com/podiumlabs/podium/internal/domain/model"
	logging "github.com/podiumlabs/podium/pkg/logger"
)

func TestSchedulerFreezesClosedEventWindow(t *testing.T) {
	Convey("Given a service with an event board whose window has closed", t, func() {
		_ = logging.Init()
		ctx := context.Background()
		reg, err := board.NewRegistry([]config.BoardConfig{
			{
				Slug: "spring-event", Interval: "custom", Subject: "profile",
				Starts: "2024-03-15T00:00:00Z", Ends: "2024-03-29T00:00:00Z",
			},
		})
		So(err, ShouldBeNil)

		svc := app.New(reg,
			app.WithWorkerCount(1),
			app.WithSnapshotInterval(50*time.Millisecond),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		accepted, _, err := svc.SubmitScore(ctx, model.ScoreReport{
			ReportID:   uuid.NewString(),
			Board:      "spring-event",
			Subject:    model.SubjectRef{ProfileID: "p1"},
			Score:      700,
			ObservedAt: time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC),
		})
		So(err, ShouldBeNil)
		So(accepted, ShouldBeTrue)

		Convey("When sweeps run after the window end", func() {
			var captures []time.Time
			deadline := time.Now().Add(3 * time.Second)
			for time.Now().Before(deadline) {
				captures, err = svc.ListSnapshotCaptures(ctx, "spring-event", "2024-03-15")
				So(err, ShouldBeNil)
				if len(captures) > 0 {
					break
				}
				time.Sleep(20 * time.Millisecond)
			}

			Convey("Then the window bucket is frozen once, at its close", func() {
				So(captures, ShouldHaveLength, 1)
				So(captures[0].Equal(time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)

				snap, err := svc.GetSnapshot(ctx, "spring-event", "2024-03-15", captures[0])
				So(err, ShouldBeNil)
				So(snap.Board, ShouldEqual, "spring-event")
			})
		})
	})
}

func TestSchedulerCapturesOnCadence(t *testing.T) {
	Convey("Given a service with a fast snapshot cadence", t, func() {
		_ = logging.Init()
		ctx := context.Background()
		svc := app.New(testRegistry(t),
			app.WithWorkerCount(1),
			app.WithSnapshotInterval(50*time.Millisecond),
			app.WithSnapshotRetryLimit(2),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		accepted, _, err := svc.SubmitScore(ctx, model.ScoreReport{
			ReportID:   uuid.NewString(),
			Board:      "networth",
			Subject:    model.SubjectRef{ProfileID: "p1"},
			Score:      500,
			ObservedAt: time.Now().UTC(),
		})
		So(err, ShouldBeNil)
		So(accepted, ShouldBeTrue)

		Convey("When waiting past a few boundaries", func() {
			var captures []time.Time
			deadline := time.Now().Add(3 * time.Second)
			for time.Now().Before(deadline) {
				captures, err = svc.ListSnapshotCaptures(ctx, "networth", board.AllTimeInterval)
				So(err, ShouldBeNil)
				if len(captures) > 0 {
					break
				}
				time.Sleep(20 * time.Millisecond)
			}

			Convey("Then snapshots appear without manual capture calls", func() {
				So(captures, ShouldNotBeEmpty)

				snap, err := svc.GetSnapshot(ctx, "networth", board.AllTimeInterval, captures[0])
				So(err, ShouldBeNil)
				So(len(snap.Entries), ShouldBeGreaterThanOrEqualTo, 0)
			})
		})
	})
}
