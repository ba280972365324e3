package app

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/podiumlabs/podium/internal/config"
	"github.com/podiumlabs/podium/internal/domain/board"
	"github.com/podiumlabs/podium/pkg/logger"
)

func sweepDefinition(t *testing.T, b config.BoardConfig) board.Definition {
	t.Helper()
	reg, err := board.NewRegistry([]config.BoardConfig{b})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	def, err := reg.Resolve(b.Slug)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return def
}

func targetIDs(targets []captureTarget) []string {
	ids := make([]string, 0, len(targets))
	for _, target := range targets {
		ids = append(ids, target.intervalID)
	}
	return ids
}

func TestCaptureTargets(t *testing.T) {
	Convey("Given a scheduler with an hourly cadence", t, func() {
		_ = logger.Init()
		sc := NewScheduler(nil, time.Hour, 1)

		Convey("When a weekly board is mid-period", func() {
			def := sweepDefinition(t, config.BoardConfig{Slug: "w", Interval: "weekly", Subject: "profile"})
			boundary := time.Date(2024, 3, 13, 13, 0, 0, 0, time.UTC) // Wednesday

			targets := sc.captureTargets(def, boundary)

			Convey("Then only the live buckets are frozen", func() {
				So(targetIDs(targets), ShouldResemble, []string{board.AllTimeInterval, "2024-W11"})
			})
		})

		Convey("When a weekly boundary lands on the rollover", func() {
			def := sweepDefinition(t, config.BoardConfig{Slug: "w", Interval: "weekly", Subject: "profile"})
			boundary := time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC) // Monday 00:00

			targets := sc.captureTargets(def, boundary)

			Convey("Then the closed week is frozen at its end", func() {
				So(targetIDs(targets), ShouldResemble, []string{board.AllTimeInterval, "2024-W12", "2024-W11"})
				So(targets[2].at.Equal(boundary), ShouldBeTrue)
			})
		})

		Convey("When a monthly boundary lands on the rollover", func() {
			def := sweepDefinition(t, config.BoardConfig{Slug: "m", Interval: "monthly", Subject: "profile"})
			boundary := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

			targets := sc.captureTargets(def, boundary)

			Convey("Then the closed month is frozen at its end", func() {
				So(targetIDs(targets), ShouldResemble, []string{board.AllTimeInterval, "2024-04", "2024-03"})
				So(targets[2].at.Equal(boundary), ShouldBeTrue)
			})
		})

		Convey("When an event board's window is open", func() {
			def := sweepDefinition(t, config.BoardConfig{
				Slug: "e", Interval: "custom", Subject: "profile",
				Starts: "2024-03-15T00:00:00Z", Ends: "2024-03-29T00:00:00Z",
			})
			boundary := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

			targets := sc.captureTargets(def, boundary)

			Convey("Then the window bucket is frozen at the boundary", func() {
				So(targetIDs(targets), ShouldResemble, []string{board.AllTimeInterval, "2024-03-15"})
				So(targets[1].at.Equal(boundary), ShouldBeTrue)
			})
		})

		Convey("When an event board's window has closed", func() {
			def := sweepDefinition(t, config.BoardConfig{
				Slug: "e", Interval: "custom", Subject: "profile",
				Starts: "2024-03-15T00:00:00Z", Ends: "2024-03-29T00:00:00Z",
			})
			boundary := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

			targets := sc.captureTargets(def, boundary)

			Convey("Then the window bucket is frozen at the window end", func() {
				So(targetIDs(targets), ShouldResemble, []string{board.AllTimeInterval, "2024-03-15"})
				So(targets[1].at.Equal(time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
			})
		})

		Convey("When an all-time board is swept", func() {
			def := sweepDefinition(t, config.BoardConfig{Slug: "a", Interval: "alltime", Subject: "profile"})
			boundary := time.Date(2024, 3, 13, 13, 0, 0, 0, time.UTC)

			targets := sc.captureTargets(def, boundary)

			Convey("Then only the all-time bucket is frozen", func() {
				So(targetIDs(targets), ShouldResemble, []string{board.AllTimeInterval})
			})
		})
	})
}
