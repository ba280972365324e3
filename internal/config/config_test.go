package config_test

import (
	"runtime"
	"testing"

	"github.com/podiumlabs/podium/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 100_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*10)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 500_000)
			convey.So(cfg.MaxPageSize, convey.ShouldEqual, 100)
			convey.So(cfg.SnapshotIntervalMinutes, convey.ShouldEqual, 60)
			convey.So(cfg.SnapshotRetryLimit, convey.ShouldEqual, 3)
			convey.So(cfg.ArchiveDriver, convey.ShouldEqual, "memory")
		})

		convey.Convey("Then it should declare one board per interval kind", func() {
			convey.So(cfg.Boards, convey.ShouldNotBeEmpty)

			slugs := make(map[string]config.BoardConfig, len(cfg.Boards))
			for _, b := range cfg.Boards {
				slugs[b.Slug] = b
			}
			convey.So(slugs, convey.ShouldContainKey, "networth")
			convey.So(slugs, convey.ShouldContainKey, "farming-weight")
			convey.So(slugs, convey.ShouldContainKey, "skill-xp")
			convey.So(slugs["networth"].Interval, convey.ShouldEqual, "alltime")
			convey.So(slugs["farming-weight"].Interval, convey.ShouldEqual, "weekly")
			convey.So(slugs["skill-xp"].Interval, convey.ShouldEqual, "monthly")
			convey.So(slugs["skill-xp"].MinScore, convey.ShouldEqual, 1)
		})
	})
}
