package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/gearscan/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.ChatterWindowMS, convey.ShouldEqual, 1000)
			convey.So(cfg.ReentryGuardMS, convey.ShouldEqual, 30000)
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.FrameInterval().Milliseconds(), convey.ShouldEqual, 100)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown log level", func(c *config.Config) { c.LogLevel = "loud" }},
		{"zero frame interval", func(c *config.Config) { c.FrameIntervalMS = 0 }},
		{"negative chatter window", func(c *config.Config) { c.ChatterWindowMS = -1 }},
		{"negative reentry guard", func(c *config.Config) { c.ReentryGuardMS = -1 }},
		{"zero queue", func(c *config.Config) { c.QueueSize = 0 }},
		{"zero workers", func(c *config.Config) { c.WorkerCount = 0 }},
		{"negative dedupe", func(c *config.Config) { c.DedupeSize = -1 }},
		{"unknown engine", func(c *config.Config) { c.NumberEngine = "abacus" }},
		{"unknown store", func(c *config.Config) { c.StoreDriver = "postgres" }},
		{"sqlite without path", func(c *config.Config) {
			c.StoreDriver = config.StoreSQLite
			c.SQLitePath = " "
		}},
	}

	convey.Convey("Given invalid configs", t, func() {
		for _, tc := range cases {
			cfg := config.New()
			tc.mutate(cfg)
			err := cfg.Validate()
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		}
	})
}
