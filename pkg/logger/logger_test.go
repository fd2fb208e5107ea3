package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		So(Init(), ShouldBeNil)
		defer func() { So(Sync(), ShouldBeNil) }()

		Convey("Get and Named return usable loggers", func() {
			So(Get(), ShouldNotBeNil)
			So(Named("scene"), ShouldNotBeNil)
			So(func() { Named("scene").Info(context.Background(), "hello", String("k", "v")) }, ShouldNotPanic)
		})

		Convey("A buffer logger records fields and the component name", func() {
			var buf bytes.Buffer
			l := New(&buf).Named("analyzer")
			l.Info(context.Background(), "field resolved", String("field", "cash"), Int("value", 1234567))

			out := buf.String()
			So(out, ShouldContainSubstring, "field resolved")
			So(out, ShouldContainSubstring, "component=analyzer")
			So(out, ShouldContainSubstring, "field=cash")
			So(out, ShouldContainSubstring, "source=")
		})

		Convey("Records below the level are dropped", func() {
			var buf bytes.Buffer
			l := New(&buf)
			So(SetLevelString("warn"), ShouldBeNil)
			defer SetLevel(slog.LevelInfo)

			l.Info(context.Background(), "quiet")
			l.Warn(context.Background(), "loud")
			So(buf.String(), ShouldNotContainSubstring, "quiet")
			So(buf.String(), ShouldContainSubstring, "loud")
		})

		Convey("Unknown levels are rejected", func() {
			So(SetLevelString("verbose"), ShouldNotBeNil)
			So(SetLevelString("WARNING"), ShouldBeNil)
			So(SetLevelString(""), ShouldBeNil)
		})
	})

	Convey("A nop logger never panics", t, func() {
		l := NewNop()
		So(func() {
			l.Debug(context.Background(), "x")
			l.Error(context.Background(), "y", Error(nil))
			l.Named("a").Warn(context.Background(), "z", Bool("b", true))
		}, ShouldNotPanic)
	})
}
