package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		So(Init(), ShouldBeNil)
		defer func() { So(Sync(), ShouldBeNil) }()

		Convey("Then Get returns a usable logger", func() {
			l := Get()
			So(l, ShouldNotBeNil)
			So(func() { l.Info(context.Background(), "test message", String("k", "v")) }, ShouldNotPanic)
		})

		Convey("And Named returns a usable sub-logger", func() {
			named := Named("test")
			So(named, ShouldNotBeNil)
			So(func() { named.Info(context.Background(), "named message") }, ShouldNotPanic)
		})
	})
}

func TestLoggerFormats(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		l, err := New(&buf, FormatJSON)
		So(err, ShouldBeNil)

		Convey("When logging with fields", func() {
			l.With(String("component", "cache")).Warn(context.Background(), "persist failed",
				Int("entries", 3), Bool("memoryOnly", true))

			Convey("Then the record is valid JSON carrying all fields and the caller", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "persist failed")
				So(rec["level"], ShouldEqual, "WARN")
				So(rec["component"], ShouldEqual, "cache")
				So(rec["entries"], ShouldEqual, 3)
				So(rec["memoryOnly"], ShouldEqual, true)
				So(rec["source"], ShouldContainSubstring, "logger_test.go")
			})
		})
	})

	Convey("Given an unknown format", t, func() {
		_, err := New(&bytes.Buffer{}, "xml")

		Convey("Then construction fails", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "unknown log format")
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		So(SetLevelString("debug"), ShouldBeNil)
		So(SetLevelString("WARNING"), ShouldBeNil)
		So(SetLevelString(" error "), ShouldBeNil)
		So(SetLevelString(""), ShouldBeNil)

		err := SetLevelString("loud")
		So(err, ShouldNotBeNil)
		So(strings.Contains(err.Error(), "unknown log level"), ShouldBeTrue)
	})
}

func TestDiscard(t *testing.T) {
	Convey("Given the discard logger", t, func() {
		l := Discard()
		So(func() { l.Error(context.Background(), "dropped", Error(context.Canceled)) }, ShouldNotPanic)
		So(GetOr(l), ShouldNotBeNil)
	})
}
