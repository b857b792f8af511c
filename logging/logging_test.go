package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestObservedLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Infow("stage done", "stage", "cost", "cells", 42)
	logger.Debugf("disparity range %d", 48)

	test.That(t, logs.Len(), test.ShouldEqual, 2)
	entries := logs.All()
	test.That(t, entries[0].Message, test.ShouldEqual, "stage done")
	test.That(t, entries[0].ContextMap()["stage"], test.ShouldEqual, "cost")
	test.That(t, entries[0].ContextMap()["cells"], test.ShouldEqual, int64(42))
	test.That(t, entries[1].Level, test.ShouldEqual, zapcore.DebugLevel)
	test.That(t, entries[1].Message, test.ShouldEqual, "disparity range 48")
	test.That(t, entries[1].Caller.Defined, test.ShouldBeTrue)
	test.That(t, entries[1].Caller.File, test.ShouldEndWith, "logging_test.go")
}

func TestSubloggerLevel(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	sub := logger.Sublogger("stereo")
	sub.SetLevel(WARN)

	sub.Info("hidden")
	sub.Warn("shown")
	logger.Info("parent")

	test.That(t, logs.Len(), test.ShouldEqual, 2)
	test.That(t, logs.All()[0].LoggerName, test.ShouldEqual, "stereo")
	test.That(t, logger.GetLevel(), test.ShouldEqual, DEBUG)

	nested := sub.Sublogger("cost")
	nested.Error("nested")
	test.That(t, logs.All()[2].LoggerName, test.ShouldEqual, "stereo.cost")
}

func TestDebugMode(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.SetLevel(INFO)

	ctx := context.Background()
	logger.CDebug(ctx, "quiet")
	test.That(t, logs.Len(), test.ShouldEqual, 0)

	ctx = EnableDebugMode(ctx, "")
	test.That(t, IsDebugMode(ctx), test.ShouldBeTrue)
	test.That(t, GetName(ctx), test.ShouldHaveLength, 6)
	logger.CDebugw(ctx, "loud", "x", 1)
	test.That(t, logs.Len(), test.ShouldEqual, 1)

	named := EnableDebugMode(context.Background(), "batch")
	test.That(t, GetName(named), test.ShouldEqual, "batch")
}

func TestLevelFromString(t *testing.T) {
	for name, expected := range map[string]Level{
		"debug": DEBUG, "INFO": INFO, "warn": WARN, "Warning": WARN, "error": ERROR,
	} {
		level, err := LevelFromString(name)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, expected)
	}
	_, err := LevelFromString("verbose")
	test.That(t, err, test.ShouldNotBeNil)

	var level Level
	test.That(t, level.UnmarshalJSON([]byte(`"warn"`)), test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, WARN)
	out, err := ERROR.MarshalJSON()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(out), test.ShouldEqual, `"error"`)
}

func TestConsoleAppender(t *testing.T) {
	var buf bytes.Buffer
	logger := NewBlankLogger("rig")
	logger.AddAppender(NewWriterAppender(&buf))

	logger.Warnw("odd key count", "lonely")
	line := buf.String()
	test.That(t, line, test.ShouldContainSubstring, "WARN")
	test.That(t, line, test.ShouldContainSubstring, "rig")
	test.That(t, line, test.ShouldContainSubstring, "odd key count")
	test.That(t, line, test.ShouldContainSubstring, "unpaired log key")
	test.That(t, strings.Count(line, "\n"), test.ShouldEqual, 1)
	test.That(t, logger.Sync(), test.ShouldBeNil)
}
