package log

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerFiltersByLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core), LevelWarn)

	l.Info("dropped")
	l.Warn("kept", String("system", "collision"), Int("pair", 3))
	l.Error("failed", Error(errors.New("boom")))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "kept", entries[0].Message)
	assert.Equal(t, "collision", entries[0].ContextMap()["system"])
	assert.Equal(t, int64(3), entries[0].ContextMap()["pair"])
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestLoggerWithKeepsLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core), LevelInfo)

	child := l.With(String("car", "blue"))
	child.Debug("hidden")
	child.Info("shown", Float64("speed", 12.5))

	l.SetLevel(LevelDebug)
	child.Debug("now visible")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "blue", logs.All()[0].ContextMap()["car"])
	assert.Equal(t, LevelDebug, child.GetLevel())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel("ERROR"))
	assert.Equal(t, LevelSilent, ParseLevel("off"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	l.Error("nothing happens")
	assert.Equal(t, LevelSilent, l.GetLevel())
}
