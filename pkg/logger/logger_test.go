package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, lvl zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(lvl)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(zap.NewNop()) })
	return logs
}

func TestInfoCFAttachesComponentAndFields(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	InfoCF("table", "Table created", map[string]interface{}{"id": "7", "columns": 3})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Table created", entry.Message)
	ctx := entry.ContextMap()
	assert.Equal(t, "table", ctx["component"])
	assert.Equal(t, "7", ctx["id"])
	assert.EqualValues(t, 3, ctx["columns"])
}

func TestLevelFiltering(t *testing.T) {
	logs := observe(t, zapcore.WarnLevel)

	DebugC("x", "dropped")
	InfoC("x", "dropped")
	WarnC("x", "kept")
	ErrorCF("x", "kept too", map[string]interface{}{"error": errors.New("boom")})

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "boom", logs.All()[1].ContextMap()["error"])
}

func TestInitRejectsUnknownValues(t *testing.T) {
	assert.Error(t, Init("loud", "console"))
	assert.Error(t, Init("info", "xml"))
	require.NoError(t, Init("debug", "json"))
	t.Cleanup(func() { SetLogger(zap.NewNop()) })
}
