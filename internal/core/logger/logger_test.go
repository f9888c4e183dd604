package logger

import (
	"bytes"
	"encoding/json"
	stdlog "log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l, cleanup := New(Options{Level: "info", JSON: true, Output: &buf})
	defer cleanup()

	l.Debug("hidden")
	l.Info("hello", zap.String("k", "v"))
	require.NoError(t, l.Sync())

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "v", line["k"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNewBadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l, cleanup := New(Options{Level: "nope", JSON: true, Output: &buf})
	defer cleanup()

	l.Debug("d")
	l.Info("i")
	assert.NotContains(t, buf.String(), `"d"`)
	assert.Contains(t, buf.String(), `"i"`)
}

func TestToWriter(t *testing.T) {
	var buf bytes.Buffer
	l, cleanup := New(Options{Level: "debug", JSON: true, Output: &buf})
	defer cleanup()

	w := stdlog.New(ToWriter(l, zapcore.WarnLevel), "", 0)
	w.Println("slow sql")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "slow sql", line["msg"])
	assert.Equal(t, "warn", line["level"])
}
