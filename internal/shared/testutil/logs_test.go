package testutil

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogCapture(t *testing.T) {
	logger, capture := NewTestLogger(t)

	logger.Info("dataset loaded", slog.Int("rows", 20))
	logger.With(slog.String("component", "api")).Warn("slow request")
	logger.WithGroup("http").Error("request failed", slog.Int("status", 500))

	assert.Equal(t, 3, capture.Len())
	assert.True(t, capture.HasMessage("loaded"))
	assert.True(t, capture.HasAttr("rows", int64(20)))
	assert.True(t, capture.HasAttr("component", "api"))
	assert.True(t, capture.HasAttr("http.status", int64(500)))
	require.Len(t, capture.RecordsAt(slog.LevelWarn), 1)
	AssertLogged(t, capture, slog.LevelError, "request failed")

	capture.Reset()
	assert.Equal(t, 0, capture.Len())
	AssertNoErrorLogs(t, capture)
}

func TestSampleGold(t *testing.T) {
	g := SampleGold()
	require.Len(t, g.Rows, 20)
	for _, row := range g.Rows {
		assert.Len(t, row, len(g.Columns))
	}

	csv := g.CSV()
	assert.True(t, strings.HasPrefix(csv, "\ufeffArrondissement;"))
	assert.Equal(t, 21, strings.Count(csv, "\n"))
}
