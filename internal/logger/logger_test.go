package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel(" DEBUG "))
	require.Equal(t, slog.LevelWarn, parseLevel("warn"))
	require.Equal(t, slog.LevelError, parseLevel("error"))
	require.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestJSONFormatCarriesService(t *testing.T) {
	var buf bytes.Buffer
	log := newWith(&buf, "api", "info", "json")
	log.Debug("hidden")
	log.Info("refresh finished", slog.Int("stored", 3))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "api", line["service"])
	require.Equal(t, "refresh finished", line["msg"])
	require.EqualValues(t, 3, line["stored"])
}
