package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"DEBUG", zerolog.DebugLevel},
		{" warn ", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestInit_JSON(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	logger := Init(Config{Format: "json", Level: "debug", Component: "pipeline", Output: &buf})
	logger, runID := WithRun(logger, "")
	require.NotEmpty(t, runID)

	logger.Debug().Str("entity", "a.js").Msg("processed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "pipeline", entry["component"])
	assert.Equal(t, runID, entry["run_id"])
	assert.Equal(t, "a.js", entry["entity"])
	assert.Equal(t, "debug", entry["level"])
}

func TestInit_AutoOnBufferIsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := Init(Config{Output: &buf})
	logger.Info().Msg("hello")

	assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestWithRun_KeepsGivenID(t *testing.T) {
	_, id := WithRun(zerolog.Nop(), "run-1")
	assert.Equal(t, "run-1", id)
}

func TestInit_InstallsPackageLogger(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Format: "json", Component: "global", Output: &buf})

	log.Info().Msg("via package logger")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "global", entry["component"])
	assert.Equal(t, "via package logger", entry["message"])
}
