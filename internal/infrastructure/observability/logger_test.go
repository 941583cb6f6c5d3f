package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreLogger(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	})
}

func TestInitLogger_LevelAndServiceFields(t *testing.T) {
	restoreLogger(t)
	var buf bytes.Buffer
	initLogger(&buf, "artisan-discovery", "production", "warn")

	ctx := WithRequestID(context.Background(), "req-42")
	LoggerFromContext(ctx).Info().Msg("dropped")
	LoggerFromContext(ctx).Warn().Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "artisan-discovery", entry["service"])
	assert.Equal(t, "production", entry["env"])
	assert.Equal(t, "req-42", entry["request_id"])
	assert.NotContains(t, entry, "trace_id")
}

func TestInitLogger_BadLevelFallsBackToInfo(t *testing.T) {
	restoreLogger(t)
	var buf bytes.Buffer
	initLogger(&buf, "svc", "production", "loud")

	GetLogger().Debug().Msg("hidden")
	assert.Zero(t, buf.Len())
	GetLogger().Info().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestRequestIDFromContext_Empty(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))
}
