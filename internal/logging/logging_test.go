package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestNewWritesJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(&buf, Config{Level: "info"})
	logger.Info().Str("room", "general").Msg("quote added")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "general", entry["room"])
	assert.Equal(t, "quote added", entry["message"])
}

func TestNewRespectsLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(&buf, Config{Level: "error"})
	logger.Info().Msg("hidden")
	assert.Zero(t, buf.Len())
}

func TestLChainsLevelMethods(t *testing.T) {
	t.Parallel()
	require.NotNil(t, L())
	assert.Same(t, L(), L())
	sub := L().With().Str("component", "test").Logger()
	sub.Debug().Msg("chained")
	L().Debug().Msg("chained")
}
