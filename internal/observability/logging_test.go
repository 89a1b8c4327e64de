package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/petheaven/internal/config"
)

func TestNewLogger_JSON(t *testing.T) {
	logger, err := NewLogger(config.LoggingConfig{Level: "info", Format: "json"}, "petheaven")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewLogger_Console(t *testing.T) {
	logger, err := NewLogger(config.LoggingConfig{Level: "debug", Format: "console"}, "")
	require.NoError(t, err)
	assert.True(t, Enabled(logger, zapcore.DebugLevel))
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger(config.LoggingConfig{Level: "trace", Format: "json"}, "petheaven")
	assert.Error(t, err)
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	_, err := NewLogger(config.LoggingConfig{Level: "info", Format: "xml"}, "petheaven")
	assert.Error(t, err)
}

func TestNewLogger_LevelGates(t *testing.T) {
	for _, tc := range []struct {
		level   string
		debug   bool
		warnOut bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, true},
		{"error", false, false},
	} {
		logger, err := NewLogger(config.LoggingConfig{Level: tc.level, Format: "json"}, "petheaven")
		require.NoError(t, err, "level %q should be valid", tc.level)
		assert.Equal(t, tc.debug, Enabled(logger, zapcore.DebugLevel), tc.level)
		assert.Equal(t, tc.warnOut, Enabled(logger, zapcore.WarnLevel), tc.level)
	}
}
