package flagtypes

import (
	"testing"

	"github.com/iver-wharf/wharf-core/v2/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevelSet(t *testing.T) {
	tests := []struct {
		value string
		want  logger.Level
	}{
		{value: "debug", want: logger.LevelDebug},
		{value: "d", want: logger.LevelDebug},
		{value: "5", want: logger.LevelDebug},
		{value: "INFO", want: logger.LevelInfo},
		{value: "warn", want: logger.LevelWarn},
		{value: "error", want: logger.LevelError},
		{value: "panic", want: logger.LevelPanic},
	}
	for _, tc := range tests {
		t.Run(tc.value, func(t *testing.T) {
			var lvl LogLevel
			require.NoError(t, lvl.Set(tc.value))
			assert.Equal(t, tc.want, lvl.Level())
		})
	}
}

func TestLogLevelSetInvalid(t *testing.T) {
	var lvl LogLevel
	assert.Error(t, lvl.Set("banana"))
}

func TestLogLevelFlagRoundTrip(t *testing.T) {
	// A parent's level must survive being forwarded to a child process's
	// --loglevel flag.
	levels := []logger.Level{
		logger.LevelDebug,
		logger.LevelInfo,
		logger.LevelWarn,
		logger.LevelError,
		logger.LevelPanic,
	}
	for _, level := range levels {
		t.Run(level.String(), func(t *testing.T) {
			parent := LogLevel(level)
			var child LogLevel
			require.NoError(t, child.Set(parent.Flag()))
			assert.Equal(t, parent.Level(), child.Level())
		})
	}
}
