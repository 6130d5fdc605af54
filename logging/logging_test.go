package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	for level, want := range map[string]zapcore.Level{
		"":      zapcore.InfoLevel,
		"debug": zapcore.DebugLevel,
		"warn":  zapcore.WarnLevel,
	} {
		logger, err := New(level)
		require.NoError(t, err, "level %q", level)
		assert.True(t, logger.Core().Enabled(want), "level %q should enable %v", level, want)
		assert.False(t, logger.Core().Enabled(want-1), "level %q should not enable %v", level, want-1)
	}

	_, err := New("loud")
	assert.Error(t, err)
}
