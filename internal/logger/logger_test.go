package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"local", "dev", "prod"} {
		l, err := NewLogger(env)
		require.NoError(t, err, env)
		assert.NotNil(t, l)
	}

	l, err := NewLogger("prod", "debug")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = NewLogger("local", "warn")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
}

func TestNewLoggerErrors(t *testing.T) {
	_, err := NewLogger("staging")
	assert.Error(t, err)

	_, err = NewLogger("local", "loud")
	assert.ErrorContains(t, err, `invalid log level "loud"`)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l, err := NewLogger("dev")
	require.NoError(t, err)
	assert.Same(t, l, OrNop(l))
}
