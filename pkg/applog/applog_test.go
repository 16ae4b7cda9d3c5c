package applog

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewBuildsANonNilLogger(t *testing.T) {
	log, err := New(false)
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestNewProductionLoggerDisablesDebugLevel(t *testing.T) {
	log, err := New(false)
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestNewDebugLoggerEnablesDebugLevel(t *testing.T) {
	log, err := New(true)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestDebugEnabledReadsEnvVar(t *testing.T) {
	os.Unsetenv("TERMWM_DEBUG")
	assert.False(t, DebugEnabled())

	t.Setenv("TERMWM_DEBUG", "1")
	assert.True(t, DebugEnabled())
}
