package vmconfig_test

import (
	"testing"

	"github.com/mna/loxvm/internal/vmconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := vmconfig.Load()
	require.NoError(t, err)
	assert.False(t, cfg.StressGC)
	assert.Equal(t, int64(0), cfg.MaxSteps)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LOXVM_STRESS_GC", "true")
	t.Setenv("LOXVM_MAX_STEPS", "1000")
	t.Setenv("LOXVM_LOG_LEVEL", "debug")

	cfg, err := vmconfig.Load()
	require.NoError(t, err)
	assert.True(t, cfg.StressGC)
	assert.Equal(t, int64(1000), cfg.MaxSteps)
	assert.Equal(t, "debug", cfg.LogLevel)
}
