package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "LOG_LEVEL", "PROGRAM_CACHE_TTL", "MAX_PARALLEL_REPLAYS", "PROBE_RPS"} {
		t.Setenv(envPrefix+k, "")
	}
	cfg := FromEnv()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 6*time.Hour, cfg.ProgramCacheTTL)
	assert.Equal(t, 4, cfg.MaxParallelReplays)
	assert.Zero(t, cfg.ProbeRPS)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("YTRESOLVE_PORT", "9090")
	t.Setenv("YTRESOLVE_PROGRAM_CACHE_TTL", "15m")
	t.Setenv("YTRESOLVE_REQUEST_TIMEOUT", "5")
	t.Setenv("YTRESOLVE_MAX_PARALLEL_REPLAYS", "not-a-number")
	t.Setenv("YTRESOLVE_PROBE_RPS", "2.5")

	cfg := FromEnv()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.ProgramCacheTTL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 4, cfg.MaxParallelReplays)
	assert.InDelta(t, 2.5, cfg.ProbeRPS, 1e-9)
}

func TestLoad_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("YTRESOLVE_LOG_FORMAT=text\n"), 0o600))
	t.Setenv("YTRESOLVE_LOG_FORMAT", "")
	require.NoError(t, os.Unsetenv("YTRESOLVE_LOG_FORMAT"))

	require.NoError(t, Load(path))
	assert.Equal(t, "text", FromEnv().LogFormat)
}

func TestLoad_MissingFile(t *testing.T) {
	assert.Error(t, Load(filepath.Join(t.TempDir(), "missing.env")))
}
