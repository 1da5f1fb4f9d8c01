package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromYAML(t *testing.T) {
	content := `
server:
  port: 9090
storage:
  database_path: custom.db
matching:
  transfer_max_days: 3
  transfer_max_ratio: 0.1
observability:
  logging:
    level: debug
    format: json
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "custom.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 3.0, cfg.Matching.TransferMaxDays)
	assert.Equal(t, 0.1, cfg.Matching.TransferMaxRatio)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)

	// Unset fields keep their defaults.
	assert.Equal(t, 7.0, cfg.Matching.IncomeWindowDays)
	assert.Equal(t, 30.0, cfg.Matching.AllocationWindowDays)
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_SALDO_DB", "from_env.db")

	content := `
storage:
  database_path: ${TEST_SALDO_DB}
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from_env.db", cfg.Storage.DatabasePath)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SALDO_DB_PATH", "env.db")
	t.Setenv("SALDO_PORT", "3999")
	t.Setenv("LOG_LEVEL", "warn")

	cfg := LoadFromEnv()

	assert.Equal(t, "env.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 3999, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Observability.Logging.Level)
	assert.Equal(t, 0.05, cfg.Matching.TransferMaxRatio)
}

func TestLoadOrEnv_FallsBack(t *testing.T) {
	cfg := LoadOrEnvWithPath(filepath.Join(t.TempDir(), "missing.yaml"))

	require.NotNil(t, cfg)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "saldo.db", cfg.Storage.DatabasePath)
}
