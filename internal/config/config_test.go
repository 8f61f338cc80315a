package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ZAPMANAGER_DATABASE__URL", "postgres://localhost:5432/zapmanager")
	t.Setenv("ZAPMANAGER_JWT__SECRET_KEY", testSecret)
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.MetricsPort)
	assert.Equal(t, "America/Sao_Paulo", cfg.Lifecycle.Timezone)
	assert.Equal(t, 24*time.Hour, cfg.Lifecycle.GraceWindow)
	assert.True(t, cfg.Lifecycle.SuspendOnBlock)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, time.Hour, cfg.Scheduler.Interval)
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ZAPMANAGER_DATABASE__MAX_OPEN_CONNS", "25")
	t.Setenv("ZAPMANAGER_LOG__LEVEL", "debug")
	t.Setenv("ZAPMANAGER_LIFECYCLE__GRACE_WINDOW", "48h")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 48*time.Hour, cfg.Lifecycle.GraceWindow)
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ZAPMANAGER_SERVER__PORT", "9999")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"8081\"\nlog:\n  level: warn\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	// Environment wins over the file; file wins over defaults.
	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_MissingRequiredFails(t *testing.T) {
	t.Setenv("ZAPMANAGER_JWT__SECRET_KEY", testSecret)

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_ShortSecretFails(t *testing.T) {
	t.Setenv("ZAPMANAGER_DATABASE__URL", "postgres://localhost:5432/zapmanager")
	t.Setenv("ZAPMANAGER_JWT__SECRET_KEY", "tooshort")

	_, err := Load("")
	assert.Error(t, err)
}
