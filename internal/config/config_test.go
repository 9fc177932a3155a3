package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"ENVIRONMENT", "PORT", "TABLE_PREFIX", "DEBUG", "AUTO_MIGRATE", "LOG_MAX_FILES", "S3_BUCKET"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "dev_", cfg.TablePrefix)
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, 10, cfg.LogMaxFiles)
	assert.Equal(t, "droply", cfg.S3Bucket)
}

func TestLoad_Environment(t *testing.T) {
	tests := []struct {
		env        string
		override   string
		wantPrefix string
		wantDebug  bool
	}{
		{env: "prod", wantPrefix: "prod_", wantDebug: false},
		{env: "test", wantPrefix: "test_", wantDebug: true},
		{env: "staging", wantPrefix: "dev_", wantDebug: true},
		{env: "prod", override: "custom_", wantPrefix: "custom_", wantDebug: false},
	}

	for _, tt := range tests {
		t.Run(tt.env+tt.override, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", tt.env)
			t.Setenv("TABLE_PREFIX", tt.override)
			t.Setenv("DEBUG", "")

			cfg := Load()

			assert.Equal(t, tt.wantPrefix, cfg.TablePrefix)
			assert.Equal(t, tt.wantDebug, cfg.Debug)
		})
	}
}

func TestGetEnvInt_FallsBackOnBadValues(t *testing.T) {
	t.Setenv("LOG_MAX_FILES", "abc")
	assert.Equal(t, 10, Load().LogMaxFiles)

	t.Setenv("LOG_MAX_FILES", "-3")
	assert.Equal(t, 10, Load().LogMaxFiles)

	t.Setenv("LOG_MAX_FILES", "3")
	assert.Equal(t, 3, Load().LogMaxFiles)
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"droply-2024-01-01T00-00-00.log",
		"droply-2024-01-02T00-00-00.log",
		"droply-2024-01-03T00-00-00.log",
		"other.log",
	}
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	require.NoError(t, cleanupOldLogs(dir, 2))

	remaining, err := filepath.Glob(filepath.Join(dir, "*.log"))
	require.NoError(t, err)
	var base []string
	for _, f := range remaining {
		base = append(base, filepath.Base(f))
	}
	assert.ElementsMatch(t, []string{
		"droply-2024-01-02T00-00-00.log",
		"droply-2024-01-03T00-00-00.log",
		"other.log",
	}, base)
}

func TestNewLogger_WritesToLogDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	logger, closer, err := NewLogger(&Config{Environment: "prod", LogDir: dir, LogMaxFiles: 5})
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, closer.Close())

	files, err := filepath.Glob(filepath.Join(dir, "droply-*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
