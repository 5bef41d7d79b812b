package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New(), "", []string{t.TempDir()})
	require.NoError(t, err)

	assert.Zero(t, cfg.Workers)
	assert.False(t, cfg.Strict)
	assert.False(t, cfg.RemovePartial)
	assert.False(t, cfg.NoProgress)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Zero(t, cfg.DecoderMemoryLimit)
}

func TestLoadSearchPath(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "qgenie.yaml", "workers: 3\nstrict: true\n")

	cfg, err := load(viper.New(), "", []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)
	assert.True(t, cfg.Strict)
}

func TestLoadExplicitFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "custom.yaml", `
workers: 8
remove_partial: true
max_decoder_memory: 64MiB
log_level: debug
log_format: json
no_progress: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Workers)
	assert.True(t, cfg.RemovePartial)
	assert.Equal(t, uint64(64<<20), cfg.DecoderMemoryLimit)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.NoProgress)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "qgenie.yaml", "workers: 2\nlog_level: info\n")
	t.Setenv("QGENIE_WORKERS", "6")
	t.Setenv("QGENIE_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Workers)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "negative workers", content: "workers: -1\n", wantErr: "invalid workers"},
		{name: "bad level", content: "log_level: loud\n", wantErr: "invalid log level"},
		{name: "bad format", content: "log_format: xml\n", wantErr: "invalid log format"},
		{name: "bad memory", content: "max_decoder_memory: lots\n", wantErr: "invalid max decoder memory"},
		{name: "bad yaml", content: "workers: [\n", wantErr: "failed to read config file"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), "qgenie.yaml", tc.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
