package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesAndKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
engine: javascript
timeout: 5s
module: interp/cws.wasm
log_level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, EngineJavaScript, cfg.Engine)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "interp", "cws.wasm"), cfg.Module)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, DefaultEntry, cfg.Entry)
	assert.Equal(t, DefaultListen, cfg.Listen)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
}

func TestLoadReadsEveryKey(t *testing.T) {
	path := writeConfig(t, `
entry: eval
memory: 64MB
cache_dir: /var/cache/cws
no_cache: true
base_url: https://play.example/
listen: :9000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "eval", cfg.Entry)
	assert.Equal(t, "64MB", cfg.Memory)
	assert.Equal(t, "/var/cache/cws", cfg.CacheDir)
	assert.True(t, cfg.NoCache)
	assert.Equal(t, "https://play.example/", cfg.BaseURL)
	assert.Equal(t, ":9000", cfg.Listen)
}

func TestLoadZeroTimeoutDisables(t *testing.T) {
	cfg, err := Load(writeConfig(t, "timeout: 0s\n"))
	require.NoError(t, err)
	assert.Zero(t, cfg.Timeout)
}

func TestLoadAbsoluteModuleUnchanged(t *testing.T) {
	cfg, err := Load(writeConfig(t, "module: /opt/cws.wasm\n"))
	require.NoError(t, err)
	assert.Equal(t, "/opt/cws.wasm", cfg.Module)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "engine: [unterminated\n"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	_, err := Load(writeConfig(t, "log_level: loud\nmemory: lots\ntimeout: -1s\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "memory")
	assert.Contains(t, err.Error(), "timeout")
}

func TestParseMemory(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{"64MB", 64 << 20},
		{"1gb", 1 << 30},
		{"512KB", 512 << 10},
		{"4096", 4096},
	}
	for _, tt := range tests {
		got, err := ParseMemory(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "MB", "0MB", "lots", "64M", "64MiB", "1.5GB", "-1MB", "20000000000GB"} {
		_, err := ParseMemory(bad)
		assert.Error(t, err, bad)
	}
}

func TestValidateRejectsUnitTypos(t *testing.T) {
	cfg := Default()
	cfg.Memory = "64M"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "64M")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.LogLevel = "warn"

	log, err := cfg.NewLogger(&buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())

	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
