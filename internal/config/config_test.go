package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New())
	require.NoError(t, err)

	require.Equal(t, 15*time.Second, cfg.RequestTimeout)
	require.Equal(t, time.Second, cfg.RestartDelay)
	require.Equal(t, "info", cfg.LogLevel)
	require.Empty(t, cfg.MetricsAddr)
	require.False(t, cfg.DevCenter.Enabled)
	require.Equal(t, "/tmp/llms.txt", cfg.DevCenter.CacheFile)
	require.Equal(t, "file:///tmp/llms.txt", cfg.DevCenter.ResourceURI)
	require.Equal(t, "https://devcenter.heroku.com/", cfg.DevCenter.RootURL)
}

func TestLoad_RequestTimeoutFromEnvironment(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "milliseconds", value: "30000", want: 30 * time.Second},
		{name: "not a number", value: "soon", want: 15 * time.Second},
		{name: "zero", value: "0", want: 15 * time.Second},
		{name: "negative", value: "-5", want: 15 * time.Second},
		{name: "leading zeros are decimal", value: "015000", want: 15 * time.Second},
		{name: "surrounding whitespace", value: " 3000 ", want: 3 * time.Second},
		{name: "hex is not a number", value: "0x10", want: 15 * time.Second},
		{name: "fraction", value: "1500.5", want: 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MCP_SERVER_REQUEST_TIMEOUT", tt.value)

			cfg, err := Load(New())
			require.NoError(t, err)
			require.Equal(t, tt.want, cfg.RequestTimeout)
		})
	}
}

func TestLoad_RestartDelay(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "custom", value: "250", want: 250 * time.Millisecond},
		{name: "zero relaunches at once", value: "0", want: -time.Millisecond},
		{name: "invalid", value: "later", want: time.Second},
		{name: "negative", value: "-1", want: time.Second},
		{name: "leading zeros are decimal", value: "0250", want: 250 * time.Millisecond},
		{name: "surrounding whitespace", value: " 0 ", want: -time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HEROKU_MCP_RESTART_DELAY", tt.value)

			cfg, err := Load(New())
			require.NoError(t, err)
			require.Equal(t, tt.want, cfg.RestartDelay)
		})
	}
}

func TestLoad_DevCenterFromEnvironment(t *testing.T) {
	t.Setenv("HEROKU_MCP_DEV_CENTER", "true")
	t.Setenv("DEV_CENTER_CACHE_FILE", "/var/cache/devcenter.txt")
	t.Setenv("DEV_CENTER_RESOURCE_URI", "file:///var/cache/devcenter.txt")

	cfg, err := Load(New())
	require.NoError(t, err)

	require.True(t, cfg.DevCenter.Enabled)
	require.Equal(t, "/var/cache/devcenter.txt", cfg.DevCenter.CacheFile)
	require.Equal(t, "file:///var/cache/devcenter.txt", cfg.DevCenter.ResourceURI)
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv("HEROKU_MCP_LOG_LEVEL", "verbose")

	_, err := Load(New())
	require.Error(t, err)

	var verrs ValidationErrors

	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 1)
	require.Equal(t, KeyLogLevel, verrs[0].Field)
}

func TestLoad_LogLevelIsCaseInsensitive(t *testing.T) {
	t.Setenv("HEROKU_MCP_LOG_LEVEL", " DEBUG ")

	cfg, err := Load(New())
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heroku-mcp.yaml")

	err := os.WriteFile(path, []byte(`
request_timeout: 5000
log:
  level: warn
metrics:
  addr: 127.0.0.1:9464
dev_center:
  enabled: true
`), 0o600)
	require.NoError(t, err)

	v := New()
	require.NoError(t, ReadFile(v, path))

	cfg, err := Load(v)
	require.NoError(t, err)

	require.Equal(t, 5*time.Second, cfg.RequestTimeout)
	require.Equal(t, "warn", cfg.LogLevel)
	require.Equal(t, "127.0.0.1:9464", cfg.MetricsAddr)
	require.True(t, cfg.DevCenter.Enabled)
}

func TestReadFile_EnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heroku-mcp.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"request_timeout": 5000}`), 0o600))

	t.Setenv("MCP_SERVER_REQUEST_TIMEOUT", "7000")

	v := New()
	require.NoError(t, ReadFile(v, path))

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, 7*time.Second, cfg.RequestTimeout)
}

func TestReadFile_Missing(t *testing.T) {
	err := ReadFile(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "read config file")

	require.NoError(t, ReadFile(New(), ""))
}

func TestValidate_DevCenterRequiresPaths(t *testing.T) {
	cfg := &Config{
		LogLevel:  "info",
		DevCenter: DevCenterConfig{Enabled: true},
	}

	errs := cfg.Validate()
	require.Len(t, errs, 2)
	require.Contains(t, ValidationErrors(errs).Error(), "2 validation errors:")
}

func TestLoad_RequestTimeoutFromConfigNumber(t *testing.T) {
	v := New()
	v.Set(KeyRequestTimeout, 4000)

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, 4*time.Second, cfg.RequestTimeout)
}
