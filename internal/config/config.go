package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Version is the server release, overridden at link time with
// -ldflags "-X github.com/heroku/heroku-mcp-server/internal/config.Version=...".
var Version = "1.0.0-dev"

// Configuration keys.
const (
	KeyRequestTimeout       = "request_timeout"
	KeyRestartDelay         = "restart_delay"
	KeyLogLevel             = "log.level"
	KeyMetricsAddr          = "metrics.addr"
	KeyDevCenterEnabled     = "dev_center.enabled"
	KeyDevCenterCacheFile   = "dev_center.cache_file"
	KeyDevCenterResourceURI = "dev_center.resource_uri"
	KeyDevCenterRootURL     = "dev_center.root_url"
)

// Defaults.
const (
	DefaultRequestTimeoutMs     = 15000
	DefaultRestartDelayMs       = 1000
	DefaultLogLevel             = "info"
	DefaultDevCenterCacheFile   = "/tmp/llms.txt"
	DefaultDevCenterResourceURI = "file:///tmp/llms.txt"
	DefaultDevCenterRootURL     = "https://devcenter.heroku.com/"
	defaultDevCenterEnabled     = false
	defaultMetricsAddr          = ""
	immediateRestart            = -time.Millisecond
)

// envBindings maps keys to the environment variables the server has always
// honoured. They are bound explicitly rather than through a prefix because
// the names predate this binary.
var envBindings = map[string]string{
	KeyRequestTimeout:       "MCP_SERVER_REQUEST_TIMEOUT",
	KeyRestartDelay:         "HEROKU_MCP_RESTART_DELAY",
	KeyLogLevel:             "HEROKU_MCP_LOG_LEVEL",
	KeyMetricsAddr:          "HEROKU_MCP_METRICS_ADDR",
	KeyDevCenterEnabled:     "HEROKU_MCP_DEV_CENTER",
	KeyDevCenterCacheFile:   "DEV_CENTER_CACHE_FILE",
	KeyDevCenterResourceURI: "DEV_CENTER_RESOURCE_URI",
	KeyDevCenterRootURL:     "DEV_CENTER_ROOT_URL",
}

// Config is the resolved server configuration.
type Config struct {
	// RequestTimeout is the REPL command inactivity deadline.
	RequestTimeout time.Duration

	// RestartDelay is the pause before relaunching the CLI after a clean
	// exit. A negative value relaunches immediately.
	RestartDelay time.Duration

	LogLevel    string
	MetricsAddr string
	DevCenter   DevCenterConfig
}

// DevCenterConfig configures the documentation crawler and resource.
type DevCenterConfig struct {
	Enabled     bool
	CacheFile   string
	ResourceURI string
	RootURL     string
}

// ValidLogLevels returns the accepted log.level values.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// New returns a viper instance with defaults and environment bindings
// registered. Flags and a config file may be layered on by the caller.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyRequestTimeout, DefaultRequestTimeoutMs)
	v.SetDefault(KeyRestartDelay, DefaultRestartDelayMs)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyMetricsAddr, defaultMetricsAddr)
	v.SetDefault(KeyDevCenterEnabled, defaultDevCenterEnabled)
	v.SetDefault(KeyDevCenterCacheFile, DefaultDevCenterCacheFile)
	v.SetDefault(KeyDevCenterResourceURI, DefaultDevCenterResourceURI)
	v.SetDefault(KeyDevCenterRootURL, DefaultDevCenterRootURL)

	for key, env := range envBindings {
		_ = v.BindEnv(key, env) //nolint:errcheck // only fails without a key
	}

	return v
}

// ReadFile layers a config file onto v. The format follows the extension.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}

	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	return nil
}

// Load resolves v into a Config and validates it.
//
// Numeric durations are parsed leniently: values that are not numbers or
// not positive fall back to their defaults, matching how the environment
// variables were always treated.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		RequestTimeout: millis(v.Get(KeyRequestTimeout), DefaultRequestTimeoutMs),
		RestartDelay:   restartDelay(v.Get(KeyRestartDelay)),
		LogLevel:       strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
		MetricsAddr:    strings.TrimSpace(v.GetString(KeyMetricsAddr)),
		DevCenter: DevCenterConfig{
			Enabled:     cast.ToBool(v.Get(KeyDevCenterEnabled)),
			CacheFile:   v.GetString(KeyDevCenterCacheFile),
			ResourceURI: v.GetString(KeyDevCenterResourceURI),
			RootURL:     v.GetString(KeyDevCenterRootURL),
		},
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return cfg, nil
}

// Validate checks the Config and returns every problem found.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if !slices.Contains(ValidLogLevels(), c.LogLevel) {
		errs = append(errs, ValidationError{
			Field:   KeyLogLevel,
			Value:   c.LogLevel,
			Message: "must be one of " + strings.Join(ValidLogLevels(), ", "),
		})
	}

	if c.DevCenter.Enabled {
		if c.DevCenter.CacheFile == "" {
			errs = append(errs, ValidationError{
				Field:   KeyDevCenterCacheFile,
				Value:   c.DevCenter.CacheFile,
				Message: "required when the Dev Center resource is enabled",
			})
		}

		if c.DevCenter.ResourceURI == "" {
			errs = append(errs, ValidationError{
				Field:   KeyDevCenterResourceURI,
				Value:   c.DevCenter.ResourceURI,
				Message: "required when the Dev Center resource is enabled",
			})
		}
	}

	return errs
}

// parseMillis reads a millisecond count in base 10. Strings are trimmed so
// "015000" and " 3000 " mean what they say.
func parseMillis(raw any) (int64, error) {
	if str, ok := raw.(string); ok {
		return strconv.ParseInt(strings.TrimSpace(str), 10, 64)
	}

	return cast.ToInt64E(raw)
}

func millis(raw any, fallback int64) time.Duration {
	ms, err := parseMillis(raw)
	if err != nil || ms <= 0 {
		ms = fallback
	}

	return time.Duration(ms) * time.Millisecond
}

// restartDelay keeps zero meaningful: it relaunches at once.
func restartDelay(raw any) time.Duration {
	ms, err := parseMillis(raw)
	if err != nil || ms < 0 {
		return DefaultRestartDelayMs * time.Millisecond
	}

	if ms == 0 {
		return immediateRestart
	}

	return time.Duration(ms) * time.Millisecond
}
