package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/leslieo2/go-proxy-select/internal/constants"
)

// LoadConfig loads configuration with precedence:
// 1. Explicitly changed CLI flags (highest priority)
// 2. Environment variables (optionally seeded from a .env file)
// 3. Configuration file values
// 4. Default configuration values (lowest priority)
func LoadConfig(configFile string, cliFlags *CLIFlags) (*Config, error) {
	config := DefaultConfig()

	if configFile != "" {
		if err := loadFromFile(configFile, config); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		if config.Properties == nil {
			config.Properties = Properties{}
		}
	}

	if cliFlags != nil && cliFlags.EnvFile != nil && *cliFlags.EnvFile != "" {
		// godotenv.Load never overrides variables that are already set
		if err := godotenv.Load(*cliFlags.EnvFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", *cliFlags.EnvFile, err)
		}
	}
	loadFromEnv(config)

	if cliFlags != nil {
		if err := overrideWithCLI(config, cliFlags); err != nil {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// CLIFlags contains CLI flag values that can override configuration.
// A value only applies when the flag was explicitly set on FlagSet.
type CLIFlags struct {
	FlagSet *pflag.FlagSet

	EnvFile           *string
	Host              *string
	Port              *string
	MetricsPort       *string
	LogLevel          *string
	LogFormat         *string
	HotReload         *bool
	HotReloadDebounce *time.Duration
	Browser           *bool
	ProfileRoot       *string
	PACFetchTimeout   *time.Duration
	Properties        *[]string
}

func (f *CLIFlags) changed(name string) bool {
	if f.FlagSet == nil {
		return false
	}
	flag := f.FlagSet.Lookup(name)
	return flag != nil && flag.Changed
}

// loadFromFile decodes a YAML or JSON file over config. Keys absent from
// the file keep their current values.
func loadFromFile(filePath string, config *Config) error {
	if !filepath.IsAbs(filePath) {
		absPath, err := filepath.Abs(filePath)
		if err != nil {
			return fmt.Errorf("failed to get absolute path for %s: %w", filePath, err)
		}
		filePath = absPath
	}

	data, err := os.ReadFile(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	ext := filepath.Ext(filePath)
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	case ".json":
		err = json.Unmarshal(data, config)
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv(config *Config) {
	if val := os.Getenv(constants.EnvHost); val != "" {
		config.Server.Host = val
	}
	if val := os.Getenv(constants.EnvPort); val != "" {
		config.Server.Port = val
	}
	if val := os.Getenv(constants.EnvMetricsPort); val != "" {
		config.Server.MetricsPort = val
	}
	if val := os.Getenv(constants.EnvShutdownTimeout); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.Server.ShutdownTimeout = duration
		}
	}
	if val := os.Getenv(constants.EnvLogLevel); val != "" {
		config.Observability.Logging.Level = val
	}
	if val := os.Getenv(constants.EnvLogFormat); val != "" {
		config.Observability.Logging.Format = val
	}
	if val := os.Getenv(constants.EnvHotReload); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			config.HotReload.Enabled = enabled
		}
	}
	if val := os.Getenv(constants.EnvHotReloadDebounce); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.HotReload.Debounce = duration
		}
	}
	if val := os.Getenv(constants.EnvPACFetchTimeout); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.PAC.FetchTimeout = duration
		}
	}
	if val := os.Getenv(constants.EnvPACCacheTTL); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.PAC.CacheTTL = duration
		}
	}
	if val := os.Getenv(constants.EnvBrowserEnabled); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			config.Browser.Enabled = enabled
		}
	}
	if val := os.Getenv(constants.EnvBrowserRoot); val != "" {
		config.Browser.ProfileRoot = val
	}

	for _, kv := range os.Environ() {
		name, val, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, constants.EnvPropertyPrefix) {
			continue
		}
		key := propertyKeyFromEnv(strings.TrimPrefix(name, constants.EnvPropertyPrefix))
		if key != "" {
			config.Properties[key] = val
		}
	}
}

// propertyKeyFromEnv maps DEPLOYMENT_PROXY_HTTP_HOST to deployment.proxy.http.host
func propertyKeyFromEnv(suffix string) string {
	return strings.ToLower(strings.ReplaceAll(suffix, "_", "."))
}

// overrideWithCLI overrides configuration with explicitly set CLI flags
func overrideWithCLI(config *Config, flags *CLIFlags) error {
	if flags.Host != nil && flags.changed("host") {
		config.Server.Host = *flags.Host
	}
	if flags.Port != nil && flags.changed("port") {
		config.Server.Port = *flags.Port
	}
	if flags.MetricsPort != nil && flags.changed("metrics-port") {
		config.Server.MetricsPort = *flags.MetricsPort
	}
	if flags.LogLevel != nil && flags.changed("log-level") {
		config.Observability.Logging.Level = *flags.LogLevel
	}
	if flags.LogFormat != nil && flags.changed("log-format") {
		config.Observability.Logging.Format = *flags.LogFormat
	}
	if flags.HotReload != nil && flags.changed("hot-reload") {
		config.HotReload.Enabled = *flags.HotReload
	}
	if flags.HotReloadDebounce != nil && flags.changed("hot-reload-debounce") {
		config.HotReload.Debounce = *flags.HotReloadDebounce
	}
	if flags.Browser != nil && flags.changed("browser") {
		config.Browser.Enabled = *flags.Browser
	}
	if flags.ProfileRoot != nil && flags.changed("profile-root") {
		config.Browser.ProfileRoot = *flags.ProfileRoot
	}
	if flags.PACFetchTimeout != nil && flags.changed("pac-fetch-timeout") {
		config.PAC.FetchTimeout = *flags.PACFetchTimeout
	}
	if flags.Properties != nil && flags.changed("property") {
		for _, kv := range *flags.Properties {
			key, val, ok := strings.Cut(kv, "=")
			if !ok || strings.TrimSpace(key) == "" {
				return fmt.Errorf("invalid --property %q: expected key=value", kv)
			}
			config.Properties[strings.TrimSpace(key)] = val
		}
	}
	return nil
}
