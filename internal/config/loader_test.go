package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

// Helper functions for pointers
func stringPtr(s string) *string                 { return &s }
func boolPtr(b bool) *bool                       { return &b }
func durationPtr(d time.Duration) *time.Duration { return &d }

// changedFlags returns a flag set on which the given flags are marked as
// explicitly set.
func changedFlags(t *testing.T, names ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	for _, name := range names {
		fs.String(name, "", "")
		if err := fs.Set(name, "x"); err != nil {
			t.Fatalf("failed to mark flag %s: %v", name, err)
		}
	}
	return fs
}

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name           string
		fileName       string
		fileContent    string
		envVars        map[string]string
		cliFlags       func(t *testing.T) *CLIFlags
		expectedConfig func() *Config
		wantErr        bool
	}{
		{
			name:           "Default Config Only",
			expectedConfig: DefaultConfig,
		},
		{
			name:        "Load from YAML file",
			fileName:    "config.yaml",
			fileContent: "server: {port: \"8081\"}\nproperties:\n  deployment.proxy.type: 1\n  deployment.proxy.http.host: proxy.example\n",
			expectedConfig: func() *Config {
				cfg := DefaultConfig()
				cfg.Server.Port = "8081"
				cfg.Properties = Properties{
					"deployment.proxy.type":      "1",
					"deployment.proxy.http.host": "proxy.example",
				}
				return cfg
			},
		},
		{
			name:        "Load from JSON file",
			fileName:    "config.json",
			fileContent: `{"server": {"port": "8082"}, "properties": {"deployment.proxy.type": 2, "deployment.proxy.same": true}}`,
			expectedConfig: func() *Config {
				cfg := DefaultConfig()
				cfg.Server.Port = "8082"
				cfg.Properties = Properties{
					"deployment.proxy.type": "2",
					"deployment.proxy.same": "true",
				}
				return cfg
			},
		},
		{
			name:        "File omitting booleans keeps defaults",
			fileName:    "config.yaml",
			fileContent: "browser:\n  profile_root: /tmp/ff\n",
			expectedConfig: func() *Config {
				cfg := DefaultConfig()
				cfg.Browser.ProfileRoot = "/tmp/ff"
				return cfg
			},
		},
		{
			name:        "Unsupported extension",
			fileName:    "config.toml",
			fileContent: `port = 1`,
			wantErr:     true,
		},
		{
			name:        "Invalid file content",
			fileName:    "config.yaml",
			fileContent: `server: {port: "8081"`,
			wantErr:     true,
		},
		{
			name:        "Nested property value rejected",
			fileName:    "config.yaml",
			fileContent: "properties:\n  deployment.proxy.type:\n    nested: 1\n",
			wantErr:     true,
		},
		{
			name: "Load from Environment Variables",
			envVars: map[string]string{
				"GO_PROXY_SELECT_PORT":                            "8083",
				"GO_PROXY_SELECT_PROP_DEPLOYMENT_PROXY_HTTP_HOST": "envproxy",
			},
			expectedConfig: func() *Config {
				cfg := DefaultConfig()
				cfg.Server.Port = "8083"
				cfg.Properties["deployment.proxy.http.host"] = "envproxy"
				return cfg
			},
		},
		{
			name: "Override with CLI Flags",
			cliFlags: func(t *testing.T) *CLIFlags {
				return &CLIFlags{
					FlagSet:    changedFlags(t, "port", "property"),
					Port:       stringPtr("8084"),
					Properties: &[]string{"deployment.proxy.type=0"},
				}
			},
			expectedConfig: func() *Config {
				cfg := DefaultConfig()
				cfg.Server.Port = "8084"
				cfg.Properties["deployment.proxy.type"] = "0"
				return cfg
			},
		},
		{
			name: "Unchanged CLI flags are ignored",
			cliFlags: func(t *testing.T) *CLIFlags {
				return &CLIFlags{
					FlagSet: changedFlags(t),
					Port:    stringPtr("9999"),
					Browser: boolPtr(false),
				}
			},
			expectedConfig: DefaultConfig,
		},
		{
			name: "Malformed property flag",
			cliFlags: func(t *testing.T) *CLIFlags {
				return &CLIFlags{
					FlagSet:    changedFlags(t, "property"),
					Properties: &[]string{"novalue"},
				}
			},
			wantErr: true,
		},
		{
			name: "Invalid configuration after overrides",
			cliFlags: func(t *testing.T) *CLIFlags {
				return &CLIFlags{
					FlagSet:         changedFlags(t, "pac-fetch-timeout"),
					PACFetchTimeout: durationPtr(0),
				}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			var configFile string
			if tt.fileName != "" {
				configFile = writeConfigFile(t, tt.fileName, tt.fileContent)
			}

			var flags *CLIFlags
			if tt.cliFlags != nil {
				flags = tt.cliFlags(t)
			}

			cfg, err := LoadConfig(configFile, flags)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if want := tt.expectedConfig(); !reflect.DeepEqual(cfg, want) {
				t.Errorf("LoadConfig() = %+v, want %+v", cfg, want)
			}
		})
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadConfig_EnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "GO_PROXY_SELECT_LOG_LEVEL=debug\nGO_PROXY_SELECT_PROP_DEPLOYMENT_PROXY_TYPE=3\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	// godotenv.Load sets process variables; register them for cleanup.
	t.Setenv("GO_PROXY_SELECT_LOG_LEVEL", "")
	os.Unsetenv("GO_PROXY_SELECT_LOG_LEVEL")
	t.Setenv("GO_PROXY_SELECT_PROP_DEPLOYMENT_PROXY_TYPE", "")
	os.Unsetenv("GO_PROXY_SELECT_PROP_DEPLOYMENT_PROXY_TYPE")

	cfg, err := LoadConfig("", &CLIFlags{EnvFile: stringPtr(envFile)})
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Observability.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %s, want debug", cfg.Observability.Logging.Level)
	}
	if got := cfg.Properties["deployment.proxy.type"]; got != "3" {
		t.Errorf("deployment.proxy.type = %q, want 3", got)
	}
}

func TestLoadConfig_EnvFileMissing(t *testing.T) {
	_, err := LoadConfig("", &CLIFlags{EnvFile: stringPtr(filepath.Join(t.TempDir(), "nope.env"))})
	if err == nil {
		t.Fatal("expected error for missing env file")
	}
}

func Test_loadFromEnv(t *testing.T) {
	t.Setenv("GO_PROXY_SELECT_HOST", "0.0.0.0")
	t.Setenv("GO_PROXY_SELECT_SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("GO_PROXY_SELECT_HOT_RELOAD", "false")
	t.Setenv("GO_PROXY_SELECT_HOT_RELOAD_DEBOUNCE", "not-a-duration")
	t.Setenv("GO_PROXY_SELECT_BROWSER_ENABLED", "0")
	t.Setenv("GO_PROXY_SELECT_PAC_CACHE_TTL", "1m")

	cfg := DefaultConfig()
	loadFromEnv(cfg)

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Host = %s, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 5s", cfg.Server.ShutdownTimeout)
	}
	if cfg.HotReload.Enabled {
		t.Error("HotReload.Enabled = true, want false")
	}
	if cfg.HotReload.Debounce != DefaultHotReloadConfig().Debounce {
		t.Errorf("invalid debounce should be ignored, got %v", cfg.HotReload.Debounce)
	}
	if cfg.Browser.Enabled {
		t.Error("Browser.Enabled = true, want false")
	}
	if cfg.PAC.CacheTTL != time.Minute {
		t.Errorf("PAC.CacheTTL = %v, want 1m", cfg.PAC.CacheTTL)
	}
}

func Test_propertyKeyFromEnv(t *testing.T) {
	tests := map[string]string{
		"DEPLOYMENT_PROXY_HTTP_HOST": "deployment.proxy.http.host",
		"DEPLOYMENT_PROXY_TYPE":      "deployment.proxy.type",
		"":                           "",
	}
	for in, want := range tests {
		if got := propertyKeyFromEnv(in); got != want {
			t.Errorf("propertyKeyFromEnv(%q) = %q, want %q", in, got, want)
		}
	}
}

func Test_overrideWithCLI(t *testing.T) {
	cfg := DefaultConfig()
	flags := &CLIFlags{
		FlagSet:           changedFlags(t, "host", "log-level", "hot-reload", "hot-reload-debounce", "browser", "profile-root"),
		Host:              stringPtr("127.0.0.1"),
		Port:              stringPtr("1"),
		LogLevel:          stringPtr("warn"),
		HotReload:         boolPtr(false),
		HotReloadDebounce: durationPtr(time.Second),
		Browser:           boolPtr(false),
		ProfileRoot:       stringPtr("/profiles"),
	}

	if err := overrideWithCLI(cfg, flags); err != nil {
		t.Fatalf("overrideWithCLI() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Host = %s", cfg.Server.Host)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Port changed without flag being set: %s", cfg.Server.Port)
	}
	if cfg.Observability.Logging.Level != "warn" {
		t.Errorf("Level = %s", cfg.Observability.Logging.Level)
	}
	if cfg.HotReload.Enabled || cfg.HotReload.Debounce != time.Second {
		t.Errorf("HotReload = %+v", cfg.HotReload)
	}
	if cfg.Browser.Enabled || cfg.Browser.ProfileRoot != "/profiles" {
		t.Errorf("Browser = %+v", cfg.Browser)
	}
}

func TestProperties_Property(t *testing.T) {
	p := Properties{"a": "1"}
	if v, ok := p.Property("a"); !ok || v != "1" {
		t.Errorf("Property(a) = %q, %v", v, ok)
	}
	if _, ok := p.Property("b"); ok {
		t.Error("Property(b) should be absent")
	}

	clone := p.Clone()
	clone["a"] = "2"
	if p["a"] != "1" {
		t.Error("Clone shares storage with original")
	}
	if Properties(nil).Clone() == nil {
		t.Error("Clone of nil should be empty, not nil")
	}
}
