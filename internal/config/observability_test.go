package config

import (
	"testing"
)

func TestDefaultObservabilityConfig(t *testing.T) {
	cfg := DefaultObservabilityConfig()

	if cfg.Logging.Level != "info" {
		t.Errorf("DefaultLoggingConfig Level got %s, want info", cfg.Logging.Level)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("DefaultLoggingConfig Output got %s, want stderr", cfg.Logging.Output)
	}
	if cfg.Metrics.Enabled != true {
		t.Errorf("Metrics Enabled got %v, want true", cfg.Metrics.Enabled)
	}
	if cfg.Tracing.Enabled != false {
		t.Errorf("DefaultTracingConfig Enabled got %v, want false", cfg.Tracing.Enabled)
	}
	if cfg.Tracing.ServiceName != "go-proxy-select" {
		t.Errorf("DefaultTracingConfig ServiceName got %s, want go-proxy-select", cfg.Tracing.ServiceName)
	}
}

func TestLoggingConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  LoggingConfig
		wantErr bool
	}{
		{
			name:    "Valid Logging Config",
			config:  DefaultLoggingConfig(),
			wantErr: false,
		},
		{
			name: "Upper case level",
			config: LoggingConfig{
				Level:  "DEBUG",
				Format: "console",
				Output: "stdout",
			},
			wantErr: false,
		},
		{
			name: "Invalid Level",
			config: LoggingConfig{
				Level:  "invalid",
				Format: "json",
				Output: "stdout",
			},
			wantErr: true,
		},
		{
			name: "Invalid Format",
			config: LoggingConfig{
				Level:  "info",
				Format: "invalid",
				Output: "stdout",
			},
			wantErr: true,
		},
		{
			name: "Empty Output",
			config: LoggingConfig{
				Level:  "info",
				Format: "json",
				Output: "",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("LoggingConfig.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestObservabilityConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  ObservabilityConfig
		wantErr bool
	}{
		{
			name:    "Valid Observability Config",
			config:  DefaultObservabilityConfig(),
			wantErr: false,
		},
		{
			name: "Invalid Logging Config",
			config: ObservabilityConfig{
				Logging: LoggingConfig{Level: "bad"},
				Tracing: DefaultTracingConfig(),
			},
			wantErr: true,
		},
		{
			name: "Tracing enabled without service name",
			config: ObservabilityConfig{
				Logging: DefaultLoggingConfig(),
				Tracing: TracingConfig{Enabled: true, ServiceName: ""},
			},
			wantErr: true,
		},
		{
			name: "Tracing disabled without service name",
			config: ObservabilityConfig{
				Logging: DefaultLoggingConfig(),
				Tracing: TracingConfig{Enabled: false},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("ObservabilityConfig.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
