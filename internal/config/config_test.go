package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_PORT", "ALLOWED_ORIGINS", "MAX_MESSAGE_SIZE", "SEND_BUFFER",
		"SHUTDOWN_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "SERVICE_NAME",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}

	if cfg.Port != ":8080" {
		t.Errorf("Expected default port :8080, got %s", cfg.Port)
	}
	if cfg.MaxMessageSize != 4096 {
		t.Errorf("Expected MaxMessageSize 4096, got %d", cfg.MaxMessageSize)
	}
	if cfg.SendBuffer != 256 {
		t.Errorf("Expected SendBuffer 256, got %d", cfg.SendBuffer)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("Expected ShutdownTimeout 10s, got %v", cfg.ShutdownTimeout)
	}
	if len(cfg.AllowedOrigins) == 0 {
		t.Error("AllowedOrigins should not be empty")
	}
	if cfg.Tracing.Endpoint != "" {
		t.Error("Tracing should be off by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "relay.yaml")
	content := `
port: "9090"
allowed_origins: ["*"]
max_message_size: 1024
send_buffer: 32
shutdown_timeout: 3s
logging:
  level: DEBUG
  format: json
tracing:
  endpoint: collector:4317
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%s) failed: %v", path, err)
	}

	if cfg.Port != ":9090" {
		t.Errorf("Expected port :9090, got %s", cfg.Port)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("Expected origins [*], got %v", cfg.AllowedOrigins)
	}
	if cfg.MaxMessageSize != 1024 || cfg.SendBuffer != 32 {
		t.Errorf("Unexpected sizes: %d / %d", cfg.MaxMessageSize, cfg.SendBuffer)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Errorf("Expected ShutdownTimeout 3s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Tracing.Endpoint != "collector:4317" || cfg.Tracing.ServiceName != "roomrelay" {
		t.Errorf("Unexpected tracing config: %+v", cfg.Tracing)
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load should fail for a missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", ":7000")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("MAX_MESSAGE_SIZE", "2048")
	t.Setenv("SEND_BUFFER", "not-a-number")
	t.Setenv("SHUTDOWN_TIMEOUT", "5")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != ":7000" {
		t.Errorf("Expected port :7000, got %s", cfg.Port)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.example" {
		t.Errorf("Unexpected origins: %v", cfg.AllowedOrigins)
	}
	if cfg.MaxMessageSize != 2048 {
		t.Errorf("Expected MaxMessageSize 2048, got %d", cfg.MaxMessageSize)
	}
	if cfg.SendBuffer != 256 {
		t.Errorf("Invalid SEND_BUFFER should keep default, got %d", cfg.SendBuffer)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected ShutdownTimeout 5s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Expected level warn, got %s", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
		{"no origins", func(c *Config) { c.AllowedOrigins = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestConfigString(t *testing.T) {
	if Default().String() == "" {
		t.Error("String() should not return empty string")
	}
}
