// Package config loads the relay's runtime settings from defaults, an
// optional YAML file and environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the server configuration settings including security controls.
type Config struct {
	Port            string        `yaml:"port"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	MaxMessageSize  int64         `yaml:"max_message_size"`
	SendBuffer      int           `yaml:"send_buffer"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Logging         LoggingConfig `yaml:"logging"`
	Tracing         TracingConfig `yaml:"tracing"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
}

// TracingConfig configures the OTLP trace exporter. An empty Endpoint
// disables export.
type TracingConfig struct {
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

const (
	defaultPort            = ":8080"
	defaultMaxMessageSize  = 4096
	defaultSendBuffer      = 256
	defaultShutdownTimeout = 10 * time.Second
	defaultServiceName     = "roomrelay"
)

// Default returns a Config populated with default values for all settings.
func Default() *Config {
	return &Config{
		Port: defaultPort,
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://localhost:8080",
		},
		MaxMessageSize:  defaultMaxMessageSize,
		SendBuffer:      defaultSendBuffer,
		ShutdownTimeout: defaultShutdownTimeout,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Tracing: TracingConfig{
			ServiceName: defaultServiceName,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and environment overrides, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	cfg.sanitize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}

	if maxSize := os.Getenv("MAX_MESSAGE_SIZE"); maxSize != "" {
		cfg.MaxMessageSize = parseInt64Value(maxSize, cfg.MaxMessageSize)
	}

	if buffer := os.Getenv("SEND_BUFFER"); buffer != "" {
		cfg.SendBuffer = parseIntValue(buffer, cfg.SendBuffer)
	}

	if timeout := os.Getenv("SHUTDOWN_TIMEOUT"); timeout != "" {
		cfg.ShutdownTimeout = parseSeconds(timeout, cfg.ShutdownTimeout)
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}

	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		cfg.Tracing.Endpoint = endpoint
	}

	if name := os.Getenv("SERVICE_NAME"); name != "" {
		cfg.Tracing.ServiceName = name
	}
}

// sanitize replaces unusable numeric values with defaults and normalizes
// the port and level spelling.
func (c *Config) sanitize() {
	if c.Port == "" {
		c.Port = defaultPort
	}
	if !strings.Contains(c.Port, ":") {
		c.Port = ":" + c.Port
	}

	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = defaultMaxMessageSize
	}

	if c.SendBuffer <= 0 {
		c.SendBuffer = defaultSendBuffer
	}

	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = defaultServiceName
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
}

// Validate reports settings that cannot be repaired by defaulting.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Logging.Level)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalidConfig, c.Logging.Format)
	}

	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("%w: at least one allowed origin is required", ErrInvalidConfig)
	}

	return nil
}

// String returns a representation of the configuration for logging.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %s, Origins: %v, MaxMessageSize: %d, SendBuffer: %d, LogLevel: %s, Tracing: %t}",
		c.Port, c.AllowedOrigins, c.MaxMessageSize, c.SendBuffer, c.Logging.Level, c.Tracing.Endpoint != "")
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseInt64Value(value string, defaultValue int64) int64 {
	if parsed, err := strconv.ParseInt(value, 10, 64); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}

func parseIntValue(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}

func parseSeconds(value string, defaultValue time.Duration) time.Duration {
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
