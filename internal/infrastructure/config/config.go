package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the controller.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Events   EventsConfig   `yaml:"events"`
	WeMo     WeMoConfig     `yaml:"wemo"`
	Govee    GoveeConfig    `yaml:"govee"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
// An empty origin list allows all origins, matching the permissive
// defaults the controller ships with for local deployments.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// EventsConfig contains push-stream settings shared by the SSE and
// WebSocket surfaces.
type EventsConfig struct {
	// BufferSize is the per-subscriber delivery queue depth. When a
	// subscriber's queue is full, new events for it are dropped.
	BufferSize int `yaml:"buffer_size"`

	// KeepaliveInterval is how often (in seconds) an idle push stream
	// emits a synthetic keepalive event.
	KeepaliveInterval int `yaml:"keepalive_interval"`

	// PingInterval and PongTimeout control WebSocket liveness, in seconds.
	PingInterval int `yaml:"ping_interval"`
	PongTimeout  int `yaml:"pong_timeout"`
}

// WeMoConfig contains local (UPnP) device family settings.
type WeMoConfig struct {
	// DiscoveryWindow is how long (in seconds) a discovery broadcast
	// waits for responses. Discovery returns whatever answered in time.
	DiscoveryWindow int `yaml:"discovery_window"`

	// ControlTimeout bounds a single SOAP call to a device, in seconds.
	ControlTimeout int `yaml:"control_timeout"`

	// DiscoverOnStartup triggers a best-effort discovery at boot so
	// GET /devices is not empty on a fresh process.
	DiscoverOnStartup bool `yaml:"discover_on_startup"`
}

// GoveeConfig contains cloud device family settings.
type GoveeConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`

	// Timeout bounds a single REST call to the Govee platform, in seconds.
	Timeout int `yaml:"timeout"`

	MQTT GoveeMQTTConfig `yaml:"mqtt"`
}

// GoveeMQTTConfig contains the inbound Govee event broker settings.
// The broker authenticates with the API key as both username and password.
type GoveeMQTTConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	TLS     bool   `yaml:"tls"`
}

// InfluxDBConfig contains optional state-change telemetry settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// A missing config file is not an error: the controller is commonly run
// with defaults plus environment variables only (GOVEE_API_KEY et al.).
//
// Environment variables follow the pattern: WEMOCTL_SECTION_KEY
// For example: WEMOCTL_API_PORT, WEMOCTL_GOVEE_API_KEY
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If the file cannot be parsed or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Run on defaults + environment.
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8000,
			Timeouts: APITimeoutConfig{
				Read: 30,
				// Write stays 0 (unlimited): /events streams are long-lived.
				Idle: 60,
			},
		},
		Events: EventsConfig{
			BufferSize:        64,
			KeepaliveInterval: 1,
			PingInterval:      30,
			PongTimeout:       10,
		},
		WeMo: WeMoConfig{
			DiscoveryWindow:   3,
			ControlTimeout:    10,
			DiscoverOnStartup: true,
		},
		Govee: GoveeConfig{
			BaseURL: "https://openapi.api.govee.com",
			Timeout: 10,
			MQTT: GoveeMQTTConfig{
				Enabled: true,
				Host:    "mqtt.openapi.govee.com",
				Port:    8883,
				TLS:     true,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: WEMOCTL_SECTION_KEY.
// GOVEE_API_KEY is also honoured on its own for parity with earlier deployments.
func applyEnvOverrides(cfg *Config) {
	// API
	if v := os.Getenv("WEMOCTL_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("WEMOCTL_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// Govee
	if v := os.Getenv("WEMOCTL_GOVEE_API_KEY"); v != "" {
		cfg.Govee.APIKey = v
	} else if v := os.Getenv("GOVEE_API_KEY"); v != "" {
		cfg.Govee.APIKey = v
	}
	if v := os.Getenv("WEMOCTL_GOVEE_BASE_URL"); v != "" {
		cfg.Govee.BaseURL = v
	}
	if v := os.Getenv("WEMOCTL_GOVEE_MQTT_HOST"); v != "" {
		cfg.Govee.MQTT.Host = v
	}

	// InfluxDB
	if v := os.Getenv("WEMOCTL_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("WEMOCTL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.Events.BufferSize < 1 {
		errs = append(errs, "events.buffer_size must be at least 1")
	}
	if c.Events.KeepaliveInterval < 1 {
		errs = append(errs, "events.keepalive_interval must be at least 1 second")
	}

	if c.WeMo.DiscoveryWindow < 1 {
		errs = append(errs, "wemo.discovery_window must be at least 1 second")
	}

	if c.Govee.BaseURL == "" {
		errs = append(errs, "govee.base_url is required")
	}
	if c.Govee.MQTT.Enabled && c.Govee.MQTT.Host == "" {
		errs = append(errs, "govee.mqtt.host is required when govee.mqtt.enabled is true")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb.enabled is true")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
