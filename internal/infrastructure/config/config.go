package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the lora2mqtt gateway.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Radio    RadioConfig    `yaml:"radio"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Devices  DevicesConfig  `yaml:"devices"`
	Database DatabaseConfig `yaml:"database"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Topics    MQTTTopicsConfig    `yaml:"topics"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTTopicsConfig contains the topic namespace prefixes.
//
// BaseTopic namespaces the per-device state topics
// (e.g. "lora2mqtt/garage/state"). DiscoveryPrefix namespaces the
// per-entity discovery announcement topics, following the Home Assistant
// convention (e.g. "homeassistant/cover/garage/door/config").
type MQTTTopicsConfig struct {
	BaseTopic       string `yaml:"base_topic"`
	DiscoveryPrefix string `yaml:"discovery_prefix"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// RadioConfig contains LoRa gateway daemon connection settings.
type RadioConfig struct {
	// Connection is the gateway daemon connection URL.
	// Supported formats: "unix:///run/lorad" or "tcp://localhost:6750".
	Connection string `yaml:"connection"`

	// ThisAddress is the gateway's own address on the radio network (0-255).
	ThisAddress int `yaml:"this_address"`

	// ConnectTimeout is the maximum seconds to wait for the initial connection.
	ConnectTimeout int `yaml:"connect_timeout"`

	// AckTimeout is the maximum seconds to wait for a send acknowledgment.
	AckTimeout int `yaml:"ack_timeout"`
}

// CatalogConfig contains entity catalog persistence settings.
type CatalogConfig struct {
	// Path is the catalog snapshot file. Absence or corruption is tolerated
	// at startup; the catalog then starts empty.
	Path string `yaml:"path"`
}

// DevicesConfig contains device registry settings.
type DevicesConfig struct {
	// Path is the devices.json registry file. The registry is required:
	// without it no sender can be validated.
	Path string `yaml:"path"`
}

// DatabaseConfig contains SQLite frame journal settings.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains InfluxDB link-quality telemetry settings.
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
// Environment variables follow the pattern: LORA2MQTT_SECTION_KEY
// For example: LORA2MQTT_MQTT_HOST, LORA2MQTT_RADIO_CONNECTION
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
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
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "lora2mqtt",
			},
			QoS: 1,
			Topics: MQTTTopicsConfig{
				BaseTopic:       "lora2mqtt",
				DiscoveryPrefix: "homeassistant",
			},
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Radio: RadioConfig{
			Connection:     "tcp://localhost:6750",
			ThisAddress:    0,
			ConnectTimeout: 10,
			AckTimeout:     5,
		},
		Catalog: CatalogConfig{
			Path: "./data/catalog.yaml",
		},
		Devices: DevicesConfig{
			Path: "./devices.json",
		},
		Database: DatabaseConfig{
			Enabled:     true,
			Path:        "./data/lora2mqtt.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: LORA2MQTT_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// MQTT
	if v := os.Getenv("LORA2MQTT_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("LORA2MQTT_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("LORA2MQTT_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("LORA2MQTT_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Radio
	if v := os.Getenv("LORA2MQTT_RADIO_CONNECTION"); v != "" {
		cfg.Radio.Connection = v
	}

	// Paths
	if v := os.Getenv("LORA2MQTT_CATALOG_PATH"); v != "" {
		cfg.Catalog.Path = v
	}
	if v := os.Getenv("LORA2MQTT_DEVICES_PATH"); v != "" {
		cfg.Devices.Path = v
	}
	if v := os.Getenv("LORA2MQTT_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// InfluxDB
	if v := os.Getenv("LORA2MQTT_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Topics.BaseTopic == "" {
		errs = append(errs, "mqtt.topics.base_topic is required")
	}
	if c.MQTT.Topics.DiscoveryPrefix == "" {
		errs = append(errs, "mqtt.topics.discovery_prefix is required")
	}

	if c.Radio.Connection == "" {
		errs = append(errs, "radio.connection is required")
	}
	if c.Radio.ThisAddress < 0 || c.Radio.ThisAddress > 255 {
		errs = append(errs, "radio.this_address must be between 0 and 255")
	}

	if c.Catalog.Path == "" {
		errs = append(errs, "catalog.path is required")
	}
	if c.Devices.Path == "" {
		errs = append(errs, "devices.path is required")
	}
	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when database.enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetConnectTimeout returns the radio connect timeout as a Duration.
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.Radio.ConnectTimeout) * time.Second
}

// GetAckTimeout returns the radio acknowledgment timeout as a Duration.
func (c *Config) GetAckTimeout() time.Duration {
	return time.Duration(c.Radio.AckTimeout) * time.Second
}

// BaseTopic returns the lowercased state topic namespace.
func (c *Config) BaseTopic() string {
	return strings.ToLower(c.MQTT.Topics.BaseTopic)
}

// DiscoveryPrefix returns the lowercased discovery topic namespace.
func (c *Config) DiscoveryPrefix() string {
	return strings.ToLower(c.MQTT.Topics.DiscoveryPrefix)
}
