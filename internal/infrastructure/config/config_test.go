package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
mqtt:
  broker:
    host: "broker.local"
    port: 8883
    tls: true
    client_id: "test-gateway"
  qos: 1
  topics:
    base_topic: "lora2mqtt"
    discovery_prefix: "homeassistant"
radio:
  connection: "tcp://localhost:6750"
  this_address: 0
catalog:
  path: "/tmp/catalog.yaml"
devices:
  path: "/tmp/devices.json"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
	if !cfg.MQTT.Broker.TLS {
		t.Error("MQTT.Broker.TLS = false, want true")
	}
	if cfg.Radio.Connection != "tcp://localhost:6750" {
		t.Errorf("Radio.Connection = %q, want %q", cfg.Radio.Connection, "tcp://localhost:6750")
	}
	if cfg.Catalog.Path != "/tmp/catalog.yaml" {
		t.Errorf("Catalog.Path = %q, want %q", cfg.Catalog.Path, "/tmp/catalog.yaml")
	}
}

func TestLoad_Defaults(t *testing.T) {
	// Minimal file: every unset key should come from defaults.
	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("default MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("default MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.Topics.BaseTopic != "lora2mqtt" {
		t.Errorf("default base_topic = %q, want %q", cfg.MQTT.Topics.BaseTopic, "lora2mqtt")
	}
	if cfg.MQTT.Topics.DiscoveryPrefix != "homeassistant" {
		t.Errorf("default discovery_prefix = %q, want %q", cfg.MQTT.Topics.DiscoveryPrefix, "homeassistant")
	}
	if cfg.Radio.AckTimeout != 5 {
		t.Errorf("default Radio.AckTimeout = %d, want 5", cfg.Radio.AckTimeout)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
mqtt:
  qos: 7
radio:
  this_address: 300
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected validation error, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LORA2MQTT_MQTT_HOST", "env-broker")
	t.Setenv("LORA2MQTT_MQTT_PORT", "2883")
	t.Setenv("LORA2MQTT_INFLUXDB_TOKEN", "secret-token")

	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "env-broker" {
		t.Errorf("MQTT.Broker.Host = %q, want env override %q", cfg.MQTT.Broker.Host, "env-broker")
	}
	if cfg.MQTT.Broker.Port != 2883 {
		t.Errorf("MQTT.Broker.Port = %d, want env override 2883", cfg.MQTT.Broker.Port)
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want env override", cfg.InfluxDB.Token)
	}
}

func TestTopicHelpers_Lowercase(t *testing.T) {
	content := `
mqtt:
  topics:
    base_topic: "Lora2MQTT"
    discovery_prefix: "HomeAssistant"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := cfg.BaseTopic(); got != "lora2mqtt" {
		t.Errorf("BaseTopic() = %q, want %q", got, "lora2mqtt")
	}
	if got := cfg.DiscoveryPrefix(); got != "homeassistant" {
		t.Errorf("DiscoveryPrefix() = %q, want %q", got, "homeassistant")
	}
}
