// Package config provides configuration loading for the lora2mqtt gateway.
//
// Configuration is read from a single YAML file with three layers of
// precedence: hardcoded defaults, file values, and LORA2MQTT_* environment
// variables (highest). Validation runs after all layers are applied, so an
// environment override cannot smuggle in an invalid value.
//
// # Usage
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, err := mqtt.Connect(cfg.MQTT)
//
// Secrets (MQTT password, InfluxDB token) should be supplied via
// environment variables rather than committed to the config file.
package config
