// Package mqtt provides MQTT client connectivity for the lora2mqtt gateway.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees and bounded waits
//   - Last Will and Testament (LWT) for offline detection
//   - Topic builders for the state and discovery topic families
//
// # Architecture
//
// The gateway is publish-only: decoded radio frames become retained state
// and discovery messages, nothing is consumed from the broker.
//
//	LoRa devices ↔ radio gateway daemon ↔ lora2mqtt ↔ MQTT Broker ↔ Home Assistant
//
// # Topic Families
//
//   - <base_topic>/<device>/state: aggregated entity values, one JSON
//     object per device
//   - <discovery_prefix>/<component>/<device>/<entity>/config: retained
//     entity metadata for Home Assistant auto-discovery
//   - <base_topic>/status: gateway availability (online/offline + LWT)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, cfg.BaseTopic())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topic := mqtt.StateTopic("lora2mqtt", "Garage")
//	client.PublishRetained(topic, []byte(`{"door":"open"}`))
package mqtt
