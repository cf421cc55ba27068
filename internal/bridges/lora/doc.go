// Package lora bridges a LoRa sensor/actuator network to MQTT.
//
// # Overview
//
// Radio nodes speak a compact binary protocol of ten message kinds,
// identified by the low nibble of each frame's flags byte. The bridge
// decodes inbound frames, resolves entity metadata through the
// discovery catalog, applies value semantics (sign recovery,
// fixed-point scaling, per-component state vocabularies) and publishes
// named state and discovery objects to MQTT.
//
// # Architecture
//
//   - messages.go: wire codec for the ten message kinds
//   - value.go: raw magnitude to published representation
//   - catalog.go: reconciling, selectively persisted entity metadata cache
//   - devices.go: static address-to-name device registry
//   - radio.go: lorad daemon client (socket transport, reconnect, ack)
//   - bridge.go: dispatch engine and outbound request builders
//
// # Concurrency
//
// The radio client delivers frames from a single worker goroutine and
// the bridge fully processes one frame before the next. The catalog is
// mutated only from that context; nothing else may touch it.
//
// # Error Handling
//
// Malformed frames, unknown senders and unknown entities are logged
// and dropped without stopping the dispatch loop. Outbound requests
// validate their byte-range parameters locally before any transport
// contact. A catalog persist failure is a warning; the in-memory
// catalog stays authoritative and the write is retried on the next
// change.
package lora
