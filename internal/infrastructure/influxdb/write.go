package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteLinkQuality records radio link quality for a remote node.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - device: Device name (e.g., "garage")
//   - address: Radio address of the node
//   - rssi: Received signal strength in dBm
//   - snr: Signal-to-noise ratio in dB
//
// Example:
//
//	client.WriteLinkQuality("garage", 1, -87, 9.5)
func (c *Client) WriteLinkQuality(device string, address uint8, rssi int, snr float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"link_quality",
		map[string]string{
			"device": device,
		},
		map[string]interface{}{
			"address": int(address),
			"rssi":    rssi,
			"snr":     snr,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteEntityValue records a decoded entity value.
//
// Only numeric representations are recorded here; binary and enumerated
// states are mapped to floats by the caller where it makes sense.
//
// Parameters:
//   - device: Device name
//   - entity: Entity name
//   - value: The decoded value
func (c *Client) WriteEntityValue(device string, entity string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"entity_values",
		map[string]string{
			"device": device,
			"entity": entity,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
