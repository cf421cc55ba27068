// Package influxdb provides time-series telemetry for the gateway.
//
// # Overview
//
// The gateway records radio link quality (RSSI, SNR) and optionally
// decoded entity values to InfluxDB v2. All writes are non-blocking
// and batched; a failed InfluxDB connection never blocks frame
// processing.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//		// Telemetry is optional, log and continue
//	}
//	defer client.Close()
//
//	client.WriteLinkQuality("garage", 1, -87, 9.5)
//
// # Error Handling
//
// Because writes are asynchronous, write failures surface through the
// SetOnError callback rather than return values.
package influxdb
