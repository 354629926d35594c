// Package influxdb writes controller telemetry to InfluxDB v2.
//
// It wraps the official influxdb-client-go v2 library and records:
//   - One security_events point per audit event (tags: action, outcome)
//   - Relay transitions
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB, cfg.Device.ID)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
//	client.WriteSecurityEvent("login", "success", time.Now())
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes; write errors
// are delivered to the SetOnError callback.
package influxdb
