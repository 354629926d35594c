package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementSecurityEvents = "security_events"
	MeasurementRelay          = "relay"
)

// SecurityEventPoint builds the point recorded for one security event.
func SecurityEventPoint(deviceID, action, outcome string, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementSecurityEvents,
		map[string]string{
			"device_id": deviceID,
			"action":    action,
			"outcome":   outcome,
		},
		map[string]interface{}{
			"count": 1,
		},
		at,
	)
}

// WriteSecurityEvent records one security event. The write is non-blocking.
//
//	client.WriteSecurityEvent("login_failed", "failure", time.Now())
func (c *Client) WriteSecurityEvent(action, outcome string, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(SecurityEventPoint(c.deviceID, action, outcome, at))
}

// WriteRelayState records a relay transition as 1 (on) or 0 (off).
func (c *Client) WriteRelayState(on bool, at time.Time) {
	if !c.IsConnected() {
		return
	}

	state := 0
	if on {
		state = 1
	}
	c.writeAPI.WritePoint(write.NewPoint(
		MeasurementRelay,
		map[string]string{"device_id": c.deviceID},
		map[string]interface{}{"on": state},
		at,
	))
}

// WritePoint writes a custom point with full control over tags and fields.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a custom point with a specific timestamp.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
