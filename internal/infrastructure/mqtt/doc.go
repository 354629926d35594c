// Package mqtt publishes controller events to an MQTT broker.
//
// The broker is optional. When enabled, the controller:
//   - Publishes a retained online status to solarpool/system/status
//   - Registers a Last Will so the broker marks it offline on a crash
//   - Publishes security audit events to solarpool/system/security
//
// The client only publishes; it never subscribes, so nothing on the bus can
// change controller state.
//
// # Security Considerations
//
//   - Use TLS (cfg.Broker.TLS=true) outside a trusted LAN
//   - Payloads never carry passwords, hashes, salts, or tokens
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Publish(mqtt.Topics{}.SystemSecurity(), payload, 1, false)
package mqtt
