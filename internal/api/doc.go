// Package api implements the HTTP REST API of the solar pool controller.
//
// This package provides:
//   - First-boot provisioning and login endpoints
//   - Status, relay, defaults, probe, and Wi-Fi endpoints
//   - Admin endpoints: reboot, factory reset, password change, firmware
//     upload, and the security audit log
//   - Middleware stack (request ID, logging, recovery, CORS, body limits)
//
// # Security
//
// Every route except health, provisioning, and login sits behind the
// session middleware. The controller holds one session at a time; a token
// is an opaque random value that expires after the configured idle period.
// A refused request gets 401 with a WWW-Authenticate header, and an
// expired session additionally carries X-Session-Expired: 1 so clients can
// prompt for a fresh login.
//
// Security events are handed to an audit.Recorder after the credential
// store has released its lock. Passwords, hashes, and tokens never appear
// in logs or audit events.
//
// # Graceful Degradation
//
// The audit log, MQTT publisher, and InfluxDB writer are optional. Without
// them the API serves every route except GET /api/admin/audit, which
// answers 503.
package api
