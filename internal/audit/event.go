// Package audit records security events for the controller.
//
// Events are queued by a Recorder and written asynchronously to one or more
// Sinks: the SQLite audit_logs table, and optionally MQTT and InfluxDB.
// Events never carry passwords, hashes, salts, or tokens.
package audit

import (
	"context"
	"time"
)

// Security event actions.
const (
	ActionProvision      = "provision"
	ActionLogin          = "login"
	ActionLoginFailed    = "login_failed"
	ActionLogout         = "logout"
	ActionPasswordChange = "password_change"
	ActionFactoryReset   = "factory_reset"
	ActionSessionExpired = "session_expired"
	ActionRelay          = "relay"
	ActionDefaults       = "defaults"
	ActionWiFiSave       = "wifi_save"
	ActionReboot         = "reboot"
	ActionFirmwareUpload = "firmware_upload"
	ActionUnauthorized   = "unauthorized"
)

// Outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Source is the default originator of recorded events.
const SourceAPI = "api"

// Event is a single security audit entry.
type Event struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	Outcome    string         `json:"outcome"`
	Actor      string         `json:"actor,omitempty"`
	Source     string         `json:"source"`
	RemoteAddr string         `json:"remote_addr,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Sink receives recorded events.
type Sink interface {
	Write(ctx context.Context, ev *Event) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ctx context.Context, ev *Event) error

// Write calls f.
func (f SinkFunc) Write(ctx context.Context, ev *Event) error {
	return f(ctx, ev)
}
