package controller

import "time"

// Relay states.
const (
	RelayOn  = "on"
	RelayOff = "off"
)

// Wi-Fi modes.
const (
	ModeAP  = "AP"
	ModeSTA = "STA"
)

// Factory Wi-Fi settings.
const (
	DefaultSSID     = "Solar-Heater"
	DefaultAccessIP = "192.168.4.1"
)

// WiFiStatus describes the wireless link.
type WiFiStatus struct {
	Mode      string  `json:"mode"`
	SSID      string  `json:"ssid"`
	Connected bool    `json:"connected"`
	RSSI      *int    `json:"rssi"`
	IP        *string `json:"ip"`
}

// RelayStatus describes the heater relay.
type RelayStatus struct {
	State      string  `json:"state"`
	LastChange *string `json:"lastChange"`
}

// Defaults are the control parameters applied at boot.
type Defaults struct {
	DefaultState string `json:"default_state"`
	Hysteresis   uint16 `json:"hysteresis"`
	MinOnTemp    uint16 `json:"min_on_temp"`
}

// Probe is a temperature sensor reading.
type Probe struct {
	ID          string   `json:"id"`
	Name        *string  `json:"name"`
	Fahrenheit  *float32 `json:"fahrenheit"`
	LastUpdated *string  `json:"lastUpdated"`
	Enabled     bool     `json:"enabled"`
}

// WiFiNetwork is one entry of a scan.
type WiFiNetwork struct {
	SSID   string `json:"ssid"`
	RSSI   int    `json:"rssi"`
	Secure bool   `json:"secure"`
}

// FirmwareInfo describes the last uploaded firmware image.
type FirmwareInfo struct {
	SHA256     string  `json:"sha256"`
	Size       int64   `json:"size"`
	UploadedAt *string `json:"uploadedAt"`
	Staged     bool    `json:"staged"`
}

// Status is the controller snapshot served by the status endpoint.
type Status struct {
	WiFi          WiFiStatus    `json:"wifi"`
	Relay         RelayStatus   `json:"relay"`
	Probes        []Probe       `json:"probes"`
	UptimeSeconds uint64        `json:"uptimeSeconds"`
	Firmware      *FirmwareInfo `json:"firmware,omitempty"`
}

// formatTime renders t the way every timestamp in the API is rendered.
func formatTime(t time.Time) *string {
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func ptr[T any](v T) *T {
	return &v
}
