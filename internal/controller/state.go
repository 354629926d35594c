package controller

import (
	"io"
	"strings"
	"sync"
	"time"
)

// Logger defines the logging interface used by State.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// State is the in-memory controller state.
type State struct {
	mu        sync.RWMutex
	wifi      WiFiStatus
	relay     RelayStatus
	defaults  Defaults
	probes    []Probe
	firmware  *FirmwareInfo
	startedAt time.Time

	now    func() time.Time
	logger Logger
}

// New returns a State at factory defaults. A nil clock selects time.Now.
func New(now func() time.Time) *State {
	if now == nil {
		now = time.Now
	}
	s := &State{
		now:       now,
		logger:    noopLogger{},
		startedAt: now(),
	}
	s.resetLocked()
	return s
}

// SetLogger sets the logger for the state.
func (s *State) SetLogger(logger Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// Reset returns Wi-Fi, relay, defaults, probes, and firmware to factory
// values. Uptime is not reset.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	s.logger.Info("controller state reset to defaults")
}

func (s *State) resetLocked() {
	s.wifi = WiFiStatus{
		Mode: ModeAP,
		SSID: DefaultSSID,
		IP:   ptr(DefaultAccessIP),
	}
	s.relay = RelayStatus{State: RelayOff}
	s.defaults = Defaults{
		DefaultState: RelayOff,
		Hysteresis:   2,
		MinOnTemp:    70,
	}

	readAt := formatTime(s.now())
	s.probes = []Probe{
		{ID: "28-00000abcd123", Name: ptr("Pool Return"), Fahrenheit: ptr(float32(74.8)), LastUpdated: readAt, Enabled: true},
		{ID: "28-00000abcd456", Name: ptr("Roof"), Fahrenheit: ptr(float32(102.9)), LastUpdated: readAt, Enabled: true},
	}
	s.firmware = nil
}

// Status returns a snapshot of the whole controller.
func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uptime := s.now().Sub(s.startedAt)
	if uptime < 0 {
		uptime = 0
	}

	st := Status{
		WiFi:          copyWiFi(s.wifi),
		Relay:         copyRelay(s.relay),
		Probes:        copyProbes(s.probes),
		UptimeSeconds: uint64(uptime / time.Second),
	}
	if s.firmware != nil {
		fw := *s.firmware
		st.Firmware = &fw
	}
	return st
}

// SetRelay switches the relay and records the change time.
func (s *State) SetRelay(state string) (RelayStatus, error) {
	if state != RelayOn && state != RelayOff {
		return RelayStatus{}, ErrInvalidRelayState
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.relay.State = state
	s.relay.LastChange = formatTime(s.now())
	s.logger.Info("relay switched", "state", state)
	return copyRelay(s.relay), nil
}

// Defaults returns the control defaults.
func (s *State) Defaults() Defaults {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaults
}

// SetDefaults replaces the control defaults.
func (s *State) SetDefaults(d Defaults) (Defaults, error) {
	if d.DefaultState != RelayOn && d.DefaultState != RelayOff {
		return Defaults{}, ErrInvalidDefaultState
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults = d
	s.logger.Info("control defaults updated",
		"default_state", d.DefaultState,
		"hysteresis", d.Hysteresis,
		"min_on_temp", d.MinOnTemp,
	)
	return s.defaults, nil
}

// Probes returns the probe list.
func (s *State) Probes() []Probe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyProbes(s.probes)
}

// ScanWiFi returns visible networks.
func (s *State) ScanWiFi() []WiFiNetwork {
	return []WiFiNetwork{
		{SSID: "Backyard", RSSI: -55, Secure: true},
		{SSID: "Guest", RSSI: -68, Secure: false},
	}
}

// SaveWiFi switches to station mode on ssid. The link is reported as not
// connected until the radio joins. The password is not retained.
func (s *State) SaveWiFi(ssid, _ string) error {
	if strings.TrimSpace(ssid) == "" {
		return ErrEmptySSID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.wifi = WiFiStatus{
		Mode: ModeSTA,
		SSID: ssid,
	}
	s.logger.Info("wifi settings saved", "ssid", ssid)
	return nil
}

// StageFirmware hashes an uploaded image and records its metadata.
func (s *State) StageFirmware(r io.Reader, maxSize int64) (FirmwareInfo, error) {
	info, err := HashFirmware(r, maxSize, s.now())
	if err != nil {
		s.logger.Warn("firmware upload rejected", "error", err)
		return FirmwareInfo{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	fw := info
	s.firmware = &fw
	s.logger.Info("firmware upload received", "size", info.Size, "sha256", info.SHA256)
	return info, nil
}

func copyWiFi(w WiFiStatus) WiFiStatus {
	if w.RSSI != nil {
		w.RSSI = ptr(*w.RSSI)
	}
	if w.IP != nil {
		w.IP = ptr(*w.IP)
	}
	return w
}

func copyRelay(r RelayStatus) RelayStatus {
	if r.LastChange != nil {
		r.LastChange = ptr(*r.LastChange)
	}
	return r
}

func copyProbes(in []Probe) []Probe {
	out := make([]Probe, len(in))
	for i, p := range in {
		if p.Name != nil {
			p.Name = ptr(*p.Name)
		}
		if p.Fahrenheit != nil {
			p.Fahrenheit = ptr(*p.Fahrenheit)
		}
		if p.LastUpdated != nil {
			p.LastUpdated = ptr(*p.LastUpdated)
		}
		out[i] = p
	}
	return out
}
