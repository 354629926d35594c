package controller

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestState() (*State, *testClock) {
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return New(clock.Now), clock
}

func TestNew_FactoryDefaults(t *testing.T) {
	s, _ := newTestState()
	st := s.Status()

	if st.WiFi.Mode != ModeAP || st.WiFi.SSID != DefaultSSID || st.WiFi.Connected {
		t.Errorf("wifi = %+v, want AP/Solar-Heater/disconnected", st.WiFi)
	}
	if st.WiFi.RSSI != nil {
		t.Errorf("rssi = %v, want nil", *st.WiFi.RSSI)
	}
	if st.WiFi.IP == nil || *st.WiFi.IP != DefaultAccessIP {
		t.Errorf("ip = %v, want %s", st.WiFi.IP, DefaultAccessIP)
	}
	if st.Relay.State != RelayOff || st.Relay.LastChange != nil {
		t.Errorf("relay = %+v, want off with no change time", st.Relay)
	}
	if st.Firmware != nil {
		t.Errorf("firmware = %+v, want nil", st.Firmware)
	}
	if st.UptimeSeconds != 0 {
		t.Errorf("uptime = %d, want 0", st.UptimeSeconds)
	}

	d := s.Defaults()
	if d != (Defaults{DefaultState: RelayOff, Hysteresis: 2, MinOnTemp: 70}) {
		t.Errorf("defaults = %+v, want off/2/70", d)
	}
}

func TestState_Probes(t *testing.T) {
	s, _ := newTestState()
	probes := s.Probes()

	if len(probes) != 2 {
		t.Fatalf("len(probes) = %d, want 2", len(probes))
	}
	want := []struct {
		id, name string
		f        float32
	}{
		{"28-00000abcd123", "Pool Return", 74.8},
		{"28-00000abcd456", "Roof", 102.9},
	}
	for i, w := range want {
		p := probes[i]
		if p.ID != w.id || *p.Name != w.name || *p.Fahrenheit != w.f || !p.Enabled {
			t.Errorf("probe[%d] = %+v, want %s %s %v", i, p, w.id, w.name, w.f)
		}
		if p.LastUpdated == nil || *p.LastUpdated != "2026-03-01T12:00:00Z" {
			t.Errorf("probe[%d] lastUpdated = %v", i, p.LastUpdated)
		}
	}

	// Returned slices are copies.
	*probes[0].Name = "changed"
	if *s.Probes()[0].Name != "Pool Return" {
		t.Error("modifying returned probes changed controller state")
	}
}

func TestState_Uptime(t *testing.T) {
	s, clock := newTestState()
	clock.Advance(90*time.Second + 500*time.Millisecond)
	if got := s.Status().UptimeSeconds; got != 90 {
		t.Errorf("uptime = %d, want 90", got)
	}
}

func TestState_SetRelay(t *testing.T) {
	s, clock := newTestState()
	clock.Advance(time.Minute)

	rs, err := s.SetRelay(RelayOn)
	if err != nil {
		t.Fatalf("SetRelay(on) error = %v", err)
	}
	if rs.State != RelayOn || rs.LastChange == nil || *rs.LastChange != "2026-03-01T12:01:00Z" {
		t.Errorf("relay = %+v, want on at 12:01", rs)
	}

	for _, bad := range []string{"ON", "toggle", "", " on"} {
		if _, err := s.SetRelay(bad); !errors.Is(err, ErrInvalidRelayState) {
			t.Errorf("SetRelay(%q) error = %v, want ErrInvalidRelayState", bad, err)
		}
	}
	if s.Status().Relay.State != RelayOn {
		t.Error("rejected relay command changed state")
	}
}

func TestState_SetDefaults(t *testing.T) {
	s, _ := newTestState()

	want := Defaults{DefaultState: RelayOn, Hysteresis: 4, MinOnTemp: 82}
	got, err := s.SetDefaults(want)
	if err != nil {
		t.Fatalf("SetDefaults() error = %v", err)
	}
	if got != want || s.Defaults() != want {
		t.Errorf("defaults = %+v, want %+v", s.Defaults(), want)
	}

	if _, err := s.SetDefaults(Defaults{DefaultState: "auto"}); !errors.Is(err, ErrInvalidDefaultState) {
		t.Errorf("SetDefaults(auto) error = %v, want ErrInvalidDefaultState", err)
	}
	if s.Defaults() != want {
		t.Error("rejected defaults changed state")
	}
}

func TestState_WiFi(t *testing.T) {
	s, _ := newTestState()

	nets := s.ScanWiFi()
	if len(nets) != 2 || nets[0] != (WiFiNetwork{SSID: "Backyard", RSSI: -55, Secure: true}) ||
		nets[1] != (WiFiNetwork{SSID: "Guest", RSSI: -68, Secure: false}) {
		t.Errorf("ScanWiFi() = %+v", nets)
	}

	for _, bad := range []string{"", "   ", "\t"} {
		if err := s.SaveWiFi(bad, "secret"); !errors.Is(err, ErrEmptySSID) {
			t.Errorf("SaveWiFi(%q) error = %v, want ErrEmptySSID", bad, err)
		}
	}
	if s.Status().WiFi.Mode != ModeAP {
		t.Error("rejected Wi-Fi save changed state")
	}

	if err := s.SaveWiFi("Backyard", "hunter22"); err != nil {
		t.Fatalf("SaveWiFi() error = %v", err)
	}
	w := s.Status().WiFi
	if w.Mode != ModeSTA || w.SSID != "Backyard" || w.Connected || w.RSSI != nil || w.IP != nil {
		t.Errorf("wifi after save = %+v, want STA/Backyard with no link", w)
	}
}

func TestState_StageFirmware(t *testing.T) {
	s, _ := newTestState()
	image := []byte("test firmware bytes")
	sum := sha256.Sum256(image)

	info, err := s.StageFirmware(bytes.NewReader(image), DefaultMaxFirmwareSize)
	if err != nil {
		t.Fatalf("StageFirmware() error = %v", err)
	}
	if info.SHA256 != hex.EncodeToString(sum[:]) || info.Size != int64(len(image)) || info.Staged {
		t.Errorf("info = %+v", info)
	}
	if info.UploadedAt == nil || *info.UploadedAt != "2026-03-01T12:00:00Z" {
		t.Errorf("uploadedAt = %v", info.UploadedAt)
	}

	fw := s.Status().Firmware
	if fw == nil || fw.SHA256 != info.SHA256 {
		t.Errorf("status firmware = %+v, want staged metadata", fw)
	}
}

func TestHashFirmware_Limits(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	const limit = 1024

	tests := []struct {
		name    string
		size    int
		wantErr error
	}{
		{"empty", 0, ErrFirmwareEmpty},
		{"one byte", 1, nil},
		{"exactly at limit", limit, nil},
		{"one over limit", limit + 1, ErrFirmwareTooLarge},
		{"far over limit", limit * 4, ErrFirmwareTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := HashFirmware(strings.NewReader(strings.Repeat("x", tt.size)), limit, now)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("HashFirmware() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && info.Size != int64(tt.size) {
				t.Errorf("Size = %d, want %d", info.Size, tt.size)
			}
		})
	}
}

func TestHashFirmware_DefaultLimit(t *testing.T) {
	big := bytes.NewReader(make([]byte, DefaultMaxFirmwareSize+1))
	if _, err := HashFirmware(big, 0, time.Now()); !errors.Is(err, ErrFirmwareTooLarge) {
		t.Errorf("HashFirmware() error = %v, want ErrFirmwareTooLarge", err)
	}
}

func TestHashFirmware_RejectsFailedUpload(t *testing.T) {
	_, err := HashFirmware(failingReader{}, DefaultMaxFirmwareSize, time.Now())
	if err == nil || errors.Is(err, ErrFirmwareEmpty) {
		t.Errorf("HashFirmware() error = %v, want a read error", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestState_Reset(t *testing.T) {
	s, clock := newTestState()
	clock.Advance(time.Hour)

	_, _ = s.SetRelay(RelayOn)
	_, _ = s.SetDefaults(Defaults{DefaultState: RelayOn, Hysteresis: 9})
	_ = s.SaveWiFi("Backyard", "")
	_, _ = s.StageFirmware(strings.NewReader("img"), DefaultMaxFirmwareSize)

	s.Reset()

	st := s.Status()
	if st.Relay.State != RelayOff || st.WiFi.Mode != ModeAP || st.Firmware != nil {
		t.Errorf("status after reset = %+v", st)
	}
	if s.Defaults().Hysteresis != 2 {
		t.Error("defaults not reset")
	}
	if st.UptimeSeconds != 3600 {
		t.Errorf("uptime = %d, reset should not restart it", st.UptimeSeconds)
	}
}

func TestState_ConcurrentAccess(t *testing.T) {
	s, _ := newTestState()
	var wg sync.WaitGroup

	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				s.SetRelay(RelayOn) //nolint:errcheck // race check
			} else {
				_ = s.Status()
			}
		}()
	}
	wg.Wait()
}
