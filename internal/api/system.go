package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nerrad567/solarpool-core/internal/audit"
	"github.com/nerrad567/solarpool-core/internal/controller"
	"github.com/nerrad567/solarpool-core/internal/infrastructure/mqtt"
)

// firmwareContentType is the only accepted upload media type.
const firmwareContentType = "application/octet-stream"

// relayRequest is the request body for POST /api/relay.
type relayRequest struct {
	State string `json:"state"`
}

// wifiSaveRequest is the request body for POST /api/wifi.
type wifiSaveRequest struct {
	SSID     string  `json:"ssid"`
	Password *string `json:"password"`
}

// handleStatus returns the full controller snapshot.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Status())
}

// handleRelay switches the heater relay.
func (s *Server) handleRelay(w http.ResponseWriter, r *http.Request) {
	var req relayRequest
	if err := decodeJSON(r, "relay", &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	relay, err := s.controller.SetRelay(req.State)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	s.record(r, audit.Event{Action: audit.ActionRelay, Details: map[string]any{"state": relay.State}})
	s.publishRelay(relay)
	writeJSON(w, http.StatusOK, relay)
}

// publishRelay forwards a relay change to the optional MQTT and InfluxDB
// outputs. Failures are logged and never affect the response.
func (s *Server) publishRelay(relay controller.RelayStatus) {
	if s.publisher != nil {
		if err := s.publisher.PublishJSON(mqtt.Topics{}.State("relay"), relay, true); err != nil {
			s.logger.Warn("publishing relay state failed", "error", err)
		}
	}
	if s.relayWriter != nil {
		s.relayWriter.WriteRelayState(relay.State == controller.RelayOn, time.Now())
	}
}

// handleGetDefaults returns the control defaults.
func (s *Server) handleGetDefaults(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Defaults())
}

// handleSetDefaults replaces the control defaults.
func (s *Server) handleSetDefaults(w http.ResponseWriter, r *http.Request) {
	var req controller.Defaults
	if err := decodeJSON(r, "defaults", &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	d, err := s.controller.SetDefaults(req)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	s.record(r, audit.Event{Action: audit.ActionDefaults, Details: map[string]any{
		"default_state": d.DefaultState,
		"hysteresis":    d.Hysteresis,
		"min_on_temp":   d.MinOnTemp,
	}})
	writeJSON(w, http.StatusOK, d)
}

// handleProbes returns the temperature probes.
func (s *Server) handleProbes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Probes())
}

// handleWiFiScan lists visible networks.
func (s *Server) handleWiFiScan(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"networks": s.controller.ScanWiFi()})
}

// handleWiFiSave stores station credentials. The password is never echoed,
// logged, or audited.
func (s *Server) handleWiFiSave(w http.ResponseWriter, r *http.Request) {
	var req wifiSaveRequest
	if err := decodeJSON(r, "Wi-Fi", &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	password := ""
	if req.Password != nil {
		password = *req.Password
	}
	if err := s.controller.SaveWiFi(req.SSID, password); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	s.record(r, audit.Event{Action: audit.ActionWiFiSave, Details: map[string]any{"ssid": req.SSID}})
	writeJSON(w, http.StatusOK, map[string]bool{"saved": true})
}

// handleReboot acknowledges the request, then runs the reboot hook once
// the response has been flushed.
func (s *Server) handleReboot(w http.ResponseWriter, r *http.Request) {
	s.record(r, audit.Event{Action: audit.ActionReboot})
	s.logger.Warn("reboot requested")
	writeJSON(w, http.StatusOK, map[string]bool{"rebooting": true})

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	if s.onReboot != nil {
		go s.onReboot()
	}
}

// handleFirmwareUpload hashes an octet-stream image and records its metadata.
func (s *Server) handleFirmwareUpload(w http.ResponseWriter, r *http.Request) {
	if !isOctetStream(r.Header.Get("Content-Type")) {
		writeBadRequest(w, "firmware upload requires Content-Type: "+firmwareContentType)
		return
	}

	info, err := s.controller.StageFirmware(r.Body, s.maxFirmware)
	switch {
	case err == nil:
	case errors.Is(err, controller.ErrFirmwareEmpty):
		writeValidationError(w, err.Error())
		return
	case errors.Is(err, controller.ErrFirmwareTooLarge):
		writeValidationError(w, fmt.Sprintf("firmware image exceeds %d byte limit", s.maxFirmware))
		return
	default:
		s.logger.Warn("reading firmware upload failed", "error", err)
		writeBadRequest(w, "failed to read firmware image")
		return
	}

	s.record(r, audit.Event{Action: audit.ActionFirmwareUpload, Details: map[string]any{
		"sha256": info.SHA256,
		"size":   info.Size,
	}})
	writeJSON(w, http.StatusOK, info)
}

// isOctetStream matches the media type, ignoring parameters and case.
func isOctetStream(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.EqualFold(strings.TrimSpace(mediaType), firmwareContentType)
}
