package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/nerrad567/solarpool-core/internal/audit"
	"github.com/nerrad567/solarpool-core/internal/auth"
)

// provisioningRequest is the request body for POST /api/provisioning.
// An absent or blank username becomes the default.
type provisioningRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// provisioningResponse is the response body for POST /api/provisioning.
type provisioningResponse struct {
	Provisioned      bool   `json:"provisioned"`
	Token            string `json:"token"`
	Username         string `json:"username"`
	ExpiresInSeconds uint64 `json:"expiresInSeconds"`
}

// provisioningStatusResponse is the response body for GET /api/provisioning.
type provisioningStatusResponse struct {
	Provisioned bool   `json:"provisioned"`
	Username    string `json:"username,omitempty"`
}

// loginRequest is the request body for POST /api/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /api/login.
type loginResponse struct {
	Token            string `json:"token"`
	ExpiresInSeconds uint64 `json:"expiresInSeconds"`
}

// passwordChangeRequest is the request body for POST /api/admin/password.
type passwordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func seconds(d time.Duration) uint64 {
	return uint64(d / time.Second)
}

// handleGetProvisioning reports whether the device has been provisioned.
func (s *Server) handleGetProvisioning(w http.ResponseWriter, _ *http.Request) {
	st := s.store.Status()
	writeJSON(w, http.StatusOK, provisioningStatusResponse{
		Provisioned: st.Provisioned,
		Username:    st.Username,
	})
}

// handleProvision sets the first credential and opens a session.
// Once provisioned the endpoint answers 409 whatever the body.
func (s *Server) handleProvision(w http.ResponseWriter, r *http.Request) {
	if s.store.Status().Provisioned {
		writeError(w, http.StatusConflict, ErrCodeConflict, auth.ErrAlreadyProvisioned.Error())
		return
	}

	var req provisioningRequest
	if err := decodeJSON(r, "provisioning", &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	sess, err := s.store.Provision(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrAlreadyProvisioned):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
		return
	case errors.Is(err, auth.ErrPasswordTooShort), errors.Is(err, auth.ErrUsernameTooLong):
		writeValidationError(w, err.Error())
		return
	case errors.Is(err, auth.ErrPersistence):
		s.record(r, audit.Event{Action: audit.ActionProvision, Outcome: audit.OutcomeFailure, Actor: req.Username})
		writeInternalError(w, auth.ErrPersistence.Error())
		return
	default:
		s.logger.Error("provisioning failed", "error", err)
		writeInternalError(w, "provisioning failed")
		return
	}

	s.record(r, audit.Event{Action: audit.ActionProvision, Actor: sess.Username})
	writeJSON(w, http.StatusOK, provisioningResponse{
		Provisioned:      true,
		Token:            sess.Token,
		Username:         sess.Username,
		ExpiresInSeconds: seconds(sess.ExpiresIn),
	})
}

// handleLogin verifies the credential and replaces any existing session.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, "login", &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	sess, err := s.store.Login(req.Username, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrNotProvisioned):
		writeError(w, http.StatusLocked, ErrCodeLocked, err.Error())
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.recordLoginFailure(r, req.Username)
		writeUnauthorized(w, err.Error())
		return
	default:
		s.logger.Error("login failed", "error", err)
		writeInternalError(w, "login failed")
		return
	}

	s.record(r, audit.Event{Action: audit.ActionLogin, Actor: sess.Username})
	writeJSON(w, http.StatusOK, loginResponse{
		Token:            sess.Token,
		ExpiresInSeconds: seconds(sess.ExpiresIn),
	})
}

// recordLoginFailure logs and audits a refused login. The submitted
// username is kept only when it is the provisioned one; anything else may
// be a password typed into the wrong field.
func (s *Server) recordLoginFailure(r *http.Request, submitted string) {
	known := s.store.Status().Username
	matched := known != "" && auth.ConstantTimeEquals(submitted, known)

	ev := audit.Event{
		Action:  audit.ActionLoginFailed,
		Outcome: audit.OutcomeFailure,
		Details: map[string]any{"username_matched": matched},
	}
	if matched {
		ev.Actor = known
	}

	s.logger.Warn("login failed", "username_matched", matched, "remote_addr", r.RemoteAddr)
	s.record(r, ev)
}

// handleLogout ends the current session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.store.Logout()
	s.record(r, audit.Event{Action: audit.ActionLogout, Actor: s.store.Status().Username})
	w.WriteHeader(http.StatusNoContent)
}

// handleChangePassword replaces the password and ends the session.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordChangeRequest
	if err := decodeJSON(r, "password", &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	err := s.store.ChangePassword(r.Context(), req.CurrentPassword, req.NewPassword)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrPasswordEmpty):
		writeValidationError(w, err.Error())
		return
	case errors.Is(err, auth.ErrCurrentPasswordIncorrect):
		s.record(r, audit.Event{Action: audit.ActionPasswordChange, Outcome: audit.OutcomeFailure})
		writeUnauthorized(w, err.Error())
		return
	default:
		s.record(r, audit.Event{Action: audit.ActionPasswordChange, Outcome: audit.OutcomeFailure})
		writeInternalError(w, auth.ErrPersistence.Error())
		return
	}

	s.record(r, audit.Event{Action: audit.ActionPasswordChange, Actor: s.store.Status().Username})
	writeJSON(w, http.StatusOK, map[string]bool{"changed": true})
}

// handleFactoryReset erases the credential and returns the controller to
// factory defaults.
func (s *Server) handleFactoryReset(w http.ResponseWriter, r *http.Request) {
	actor := s.store.Status().Username
	if err := s.store.FactoryReset(r.Context()); err != nil {
		s.record(r, audit.Event{Action: audit.ActionFactoryReset, Outcome: audit.OutcomeFailure, Actor: actor})
		writeInternalError(w, "failed to clear persisted credentials")
		return
	}
	s.controller.Reset()

	s.record(r, audit.Event{Action: audit.ActionFactoryReset, Actor: actor})
	writeJSON(w, http.StatusOK, map[string]bool{"reset": true})
}
