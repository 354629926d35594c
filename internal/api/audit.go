package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/solarpool-core/internal/audit"
)

// record hands a security event to the recorder, filling in the request
// origin. It never blocks and is a no-op without a recorder.
func (s *Server) record(r *http.Request, ev audit.Event) {
	if s.recorder == nil {
		return
	}
	if ev.RemoteAddr == "" {
		ev.RemoteAddr = r.RemoteAddr
	}
	if id, ok := r.Context().Value(ctxKeyRequestID).(string); ok && id != "" {
		if ev.Details == nil {
			ev.Details = map[string]any{}
		}
		ev.Details["request_id"] = id
	}
	s.recorder.Record(ev)
}

// handleListAuditLogs returns paginated security events, newest first.
//
// Query parameters:
//   - action: filter by action (login, login_failed, provision, ...)
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if s.auditLog == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "audit logging not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{Action: q.Get("action")}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "offset must be an integer")
			return
		}
		filter.Offset = n
	}

	result, err := s.auditLog.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list audit logs", "error", err)
		writeInternalError(w, "failed to list audit logs")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
