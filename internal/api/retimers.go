package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgejguo/retimer-core/internal/retimer"
)

// labelBufferSize is the scratch buffer size for label reads.
// Labels are short strings from the device tree; 256 bytes is generous.
const labelBufferSize = 256

// retimerView is the JSON representation of a registered handle.
type retimerView struct {
	ID     int             `json:"id"`
	Name   string          `json:"name"`
	Parent *retimer.Parent `json:"parent,omitempty"`
	Label  string          `json:"label"`
}

// registerRequest is the body for POST /retimers.
type registerRequest struct {
	Parent *retimer.Parent `json:"parent"`
}

func (s *Server) viewOf(h *retimer.Handle) retimerView {
	return retimerView{
		ID:     h.ID(),
		Name:   h.Name(),
		Parent: h.Parent(),
		Label:  s.registry.Label(h),
	}
}

// handleListRetimers returns all registered handles in identifier order.
func (s *Server) handleListRetimers(w http.ResponseWriter, _ *http.Request) {
	handles := s.registry.Handles()

	views := make([]retimerView, 0, len(handles))
	for _, h := range handles {
		views = append(views, s.viewOf(h))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"retimers": views,
		"count":    len(views),
	})
}

// handleRegisterRetimer registers a new handle for the given parent device.
func (s *Server) handleRegisterRetimer(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Parent == nil || req.Parent.Name == "" {
		writeBadRequest(w, "parent with a name is required")
		return
	}

	h, err := s.registry.Register(req.Parent)
	if err != nil {
		switch {
		case errors.Is(err, retimer.ErrExhausted):
			writeConflict(w, "identifier space exhausted")
		case errors.Is(err, retimer.ErrRegistrationFailed):
			writeConflict(w, "registration failed")
		default:
			s.logger.Error("retimer registration failed", "error", err)
			writeInternalError(w, "registration failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, s.viewOf(h))
}

// handleGetRetimer returns a single handle by name.
func (s *Server) handleGetRetimer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := retimer.ParseHandleName(name); err != nil {
		writeBadRequest(w, "malformed retimer name")
		return
	}

	h, ok := s.registry.Lookup(name)
	if !ok {
		writeNotFound(w, "no such retimer")
		return
	}

	writeJSON(w, http.StatusOK, s.viewOf(h))
}

// handleUnregisterRetimer removes a handle and releases its identifier.
func (s *Server) handleUnregisterRetimer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := retimer.ParseHandleName(name); err != nil {
		writeBadRequest(w, "malformed retimer name")
		return
	}

	h, ok := s.registry.Lookup(name)
	if !ok {
		writeNotFound(w, "no such retimer")
		return
	}

	s.registry.Unregister(h)
	w.WriteHeader(http.StatusNoContent)
}

// handleGetLabel returns the handle's label as plain text.
//
// The body matches the attribute read format: the label followed by a
// trailing newline. Absent or empty labels read as "unknown".
func (s *Server) handleGetLabel(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := retimer.ParseHandleName(name); err != nil {
		writeBadRequest(w, "malformed retimer name")
		return
	}

	h, ok := s.registry.Lookup(name)
	if !ok {
		writeNotFound(w, "no such retimer")
		return
	}

	buf := make([]byte, labelBufferSize)
	n := s.registry.ReadLabel(h, buf)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write to response
	w.Write(buf[:n])
}
