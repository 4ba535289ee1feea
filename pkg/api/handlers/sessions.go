package handlers

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/marmos91/sessiond/internal/logger"
	"github.com/marmos91/sessiond/pkg/journal"
)

// DefaultHistoryLimit applies when the history request has no limit.
const DefaultHistoryLimit = 100

// MaxHistoryLimit caps the history limit query parameter.
const MaxHistoryLimit = 10000

// DisconnectAllResponse reports how many sessions were kicked.
type DisconnectAllResponse struct {
	Disconnected int `json:"disconnected"`
}

// SessionHandler serves the session endpoints.
type SessionHandler struct {
	backend Backend
	history journal.Store
}

// NewSessionHandler creates a handler. history may be nil, in which case
// the history endpoint answers 503.
func NewSessionHandler(backend Backend, history journal.Store) *SessionHandler {
	return &SessionHandler{backend: backend, history: history}
}

// Server handles GET /api/v1/server.
func (h *SessionHandler) Server(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, h.backend.Info())
}

// List handles GET /api/v1/sessions.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions := h.backend.Sessions()
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].ConnectedAt.Before(sessions[j].ConnectedAt)
	})
	WriteJSONOK(w, sessions)
}

// Get handles GET /api/v1/sessions/{id}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	info, found := h.backend.Session(id)
	if !found {
		NotFound(w, "session not found")
		return
	}
	WriteJSONOK(w, info)
}

// Disconnect handles DELETE /api/v1/sessions/{id}.
func (h *SessionHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	if !h.backend.Disconnect(id) {
		NotFound(w, "session not found")
		return
	}
	logger.Info("Session disconnected via API", logger.SessionID(id.String()))
	WriteNoContent(w)
}

// DisconnectAll handles DELETE /api/v1/sessions.
func (h *SessionHandler) DisconnectAll(w http.ResponseWriter, r *http.Request) {
	n := h.backend.DisconnectAll()
	logger.Info("All sessions disconnected via API", logger.KeyCount, n)
	WriteJSONOK(w, DisconnectAllResponse{Disconnected: n})
}

// History handles GET /api/v1/sessions/history?session=<id>&limit=<n>.
func (h *SessionHandler) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		ServiceUnavailable(w, "session journal is disabled")
		return
	}

	q := journal.Query{Limit: DefaultHistoryLimit}
	if raw := r.URL.Query().Get("session"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			BadRequest(w, "invalid session id")
			return
		}
		q.SessionID = id
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxHistoryLimit {
			BadRequest(w, "limit must be between 1 and "+strconv.Itoa(MaxHistoryLimit))
			return
		}
		q.Limit = n
	}

	events, err := h.history.List(r.Context(), q)
	if err != nil {
		logger.Error("Failed to list session history", logger.Err(err))
		InternalServerError(w, "failed to read session history")
		return
	}
	if events == nil {
		events = []journal.Event{}
	}
	WriteJSONOK(w, events)
}

func sessionIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		BadRequest(w, "invalid session id")
		return uuid.Nil, false
	}
	return id, true
}
