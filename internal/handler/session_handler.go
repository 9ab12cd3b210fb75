package handler

import (
	"errors"
	"net/http"

	"lector-reader/internal/domain"

	"github.com/gorilla/mux"
)

// SessionHandler handles reading session requests.
type SessionHandler struct {
	sessionService domain.ReadingSessionService
	logger         domain.Logger
}

func NewSessionHandler(sessionService domain.ReadingSessionService, logger domain.Logger) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		logger:         logger,
	}
}

// GetOrCreateActive handles POST /reading/sessions/{documentId}/active
func (h *SessionHandler) GetOrCreateActive(w http.ResponseWriter, r *http.Request) {
	user, token, ok := requireAuth(w, r)
	if !ok {
		return
	}
	documentID := mux.Vars(r)["documentId"]

	session, err := h.sessionService.GetOrCreateActiveSession(r.Context(), user.ID, documentID, token)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to open reading session", "user_id", user.ID, "document_id", documentID)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Start handles POST /reading/sessions/{documentId}/start
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	user, token, ok := requireAuth(w, r)
	if !ok {
		return
	}
	documentID := mux.Vars(r)["documentId"]

	session, err := h.sessionService.StartSession(r.Context(), user.ID, documentID, token)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to start reading session", "user_id", user.ID, "document_id", documentID)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// End handles POST /reading/sessions/{sessionId}/end. Only open sessions
// can be ended; anything else is reported as not found.
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	user, token, ok := requireAuth(w, r)
	if !ok {
		return
	}
	sessionID := mux.Vars(r)["sessionId"]

	session, err := h.sessionService.EndSession(r.Context(), user.ID, sessionID, token)
	if errors.Is(err, domain.ErrSessionClosed) {
		writeError(w, http.StatusNotFound, "Active session not found")
		return
	}
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to end reading session", "user_id", user.ID, "session_id", sessionID)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Update handles POST /reading/sessions/{sessionId}/update
func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, token, ok := requireAuth(w, r)
	if !ok {
		return
	}
	sessionID := mux.Vars(r)["sessionId"]

	var update domain.ProgressUpdate
	if err := decodeJSON(r, &update); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	progress, err := h.sessionService.RecordProgress(r.Context(), user.ID, sessionID, update, token)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to record progress", "user_id", user.ID, "session_id", sessionID)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}
