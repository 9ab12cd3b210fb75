package handler

import (
	"net/http"

	"lector-reader/internal/domain"

	"github.com/gorilla/mux"
)

// ProgressHandler handles reading progress requests outside of a session.
type ProgressHandler struct {
	progressService domain.ReadingProgressService
	logger          domain.Logger
}

func NewProgressHandler(progressService domain.ReadingProgressService, logger domain.Logger) *ProgressHandler {
	return &ProgressHandler{
		progressService: progressService,
		logger:          logger,
	}
}

// GetProgress handles GET /reading/progress/{documentId}
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	user, token, ok := requireAuth(w, r)
	if !ok {
		return
	}
	documentID := mux.Vars(r)["documentId"]

	progress, err := h.progressService.GetProgress(r.Context(), user.ID, documentID, token)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to retrieve reading progress", "user_id", user.ID, "document_id", documentID)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// UpdateProgress handles PATCH /reading/progress/{documentId}
func (h *ProgressHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	user, token, ok := requireAuth(w, r)
	if !ok {
		return
	}
	documentID := mux.Vars(r)["documentId"]

	var patch domain.ProgressPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	progress, err := h.progressService.UpdateProgress(r.Context(), user.ID, documentID, patch, token)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to update reading progress", "user_id", user.ID, "document_id", documentID)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}
