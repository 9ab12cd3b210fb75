package handler

import (
	"net/http"

	"lector-reader/internal/domain"

	"github.com/gorilla/mux"
)

// AnnotationHandler handles highlight and underline requests.
type AnnotationHandler struct {
	annotationService domain.AnnotationService
	logger            domain.Logger
}

func NewAnnotationHandler(annotationService domain.AnnotationService, logger domain.Logger) *AnnotationHandler {
	return &AnnotationHandler{
		annotationService: annotationService,
		logger:            logger,
	}
}

// ListAnnotations handles GET /reading/highlights/{documentId}
func (h *AnnotationHandler) ListAnnotations(w http.ResponseWriter, r *http.Request) {
	user, token, ok := requireAuth(w, r)
	if !ok {
		return
	}
	documentID := mux.Vars(r)["documentId"]

	annotations, err := h.annotationService.ListAnnotations(r.Context(), user.ID, documentID, token)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to retrieve highlights", "user_id", user.ID, "document_id", documentID)
		return
	}
	if annotations == nil {
		annotations = make([]*domain.Annotation, 0)
	}
	writeJSON(w, http.StatusOK, annotations)
}

// CreateAnnotation handles POST /reading/highlights/{documentId}. The path
// decides the document regardless of the body.
func (h *AnnotationHandler) CreateAnnotation(w http.ResponseWriter, r *http.Request) {
	user, token, ok := requireAuth(w, r)
	if !ok {
		return
	}
	documentID := mux.Vars(r)["documentId"]

	var annotation domain.Annotation
	if err := decodeJSON(r, &annotation); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	annotation.ID = ""
	annotation.DocumentID = documentID

	created, err := h.annotationService.CreateAnnotation(r.Context(), user.ID, &annotation, token)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to create highlight", "user_id", user.ID, "document_id", documentID)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateAnnotation handles PATCH /reading/highlights/{highlightId}/detail
func (h *AnnotationHandler) UpdateAnnotation(w http.ResponseWriter, r *http.Request) {
	user, token, ok := requireAuth(w, r)
	if !ok {
		return
	}
	highlightID := mux.Vars(r)["highlightId"]

	var patch domain.AnnotationPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.annotationService.UpdateAnnotation(r.Context(), user.ID, highlightID, patch, token)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to update highlight", "user_id", user.ID, "highlight_id", highlightID)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteAnnotation handles DELETE /reading/highlights/{highlightId}/detail
func (h *AnnotationHandler) DeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	user, token, ok := requireAuth(w, r)
	if !ok {
		return
	}
	highlightID := mux.Vars(r)["highlightId"]

	if err := h.annotationService.DeleteAnnotation(r.Context(), user.ID, highlightID, token); err != nil {
		writeServiceError(w, h.logger, err, "Failed to delete highlight", "user_id", user.ID, "highlight_id", highlightID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
