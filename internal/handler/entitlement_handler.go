package handler

import (
	"net/http"

	"lector-reader/internal/domain"
)

// EntitlementHandler answers whether the caller may open the reader.
type EntitlementHandler struct {
	entitlementService domain.EntitlementService
	logger             domain.Logger
}

func NewEntitlementHandler(entitlementService domain.EntitlementService, logger domain.Logger) *EntitlementHandler {
	return &EntitlementHandler{
		entitlementService: entitlementService,
		logger:             logger,
	}
}

// GetEntitlement handles GET /entitlement
func (h *EntitlementHandler) GetEntitlement(w http.ResponseWriter, r *http.Request) {
	user, token, ok := requireAuth(w, r)
	if !ok {
		return
	}

	entitlement, err := h.entitlementService.Check(r.Context(), domain.ActorFromUser(user, token))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to check entitlement", "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, entitlement)
}
