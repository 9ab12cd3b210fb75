package handler

import (
	"net/http"

	"lector-reader/internal/domain"
)

// DashboardHandler serves the reading overview of the caller.
type DashboardHandler struct {
	dashboardService domain.ReadingDashboardService
	logger           domain.Logger
}

func NewDashboardHandler(dashboardService domain.ReadingDashboardService, logger domain.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// GetDashboard handles GET /reading/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	user, token, ok := requireAuth(w, r)
	if !ok {
		return
	}

	dashboard, err := h.dashboardService.GetDashboard(r.Context(), user.ID, token)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to build reading dashboard", "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}
