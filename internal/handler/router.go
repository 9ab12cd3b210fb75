package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Auth        *AuthHandler
	Admin       *AdminHandler
	Entitlement *EntitlementHandler
	Session     *SessionHandler
	Progress    *ProgressHandler
	Dashboard   *DashboardHandler
	Annotation  *AnnotationHandler
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(h Handlers, authMiddleware func(http.Handler) http.Handler, allowedOrigins []string) http.Handler {
	router := mux.NewRouter()

	// Health check endpoint (no auth required)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "lector-reader"})
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	// Admin routes authenticate with X-Admin-Secret instead of a user token.
	if h.Admin != nil {
		api.HandleFunc("/admin/users/{id}/account-disabled", h.Admin.SetAccountDisabled).Methods(http.MethodPut)
	}

	protected := api.PathPrefix("").Subrouter()
	protected.Use(authMiddleware)

	protected.HandleFunc("/auth/validate", h.Auth.ValidateToken).Methods(http.MethodGet)
	protected.HandleFunc("/auth/actor", h.Auth.GetActor).Methods(http.MethodGet)
	protected.HandleFunc("/auth/account", h.Auth.RequestAccountDeletion).Methods(http.MethodDelete)

	protected.HandleFunc("/entitlement", h.Entitlement.GetEntitlement).Methods(http.MethodGet)

	protected.HandleFunc("/reading/sessions/{documentId}/active", h.Session.GetOrCreateActive).Methods(http.MethodPost)
	protected.HandleFunc("/reading/sessions/{documentId}/start", h.Session.Start).Methods(http.MethodPost)
	protected.HandleFunc("/reading/sessions/{sessionId}/end", h.Session.End).Methods(http.MethodPost)
	protected.HandleFunc("/reading/sessions/{sessionId}/update", h.Session.Update).Methods(http.MethodPost)

	protected.HandleFunc("/reading/progress/{documentId}", h.Progress.GetProgress).Methods(http.MethodGet)
	protected.HandleFunc("/reading/progress/{documentId}", h.Progress.UpdateProgress).Methods(http.MethodPatch)

	protected.HandleFunc("/reading/dashboard", h.Dashboard.GetDashboard).Methods(http.MethodGet)

	protected.HandleFunc("/reading/highlights/{documentId}", h.Annotation.ListAnnotations).Methods(http.MethodGet)
	protected.HandleFunc("/reading/highlights/{documentId}", h.Annotation.CreateAnnotation).Methods(http.MethodPost)
	protected.HandleFunc("/reading/highlights/{highlightId}/detail", h.Annotation.UpdateAnnotation).Methods(http.MethodPatch)
	protected.HandleFunc("/reading/highlights/{highlightId}/detail", h.Annotation.DeleteAnnotation).Methods(http.MethodDelete)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Admin-Secret",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router)
}
