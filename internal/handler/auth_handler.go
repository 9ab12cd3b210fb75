package handler

import (
	"net/http"

	"lector-reader/internal/domain"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	authService domain.AuthService
	accounts    domain.AccountRepository
	logger      domain.Logger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService domain.AuthService, accounts domain.AccountRepository, logger domain.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		accounts:    accounts,
		logger:      logger,
	}
}

// ValidateToken returns the user the bearer token belongs to.
func (h *AuthHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// GetActor returns the reader identity derived from the user's metadata.
func (h *AuthHandler) GetActor(w http.ResponseWriter, r *http.Request) {
	user, token, ok := requireAuth(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, domain.ActorFromUser(user, token))
}

// RequestAccountDeletion marks the account as disabled so all devices are blocked.
func (h *AuthHandler) RequestAccountDeletion(w http.ResponseWriter, r *http.Request) {
	user, token, ok := requireAuth(w, r)
	if !ok {
		return
	}

	if err := h.accounts.SetDisabled(r.Context(), user.ID, true, token); err != nil {
		h.logger.Error("Failed to disable account", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to disable account")
		return
	}
	if h.authService != nil {
		h.authService.ForgetAccount(user.ID)
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Account disabled"})
}
