package handler

import (
	"crypto/subtle"
	"net/http"

	"lector-reader/internal/domain"

	"github.com/gorilla/mux"
)

// AdminHandler exposes support endpoints protected by X-Admin-Secret.
// The account repository it receives is expected to bypass row level security.
type AdminHandler struct {
	accounts    domain.AccountRepository
	authService domain.AuthService
	secret      string
	logger      domain.Logger
}

func NewAdminHandler(accounts domain.AccountRepository, authService domain.AuthService, secret string, logger domain.Logger) *AdminHandler {
	return &AdminHandler{
		accounts:    accounts,
		authService: authService,
		secret:      secret,
		logger:      logger,
	}
}

type setAccountDisabledRequest struct {
	AccountDisabled bool `json:"account_disabled"`
}

// SetAccountDisabled toggles the account flag for a given user. Disabled
// users are refused by the auth middleware and blocked by the entitlement gate.
func (h *AdminHandler) SetAccountDisabled(w http.ResponseWriter, r *http.Request) {
	secret := r.Header.Get("X-Admin-Secret")
	if h.secret == "" || secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.secret)) != 1 {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if h.accounts == nil {
		writeError(w, http.StatusInternalServerError, "Server misconfigured")
		return
	}

	userID := mux.Vars(r)["id"]
	if userID == "" {
		writeError(w, http.StatusBadRequest, "User id is required")
		return
	}

	var req setAccountDisabledRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.accounts.SetDisabled(r.Context(), userID, req.AccountDisabled, ""); err != nil {
		h.logger.Error("Failed to update account status", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "Failed to update account status")
		return
	}
	if h.authService != nil {
		h.authService.ForgetAccount(userID)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":          userID,
		"account_disabled": req.AccountDisabled,
	})
}
