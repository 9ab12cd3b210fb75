package handler

import (
	"context"
	"net/http"
	"strings"

	"lector-reader/internal/domain"
)

// AuthMiddleware validates Supabase JWT tokens and rejects disabled accounts.
type AuthMiddleware struct {
	authService domain.AuthService
	logger      domain.Logger
}

func NewAuthMiddleware(authService domain.AuthService, logger domain.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		logger:      logger,
	}
}

func (m *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		// Extract token from "Bearer <token>" format
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Token required")
			return
		}

		user, err := m.authService.ValidateToken(token)
		if err != nil || user == nil {
			m.logger.Warn("Token validation failed", "token", tokenPrefix(token))
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		disabled, err := m.authService.IsAccountDisabled(user.ID, token)
		if err != nil {
			m.logger.Error("Failed to check account status", err, "user_id", user.ID)
			writeError(w, http.StatusInternalServerError, "Failed to check account status")
			return
		}
		if disabled {
			writeError(w, http.StatusForbidden, "Account disabled")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		ctx = context.WithValue(ctx, tokenContextKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func tokenPrefix(token string) string {
	if len(token) <= 10 {
		return token[:len(token)/2] + "..."
	}
	return token[:10] + "..."
}
