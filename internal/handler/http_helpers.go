package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"lector-reader/internal/domain"
	apperrors "lector-reader/pkg/errors"
)

type contextKey string

const (
	userContextKey  contextKey = "user"
	tokenContextKey contextKey = "token"
)

// GetUserFromContext extracts the authenticated user from request context
func GetUserFromContext(r *http.Request) (*domain.SupabaseUser, bool) {
	user, ok := r.Context().Value(userContextKey).(*domain.SupabaseUser)
	return user, ok
}

// GetTokenFromContext extracts the authentication token from request context
func GetTokenFromContext(r *http.Request) (string, bool) {
	token, ok := r.Context().Value(tokenContextKey).(string)
	return token, ok
}

// requireAuth returns the user and token placed in the context by the auth
// middleware, writing a 401 when either is missing.
func requireAuth(w http.ResponseWriter, r *http.Request) (*domain.SupabaseUser, string, bool) {
	user, ok := GetUserFromContext(r)
	if !ok || user == nil {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return nil, "", false
	}
	token, ok := GetTokenFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Token not found in context")
		return nil, "", false
	}
	return user, token, true
}

// writeError writes an error response (helper function)
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	return json.NewDecoder(r.Body).Decode(v)
}

// toAppError classifies service errors for the HTTP layer. Unknown errors
// become internal errors carrying fallback as their message.
func toAppError(err error, fallback string) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		return apperrors.NewValidationError(vErr.Error())
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrAnnotationNotFound),
		errors.Is(err, domain.ErrDocumentNotFound):
		return apperrors.NewNotFoundError(err.Error())
	case errors.Is(err, domain.ErrSessionClosed):
		return apperrors.NewConflictError(err.Error())
	case errors.Is(err, domain.ErrAccessDenied), errors.Is(err, domain.ErrAccountDisabled):
		return apperrors.NewForbiddenError(err.Error())
	case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrUserNotFound):
		return apperrors.NewUnauthorizedError(err.Error())
	default:
		return apperrors.NewInternalError(fallback, err)
	}
}

// writeServiceError logs server-side failures and writes the mapped status.
func writeServiceError(w http.ResponseWriter, logger domain.Logger, err error, fallback string, fields ...interface{}) {
	appErr := toAppError(err, fallback)
	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.Error(fallback, err, fields...)
	} else {
		logger.Debug(fallback, append(fields, "error", err.Error())...)
	}
	writeError(w, appErr.StatusCode, appErr.Message)
}
