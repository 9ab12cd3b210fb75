package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lector-reader/internal/domain"
	apperrors "lector-reader/pkg/errors"
	"lector-reader/pkg/logger"
)

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, http.StatusTeapot, "nope")

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content type application/json, got %s", ct)
	}
	if strings.TrimSpace(rr.Body.String()) != `{"error":"nope"}` {
		t.Fatalf("unexpected response body: %s", rr.Body.String())
	}
}

func TestToAppError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &domain.ValidationError{Field: "percent", Message: "must be between 0 and 100"}, http.StatusBadRequest},
		{"session not found", fmt.Errorf("lookup: %w", domain.ErrSessionNotFound), http.StatusNotFound},
		{"annotation not found", domain.ErrAnnotationNotFound, http.StatusNotFound},
		{"session closed", domain.ErrSessionClosed, http.StatusConflict},
		{"account disabled", domain.ErrAccountDisabled, http.StatusForbidden},
		{"invalid token", domain.ErrInvalidToken, http.StatusUnauthorized},
		{"app error", apperrors.NewNetworkError("upstream down", nil), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := toAppError(tt.err, "fallback")
			if appErr.StatusCode != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, appErr.StatusCode)
			}
		})
	}

	if msg := toAppError(errors.New("boom"), "Failed to load").Message; msg != "Failed to load" {
		t.Fatalf("expected fallback message, got %s", msg)
	}
}

func TestWriteServiceError_LogsOnlyServerFailures(t *testing.T) {
	rec := logger.NewRecorder()

	rr := httptest.NewRecorder()
	writeServiceError(rr, rec, domain.ErrAnnotationNotFound, "Failed to delete highlight")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}

	rr = httptest.NewRecorder()
	writeServiceError(rr, rec, errors.New("db down"), "Failed to delete highlight")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Failed to delete highlight") {
		t.Fatalf("unexpected response body: %s", rr.Body.String())
	}
	if rec.Count("ERROR") != 1 {
		t.Fatalf("expected 1 error log, got %d", rec.Count("ERROR"))
	}
}
