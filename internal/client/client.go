// Package client talks to the lector API on behalf of the reader. It
// implements the reader's entitlement gate and its session, progress and
// annotation stores.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lector-reader/internal/domain"
	apperrors "lector-reader/pkg/errors"
)

const defaultTimeout = 15 * time.Second

// Client is a REST client for /api/v1.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     domain.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL, token string, logger domain.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/api/v1",
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ValidateToken returns the user the client's token belongs to.
func (c *Client) ValidateToken(ctx context.Context) (*domain.SupabaseUser, error) {
	var user domain.SupabaseUser
	if err := c.do(ctx, http.MethodGet, "/auth/validate", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Actor resolves the reader identity for the client's token.
func (c *Client) Actor(ctx context.Context) (domain.Actor, error) {
	var actor domain.Actor
	if err := c.do(ctx, http.MethodGet, "/auth/actor", nil, &actor); err != nil {
		return domain.Actor{}, err
	}
	actor.Token = c.token
	return actor, nil
}

// CheckEntitlement asks the server whether actor may read. The server
// identifies the actor by the bearer token.
func (c *Client) CheckEntitlement(ctx context.Context, actor domain.Actor) (*domain.Entitlement, error) {
	var ent domain.Entitlement
	if err := c.doAs(ctx, actor.Token, http.MethodGet, "/entitlement", nil, &ent); err != nil {
		return nil, err
	}
	return &ent, nil
}

// StartOrResumeSession returns the open session for documentID, creating one
// when none is open.
func (c *Client) StartOrResumeSession(ctx context.Context, documentID string) (*domain.ReadingSession, error) {
	var session domain.ReadingSession
	if err := c.do(ctx, http.MethodPost, "/reading/sessions/"+url.PathEscape(documentID)+"/active", nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// StartSession ends any open session for documentID and starts a new one.
func (c *Client) StartSession(ctx context.Context, documentID string) (*domain.ReadingSession, error) {
	var session domain.ReadingSession
	if err := c.do(ctx, http.MethodPost, "/reading/sessions/"+url.PathEscape(documentID)+"/start", nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) EndSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodPost, "/reading/sessions/"+url.PathEscape(sessionID)+"/end", nil, nil)
}

func (c *Client) PushProgress(ctx context.Context, sessionID string, update domain.ProgressUpdate) error {
	return c.do(ctx, http.MethodPost, "/reading/sessions/"+url.PathEscape(sessionID)+"/update", update, nil)
}

func (c *Client) GetProgress(ctx context.Context, documentID string) (*domain.ReadingProgress, error) {
	var progress domain.ReadingProgress
	if err := c.do(ctx, http.MethodGet, "/reading/progress/"+url.PathEscape(documentID), nil, &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

func (c *Client) UpdateProgress(ctx context.Context, documentID string, patch domain.ProgressPatch) (*domain.ReadingProgress, error) {
	var progress domain.ReadingProgress
	if err := c.do(ctx, http.MethodPatch, "/reading/progress/"+url.PathEscape(documentID), patch, &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

// Dashboard returns the reading overview of the client's user.
func (c *Client) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	var dashboard domain.Dashboard
	if err := c.do(ctx, http.MethodGet, "/reading/dashboard", nil, &dashboard); err != nil {
		return nil, err
	}
	return &dashboard, nil
}

func (c *Client) ListAnnotations(ctx context.Context, documentID string) ([]*domain.Annotation, error) {
	var annotations []*domain.Annotation
	if err := c.do(ctx, http.MethodGet, "/reading/highlights/"+url.PathEscape(documentID), nil, &annotations); err != nil {
		return nil, err
	}
	return annotations, nil
}

func (c *Client) CreateAnnotation(ctx context.Context, documentID string, draft *domain.Annotation) (*domain.Annotation, error) {
	var created domain.Annotation
	if err := c.do(ctx, http.MethodPost, "/reading/highlights/"+url.PathEscape(documentID), draft, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateAnnotation(ctx context.Context, annotationID string, patch domain.AnnotationPatch) (*domain.Annotation, error) {
	var updated domain.Annotation
	if err := c.do(ctx, http.MethodPatch, "/reading/highlights/"+url.PathEscape(annotationID)+"/detail", patch, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteAnnotation(ctx context.Context, annotationID string) error {
	return c.do(ctx, http.MethodDelete, "/reading/highlights/"+url.PathEscape(annotationID)+"/detail", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	return c.doAs(ctx, c.token, method, path, body, out)
}

// doAs sends one JSON request. Non-2xx responses become *apperrors.AppError
// typed by status; transport failures become network errors.
func (c *Client) doAs(ctx context.Context, token, method, path string, body, out interface{}) error {
	if token == "" {
		token = c.token
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return apperrors.NewNetworkError(method+" "+path+" failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		appErr := apperrors.FromStatus(resp.StatusCode, readErrorMessage(resp))
		c.logger.Debug("API request failed", "method", method, "path", path, "status", resp.StatusCode, "error", appErr.Message)
		return appErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func readErrorMessage(resp *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	if msg := strings.TrimSpace(string(data)); msg != "" {
		return msg
	}
	return http.StatusText(resp.StatusCode)
}
