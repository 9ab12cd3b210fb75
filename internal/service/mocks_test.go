package service

import (
	"context"
	"errors"
	"time"

	"github.com/supabase-community/supabase-go"
	"lector-reader/internal/domain"
)

type MockLogger struct {
	messages []string
}

func NewMockLogger() *MockLogger {
	return &MockLogger{
		messages: []string{},
	}
}

func (m *MockLogger) Info(msg string, args ...interface{}) {
	m.messages = append(m.messages, "INFO: "+msg)
}

func (m *MockLogger) Error(msg string, err error, args ...interface{}) {
	m.messages = append(m.messages, "ERROR: "+msg+" - "+err.Error())
}

func (m *MockLogger) Debug(msg string, args ...interface{}) {
	m.messages = append(m.messages, "DEBUG: "+msg)
}

func (m *MockLogger) Warn(msg string, args ...interface{}) {
	m.messages = append(m.messages, "WARN: "+msg)
}

// MockSupabaseClient for testing
type MockSupabaseClient struct {
	users map[string]*domain.SupabaseUser
}

func NewMockSupabaseClient() *MockSupabaseClient {
	return &MockSupabaseClient{
		users: make(map[string]*domain.SupabaseUser),
	}
}

func (m *MockSupabaseClient) Initialize() error {
	return nil
}

func (m *MockSupabaseClient) ValidateToken(token string) (*domain.SupabaseUser, error) {
	if token == "valid-token" {
		return &domain.SupabaseUser{
			ID:    "user-123",
			Email: "test@example.com",
		}, nil
	}
	if token == "invalid-token" {
		return nil, errors.New("invalid token")
	}
	return nil, errors.New("token validation failed")
}

func (m *MockSupabaseClient) DB() *supabase.Client {
	return nil
}

func (m *MockSupabaseClient) GetClientWithToken(token string) (*supabase.Client, error) {
	return nil, nil
}

// MockAccountRepository counts lookups so cache behaviour can be checked.
type MockAccountRepository struct {
	disabled map[string]bool
	err      error
	calls    int
}

func (m *MockAccountRepository) IsDisabled(ctx context.Context, userID string, token string) (bool, error) {
	m.calls++
	if m.err != nil {
		return false, m.err
	}
	return m.disabled[userID], nil
}

func (m *MockAccountRepository) SetDisabled(ctx context.Context, userID string, disabled bool, token string) error {
	if m.err != nil {
		return m.err
	}
	if m.disabled == nil {
		m.disabled = make(map[string]bool)
	}
	m.disabled[userID] = disabled
	return nil
}

// MockSubscriptionRepository returns a fixed subscription.
type MockSubscriptionRepository struct {
	sub   *domain.Subscription
	err   error
	calls int
}

func (m *MockSubscriptionRepository) Latest(ctx context.Context, userID string, token string) (*domain.Subscription, error) {
	m.calls++
	return m.sub, m.err
}

// fakeClock is a settable time source.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
