package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lector-reader/internal/domain"
)

const accountDisabledCacheTTL = 30 * time.Second

type accountDisabledCacheEntry struct {
	disabled  bool
	expiresAt time.Time
}

type authService struct {
	supabaseClient domain.SupabaseClient
	accounts       domain.AccountRepository
	logger         domain.Logger

	accountDisabledCacheMu sync.RWMutex
	accountDisabledCache   map[string]accountDisabledCacheEntry
}

func NewAuthService(
	supabaseClient domain.SupabaseClient,
	accounts domain.AccountRepository,
	logger domain.Logger,
) *authService {
	return &authService{
		supabaseClient:       supabaseClient,
		accounts:             accounts,
		logger:               logger,
		accountDisabledCache: make(map[string]accountDisabledCacheEntry),
	}
}

// ValidateToken validates a token and returns user info
func (s *authService) ValidateToken(token string) (*domain.SupabaseUser, error) {
	user, err := s.supabaseClient.ValidateToken(token)
	if err != nil {
		s.logger.Error("Failed to validate token with Supabase", err)
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return user, nil
}

// IsAccountDisabled reports the persisted account flag. Answers are cached
// per user for accountDisabledCacheTTL.
func (s *authService) IsAccountDisabled(userID string, token string) (bool, error) {
	now := time.Now()
	s.accountDisabledCacheMu.RLock()
	entry, ok := s.accountDisabledCache[userID]
	s.accountDisabledCacheMu.RUnlock()
	if ok && now.Before(entry.expiresAt) {
		return entry.disabled, nil
	}

	if s.accounts == nil {
		return false, nil
	}
	disabled, err := s.accounts.IsDisabled(context.Background(), userID, token)
	if err != nil {
		return false, err
	}

	s.accountDisabledCacheMu.Lock()
	s.accountDisabledCache[userID] = accountDisabledCacheEntry{disabled: disabled, expiresAt: now.Add(accountDisabledCacheTTL)}
	s.accountDisabledCacheMu.Unlock()

	return disabled, nil
}

// ForgetAccount drops the cached account flag so the next request reads it again.
func (s *authService) ForgetAccount(userID string) {
	s.accountDisabledCacheMu.Lock()
	delete(s.accountDisabledCache, userID)
	s.accountDisabledCacheMu.Unlock()
}
