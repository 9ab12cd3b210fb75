package domain

import "context"

type AuthService interface {
	ValidateToken(token string) (*SupabaseUser, error)
	IsAccountDisabled(userID string, token string) (bool, error)
	ForgetAccount(userID string)
}

// AccountRepository reads and writes the per-user account status flag.
type AccountRepository interface {
	IsDisabled(ctx context.Context, userID string, token string) (bool, error)
	SetDisabled(ctx context.Context, userID string, disabled bool, token string) error
}
