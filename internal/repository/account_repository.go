package repository

import (
	"context"
	"fmt"

	"lector-reader/internal/domain"
)

// AccountRepository reads and writes the account status flag kept in
// user_preferences.
type AccountRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

func NewAccountRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) domain.AccountRepository {
	return &AccountRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

// IsDisabled checks `user_preferences.account_disabled`. A user without a
// preferences row is enabled.
func (r *AccountRepository) IsDisabled(ctx context.Context, userID string, token string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	client, err := clientFor(r.supabaseClient, token)
	if err != nil {
		return false, err
	}

	data, _, err := client.From("user_preferences").
		Select("account_disabled", "", false).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return false, fmt.Errorf("failed to get account status: %w", err)
	}

	rows, err := decodeRows(data)
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}
	return getBool(rows[0], "account_disabled"), nil
}

// SetDisabled upserts the flag without touching the other preference columns.
func (r *AccountRepository) SetDisabled(ctx context.Context, userID string, disabled bool, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	client, err := clientFor(r.supabaseClient, token)
	if err != nil {
		return err
	}

	data := map[string]interface{}{
		"user_id":          userID,
		"account_disabled": disabled,
	}
	if _, _, err := client.From("user_preferences").Upsert(data, "user_id", "", "").Execute(); err != nil {
		return fmt.Errorf("failed to update account status: %w", err)
	}
	r.logger.Info("Account status updated", "user_id", userID, "account_disabled", disabled)
	return nil
}
