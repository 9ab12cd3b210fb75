package repository

import (
	"context"
	"fmt"

	"lector-reader/internal/domain"

	"github.com/supabase-community/postgrest-go"
)

const subscriptionsTable = "user_subscriptions"

// SubscriptionRepository implements domain.SubscriptionRepository using Supabase.
type SubscriptionRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

func NewSubscriptionRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) domain.SubscriptionRepository {
	return &SubscriptionRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

func (r *SubscriptionRepository) Latest(ctx context.Context, userID string, token string) (*domain.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client, err := clientFor(r.supabaseClient, token)
	if err != nil {
		return nil, err
	}

	data, _, err := client.From(subscriptionsTable).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriptions: %w", err)
	}

	rows, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	subs := make([]*domain.Subscription, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, mapToSubscription(row))
	}
	return pickSubscription(subs), nil
}

// pickSubscription returns the active subscription ending last, else the
// first (most recently created) one.
func pickSubscription(subs []*domain.Subscription) *domain.Subscription {
	var best *domain.Subscription
	for _, s := range subs {
		if s.Status != domain.SubscriptionActive {
			continue
		}
		if best == nil || s.EndDate.After(best.EndDate) {
			best = s
		}
	}
	if best != nil {
		return best
	}
	if len(subs) > 0 {
		return subs[0]
	}
	return nil
}

func mapToSubscription(data map[string]interface{}) *domain.Subscription {
	return &domain.Subscription{
		ID:        getString(data, "id"),
		UserID:    getString(data, "user_id"),
		Plan:      getString(data, "plan"),
		Status:    getString(data, "status"),
		StartDate: getTime(data, "start_date"),
		EndDate:   getTime(data, "end_date"),
		CreatedAt: getTime(data, "created_at"),
	}
}
