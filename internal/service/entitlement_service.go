package service

import (
	"context"
	"fmt"
	"time"

	"lector-reader/internal/domain"
)

type entitlementService struct {
	subscriptions domain.SubscriptionRepository
	accounts      domain.AccountRepository
	logger        domain.Logger
	now           func() time.Time
}

func NewEntitlementService(
	subscriptions domain.SubscriptionRepository,
	accounts domain.AccountRepository,
	logger domain.Logger,
) domain.EntitlementService {
	return &entitlementService{
		subscriptions: subscriptions,
		accounts:      accounts,
		logger:        logger,
		now:           time.Now,
	}
}

// Check decides whether actor may read. Students and staff read for free;
// visitors need an active subscription that has not ended.
func (s *entitlementService) Check(ctx context.Context, actor domain.Actor) (*domain.Entitlement, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUserNotFound
	}

	if s.accounts != nil {
		disabled, err := s.accounts.IsDisabled(ctx, actor.UserID, actor.Token)
		if err != nil {
			return nil, fmt.Errorf("failed to check account status: %w", err)
		}
		if disabled {
			return domain.Blocked(domain.ReasonAccountDisabled), nil
		}
	}

	if actor.HasFreeAccess() {
		return domain.Allowed(), nil
	}

	sub, err := s.subscriptions.Latest(ctx, actor.UserID, actor.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to check subscription: %w", err)
	}
	if sub == nil {
		return domain.Blocked(domain.ReasonSubscriptionRequired), nil
	}
	if !sub.IsValid(s.now()) {
		s.logger.Debug("Subscription not valid", "user_id", actor.UserID, "status", sub.Status, "end_date", sub.EndDate)
		return domain.Blocked(domain.ReasonSubscriptionExpired), nil
	}
	return domain.Allowed(), nil
}
