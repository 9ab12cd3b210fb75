package domain

import (
	"context"
	"time"
)

// Subscription statuses as stored in user_subscriptions.status.
const (
	SubscriptionActive    = "ACTIVE"
	SubscriptionExpired   = "EXPIRED"
	SubscriptionCancelled = "CANCELLED"
)

// Gate reasons returned with a blocked entitlement.
const (
	ReasonSubscriptionRequired = "subscription_required"
	ReasonSubscriptionExpired  = "subscription_expired"
	ReasonAccountDisabled      = "account_disabled"
	ReasonCheckFailed          = "entitlement_check_failed"
)

// Subscription is a visitor's paid access window.
type Subscription struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Plan      string    `json:"plan"`
	Status    string    `json:"status"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
}

// IsValid reports whether the subscription grants access at now.
func (s *Subscription) IsValid(now time.Time) bool {
	return s != nil && s.Status == SubscriptionActive && s.EndDate.After(now)
}

// Entitlement answers whether an actor may read at all.
type Entitlement struct {
	Blocked bool   `json:"blocked"`
	Reason  string `json:"reason,omitempty"`
}

// Allowed is the entitlement of an actor with access.
func Allowed() *Entitlement {
	return &Entitlement{}
}

// Blocked is the entitlement of an actor without access.
func Blocked(reason string) *Entitlement {
	return &Entitlement{Blocked: true, Reason: reason}
}

// Actor is the reader on whose behalf the client acts.
type Actor struct {
	UserID             string `json:"user_id"`
	Email              string `json:"email,omitempty"`
	Token              string `json:"-"`
	RegistrationNumber string `json:"registration_number,omitempty"`
	StaffID            string `json:"staff_id,omitempty"`
}

// HasFreeAccess reports whether the actor is a student or staff member.
// Everyone else is a visitor and needs a subscription.
func (a Actor) HasFreeAccess() bool {
	return a.RegistrationNumber != "" || a.StaffID != ""
}

// ActorFromUser builds an actor from an authenticated Supabase user.
func ActorFromUser(user *SupabaseUser, token string) Actor {
	actor := Actor{Token: token}
	if user == nil {
		return actor
	}
	actor.UserID = user.ID
	actor.Email = user.Email
	if v, ok := user.UserMetadata["registration_number"].(string); ok {
		actor.RegistrationNumber = v
	}
	if v, ok := user.UserMetadata["staff_id"].(string); ok {
		actor.StaffID = v
	}
	return actor
}

// SubscriptionRepository reads subscriptions.
type SubscriptionRepository interface {
	// Latest returns the active subscription with the furthest end date, or
	// the most recently created one when none is active. Nil when the user
	// never subscribed.
	Latest(ctx context.Context, userID string, token string) (*Subscription, error)
}

// EntitlementService decides whether an actor may open the reader.
type EntitlementService interface {
	Check(ctx context.Context, actor Actor) (*Entitlement, error)
}
