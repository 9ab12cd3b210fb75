package domain

import (
	"testing"
	"time"
)

func TestSubscription_IsValid(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		sub  *Subscription
		want bool
	}{
		{name: "Nil subscription", sub: nil, want: false},
		{name: "Active and current", sub: &Subscription{Status: SubscriptionActive, EndDate: now.Add(24 * time.Hour)}, want: true},
		{name: "Active but past end", sub: &Subscription{Status: SubscriptionActive, EndDate: now.Add(-time.Hour)}, want: false},
		{name: "Cancelled", sub: &Subscription{Status: SubscriptionCancelled, EndDate: now.Add(24 * time.Hour)}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sub.IsValid(now); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestActorFromUser(t *testing.T) {
	user := &SupabaseUser{
		ID:    "user-1",
		Email: "student@example.com",
		UserMetadata: map[string]interface{}{
			"registration_number": "21/BSE/001",
		},
	}

	actor := ActorFromUser(user, "tok")
	if actor.UserID != "user-1" || actor.Token != "tok" {
		t.Fatalf("unexpected actor: %+v", actor)
	}
	if !actor.HasFreeAccess() {
		t.Fatalf("expected student to have free access")
	}

	visitor := ActorFromUser(&SupabaseUser{ID: "user-2"}, "tok")
	if visitor.HasFreeAccess() {
		t.Fatalf("expected visitor without ids to need a subscription")
	}

	staff := Actor{StaffID: "ST-9"}
	if !staff.HasFreeAccess() {
		t.Fatalf("expected staff to have free access")
	}
}
