package supabase

import (
	"strings"

	"lector-reader/internal/domain"

	"github.com/supabase-community/supabase-go"
)

// DevClient stands in for Supabase Auth when the server runs without
// credentials. The bearer token is the user id; a "student:" or "staff:"
// prefix grants the matching free access metadata.
type DevClient struct{}

func NewDevClient() domain.SupabaseClient {
	return &DevClient{}
}

func (d *DevClient) Initialize() error { return nil }

func (d *DevClient) DB() *supabase.Client { return nil }

func (d *DevClient) GetClientWithToken(token string) (*supabase.Client, error) {
	return nil, nil
}

func (d *DevClient) ValidateToken(token string) (*domain.SupabaseUser, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrInvalidToken
	}

	user := &domain.SupabaseUser{UserMetadata: map[string]interface{}{}}
	kind, id, found := strings.Cut(token, ":")
	switch {
	case found && kind == "student" && id != "":
		user.ID = id
		user.UserMetadata["registration_number"] = "dev-" + id
	case found && kind == "staff" && id != "":
		user.ID = id
		user.UserMetadata["staff_id"] = "dev-" + id
	case found:
		return nil, domain.ErrInvalidToken
	default:
		user.ID = token
	}
	user.Email = user.ID + "@localhost"
	return user, nil
}
