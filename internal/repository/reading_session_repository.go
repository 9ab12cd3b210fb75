package repository

import (
	"context"
	"fmt"
	"time"

	"lector-reader/internal/domain"

	"github.com/supabase-community/postgrest-go"
)

const readingSessionsTable = "reading_sessions"

// ReadingSessionRepository implements domain.ReadingSessionRepository using Supabase.
type ReadingSessionRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

func NewReadingSessionRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) domain.ReadingSessionRepository {
	return &ReadingSessionRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

func (r *ReadingSessionRepository) Create(ctx context.Context, session *domain.ReadingSession, token string) (*domain.ReadingSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client, err := clientFor(r.supabaseClient, token)
	if err != nil {
		return nil, err
	}

	row := map[string]interface{}{
		"user_id":          session.UserID,
		"book_id":          session.DocumentID,
		"started_at":       formatTime(session.StartedAt),
		"last_activity_at": formatTime(session.LastActivityAt),
		"duration_seconds": session.DurationSeconds,
	}

	// Request "representation" so PostgREST returns the inserted row.
	data, _, err := client.From(readingSessionsTable).
		Insert(row, false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to create reading session: %w", err)
	}

	rows, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("failed to create reading session: empty response")
	}
	return mapToReadingSession(rows[0]), nil
}

func (r *ReadingSessionRepository) Get(ctx context.Context, userID, sessionID string, token string) (*domain.ReadingSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client, err := clientFor(r.supabaseClient, token)
	if err != nil {
		return nil, err
	}

	data, _, err := client.From(readingSessionsTable).
		Select("*", "", false).
		Eq("id", sessionID).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get reading session: %w", err)
	}

	rows, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrSessionNotFound
	}
	return mapToReadingSession(rows[0]), nil
}

func (r *ReadingSessionRepository) ListOpen(ctx context.Context, userID, documentID string, token string) ([]*domain.ReadingSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client, err := clientFor(r.supabaseClient, token)
	if err != nil {
		return nil, err
	}

	data, _, err := client.From(readingSessionsTable).
		Select("*", "", false).
		Eq("user_id", userID).
		Eq("book_id", documentID).
		Is("ended_at", "null").
		Order("started_at", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list open reading sessions: %w", err)
	}

	rows, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.ReadingSession, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapToReadingSession(row))
	}
	return out, nil
}

// ListStartedSince returns the user's sessions started at or after since,
// newest first.
func (r *ReadingSessionRepository) ListStartedSince(ctx context.Context, userID string, since time.Time, token string) ([]*domain.ReadingSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client, err := clientFor(r.supabaseClient, token)
	if err != nil {
		return nil, err
	}

	data, _, err := client.From(readingSessionsTable).
		Select("*", "", false).
		Eq("user_id", userID).
		Gte("started_at", formatTime(since)).
		Order("started_at", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list reading sessions: %w", err)
	}

	rows, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.ReadingSession, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapToReadingSession(row))
	}
	return out, nil
}

func (r *ReadingSessionRepository) Update(ctx context.Context, session *domain.ReadingSession, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	client, err := clientFor(r.supabaseClient, token)
	if err != nil {
		return err
	}

	row := map[string]interface{}{
		"last_activity_at": formatTime(session.LastActivityAt),
		"duration_seconds": session.DurationSeconds,
	}
	if session.EndedAt != nil {
		row["ended_at"] = formatTime(*session.EndedAt)
	}

	_, _, err = client.From(readingSessionsTable).
		Update(row, "", "").
		Eq("id", session.ID).
		Eq("user_id", session.UserID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update reading session: %w", err)
	}
	return nil
}

func mapToReadingSession(data map[string]interface{}) *domain.ReadingSession {
	s := &domain.ReadingSession{
		ID:              getString(data, "id"),
		UserID:          getString(data, "user_id"),
		DocumentID:      getString(data, "book_id"),
		StartedAt:       getTime(data, "started_at"),
		EndedAt:         getTimePointer(data, "ended_at"),
		LastActivityAt:  getTime(data, "last_activity_at"),
		DurationSeconds: getInt(data, "duration_seconds"),
		CreatedAt:       getTime(data, "created_at"),
	}
	if s.LastActivityAt.IsZero() {
		s.LastActivityAt = s.StartedAt
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = s.StartedAt
	}
	return s
}
