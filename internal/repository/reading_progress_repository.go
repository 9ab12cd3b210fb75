package repository

import (
	"context"
	"fmt"

	"lector-reader/internal/domain"

	"github.com/supabase-community/postgrest-go"
)

const readingProgressTable = "reading_progress"

// ReadingProgressRepository implements domain.ReadingProgressRepository using Supabase.
type ReadingProgressRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

func NewReadingProgressRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) domain.ReadingProgressRepository {
	return &ReadingProgressRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

// Get returns the stored record, or nil when the user never read the document.
func (r *ReadingProgressRepository) Get(ctx context.Context, userID, documentID string, token string) (*domain.ReadingProgress, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client, err := clientFor(r.supabaseClient, token)
	if err != nil {
		return nil, err
	}

	data, _, err := client.From(readingProgressTable).
		Select("*", "", false).
		Eq("user_id", userID).
		Eq("book_id", documentID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get reading progress: %w", err)
	}

	rows, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapToReadingProgress(rows[0]), nil
}

func (r *ReadingProgressRepository) Upsert(ctx context.Context, progress *domain.ReadingProgress, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	client, err := clientFor(r.supabaseClient, token)
	if err != nil {
		return err
	}

	row := map[string]interface{}{
		"user_id":            progress.UserID,
		"book_id":            progress.DocumentID,
		"current_page":       progress.CurrentPage,
		"percent":            progress.Percent,
		"last_location":      sanitizeText(progress.LastLocation),
		"total_time_seconds": progress.TotalTimeSeconds,
		"completed":          progress.Completed,
		"updated_at":         formatTime(progress.UpdatedAt),
	}

	_, _, err = client.From(readingProgressTable).
		Upsert(row, "user_id,book_id", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update reading progress: %w", err)
	}

	r.logger.Debug("Reading progress updated",
		"user_id", progress.UserID,
		"document_id", progress.DocumentID,
		"page", progress.CurrentPage,
		"percent", progress.Percent)
	return nil
}

func (r *ReadingProgressRepository) ListByUser(ctx context.Context, userID string, token string) ([]*domain.ReadingProgress, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client, err := clientFor(r.supabaseClient, token)
	if err != nil {
		return nil, err
	}

	data, _, err := client.From(readingProgressTable).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("updated_at", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list reading progress: %w", err)
	}

	rows, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.ReadingProgress, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapToReadingProgress(row))
	}
	return out, nil
}

func mapToReadingProgress(data map[string]interface{}) *domain.ReadingProgress {
	p := &domain.ReadingProgress{
		UserID:           getString(data, "user_id"),
		DocumentID:       getString(data, "book_id"),
		CurrentPage:      getInt(data, "current_page"),
		Percent:          domain.ClampPercent(getFloat64(data, "percent")),
		LastLocation:     getString(data, "last_location"),
		TotalTimeSeconds: getInt(data, "total_time_seconds"),
		Completed:        getBool(data, "completed"),
		UpdatedAt:        getTime(data, "updated_at"),
	}
	if p.LastLocation == "" {
		p.LastLocation = "0"
	}
	return p
}
