package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"lector-reader/internal/domain"

	"github.com/supabase-community/postgrest-go"
)

const highlightsTable = "highlights"

// AnnotationRepository implements domain.AnnotationRepository using Supabase.
// Highlights and underlines share the highlights table; the color column
// carries the kind.
type AnnotationRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

func NewAnnotationRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) domain.AnnotationRepository {
	return &AnnotationRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

func (r *AnnotationRepository) Create(ctx context.Context, annotation *domain.Annotation, token string) (*domain.Annotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client, err := clientFor(r.supabaseClient, token)
	if err != nil {
		return nil, err
	}

	row := map[string]interface{}{
		"user_id":       annotation.UserID,
		"book_id":       annotation.DocumentID,
		"page_number":   annotation.PageNumber,
		"text_content":  sanitizeText(annotation.TextContent),
		"color":         annotation.Color,
		"position_data": annotation.PositionData,
	}
	if annotation.Note != nil {
		row["note"] = sanitizeText(*annotation.Note)
	}

	data, _, err := client.From(highlightsTable).
		Insert(row, false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to create highlight: %w", err)
	}

	rows, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("failed to create highlight: empty response")
	}
	return mapToAnnotation(rows[0]), nil
}

func (r *AnnotationRepository) ListByDocument(ctx context.Context, userID, documentID string, token string) ([]*domain.Annotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client, err := clientFor(r.supabaseClient, token)
	if err != nil {
		return nil, err
	}

	data, _, err := client.From(highlightsTable).
		Select("*", "", false).
		Eq("user_id", userID).
		Eq("book_id", documentID).
		Order("page_number", &postgrest.OrderOpts{Ascending: true}).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list highlights: %w", err)
	}

	rows, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Annotation, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapToAnnotation(row))
	}
	return out, nil
}

func (r *AnnotationRepository) Get(ctx context.Context, userID, annotationID string, token string) (*domain.Annotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client, err := clientFor(r.supabaseClient, token)
	if err != nil {
		return nil, err
	}

	data, _, err := client.From(highlightsTable).
		Select("*", "", false).
		Eq("id", annotationID).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get highlight: %w", err)
	}

	rows, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrAnnotationNotFound
	}
	return mapToAnnotation(rows[0]), nil
}

func (r *AnnotationRepository) Update(ctx context.Context, annotation *domain.Annotation, token string) (*domain.Annotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client, err := clientFor(r.supabaseClient, token)
	if err != nil {
		return nil, err
	}

	row := map[string]interface{}{
		"color":      annotation.Color,
		"note":       nil,
		"updated_at": formatTime(annotation.UpdatedAt),
	}
	if annotation.Note != nil {
		row["note"] = sanitizeText(*annotation.Note)
	}

	data, _, err := client.From(highlightsTable).
		Update(row, "representation", "").
		Eq("id", annotation.ID).
		Eq("user_id", annotation.UserID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to update highlight: %w", err)
	}

	rows, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrAnnotationNotFound
	}
	return mapToAnnotation(rows[0]), nil
}

func (r *AnnotationRepository) Delete(ctx context.Context, userID, annotationID string, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	client, err := clientFor(r.supabaseClient, token)
	if err != nil {
		return err
	}

	data, _, err := client.From(highlightsTable).
		Delete("representation", "").
		Eq("id", annotationID).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete highlight: %w", err)
	}

	rows, err := decodeRows(data)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.ErrAnnotationNotFound
	}
	return nil
}

func mapToAnnotation(data map[string]interface{}) *domain.Annotation {
	a := &domain.Annotation{
		ID:          getString(data, "id"),
		UserID:      getString(data, "user_id"),
		DocumentID:  getString(data, "book_id"),
		PageNumber:  getInt(data, "page_number"),
		TextContent: getString(data, "text_content"),
		Color:       getString(data, "color"),
		Note:        getStringPointer(data, "note"),
		CreatedAt:   getTime(data, "created_at"),
		UpdatedAt:   getTime(data, "updated_at"),
	}
	if a.Color == "" {
		a.Color = domain.DefaultColor
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	a.PositionData = decodePositionData(data["position_data"], a.PageNumber)
	return a
}

// decodePositionData reads the jsonb position column. Rows written before
// rects carried a page index get the annotation's page.
func decodePositionData(raw interface{}, page int) domain.PositionData {
	var pd domain.PositionData
	if raw == nil {
		return pd
	}

	var b []byte
	switch v := raw.(type) {
	case string:
		b = []byte(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return pd
		}
		b = encoded
	}
	if err := json.Unmarshal(b, &pd); err != nil {
		return domain.PositionData{}
	}
	for i := range pd.Rects {
		if pd.Rects[i].Page == 0 {
			pd.Rects[i].Page = page
		}
	}
	return pd
}
