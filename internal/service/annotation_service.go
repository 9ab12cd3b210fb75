package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lector-reader/internal/domain"
)

type annotationService struct {
	repo   domain.AnnotationRepository
	logger domain.Logger
	now    func() time.Time
}

func NewAnnotationService(repo domain.AnnotationRepository, logger domain.Logger) domain.AnnotationService {
	return &annotationService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (s *annotationService) CreateAnnotation(ctx context.Context, userID string, annotation *domain.Annotation, token string) (*domain.Annotation, error) {
	if annotation == nil {
		return nil, &domain.ValidationError{Message: "annotation is required"}
	}
	annotation.UserID = userID
	annotation.TextContent = strings.TrimSpace(annotation.TextContent)
	if annotation.Color == "" {
		annotation.Color = domain.DefaultColor
	}
	// Rects sent without a page index belong to the annotation's page.
	for i := range annotation.PositionData.Rects {
		if annotation.PositionData.Rects[i].Page == 0 {
			annotation.PositionData.Rects[i].Page = annotation.PageNumber
		}
	}
	if err := annotation.Validate(); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, annotation, token)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Annotation created", "user_id", userID, "document_id", annotation.DocumentID, "annotation_id", created.ID)
	return created, nil
}

func (s *annotationService) ListAnnotations(ctx context.Context, userID, documentID string, token string) ([]*domain.Annotation, error) {
	if documentID == "" {
		return nil, &domain.ValidationError{Field: "book", Message: "document id is required"}
	}
	return s.repo.ListByDocument(ctx, userID, documentID, token)
}

// UpdateAnnotation edits the note or color. An empty note clears it.
func (s *annotationService) UpdateAnnotation(ctx context.Context, userID, annotationID string, patch domain.AnnotationPatch, token string) (*domain.Annotation, error) {
	if annotationID == "" {
		return nil, &domain.ValidationError{Field: "id", Message: "annotation id is required"}
	}
	existing, err := s.repo.Get(ctx, userID, annotationID, token)
	if err != nil {
		return nil, err
	}

	if patch.Color != nil {
		if _, base := domain.DecodeColor(*patch.Color); !domain.IsPaletteColor(base) {
			return nil, &domain.ValidationError{Field: "color", Message: fmt.Sprintf("unknown color %q", *patch.Color)}
		}
		existing.Color = *patch.Color
	}
	if patch.Note != nil {
		note := strings.TrimSpace(*patch.Note)
		if note == "" {
			existing.Note = nil
		} else {
			existing.Note = &note
		}
	}
	existing.UpdatedAt = s.now()

	return s.repo.Update(ctx, existing, token)
}

func (s *annotationService) DeleteAnnotation(ctx context.Context, userID, annotationID string, token string) error {
	if annotationID == "" {
		return &domain.ValidationError{Field: "id", Message: "annotation id is required"}
	}
	if err := s.repo.Delete(ctx, userID, annotationID, token); err != nil {
		return err
	}
	s.logger.Info("Annotation deleted", "user_id", userID, "annotation_id", annotationID)
	return nil
}
