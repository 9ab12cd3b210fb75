package service

import (
	"context"
	"math"
	"time"

	"lector-reader/internal/domain"
)

type readingProgressService struct {
	repo   domain.ReadingProgressRepository
	logger domain.Logger
	now    func() time.Time
}

func NewReadingProgressService(repo domain.ReadingProgressRepository, logger domain.Logger) *readingProgressService {
	return &readingProgressService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// GetProgress returns the stored record, or a fresh one at location "0".
func (s *readingProgressService) GetProgress(ctx context.Context, userID, documentID string, token string) (*domain.ReadingProgress, error) {
	if documentID == "" {
		return nil, &domain.ValidationError{Field: "book", Message: "document id is required"}
	}
	progress, err := s.repo.Get(ctx, userID, documentID, token)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		return domain.NewReadingProgress(userID, documentID), nil
	}
	return progress, nil
}

// UpdateProgress applies a partial update outside of a session.
func (s *readingProgressService) UpdateProgress(ctx context.Context, userID, documentID string, patch domain.ProgressPatch, token string) (*domain.ReadingProgress, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	progress, err := s.GetProgress(ctx, userID, documentID, token)
	if err != nil {
		return nil, err
	}

	update := domain.ProgressUpdate{
		CurrentPage: progress.CurrentPage,
		Percent:     progress.Percent,
	}
	if patch.CurrentPage != nil {
		update.CurrentPage = *patch.CurrentPage
	}
	if patch.Percent != nil {
		update.Percent = *patch.Percent
	}
	if patch.Location != nil {
		update.Location = *patch.Location
	}
	progress.Apply(update, patch.TimeSpent, s.now())

	if err := s.repo.Upsert(ctx, progress, token); err != nil {
		return nil, err
	}
	s.logger.Debug("Reading progress updated", "user_id", userID, "document_id", documentID, "percent", progress.Percent)
	return progress, nil
}

func validatePatch(p domain.ProgressPatch) error {
	if p.Percent != nil && (math.IsNaN(*p.Percent) || *p.Percent < 0 || *p.Percent > 100) {
		return &domain.ValidationError{Field: "percent", Message: "must be between 0 and 100"}
	}
	if p.CurrentPage != nil && *p.CurrentPage < 0 {
		return &domain.ValidationError{Field: "current_page", Message: "must not be negative"}
	}
	if p.TimeSpent < 0 {
		return &domain.ValidationError{Field: "time_spent", Message: "must not be negative"}
	}
	return nil
}
