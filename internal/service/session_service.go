package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lector-reader/internal/domain"
)

// DefaultMaxAccrual caps the reading time credited for one session update.
const DefaultMaxAccrual = 2 * time.Minute

type readingSessionService struct {
	sessions   domain.ReadingSessionRepository
	progress   domain.ReadingProgressRepository
	maxAccrual time.Duration
	logger     domain.Logger
	now        func() time.Time
}

func NewReadingSessionService(
	sessions domain.ReadingSessionRepository,
	progress domain.ReadingProgressRepository,
	maxAccrual time.Duration,
	logger domain.Logger,
) *readingSessionService {
	if maxAccrual <= 0 {
		maxAccrual = DefaultMaxAccrual
	}
	return &readingSessionService{
		sessions:   sessions,
		progress:   progress,
		maxAccrual: maxAccrual,
		logger:     logger,
		now:        time.Now,
	}
}

// StartSession ends every open session of the user on the document and
// starts a new one.
func (s *readingSessionService) StartSession(ctx context.Context, userID, documentID string, token string) (*domain.ReadingSession, error) {
	if documentID == "" {
		return nil, &domain.ValidationError{Field: "book", Message: "document id is required"}
	}

	open, err := s.sessions.ListOpen(ctx, userID, documentID, token)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, session := range open {
		session.End(now)
		if err := s.sessions.Update(ctx, session, token); err != nil {
			return nil, fmt.Errorf("failed to end previous session: %w", err)
		}
		s.logger.Debug("Ended previous reading session", "session_id", session.ID, "user_id", userID)
	}

	return s.create(ctx, userID, documentID, now, token)
}

// GetOrCreateActiveSession resumes the most recent open session, or starts
// one when there is none.
func (s *readingSessionService) GetOrCreateActiveSession(ctx context.Context, userID, documentID string, token string) (*domain.ReadingSession, error) {
	if documentID == "" {
		return nil, &domain.ValidationError{Field: "book", Message: "document id is required"}
	}

	open, err := s.sessions.ListOpen(ctx, userID, documentID, token)
	if err != nil {
		return nil, err
	}
	if len(open) > 0 {
		return open[0], nil
	}
	return s.create(ctx, userID, documentID, s.now(), token)
}

func (s *readingSessionService) create(ctx context.Context, userID, documentID string, now time.Time, token string) (*domain.ReadingSession, error) {
	created, err := s.sessions.Create(ctx, &domain.ReadingSession{
		UserID:         userID,
		DocumentID:     documentID,
		StartedAt:      now,
		LastActivityAt: now,
		CreatedAt:      now,
	}, token)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Reading session started", "session_id", created.ID, "user_id", userID, "document_id", documentID)
	return created, nil
}

// EndSession closes an open session and records its duration.
func (s *readingSessionService) EndSession(ctx context.Context, userID, sessionID string, token string) (*domain.ReadingSession, error) {
	session, err := s.openSession(ctx, userID, sessionID, token)
	if err != nil {
		return nil, err
	}

	session.End(s.now())
	if err := s.sessions.Update(ctx, session, token); err != nil {
		return nil, err
	}
	s.logger.Info("Reading session ended", "session_id", session.ID, "user_id", userID, "duration_seconds", session.DurationSeconds)
	return session, nil
}

// RecordProgress stores a progress push for the session's document and
// credits the time since the session's last activity, capped at maxAccrual.
func (s *readingSessionService) RecordProgress(ctx context.Context, userID, sessionID string, update domain.ProgressUpdate, token string) (*domain.ReadingProgress, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	session, err := s.openSession(ctx, userID, sessionID, token)
	if err != nil {
		return nil, err
	}

	now := s.now()
	spent := s.accrue(session.LastActivityAt, now)
	session.LastActivityAt = now
	if err := s.sessions.Update(ctx, session, token); err != nil {
		return nil, err
	}

	progress, err := s.progress.Get(ctx, userID, session.DocumentID, token)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		progress = domain.NewReadingProgress(userID, session.DocumentID)
	}
	progress.Apply(update, spent, now)

	if err := s.progress.Upsert(ctx, progress, token); err != nil {
		return nil, err
	}
	return progress, nil
}

func (s *readingSessionService) accrue(last, now time.Time) int {
	if last.IsZero() {
		return 0
	}
	elapsed := now.Sub(last)
	if elapsed < 0 {
		return 0
	}
	if elapsed > s.maxAccrual {
		elapsed = s.maxAccrual
	}
	return int(elapsed.Seconds())
}

func (s *readingSessionService) openSession(ctx context.Context, userID, sessionID string, token string) (*domain.ReadingSession, error) {
	if sessionID == "" {
		return nil, &domain.ValidationError{Field: "session_id", Message: "is required"}
	}
	session, err := s.sessions.Get(ctx, userID, sessionID, token)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !session.IsOpen() {
		return nil, domain.ErrSessionClosed
	}
	return session, nil
}
