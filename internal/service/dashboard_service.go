package service

import (
	"context"
	"fmt"
	"time"

	"lector-reader/internal/domain"
)

// streakWindow bounds how far back session starts are loaded for the streak.
const streakWindow = 366 * 24 * time.Hour

type readingDashboardService struct {
	sessions domain.ReadingSessionRepository
	progress domain.ReadingProgressRepository
	logger   domain.Logger
	now      func() time.Time
}

func NewReadingDashboardService(
	sessions domain.ReadingSessionRepository,
	progress domain.ReadingProgressRepository,
	logger domain.Logger,
) *readingDashboardService {
	return &readingDashboardService{
		sessions: sessions,
		progress: progress,
		logger:   logger,
		now:      time.Now,
	}
}

// GetDashboard lists the user's unfinished and finished documents and
// summarizes their reading.
func (s *readingDashboardService) GetDashboard(ctx context.Context, userID string, token string) (*domain.Dashboard, error) {
	records, err := s.progress.ListByUser(ctx, userID, token)
	if err != nil {
		return nil, fmt.Errorf("failed to load reading progress: %w", err)
	}

	dashboard := &domain.Dashboard{
		InProgress: []*domain.ReadingProgress{},
		Completed:  []*domain.ReadingProgress{},
	}
	for _, p := range records {
		dashboard.Stats.TotalTimeSeconds += p.TotalTimeSeconds
		if p.Completed {
			dashboard.Stats.TotalBooksRead++
			if len(dashboard.Completed) < domain.DashboardListLimit {
				dashboard.Completed = append(dashboard.Completed, p)
			}
			continue
		}
		if len(dashboard.InProgress) < domain.DashboardListLimit {
			dashboard.InProgress = append(dashboard.InProgress, p)
		}
	}
	dashboard.Stats.ReadingGoalProgress = domain.GoalProgress(dashboard.Stats.TotalBooksRead)

	now := s.now().UTC()
	sessions, err := s.sessions.ListStartedSince(ctx, userID, now.Add(-streakWindow), token)
	if err != nil {
		return nil, fmt.Errorf("failed to load reading sessions: %w", err)
	}
	dashboard.Stats.CurrentStreakDays = streakDays(sessions, now)

	s.logger.Debug("Dashboard built",
		"user_id", userID,
		"in_progress", len(dashboard.InProgress),
		"completed", dashboard.Stats.TotalBooksRead,
		"streak", dashboard.Stats.CurrentStreakDays)
	return dashboard, nil
}

// streakDays counts consecutive UTC days with at least one session start,
// ending today or yesterday. sessions must be ordered newest first.
func streakDays(sessions []*domain.ReadingSession, now time.Time) int {
	if len(sessions) == 0 {
		return 0
	}
	today := dayOf(now)
	last := dayOf(sessions[0].StartedAt)
	if last.Before(today.AddDate(0, 0, -1)) || last.After(today) {
		return 0
	}

	streak := 1
	for _, session := range sessions[1:] {
		day := dayOf(session.StartedAt)
		switch {
		case day.Equal(last):
		case day.Equal(last.AddDate(0, 0, -1)):
			streak++
			last = day
		default:
			return streak
		}
	}
	return streak
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
