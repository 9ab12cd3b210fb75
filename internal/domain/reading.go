package domain

import (
	"context"
	"fmt"
	"math"
	"time"
)

// ReadingSession brackets one continuous reading interaction with a document.
type ReadingSession struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id,omitempty"`
	DocumentID      string     `json:"book"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	LastActivityAt  time.Time  `json:"last_activity_at"`
	DurationSeconds int        `json:"duration_seconds"`
	CreatedAt       time.Time  `json:"created_at"`
}

// IsOpen reports whether the session has not been ended yet.
func (s *ReadingSession) IsOpen() bool {
	return s.EndedAt == nil
}

// End closes the session at now and records its duration.
func (s *ReadingSession) End(now time.Time) {
	s.EndedAt = &now
	s.DurationSeconds = int(now.Sub(s.StartedAt).Seconds())
	if s.DurationSeconds < 0 {
		s.DurationSeconds = 0
	}
}

// ReadingProgress is the per user and document reading record.
type ReadingProgress struct {
	UserID           string    `json:"user_id,omitempty"`
	DocumentID       string    `json:"book"`
	CurrentPage      int       `json:"current_page"`
	Percent          float64   `json:"percent"`
	LastLocation     string    `json:"last_location"`
	TotalTimeSeconds int       `json:"total_time_seconds"`
	Completed        bool      `json:"completed"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewReadingProgress returns the record a document starts with before any write.
func NewReadingProgress(userID, documentID string) *ReadingProgress {
	return &ReadingProgress{
		UserID:       userID,
		DocumentID:   documentID,
		LastLocation: "0",
	}
}

// Apply merges an update into the record and adds timeSpent seconds.
func (p *ReadingProgress) Apply(update ProgressUpdate, timeSpent int, now time.Time) {
	if update.CurrentPage > 0 {
		p.CurrentPage = update.CurrentPage
	}
	if update.Location != "" {
		p.LastLocation = update.Location
	}
	p.Percent = ClampPercent(update.Percent)
	if timeSpent > 0 {
		p.TotalTimeSeconds += timeSpent
	}
	p.Completed = p.Percent >= 100
	p.UpdatedAt = now
}

// ProgressUpdate is the payload of a progress push.
type ProgressUpdate struct {
	CurrentPage int     `json:"current_page"`
	Percent     float64 `json:"percent"`
	Location    string  `json:"location"`
}

// Validate checks that the update is usable.
func (u ProgressUpdate) Validate() error {
	if u.CurrentPage < 0 {
		return &ValidationError{Field: "current_page", Message: "must not be negative"}
	}
	if math.IsNaN(u.Percent) || u.Percent < 0 || u.Percent > 100 {
		return &ValidationError{Field: "percent", Message: "must be between 0 and 100"}
	}
	return nil
}

// ProgressFor builds the update for page out of totalPages.
// An unknown or zero page count yields 0 percent.
func ProgressFor(page, totalPages int) ProgressUpdate {
	return ProgressUpdate{
		CurrentPage: page,
		Percent:     PercentComplete(page, totalPages),
		Location:    LocationLabel(page, totalPages),
	}
}

// PercentComplete returns page/totalPages*100 clamped to [0, 100].
func PercentComplete(page, totalPages int) float64 {
	if totalPages <= 0 {
		return 0
	}
	return ClampPercent(float64(page) / float64(totalPages) * 100)
}

// ClampPercent bounds v to [0, 100]; NaN becomes 0.
func ClampPercent(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// LocationLabel renders the textual location descriptor.
func LocationLabel(page, totalPages int) string {
	return fmt.Sprintf("Page %d of %d", page, totalPages)
}

// ProgressPatch is the body of a direct progress update.
type ProgressPatch struct {
	Location    *string  `json:"location,omitempty"`
	Percent     *float64 `json:"percent,omitempty"`
	CurrentPage *int     `json:"current_page,omitempty"`
	TimeSpent   int      `json:"time_spent,omitempty"`
}

// ReadingSessionRepository defines persistence operations for reading sessions.
type ReadingSessionRepository interface {
	Create(ctx context.Context, session *ReadingSession, token string) (*ReadingSession, error)
	Get(ctx context.Context, userID, sessionID string, token string) (*ReadingSession, error)
	ListOpen(ctx context.Context, userID, documentID string, token string) ([]*ReadingSession, error)
	ListStartedSince(ctx context.Context, userID string, since time.Time, token string) ([]*ReadingSession, error)
	Update(ctx context.Context, session *ReadingSession, token string) error
}

// ReadingProgressRepository defines persistence operations for progress records.
type ReadingProgressRepository interface {
	Get(ctx context.Context, userID, documentID string, token string) (*ReadingProgress, error)
	Upsert(ctx context.Context, progress *ReadingProgress, token string) error
	// ListByUser returns every record of the user, most recently updated first.
	ListByUser(ctx context.Context, userID string, token string) ([]*ReadingProgress, error)
}

// ReadingSessionService defines the use-case operations for sessions.
type ReadingSessionService interface {
	StartSession(ctx context.Context, userID, documentID string, token string) (*ReadingSession, error)
	GetOrCreateActiveSession(ctx context.Context, userID, documentID string, token string) (*ReadingSession, error)
	EndSession(ctx context.Context, userID, sessionID string, token string) (*ReadingSession, error)
	RecordProgress(ctx context.Context, userID, sessionID string, update ProgressUpdate, token string) (*ReadingProgress, error)
}

// ReadingProgressService defines the use-case operations for progress records.
type ReadingProgressService interface {
	GetProgress(ctx context.Context, userID, documentID string, token string) (*ReadingProgress, error)
	UpdateProgress(ctx context.Context, userID, documentID string, patch ProgressPatch, token string) (*ReadingProgress, error)
}

// ReadingGoalBooks is the yearly number of finished documents the dashboard
// measures goal progress against.
const ReadingGoalBooks = 12

// DashboardListLimit bounds the in progress and completed lists.
const DashboardListLimit = 10

// DashboardStats summarizes a user's reading.
type DashboardStats struct {
	TotalBooksRead      int     `json:"total_books_read"`
	TotalTimeSeconds    int     `json:"total_time_seconds"`
	CurrentStreakDays   int     `json:"current_streak_days"`
	ReadingGoalProgress float64 `json:"reading_goal_progress"`
}

// Dashboard is the reading overview of one user.
type Dashboard struct {
	InProgress []*ReadingProgress `json:"in_progress"`
	Completed  []*ReadingProgress `json:"completed"`
	Stats      DashboardStats     `json:"stats"`
}

// GoalProgress returns the share of the reading goal reached, capped at 100.
func GoalProgress(booksRead int) float64 {
	return math.Min(float64(booksRead)/ReadingGoalBooks*100, 100)
}

// ReadingDashboardService builds the reading overview of a user.
type ReadingDashboardService interface {
	GetDashboard(ctx context.Context, userID string, token string) (*Dashboard, error)
}
