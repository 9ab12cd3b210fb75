package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"lector-reader/internal/domain"
	"lector-reader/internal/repository"
)

func TestReadingDashboardService_ListsAndStats(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 12; i++ {
		store.Progress().Upsert(ctx, &domain.ReadingProgress{
			UserID:           "user-1",
			DocumentID:       fmt.Sprintf("open-%d", i),
			Percent:          40,
			TotalTimeSeconds: 10,
			UpdatedAt:        base.Add(time.Duration(i) * time.Minute),
		}, "token")
	}
	for i := 0; i < 3; i++ {
		store.Progress().Upsert(ctx, &domain.ReadingProgress{
			UserID:           "user-1",
			DocumentID:       fmt.Sprintf("done-%d", i),
			Percent:          100,
			Completed:        true,
			TotalTimeSeconds: 100,
			UpdatedAt:        base.Add(time.Duration(i) * time.Hour),
		}, "token")
	}
	store.Progress().Upsert(ctx, &domain.ReadingProgress{UserID: "user-2", DocumentID: "other", Completed: true}, "token")

	svc := NewReadingDashboardService(store.Sessions(), store.Progress(), NewMockLogger())
	svc.now = func() time.Time { return base }

	dashboard, err := svc.GetDashboard(ctx, "user-1", "token")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(dashboard.InProgress) != domain.DashboardListLimit {
		t.Fatalf("expected %d in progress, got %d", domain.DashboardListLimit, len(dashboard.InProgress))
	}
	if dashboard.InProgress[0].DocumentID != "open-11" {
		t.Fatalf("expected most recently updated first, got %s", dashboard.InProgress[0].DocumentID)
	}
	if len(dashboard.Completed) != 3 || dashboard.Completed[0].DocumentID != "done-2" {
		t.Fatalf("expected 3 completed newest first, got %+v", dashboard.Completed)
	}
	if dashboard.Stats.TotalBooksRead != 3 {
		t.Fatalf("expected 3 books read, got %d", dashboard.Stats.TotalBooksRead)
	}
	if dashboard.Stats.TotalTimeSeconds != 12*10+3*100 {
		t.Fatalf("expected 420 seconds, got %d", dashboard.Stats.TotalTimeSeconds)
	}
	if dashboard.Stats.ReadingGoalProgress != 25 {
		t.Fatalf("expected 25%% of the goal, got %v", dashboard.Stats.ReadingGoalProgress)
	}
	if dashboard.Stats.CurrentStreakDays != 0 {
		t.Fatalf("expected no streak without sessions, got %d", dashboard.Stats.CurrentStreakDays)
	}
}

func TestReadingDashboardService_EmptyListsNotNil(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewReadingDashboardService(store.Sessions(), store.Progress(), NewMockLogger())

	dashboard, err := svc.GetDashboard(context.Background(), "user-1", "token")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if dashboard.InProgress == nil || dashboard.Completed == nil {
		t.Fatalf("expected empty lists, got %+v", dashboard)
	}
}

func TestReadingDashboardService_Streak(t *testing.T) {
	now := time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)
	day := func(offset, hour int) time.Time {
		return time.Date(2024, 5, 20+offset, hour, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name   string
		starts []time.Time
		want   int
	}{
		{name: "none", want: 0},
		{name: "today only", starts: []time.Time{day(0, 8)}, want: 1},
		{name: "ends yesterday", starts: []time.Time{day(-1, 20), day(-2, 7)}, want: 2},
		{name: "stale", starts: []time.Time{day(-2, 20), day(-3, 7)}, want: 0},
		{name: "same day sessions", starts: []time.Time{day(0, 8), day(0, 1), day(-1, 22), day(-1, 6), day(-2, 12)}, want: 3},
		{name: "gap", starts: []time.Time{day(0, 8), day(-1, 8), day(-3, 8)}, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := repository.NewMemoryStore()
			ctx := context.Background()
			for _, started := range tt.starts {
				store.Sessions().Create(ctx, &domain.ReadingSession{UserID: "user-1", DocumentID: "book-1", StartedAt: started}, "token")
			}
			svc := NewReadingDashboardService(store.Sessions(), store.Progress(), NewMockLogger())
			svc.now = func() time.Time { return now }

			dashboard, err := svc.GetDashboard(ctx, "user-1", "token")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if dashboard.Stats.CurrentStreakDays != tt.want {
				t.Fatalf("expected streak %d, got %d", tt.want, dashboard.Stats.CurrentStreakDays)
			}
		})
	}
}

func TestGoalProgressCapped(t *testing.T) {
	if got := domain.GoalProgress(6); got != 50 {
		t.Fatalf("expected 50, got %v", got)
	}
	if got := domain.GoalProgress(30); got != 100 {
		t.Fatalf("expected 100, got %v", got)
	}
}
