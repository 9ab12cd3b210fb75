package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"lector-reader/internal/domain"
	"lector-reader/internal/repository"
)

func newTestSessionService(maxAccrual time.Duration) (*readingSessionService, *repository.MemoryStore, *fakeClock) {
	store := repository.NewMemoryStore()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	store.SetClock(clock.Now)
	svc := NewReadingSessionService(store.Sessions(), store.Progress(), maxAccrual, NewMockLogger())
	svc.now = clock.Now
	return svc, store, clock
}

func TestReadingSessionService_StartEndsOpenSessions(t *testing.T) {
	svc, store, clock := newTestSessionService(time.Minute)
	ctx := context.Background()

	first, err := svc.StartSession(ctx, "user-1", "book-1", "token")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	clock.Advance(5 * time.Minute)
	second, err := svc.StartSession(ctx, "user-1", "book-1", "token")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("expected a new session")
	}

	open, _ := store.Sessions().ListOpen(ctx, "user-1", "book-1", "token")
	if len(open) != 1 || open[0].ID != second.ID {
		t.Fatalf("expected only the new session open, got %+v", open)
	}
	ended, _ := store.Sessions().Get(ctx, "user-1", first.ID, "token")
	if ended.IsOpen() || ended.DurationSeconds != 300 {
		t.Fatalf("expected first session ended after 300s, got %+v", ended)
	}
}

func TestReadingSessionService_GetOrCreateActive(t *testing.T) {
	svc, _, _ := newTestSessionService(time.Minute)
	ctx := context.Background()

	a, err := svc.GetOrCreateActiveSession(ctx, "user-1", "book-1", "token")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	b, err := svc.GetOrCreateActiveSession(ctx, "user-1", "book-1", "token")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if a.ID != b.ID {
		t.Fatalf("expected the open session to be resumed, got %s and %s", a.ID, b.ID)
	}

	other, _ := svc.GetOrCreateActiveSession(ctx, "user-2", "book-1", "token")
	if other.ID == a.ID {
		t.Fatalf("expected sessions to be per user")
	}

	if _, err := svc.GetOrCreateActiveSession(ctx, "user-1", "", "token"); err == nil {
		t.Fatalf("expected validation error for missing document")
	}
}

func TestReadingSessionService_EndSession(t *testing.T) {
	svc, _, clock := newTestSessionService(time.Minute)
	ctx := context.Background()

	session, _ := svc.StartSession(ctx, "user-1", "book-1", "token")
	clock.Advance(90 * time.Second)

	ended, err := svc.EndSession(ctx, "user-1", session.ID, "token")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ended.EndedAt == nil || ended.DurationSeconds != 90 {
		t.Fatalf("expected 90s session, got %+v", ended)
	}

	if _, err := svc.EndSession(ctx, "user-1", session.ID, "token"); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
	if _, err := svc.EndSession(ctx, "user-2", session.ID, "token"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestReadingSessionService_RecordProgressAccruesTime(t *testing.T) {
	svc, store, clock := newTestSessionService(time.Minute)
	ctx := context.Background()

	session, _ := svc.StartSession(ctx, "user-1", "book-1", "token")

	clock.Advance(20 * time.Second)
	progress, err := svc.RecordProgress(ctx, "user-1", session.ID, domain.ProgressFor(3, 10), "token")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if progress.TotalTimeSeconds != 20 || progress.CurrentPage != 3 || progress.Percent != 30 {
		t.Fatalf("expected page 3, 30%%, 20s, got %+v", progress)
	}
	if progress.LastLocation != "Page 3 of 10" {
		t.Fatalf("expected location label, got %s", progress.LastLocation)
	}

	// An idle gap is capped at the max accrual.
	clock.Advance(10 * time.Minute)
	progress, _ = svc.RecordProgress(ctx, "user-1", session.ID, domain.ProgressFor(4, 10), "token")
	if progress.TotalTimeSeconds != 80 {
		t.Fatalf("expected 80s total, got %d", progress.TotalTimeSeconds)
	}

	stored, _ := store.Progress().Get(ctx, "user-1", "book-1", "token")
	if stored == nil || stored.CurrentPage != 4 {
		t.Fatalf("expected stored progress on page 4, got %+v", stored)
	}
}

func TestReadingSessionService_RecordProgressCompletes(t *testing.T) {
	svc, _, _ := newTestSessionService(time.Minute)
	ctx := context.Background()
	session, _ := svc.StartSession(ctx, "user-1", "book-1", "token")

	progress, err := svc.RecordProgress(ctx, "user-1", session.ID, domain.ProgressUpdate{
		CurrentPage: 120,
		Percent:     100,
		Location:    domain.LocationLabel(120, 120),
	}, "token")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !progress.Completed {
		t.Fatalf("expected completed at 100%%")
	}
}

func TestReadingSessionService_RecordProgressRejects(t *testing.T) {
	svc, _, _ := newTestSessionService(time.Minute)
	ctx := context.Background()
	session, _ := svc.StartSession(ctx, "user-1", "book-1", "token")

	var vErr *domain.ValidationError
	if _, err := svc.RecordProgress(ctx, "user-1", session.ID, domain.ProgressUpdate{Percent: 140}, "token"); !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}

	svc.EndSession(ctx, "user-1", session.ID, "token")
	if _, err := svc.RecordProgress(ctx, "user-1", session.ID, domain.ProgressFor(2, 10), "token"); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
	if _, err := svc.RecordProgress(ctx, "user-1", "missing", domain.ProgressFor(2, 10), "token"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
