package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"lector-reader/internal/domain"
)

func TestMemorySessions_ListOpen(t *testing.T) {
	store := NewMemoryStore()
	repo := store.Sessions()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	older, _ := repo.Create(ctx, &domain.ReadingSession{UserID: "u1", DocumentID: "b1", StartedAt: base}, "")
	newer, _ := repo.Create(ctx, &domain.ReadingSession{UserID: "u1", DocumentID: "b1", StartedAt: base.Add(time.Hour)}, "")
	repo.Create(ctx, &domain.ReadingSession{UserID: "u2", DocumentID: "b1", StartedAt: base}, "")

	closed, _ := repo.Create(ctx, &domain.ReadingSession{UserID: "u1", DocumentID: "b1", StartedAt: base}, "")
	closed.End(base.Add(time.Minute))
	if err := repo.Update(ctx, closed, ""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	open, err := repo.ListOpen(ctx, "u1", "b1", "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("expected 2 open sessions, got %d", len(open))
	}
	if open[0].ID != newer.ID || open[1].ID != older.ID {
		t.Fatalf("expected newest first")
	}
}

func TestMemorySessions_GetScopedToUser(t *testing.T) {
	store := NewMemoryStore()
	repo := store.Sessions()
	ctx := context.Background()

	s, _ := repo.Create(ctx, &domain.ReadingSession{UserID: "u1", DocumentID: "b1"}, "")
	if _, err := repo.Get(ctx, "u2", s.ID, ""); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := repo.Update(ctx, &domain.ReadingSession{ID: s.ID, UserID: "u2"}, ""); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestMemoryProgress_Upsert(t *testing.T) {
	repo := NewMemoryStore().Progress()
	ctx := context.Background()

	got, err := repo.Get(ctx, "u1", "b1", "")
	if err != nil || got != nil {
		t.Fatalf("expected no record, got %+v %v", got, err)
	}

	p := domain.NewReadingProgress("u1", "b1")
	p.CurrentPage = 3
	repo.Upsert(ctx, p, "")
	p.CurrentPage = 4
	repo.Upsert(ctx, p, "")

	got, _ = repo.Get(ctx, "u1", "b1", "")
	if got == nil || got.CurrentPage != 4 {
		t.Fatalf("expected page 4, got %+v", got)
	}
}

func TestMemoryAnnotations_Lifecycle(t *testing.T) {
	repo := NewMemoryStore().Annotations()
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.Annotation{
		UserID:      "u1",
		DocumentID:  "b1",
		PageNumber:  2,
		TextContent: "a\x00b",
		Color:       "green",
		PositionData: domain.PositionData{Rects: []domain.Rect{
			{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.05, Page: 2},
		}},
	}, "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created.ID == "" || created.TextContent != "ab" {
		t.Fatalf("expected id and sanitized text, got %+v", created)
	}

	// Callers cannot mutate stored rects through returned values.
	created.PositionData.Rects[0].X = 9

	list, _ := repo.ListByDocument(ctx, "u1", "b1", "")
	if len(list) != 1 || list[0].PositionData.Rects[0].X != 0.1 {
		t.Fatalf("expected stored rect unchanged, got %+v", list)
	}

	note := "remember"
	created.Note = &note
	created.Color = "blue"
	updated, err := repo.Update(ctx, created, "")
	if err != nil || updated.Color != "blue" || updated.Note == nil || *updated.Note != "remember" {
		t.Fatalf("expected updated note and color, got %+v %v", updated, err)
	}

	if err := repo.Delete(ctx, "u2", created.ID, ""); !errors.Is(err, domain.ErrAnnotationNotFound) {
		t.Fatalf("expected ErrAnnotationNotFound for another user, got %v", err)
	}
	if err := repo.Delete(ctx, "u1", created.ID, ""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := repo.Get(ctx, "u1", created.ID, ""); !errors.Is(err, domain.ErrAnnotationNotFound) {
		t.Fatalf("expected ErrAnnotationNotFound, got %v", err)
	}
}

func TestPickSubscription(t *testing.T) {
	now := time.Now()
	expired := &domain.Subscription{ID: "s1", Status: domain.SubscriptionExpired, EndDate: now.Add(-time.Hour)}
	shortActive := &domain.Subscription{ID: "s2", Status: domain.SubscriptionActive, EndDate: now.Add(time.Hour)}
	longActive := &domain.Subscription{ID: "s3", Status: domain.SubscriptionActive, EndDate: now.Add(48 * time.Hour)}

	tests := []struct {
		name string
		subs []*domain.Subscription
		want string
	}{
		{"none", nil, ""},
		{"only inactive", []*domain.Subscription{expired}, "s1"},
		{"active wins", []*domain.Subscription{expired, shortActive}, "s2"},
		{"furthest end wins", []*domain.Subscription{shortActive, longActive}, "s3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pickSubscription(tt.subs)
			if tt.want == "" {
				if got != nil {
					t.Fatalf("expected nil, got %+v", got)
				}
				return
			}
			if got == nil || got.ID != tt.want {
				t.Fatalf("expected %s, got %+v", tt.want, got)
			}
		})
	}
}

func TestDecodePositionData(t *testing.T) {
	raw := map[string]interface{}{
		"rects": []interface{}{
			map[string]interface{}{"x": 0.1, "y": 0.2, "width": 0.5, "height": 0.1},
			map[string]interface{}{"x": 0.1, "y": 0.3, "width": 0.4, "height": 0.1, "page_index": float64(7)},
		},
	}

	pd := decodePositionData(raw, 7)
	if len(pd.Rects) != 2 {
		t.Fatalf("expected 2 rects, got %d", len(pd.Rects))
	}
	if pd.Rects[0].Page != 7 {
		t.Fatalf("expected legacy rect assigned to page 7, got %d", pd.Rects[0].Page)
	}

	pd = decodePositionData(`{"rects":[{"x":0,"y":0,"width":1,"height":1}]}`, 2)
	if len(pd.Rects) != 1 || pd.Rects[0].Page != 2 {
		t.Fatalf("expected string payload decoded, got %+v", pd)
	}

	if pd := decodePositionData(nil, 1); len(pd.Rects) != 0 {
		t.Fatalf("expected no rects, got %+v", pd)
	}
}

func TestRowHelpers(t *testing.T) {
	row := map[string]interface{}{
		"s":    "text",
		"n":    float64(12),
		"f":    float64(1.5),
		"b":    "true",
		"t":    "2024-05-01T10:00:00Z",
		"tn":   "2024-05-01T10:00:00.123456Z",
		"nil":  nil,
		"note": "",
	}

	if getString(row, "s") != "text" || getString(row, "missing") != "" {
		t.Fatal("unexpected getString result")
	}
	if getInt(row, "n") != 12 || getFloat64(row, "f") != 1.5 || !getBool(row, "b") {
		t.Fatal("unexpected numeric conversion")
	}
	if getTime(row, "t").IsZero() || getTime(row, "tn").IsZero() {
		t.Fatal("expected timestamps parsed")
	}
	if getTimePointer(row, "nil") != nil || getStringPointer(row, "note") != nil {
		t.Fatal("expected nil pointers for empty values")
	}
}

func TestMemoryAccounts_SetDisabled(t *testing.T) {
	store := NewMemoryStore()
	accounts := store.Accounts()
	ctx := context.Background()

	if disabled, _ := accounts.IsDisabled(ctx, "user-1", "token"); disabled {
		t.Fatalf("expected unknown user enabled")
	}
	if err := accounts.SetDisabled(ctx, "user-1", true, "token"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if disabled, _ := accounts.IsDisabled(ctx, "user-1", "token"); !disabled {
		t.Fatalf("expected user-1 disabled")
	}
}

func TestMemoryStore_UserListings(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	store.Progress().Upsert(ctx, &domain.ReadingProgress{UserID: "u1", DocumentID: "b1", UpdatedAt: base}, "")
	store.Progress().Upsert(ctx, &domain.ReadingProgress{UserID: "u1", DocumentID: "b2", UpdatedAt: base.Add(time.Hour)}, "")
	store.Progress().Upsert(ctx, &domain.ReadingProgress{UserID: "u2", DocumentID: "b1", UpdatedAt: base}, "")

	records, err := store.Progress().ListByUser(ctx, "u1", "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(records) != 2 || records[0].DocumentID != "b2" {
		t.Fatalf("expected u1's two records newest first, got %+v", records)
	}

	sessions := store.Sessions()
	sessions.Create(ctx, &domain.ReadingSession{UserID: "u1", DocumentID: "b1", StartedAt: base.Add(-48 * time.Hour)}, "")
	recent, _ := sessions.Create(ctx, &domain.ReadingSession{UserID: "u1", DocumentID: "b2", StartedAt: base}, "")
	sessions.Create(ctx, &domain.ReadingSession{UserID: "u2", DocumentID: "b1", StartedAt: base}, "")

	started, err := sessions.ListStartedSince(ctx, "u1", base.Add(-time.Hour), "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(started) != 1 || started[0].ID != recent.ID {
		t.Fatalf("expected only the recent session, got %+v", started)
	}
}
