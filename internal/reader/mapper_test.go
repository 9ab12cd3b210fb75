package reader

import (
	"context"
	"errors"
	"math"
	"testing"

	"lector-reader/internal/domain"
	"lector-reader/pkg/logger"
)

func newTestMapper(backend *fakeBackend) (*Mapper, *Tracker, *layout) {
	l := newLayout(1000, 800)
	tracker := NewTracker(l.container, 1)
	registerPages(tracker, l, 3)
	return NewMapper(tracker, backend, logger.NewRecorder()), tracker, l
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMapper_SelectIgnoresEmpty(t *testing.T) {
	m, _, _ := newTestMapper(newFakeBackend())
	m.Reset("doc-1")

	tests := []struct {
		name     string
		snapshot SelectionSnapshot
	}{
		{"collapsed", SelectionSnapshot{Text: "", Rects: []domain.Rect{{Width: 1, Height: 1}}}},
		{"whitespace", SelectionSnapshot{Text: "  \n\t", Rects: []domain.Rect{{Width: 1, Height: 1}}}},
		{"no rects", SelectionSnapshot{Text: "words"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if sel := m.Select(tt.snapshot); sel != nil {
				t.Fatalf("expected no selection, got %+v", sel)
			}
			if m.Pending() != nil {
				t.Fatal("expected no pending selection")
			}
		})
	}
}

func TestMapper_ConfirmNormalizesRects(t *testing.T) {
	backend := newFakeBackend()
	m, tracker, l := newTestMapper(backend)
	m.Reset("doc-1")

	// Page 2 occupies 0..1000 of the viewport.
	l.scrollTo(1000)
	tracker.Scroll()

	sel := m.Select(SelectionSnapshot{
		Text: "  the quick brown fox ",
		Rects: []domain.Rect{
			{X: 60, Y: 100, Width: 300, Height: 20},
			{X: 60, Y: 120, Width: 150, Height: 20},
		},
	})
	if sel == nil || sel.Page != 2 || sel.Text != "the quick brown fox" {
		t.Fatalf("expected trimmed selection on page 2, got %+v", sel)
	}

	created, err := m.Confirm(context.Background(), domain.KindHighlight, "green")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created.PageNumber != 2 || created.Color != "green" {
		t.Fatalf("expected green highlight on page 2, got %+v", created)
	}
	rects := created.PositionData.Rects
	if len(rects) != 2 {
		t.Fatalf("expected 2 rects, got %d", len(rects))
	}
	for _, r := range rects {
		if r.Page != created.PageNumber {
			t.Fatalf("expected rect on page %d, got %d", created.PageNumber, r.Page)
		}
	}
	if !almostEqual(rects[0].X, 0.1) || !almostEqual(rects[0].Y, 0.1) ||
		!almostEqual(rects[0].Width, 0.5) || !almostEqual(rects[0].Height, 0.02) {
		t.Fatalf("expected normalized rect, got %+v", rects[0])
	}
	if m.Pending() != nil {
		t.Fatal("expected pending selection to be cleared")
	}

	// Reloading from the store yields the same geometry.
	if err := m.Load(context.Background(), "doc-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	list := m.Annotations()
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("expected the created annotation after reload, got %+v", list)
	}
	if list[0].PositionData.Rects[1] != rects[1] {
		t.Fatalf("expected %+v, got %+v", rects[1], list[0].PositionData.Rects[1])
	}
}

func TestMapper_ConfirmUnderline(t *testing.T) {
	backend := newFakeBackend()
	m, _, _ := newTestMapper(backend)
	m.Reset("doc-1")

	m.Select(SelectionSnapshot{Text: "line", Rects: []domain.Rect{{X: 10, Y: 10, Width: 100, Height: 10}}})
	created, err := m.Confirm(context.Background(), domain.KindUnderline, "blue")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created.Color != "blue-underline" {
		t.Fatalf("expected blue-underline, got %s", created.Color)
	}

	overlays := m.Overlays(1)
	if len(overlays) != 1 {
		t.Fatalf("expected 1 overlay, got %d", len(overlays))
	}
	if overlays[0].Style != OverlayUnderline || overlays[0].Color != "blue" {
		t.Fatalf("expected blue underline overlay, got %+v", overlays[0])
	}
	if len(m.Overlays(2)) != 0 {
		t.Fatal("expected no overlays on page 2")
	}
}

func TestMapper_ConfirmErrors(t *testing.T) {
	backend := newFakeBackend()
	m, _, _ := newTestMapper(backend)

	if _, err := m.Confirm(context.Background(), domain.KindHighlight, "yellow"); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}

	m.Reset("doc-1")
	if _, err := m.Confirm(context.Background(), domain.KindHighlight, "yellow"); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}

	m.Select(SelectionSnapshot{Text: "word", Rects: []domain.Rect{{Width: 10, Height: 10}}})
	if _, err := m.Confirm(context.Background(), domain.KindHighlight, "magenta"); err == nil {
		t.Fatal("expected error for a color outside the palette")
	}
	if m.Pending() == nil {
		t.Fatal("expected selection kept after an invalid color")
	}

	backend.createErr = errBackend
	if _, err := m.Confirm(context.Background(), domain.KindHighlight, "yellow"); !errors.Is(err, errBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if m.Pending() != nil {
		t.Fatal("expected draft discarded after a store failure")
	}
	if len(m.Annotations()) != 0 {
		t.Fatal("expected nothing added after a store failure")
	}
}

func TestMapper_LoadFailureLeavesEmptySet(t *testing.T) {
	backend := newFakeBackend()
	backend.listErr = errBackend
	m, _, _ := newTestMapper(backend)

	if err := m.Load(context.Background(), "doc-1"); !errors.Is(err, errBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if len(m.Annotations()) != 0 {
		t.Fatal("expected empty set")
	}
}

func TestMapper_Delete(t *testing.T) {
	backend := newFakeBackend()
	m, _, _ := newTestMapper(backend)
	m.Reset("doc-1")
	m.Select(SelectionSnapshot{Text: "word", Rects: []domain.Rect{{Width: 10, Height: 10}}})
	created, err := m.Confirm(context.Background(), domain.KindHighlight, "pink")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	backend.deleteErr = errBackend
	if err := m.Delete(context.Background(), created.ID); err == nil {
		t.Fatal("expected delete to fail")
	}
	if len(m.Annotations()) != 1 {
		t.Fatal("expected annotation kept after a failed delete")
	}

	backend.deleteErr = nil
	if err := m.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(m.Annotations()) != 0 {
		t.Fatal("expected annotation removed")
	}
}

func TestMapper_LegacyAnnotationCoversPage(t *testing.T) {
	backend := newFakeBackend()
	backend.annotations["doc-1"] = []*domain.Annotation{
		{ID: "legacy", DocumentID: "doc-1", PageNumber: 3, TextContent: "old", Color: "orange"},
	}
	m, _, _ := newTestMapper(backend)
	if err := m.Load(context.Background(), "doc-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	overlays := m.Overlays(3)
	if len(overlays) != 1 {
		t.Fatalf("expected 1 overlay, got %d", len(overlays))
	}
	want := domain.Rect{Width: 1, Height: 1, Page: 3}
	if len(overlays[0].Rects) != 1 || overlays[0].Rects[0] != want {
		t.Fatalf("expected full-page rect, got %+v", overlays[0].Rects)
	}
	if overlays[0].Style != OverlayFill {
		t.Fatalf("expected fill, got %s", overlays[0].Style)
	}
}
