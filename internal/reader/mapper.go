package reader

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"lector-reader/internal/domain"
)

var (
	ErrNoSelection    = errors.New("no text selected")
	ErrPageNotMounted = errors.New("page is not mounted")
	ErrNoDocument     = errors.New("no document loaded")
)

// SelectionSnapshot is a finalized text selection as reported by the
// rendering layer: the selected text and one client rect per line fragment.
type SelectionSnapshot struct {
	Text  string
	Rects []domain.Rect
}

// PendingSelection is a selection waiting for the user to pick a kind and color.
type PendingSelection struct {
	Text  string
	Page  int
	Rects []domain.Rect
}

// OverlayStyle tells the renderer how to paint an annotation.
type OverlayStyle string

const (
	OverlayFill      OverlayStyle = "fill"
	OverlayUnderline OverlayStyle = "underline"
)

// Overlay is one annotation to draw on a page, positioned with normalized rects.
type Overlay struct {
	AnnotationID string
	Style        OverlayStyle
	Color        string
	Rects        []domain.Rect
	Note         *string
}

// Mapper turns selections into annotations and keeps the set shown for the
// current document.
type Mapper struct {
	mu          sync.Mutex
	tracker     *Tracker
	store       AnnotationStore
	logger      domain.Logger
	documentID  string
	pending     *PendingSelection
	annotations []*domain.Annotation
}

// NewMapper creates a mapper that reads the current page from tracker.
func NewMapper(tracker *Tracker, store AnnotationStore, logger domain.Logger) *Mapper {
	return &Mapper{
		tracker: tracker,
		store:   store,
		logger:  logger,
	}
}

// Load replaces the annotation set with the stored annotations of documentID.
// On failure the set is left empty.
func (m *Mapper) Load(ctx context.Context, documentID string) error {
	m.Reset(documentID)

	list, err := m.store.ListAnnotations(ctx, documentID)
	if err != nil {
		return fmt.Errorf("list annotations: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.documentID != documentID {
		return nil
	}
	m.annotations = append(m.annotations[:0], list...)
	sortAnnotations(m.annotations)
	return nil
}

// Reset switches to documentID with an empty set and no pending selection.
func (m *Mapper) Reset(documentID string) {
	m.mu.Lock()
	m.documentID = documentID
	m.pending = nil
	m.annotations = nil
	m.mu.Unlock()
}

// Select records a finalized selection. It returns nil, leaving no pending
// selection, when the selection is collapsed or only whitespace.
func (m *Mapper) Select(snapshot SelectionSnapshot) *PendingSelection {
	text := strings.TrimSpace(snapshot.Text)

	m.mu.Lock()
	defer m.mu.Unlock()

	if text == "" || len(snapshot.Rects) == 0 {
		m.pending = nil
		return nil
	}

	rects := make([]domain.Rect, len(snapshot.Rects))
	copy(rects, snapshot.Rects)
	m.pending = &PendingSelection{
		Text:  text,
		Page:  m.tracker.CurrentPage(),
		Rects: rects,
	}
	p := *m.pending
	return &p
}

// Pending returns the selection awaiting confirmation, if any.
func (m *Mapper) Pending() *PendingSelection {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return nil
	}
	p := *m.pending
	return &p
}

// ClearSelection drops the pending selection.
func (m *Mapper) ClearSelection() {
	m.mu.Lock()
	m.pending = nil
	m.mu.Unlock()
}

// Confirm persists the pending selection as an annotation of the given kind
// and palette color. On a store failure the draft is discarded and the error
// returned so the caller can tell the user.
func (m *Mapper) Confirm(ctx context.Context, kind domain.AnnotationKind, color string) (*domain.Annotation, error) {
	m.mu.Lock()
	if m.documentID == "" {
		m.mu.Unlock()
		return nil, ErrNoDocument
	}
	if m.pending == nil {
		m.mu.Unlock()
		return nil, ErrNoSelection
	}
	encoded, err := domain.EncodeColor(kind, color)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}

	sel := m.pending
	pageBox, ok := m.tracker.PageBounds(sel.Page)
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: page %d", ErrPageNotMounted, sel.Page)
	}
	rects, err := normalizeRects(sel.Rects, pageBox, sel.Page)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}

	documentID := m.documentID
	draft := &domain.Annotation{
		DocumentID:   documentID,
		PageNumber:   sel.Page,
		TextContent:  sel.Text,
		Color:        encoded,
		PositionData: domain.PositionData{Rects: rects},
	}
	m.pending = nil
	m.mu.Unlock()

	if err := draft.Validate(); err != nil {
		return nil, err
	}

	created, err := m.store.CreateAnnotation(ctx, documentID, draft)
	if err != nil {
		m.logger.Error("Failed to create annotation", err, "document_id", documentID, "page", draft.PageNumber)
		return nil, fmt.Errorf("create annotation: %w", err)
	}

	m.mu.Lock()
	if m.documentID == documentID {
		m.annotations = append(m.annotations, created)
		sortAnnotations(m.annotations)
	}
	m.mu.Unlock()

	m.logger.Info("Annotation created", "document_id", documentID, "annotation_id", created.ID, "page", created.PageNumber)
	return created, nil
}

// Delete removes an annotation. On failure it stays in the set.
func (m *Mapper) Delete(ctx context.Context, annotationID string) error {
	if annotationID == "" {
		return &domain.ValidationError{Field: "id", Message: "annotation id is required"}
	}
	if err := m.store.DeleteAnnotation(ctx, annotationID); err != nil {
		m.logger.Error("Failed to delete annotation", err, "annotation_id", annotationID)
		return fmt.Errorf("delete annotation: %w", err)
	}

	m.mu.Lock()
	for i, a := range m.annotations {
		if a.ID == annotationID {
			m.annotations = append(m.annotations[:i], m.annotations[i+1:]...)
			break
		}
	}
	m.mu.Unlock()
	return nil
}

// Annotations returns the current set ordered by page.
func (m *Mapper) Annotations() []*domain.Annotation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Annotation, len(m.annotations))
	copy(out, m.annotations)
	return out
}

// Overlays returns what to draw on page.
func (m *Mapper) Overlays(page int) []Overlay {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Overlay
	for _, a := range m.annotations {
		if a.PageNumber != page {
			continue
		}
		kind, base := domain.DecodeColor(a.Color)
		style := OverlayFill
		if kind == domain.KindUnderline {
			style = OverlayUnderline
		}
		out = append(out, Overlay{
			AnnotationID: a.ID,
			Style:        style,
			Color:        base,
			Rects:        a.RenderRects(),
			Note:         a.Note,
		})
	}
	return out
}

// normalizeRects converts client rects into fractions of the page box and
// tags them with page.
func normalizeRects(client []domain.Rect, pageBox domain.Rect, page int) ([]domain.Rect, error) {
	if pageBox.Width <= 0 || pageBox.Height <= 0 {
		return nil, fmt.Errorf("%w: page %d has no size", ErrPageNotMounted, page)
	}
	out := make([]domain.Rect, 0, len(client))
	for _, r := range client {
		out = append(out, domain.Rect{
			X:      (r.X - pageBox.X) / pageBox.Width,
			Y:      (r.Y - pageBox.Y) / pageBox.Height,
			Width:  r.Width / pageBox.Width,
			Height: r.Height / pageBox.Height,
			Page:   page,
		})
	}
	return out, nil
}

func sortAnnotations(list []*domain.Annotation) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].PageNumber == list[j].PageNumber {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].PageNumber < list[j].PageNumber
	})
}
