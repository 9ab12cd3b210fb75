package reader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lector-reader/internal/domain"
)

type pushCall struct {
	SessionID string
	Update    domain.ProgressUpdate
}

// fakeBackend implements every store interface in memory.
type fakeBackend struct {
	mu sync.Mutex

	entitlement *domain.Entitlement
	gateErr     error

	startErr   error
	startBlock chan struct{}
	starts     int
	ends       []string
	nextID     int

	// resume makes StartOrResumeSession get-or-create per document, like the
	// server's /active route. The session is picked when the request arrives.
	resume bool
	open   map[string]string

	pushErr error
	pushes  []pushCall

	annotations map[string][]*domain.Annotation
	createErr   error
	deleteErr   error
	listErr     error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		entitlement: domain.Allowed(),
		annotations: make(map[string][]*domain.Annotation),
		open:        make(map[string]string),
	}
}

func (f *fakeBackend) CheckEntitlement(ctx context.Context, actor domain.Actor) (*domain.Entitlement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entitlement, f.gateErr
}

func (f *fakeBackend) StartOrResumeSession(ctx context.Context, documentID string) (*domain.ReadingSession, error) {
	f.mu.Lock()
	f.starts++
	block := f.startBlock
	resumed := ""
	if f.resume {
		if id, ok := f.open[documentID]; ok {
			resumed = id
		} else {
			f.nextID++
			resumed = fmt.Sprintf("session-%d", f.nextID)
			f.open[documentID] = resumed
		}
	}
	f.mu.Unlock()

	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return nil, f.startErr
	}
	if resumed != "" {
		return &domain.ReadingSession{ID: resumed, DocumentID: documentID, StartedAt: time.Now()}, nil
	}
	f.nextID++
	return &domain.ReadingSession{
		ID:         fmt.Sprintf("session-%d", f.nextID),
		DocumentID: documentID,
		StartedAt:  time.Now(),
	}, nil
}

func (f *fakeBackend) EndSession(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ends = append(f.ends, sessionID)
	for doc, id := range f.open {
		if id == sessionID {
			delete(f.open, doc)
		}
	}
	return nil
}

func (f *fakeBackend) PushProgress(ctx context.Context, sessionID string, update domain.ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return f.pushErr
	}
	for _, id := range f.ends {
		if id == sessionID {
			return domain.ErrSessionClosed
		}
	}
	f.pushes = append(f.pushes, pushCall{SessionID: sessionID, Update: update})
	return nil
}

func (f *fakeBackend) ListAnnotations(ctx context.Context, documentID string) ([]*domain.Annotation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*domain.Annotation, len(f.annotations[documentID]))
	copy(out, f.annotations[documentID])
	return out, nil
}

func (f *fakeBackend) CreateAnnotation(ctx context.Context, documentID string, draft *domain.Annotation) (*domain.Annotation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	created := *draft
	created.ID = fmt.Sprintf("annotation-%d", len(f.annotations[documentID])+1)
	created.CreatedAt = time.Now()
	f.annotations[documentID] = append(f.annotations[documentID], &created)
	return &created, nil
}

func (f *fakeBackend) DeleteAnnotation(ctx context.Context, annotationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for doc, list := range f.annotations {
		for i, a := range list {
			if a.ID == annotationID {
				f.annotations[doc] = append(list[:i], list[i+1:]...)
				return nil
			}
		}
	}
	return domain.ErrAnnotationNotFound
}

func (f *fakeBackend) Pushes() []pushCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]pushCall, len(f.pushes))
	copy(out, f.pushes)
	return out
}

func (f *fakeBackend) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

func (f *fakeBackend) Ends() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.ends))
	copy(out, f.ends)
	return out
}

var errBackend = errors.New("backend unavailable")

// layout is a vertical stack of equally tall pages inside a scrolling
// viewport. Bounds are in viewport coordinates.
type layout struct {
	mu         sync.Mutex
	pageHeight float64
	width      float64
	viewport   float64
	scrollTop  float64
}

func newLayout(pageHeight, viewport float64) *layout {
	return &layout{pageHeight: pageHeight, width: 600, viewport: viewport}
}

func (l *layout) container() domain.Rect {
	l.mu.Lock()
	defer l.mu.Unlock()
	return domain.Rect{Width: l.width, Height: l.viewport}
}

func (l *layout) page(n int) BoundsFunc {
	return func() domain.Rect {
		l.mu.Lock()
		defer l.mu.Unlock()
		return domain.Rect{
			Y:      float64(n-1)*l.pageHeight - l.scrollTop,
			Width:  l.width,
			Height: l.pageHeight,
		}
	}
}

func (l *layout) scrollTo(y float64) {
	l.mu.Lock()
	l.scrollTop = y
	l.mu.Unlock()
}

func (l *layout) resize(viewport float64) {
	l.mu.Lock()
	l.viewport = viewport
	l.mu.Unlock()
}

func registerPages(t *Tracker, l *layout, n int) {
	for i := 1; i <= n; i++ {
		t.RegisterPage(i, l.page(i))
	}
}
