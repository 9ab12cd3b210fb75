package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"lector-reader/internal/domain"

	"github.com/google/uuid"
)

// MemoryStore keeps every table in process memory. It backs the server when
// Supabase is not configured and the service tests.
type MemoryStore struct {
	mu            sync.RWMutex
	sessions      map[string]*domain.ReadingSession
	progress      map[string]*domain.ReadingProgress
	annotations   map[string]*domain.Annotation
	subscriptions map[string][]*domain.Subscription
	disabled      map[string]bool
	now           func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:      make(map[string]*domain.ReadingSession),
		progress:      make(map[string]*domain.ReadingProgress),
		annotations:   make(map[string]*domain.Annotation),
		subscriptions: make(map[string][]*domain.Subscription),
		disabled:      make(map[string]bool),
		now:           time.Now,
	}
}

// SetClock replaces the time source used for created_at stamps.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

// AddSubscription stores a subscription for its user.
func (m *MemoryStore) AddSubscription(sub domain.Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = m.now()
	}
	m.subscriptions[sub.UserID] = append([]*domain.Subscription{&sub}, m.subscriptions[sub.UserID]...)
}

// SetAccountDisabled sets the account status flag of a user.
func (m *MemoryStore) SetAccountDisabled(userID string, disabled bool) {
	m.mu.Lock()
	m.disabled[userID] = disabled
	m.mu.Unlock()
}

func (m *MemoryStore) Sessions() domain.ReadingSessionRepository { return &memorySessions{m} }

func (m *MemoryStore) Progress() domain.ReadingProgressRepository { return &memoryProgress{m} }

func (m *MemoryStore) Annotations() domain.AnnotationRepository { return &memoryAnnotations{m} }

func (m *MemoryStore) Subscriptions() domain.SubscriptionRepository { return &memorySubscriptions{m} }

func (m *MemoryStore) Accounts() domain.AccountRepository { return &memoryAccounts{m} }

type memorySessions struct{ m *MemoryStore }

func (r *memorySessions) Create(ctx context.Context, session *domain.ReadingSession, token string) (*domain.ReadingSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	s := *session
	s.ID = uuid.NewString()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = r.m.now()
	}
	r.m.sessions[s.ID] = &s
	out := s
	return &out, nil
}

func (r *memorySessions) Get(ctx context.Context, userID, sessionID string, token string) (*domain.ReadingSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	s, ok := r.m.sessions[sessionID]
	if !ok || s.UserID != userID {
		return nil, domain.ErrSessionNotFound
	}
	out := *s
	return &out, nil
}

func (r *memorySessions) ListOpen(ctx context.Context, userID, documentID string, token string) ([]*domain.ReadingSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	var out []*domain.ReadingSession
	for _, s := range r.m.sessions {
		if s.UserID == userID && s.DocumentID == documentID && s.IsOpen() {
			c := *s
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func (r *memorySessions) ListStartedSince(ctx context.Context, userID string, since time.Time, token string) ([]*domain.ReadingSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	var out []*domain.ReadingSession
	for _, s := range r.m.sessions {
		if s.UserID == userID && !s.StartedAt.Before(since) {
			c := *s
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func (r *memorySessions) Update(ctx context.Context, session *domain.ReadingSession, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	existing, ok := r.m.sessions[session.ID]
	if !ok || existing.UserID != session.UserID {
		return domain.ErrSessionNotFound
	}
	s := *session
	r.m.sessions[s.ID] = &s
	return nil
}

type memoryProgress struct{ m *MemoryStore }

func progressKey(userID, documentID string) string {
	return userID + "/" + documentID
}

func (r *memoryProgress) Get(ctx context.Context, userID, documentID string, token string) (*domain.ReadingProgress, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	p, ok := r.m.progress[progressKey(userID, documentID)]
	if !ok {
		return nil, nil
	}
	out := *p
	return &out, nil
}

func (r *memoryProgress) Upsert(ctx context.Context, progress *domain.ReadingProgress, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	p := *progress
	r.m.progress[progressKey(p.UserID, p.DocumentID)] = &p
	return nil
}

func (r *memoryProgress) ListByUser(ctx context.Context, userID string, token string) ([]*domain.ReadingProgress, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	var out []*domain.ReadingProgress
	for _, p := range r.m.progress {
		if p.UserID == userID {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

type memoryAnnotations struct{ m *MemoryStore }

func (r *memoryAnnotations) Create(ctx context.Context, annotation *domain.Annotation, token string) (*domain.Annotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	a := cloneAnnotation(annotation)
	a.ID = uuid.NewString()
	a.TextContent = sanitizeText(a.TextContent)
	now := r.m.now()
	a.CreatedAt = now
	a.UpdatedAt = now
	r.m.annotations[a.ID] = a
	return cloneAnnotation(a), nil
}

func (r *memoryAnnotations) ListByDocument(ctx context.Context, userID, documentID string, token string) ([]*domain.Annotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	out := make([]*domain.Annotation, 0)
	for _, a := range r.m.annotations {
		if a.UserID == userID && a.DocumentID == documentID {
			out = append(out, cloneAnnotation(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PageNumber == out[j].PageNumber {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].PageNumber < out[j].PageNumber
	})
	return out, nil
}

func (r *memoryAnnotations) Get(ctx context.Context, userID, annotationID string, token string) (*domain.Annotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	a, ok := r.m.annotations[annotationID]
	if !ok || a.UserID != userID {
		return nil, domain.ErrAnnotationNotFound
	}
	return cloneAnnotation(a), nil
}

func (r *memoryAnnotations) Update(ctx context.Context, annotation *domain.Annotation, token string) (*domain.Annotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	existing, ok := r.m.annotations[annotation.ID]
	if !ok || existing.UserID != annotation.UserID {
		return nil, domain.ErrAnnotationNotFound
	}
	existing.Color = annotation.Color
	existing.Note = annotation.Note
	existing.UpdatedAt = annotation.UpdatedAt
	return cloneAnnotation(existing), nil
}

func (r *memoryAnnotations) Delete(ctx context.Context, userID, annotationID string, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	a, ok := r.m.annotations[annotationID]
	if !ok || a.UserID != userID {
		return domain.ErrAnnotationNotFound
	}
	delete(r.m.annotations, annotationID)
	return nil
}

func cloneAnnotation(a *domain.Annotation) *domain.Annotation {
	c := *a
	c.PositionData.Rects = append([]domain.Rect(nil), a.PositionData.Rects...)
	if a.Note != nil {
		note := *a.Note
		c.Note = &note
	}
	return &c
}

type memorySubscriptions struct{ m *MemoryStore }

func (r *memorySubscriptions) Latest(ctx context.Context, userID string, token string) (*domain.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	sub := pickSubscription(r.m.subscriptions[userID])
	if sub == nil {
		return nil, nil
	}
	out := *sub
	return &out, nil
}

type memoryAccounts struct{ m *MemoryStore }

func (r *memoryAccounts) IsDisabled(ctx context.Context, userID string, token string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return r.m.disabled[userID], nil
}

func (r *memoryAccounts) SetDisabled(ctx context.Context, userID string, disabled bool, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.m.SetAccountDisabled(userID, disabled)
	return nil
}
