package reader

import (
	"context"

	"lector-reader/internal/domain"
)

// EntitlementGate answers whether an actor may read at all.
type EntitlementGate interface {
	CheckEntitlement(ctx context.Context, actor domain.Actor) (*domain.Entitlement, error)
}

// SessionStore opens and closes server-side reading sessions.
type SessionStore interface {
	StartOrResumeSession(ctx context.Context, documentID string) (*domain.ReadingSession, error)
	EndSession(ctx context.Context, sessionID string) error
}

// ProgressStore receives progress pushes for a session.
type ProgressStore interface {
	PushProgress(ctx context.Context, sessionID string, update domain.ProgressUpdate) error
}

// AnnotationStore persists annotations.
type AnnotationStore interface {
	ListAnnotations(ctx context.Context, documentID string) ([]*domain.Annotation, error)
	CreateAnnotation(ctx context.Context, documentID string, draft *domain.Annotation) (*domain.Annotation, error)
	DeleteAnnotation(ctx context.Context, annotationID string) error
}
