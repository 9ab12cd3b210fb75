package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// AnnotationKind selects how an annotation is drawn.
type AnnotationKind string

const (
	KindHighlight AnnotationKind = "highlight"
	KindUnderline AnnotationKind = "underline"
)

// UnderlineSuffix marks the underline variant of a palette color.
const UnderlineSuffix = "-underline"

// Palette lists the colors a reader can pick, in display order.
var Palette = []string{"yellow", "green", "blue", "pink", "purple", "orange"}

// DefaultColor is used when a stored annotation has no color.
const DefaultColor = "yellow"

// Rect is a rectangle. Annotation rects are normalized to the page box (0..1).
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Page   int     `json:"page_index,omitempty"`
}

// Top returns the top edge.
func (r Rect) Top() float64 { return r.Y }

// Bottom returns the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// PositionData holds where an annotation renders on its page.
type PositionData struct {
	Rects []Rect `json:"rects"`
}

// Annotation is a highlight or underline a user saved on a document page.
type Annotation struct {
	ID           string       `json:"id,omitempty"`
	UserID       string       `json:"user_id,omitempty"`
	DocumentID   string       `json:"book"`
	PageNumber   int          `json:"page_number"`
	TextContent  string       `json:"text_content"`
	Color        string       `json:"color"`
	PositionData PositionData `json:"position_data"`
	Note         *string      `json:"note,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// IsPaletteColor reports whether c is a base palette color.
func IsPaletteColor(c string) bool {
	for _, p := range Palette {
		if p == c {
			return true
		}
	}
	return false
}

// EncodeColor returns the stored color value for a kind/base color pair.
func EncodeColor(kind AnnotationKind, base string) (string, error) {
	if !IsPaletteColor(base) {
		return "", &ValidationError{Field: "color", Message: fmt.Sprintf("unknown color %q", base)}
	}
	switch kind {
	case KindHighlight:
		return base, nil
	case KindUnderline:
		return base + UnderlineSuffix, nil
	default:
		return "", &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown annotation kind %q", kind)}
	}
}

// DecodeColor splits a stored color value into its kind and base color.
func DecodeColor(color string) (AnnotationKind, string) {
	if strings.HasSuffix(color, UnderlineSuffix) {
		return KindUnderline, strings.TrimSuffix(color, UnderlineSuffix)
	}
	if color == "" {
		return KindHighlight, DefaultColor
	}
	return KindHighlight, color
}

// Validate checks the fields every persisted annotation must carry.
// Each rect must sit on the annotation's page.
func (a *Annotation) Validate() error {
	if a.DocumentID == "" {
		return &ValidationError{Field: "book", Message: "document id is required"}
	}
	if a.PageNumber < 1 {
		return &ValidationError{Field: "page_number", Message: "must be at least 1"}
	}
	if strings.TrimSpace(a.TextContent) == "" {
		return &ValidationError{Field: "text_content", Message: "is required"}
	}
	if _, base := DecodeColor(a.Color); !IsPaletteColor(base) {
		return &ValidationError{Field: "color", Message: fmt.Sprintf("unknown color %q", a.Color)}
	}
	for i, r := range a.PositionData.Rects {
		if r.Page != a.PageNumber {
			return &ValidationError{
				Field:   "position_data",
				Message: fmt.Sprintf("rect %d is on page %d, annotation is on page %d", i, r.Page, a.PageNumber),
			}
		}
	}
	return nil
}

// RenderRects returns the rects to draw. Annotations saved without geometry
// cover the whole page.
func (a *Annotation) RenderRects() []Rect {
	if len(a.PositionData.Rects) == 0 {
		return []Rect{{X: 0, Y: 0, Width: 1, Height: 1, Page: a.PageNumber}}
	}
	return a.PositionData.Rects
}

// AnnotationPatch carries the fields that may change after creation.
type AnnotationPatch struct {
	Note  *string `json:"note,omitempty"`
	Color *string `json:"color,omitempty"`
}

// AnnotationRepository defines persistence operations for annotations.
type AnnotationRepository interface {
	Create(ctx context.Context, annotation *Annotation, token string) (*Annotation, error)
	ListByDocument(ctx context.Context, userID, documentID string, token string) ([]*Annotation, error)
	Get(ctx context.Context, userID, annotationID string, token string) (*Annotation, error)
	Update(ctx context.Context, annotation *Annotation, token string) (*Annotation, error)
	Delete(ctx context.Context, userID, annotationID string, token string) error
}

// AnnotationService defines the use-case operations for annotations.
type AnnotationService interface {
	CreateAnnotation(ctx context.Context, userID string, annotation *Annotation, token string) (*Annotation, error)
	ListAnnotations(ctx context.Context, userID, documentID string, token string) ([]*Annotation, error)
	UpdateAnnotation(ctx context.Context, userID, annotationID string, patch AnnotationPatch, token string) (*Annotation, error)
	DeleteAnnotation(ctx context.Context, userID, annotationID string, token string) error
}
