package cli

import (
	"math"
	"sync"

	"lector-reader/internal/document"
	"lector-reader/internal/domain"
	"lector-reader/internal/reader"
)

const (
	defaultPageGap = 16
	lineHeight     = 16
	charsPerLine   = 60
)

// Layout is a virtual vertical scroll view: pages stacked top to bottom,
// scaled to the view width and separated by a gap. All rects it reports are
// in view coordinates, with the view's top edge at y=0.
type Layout struct {
	mu       sync.Mutex
	width    float64
	viewport float64
	gap      float64
	tops     []float64
	heights  []float64
	offset   float64
}

// NewLayout lays out pages of the given sizes width units wide in a view
// viewport units high.
func NewLayout(sizes []document.PageSize, width, viewport float64) *Layout {
	l := &Layout{width: width, viewport: viewport, gap: defaultPageGap}
	l.heights = document.ScaledHeights(sizes, width)
	l.tops = make([]float64, len(l.heights))
	y := 0.0
	for i, h := range l.heights {
		l.tops[i] = y
		y += h + l.gap
	}
	return l
}

// Pages returns the number of laid out pages.
func (l *Layout) Pages() int {
	return len(l.heights)
}

// Container reports the view bounds.
func (l *Layout) Container() domain.Rect {
	l.mu.Lock()
	defer l.mu.Unlock()
	return domain.Rect{Width: l.width, Height: l.viewport}
}

// Page returns a live bounds func for page n.
func (l *Layout) Page(n int) reader.BoundsFunc {
	return func() domain.Rect {
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.pageRect(n)
	}
}

func (l *Layout) pageRect(n int) domain.Rect {
	if n < 1 || n > len(l.heights) {
		return domain.Rect{}
	}
	return domain.Rect{
		Y:      l.tops[n-1] - l.offset,
		Width:  l.width,
		Height: l.heights[n-1],
	}
}

// MaxOffset is the furthest the view can scroll.
func (l *Layout) MaxOffset() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.maxOffset()
}

func (l *Layout) maxOffset() float64 {
	n := len(l.heights)
	if n == 0 {
		return 0
	}
	content := l.tops[n-1] + l.heights[n-1]
	return math.Max(0, content-l.viewport)
}

// Offset returns the scroll offset.
func (l *Layout) Offset() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.offset
}

// ScrollTo moves the view to y, clamped to the content, and returns the
// resulting offset.
func (l *Layout) ScrollTo(y float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.offset = math.Min(math.Max(0, y), l.maxOffset())
	return l.offset
}

// ScrollBy moves the view by dy.
func (l *Layout) ScrollBy(dy float64) float64 {
	return l.ScrollTo(l.Offset() + dy)
}

// ScrollToPage aligns the top of page n with the top of the view.
func (l *Layout) ScrollToPage(n int) float64 {
	l.mu.Lock()
	if n < 1 || n > len(l.tops) {
		offset := l.offset
		l.mu.Unlock()
		return offset
	}
	top := l.tops[n-1]
	l.mu.Unlock()
	return l.ScrollTo(top)
}

// Resize changes the view height and re-clamps the offset.
func (l *Layout) Resize(viewport float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if viewport <= 0 {
		return
	}
	l.viewport = viewport
	l.offset = math.Min(l.offset, l.maxOffset())
}

// SelectionRects returns one line box per line text would wrap to, placed in
// the visible part of page. Lines that do not fit on screen are dropped; ok
// is false when not even one line fits.
func (l *Layout) SelectionRects(page int, text string) (rects []domain.Rect, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	box := l.pageRect(page)
	if box.Height <= 0 {
		return nil, false
	}
	top := math.Max(box.Top(), 0) + lineHeight
	bottom := math.Min(box.Bottom(), l.viewport) - lineHeight
	left := box.X + box.Width*0.1
	full := box.Width * 0.8

	remaining := len([]rune(text))
	for y := top; remaining > 0 && y+lineHeight <= bottom; y += lineHeight * 1.5 {
		n := remaining
		if n > charsPerLine {
			n = charsPerLine
		}
		rects = append(rects, domain.Rect{
			X:      left,
			Y:      y,
			Width:  full * float64(n) / charsPerLine,
			Height: lineHeight,
		})
		remaining -= n
	}
	return rects, len(rects) > 0
}
