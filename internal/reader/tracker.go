package reader

import (
	"math"
	"sync"

	"lector-reader/internal/domain"
)

// BoundsFunc reports a live bounding box in container coordinates.
// It must not call back into the Tracker.
type BoundsFunc func() domain.Rect

// PageBox is one mounted page and its current bounds.
type PageBox struct {
	Page   int
	Bounds domain.Rect
}

// MostVisible returns the page with the largest vertical overlap with
// container. Ties keep the earliest entry in pages. ok is false when no page
// overlaps the container.
func MostVisible(pages []PageBox, container domain.Rect) (page int, ok bool) {
	best := 0.0
	for _, p := range pages {
		top := math.Max(p.Bounds.Top(), container.Top())
		bottom := math.Min(p.Bounds.Bottom(), container.Bottom())
		visible := math.Max(0, bottom-top)
		if visible > best {
			best = visible
			page = p.Page
			ok = true
		}
	}
	return page, ok
}

// Tracker keeps the most visible page of a scrolling container up to date.
type Tracker struct {
	// emitMu orders recomputes so page changes reach onChange in the order
	// they were applied.
	emitMu sync.Mutex

	mu        sync.Mutex
	container BoundsFunc
	order     []int
	pages     map[int]BoundsFunc
	current   int
	onChange  func(page int)
}

// NewTracker creates a tracker for the given container, starting at initialPage.
func NewTracker(container BoundsFunc, initialPage int) *Tracker {
	if initialPage < 1 {
		initialPage = 1
	}
	return &Tracker{
		container: container,
		pages:     make(map[int]BoundsFunc),
		current:   initialPage,
	}
}

// OnPageChange sets the callback fired when the most visible page changes.
// The callback must not call Scroll or Resize.
func (t *Tracker) OnPageChange(fn func(page int)) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// RegisterPage mounts a page. Registering an already mounted page replaces
// its bounds and keeps its position in the tie-break order.
func (t *Tracker) RegisterPage(page int, bounds BoundsFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.pages[page]; !exists {
		t.order = append(t.order, page)
	}
	t.pages[page] = bounds
}

// UnregisterPage unmounts a page.
func (t *Tracker) UnregisterPage(page int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.pages[page]; !exists {
		return
	}
	delete(t.pages, page)
	for i, p := range t.order {
		if p == page {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Scroll recomputes the most visible page. It returns the page and whether a
// change was emitted.
func (t *Tracker) Scroll() (int, bool) {
	return t.recompute()
}

// Resize recomputes after the container changed size.
func (t *Tracker) Resize() (int, bool) {
	return t.recompute()
}

func (t *Tracker) recompute() (int, bool) {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()

	t.mu.Lock()
	if len(t.order) == 0 || t.container == nil {
		current := t.current
		t.mu.Unlock()
		return current, false
	}

	boxes := make([]PageBox, 0, len(t.order))
	for _, page := range t.order {
		boxes = append(boxes, PageBox{Page: page, Bounds: t.pages[page]()})
	}
	page, ok := MostVisible(boxes, t.container())
	if !ok || page == t.current {
		current := t.current
		t.mu.Unlock()
		return current, false
	}

	t.current = page
	onChange := t.onChange
	t.mu.Unlock()

	if onChange != nil {
		onChange(page)
	}
	return page, true
}

// CurrentPage returns the last reported page.
func (t *Tracker) CurrentPage() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// PageBounds returns the live bounds of a mounted page.
func (t *Tracker) PageBounds(page int) (domain.Rect, bool) {
	t.mu.Lock()
	bounds, ok := t.pages[page]
	t.mu.Unlock()
	if !ok {
		return domain.Rect{}, false
	}
	return bounds(), true
}

// MountedPages returns the mounted pages in registration order.
func (t *Tracker) MountedPages() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]int, len(t.order))
	copy(out, t.order)
	return out
}

// Reset unmounts every page and moves back to page.
func (t *Tracker) Reset(page int) {
	if page < 1 {
		page = 1
	}
	t.mu.Lock()
	t.order = nil
	t.pages = make(map[int]BoundsFunc)
	t.current = page
	t.mu.Unlock()
}
