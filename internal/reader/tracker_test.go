package reader

import (
	"sync"
	"testing"
	"time"

	"lector-reader/internal/domain"
)

func TestMostVisible(t *testing.T) {
	container := domain.Rect{Width: 600, Height: 800}

	tests := []struct {
		name     string
		pages    []PageBox
		wantPage int
		wantOK   bool
	}{
		{
			name:   "no pages",
			wantOK: false,
		},
		{
			name: "single page fully visible",
			pages: []PageBox{
				{Page: 1, Bounds: domain.Rect{Y: 0, Height: 800}},
			},
			wantPage: 1,
			wantOK:   true,
		},
		{
			name: "larger overlap wins",
			pages: []PageBox{
				{Page: 1, Bounds: domain.Rect{Y: -700, Height: 1000}},
				{Page: 2, Bounds: domain.Rect{Y: 300, Height: 1000}},
			},
			wantPage: 2,
			wantOK:   true,
		},
		{
			name: "tie keeps first registered",
			pages: []PageBox{
				{Page: 4, Bounds: domain.Rect{Y: -600, Height: 1000}},
				{Page: 5, Bounds: domain.Rect{Y: 400, Height: 1000}},
			},
			wantPage: 4,
			wantOK:   true,
		},
		{
			name: "nothing overlaps",
			pages: []PageBox{
				{Page: 1, Bounds: domain.Rect{Y: -2000, Height: 1000}},
				{Page: 2, Bounds: domain.Rect{Y: 900, Height: 1000}},
			},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, ok := MostVisible(tt.pages, container)
			if ok != tt.wantOK {
				t.Fatalf("expected ok %v, got %v", tt.wantOK, ok)
			}
			if ok && page != tt.wantPage {
				t.Fatalf("expected page %d, got %d", tt.wantPage, page)
			}
		})
	}
}

func TestMostVisible_Deterministic(t *testing.T) {
	pages := []PageBox{
		{Page: 1, Bounds: domain.Rect{Y: -500, Height: 1000}},
		{Page: 2, Bounds: domain.Rect{Y: 500, Height: 1000}},
		{Page: 3, Bounds: domain.Rect{Y: 1500, Height: 1000}},
	}
	container := domain.Rect{Height: 1000}

	first, _ := MostVisible(pages, container)
	for i := 0; i < 100; i++ {
		page, _ := MostVisible(pages, container)
		if page != first {
			t.Fatalf("expected stable result %d, got %d", first, page)
		}
	}
}

func TestTracker_ScrollEmitsOnChangeOnly(t *testing.T) {
	l := newLayout(1000, 800)
	tracker := NewTracker(l.container, 1)
	registerPages(tracker, l, 5)

	var emitted []int
	tracker.OnPageChange(func(page int) { emitted = append(emitted, page) })

	if _, changed := tracker.Scroll(); changed {
		t.Fatal("expected no emission while page 1 stays most visible")
	}

	l.scrollTo(1100)
	page, changed := tracker.Scroll()
	if !changed || page != 2 {
		t.Fatalf("expected change to page 2, got page %d changed %v", page, changed)
	}

	l.scrollTo(1150)
	if _, changed := tracker.Scroll(); changed {
		t.Fatal("expected no duplicate emission for page 2")
	}

	l.scrollTo(3100)
	tracker.Scroll()

	if len(emitted) != 2 || emitted[0] != 2 || emitted[1] != 4 {
		t.Fatalf("expected emissions [2 4], got %v", emitted)
	}
	if tracker.CurrentPage() != 4 {
		t.Fatalf("expected current page 4, got %d", tracker.CurrentPage())
	}
}

func TestTracker_ConcurrentScrollsEmitInOrder(t *testing.T) {
	l := newLayout(1000, 800)
	tracker := NewTracker(l.container, 1)
	registerPages(tracker, l, 8)

	var mu sync.Mutex
	last := 0
	tracker.OnPageChange(func(page int) {
		time.Sleep(50 * time.Microsecond)
		mu.Lock()
		last = page
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.scrollTo(float64(i%8) * 1000)
			tracker.Scroll()
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if last != tracker.CurrentPage() {
		t.Fatalf("expected the last emission to match current page %d, got %d", tracker.CurrentPage(), last)
	}
}

func TestTracker_NoOverlapKeepsPage(t *testing.T) {
	l := newLayout(1000, 800)
	tracker := NewTracker(l.container, 3)
	tracker.RegisterPage(3, l.page(3))

	emitted := 0
	tracker.OnPageChange(func(int) { emitted++ })

	// Page 3 sits at 2000..3000, far below the viewport.
	l.scrollTo(0)
	page, changed := tracker.Scroll()
	if changed || page != 3 || emitted != 0 {
		t.Fatalf("expected page 3 kept without emission, got page %d changed %v emitted %d", page, changed, emitted)
	}
}

func TestTracker_ResizeRecomputes(t *testing.T) {
	l := newLayout(1000, 800)
	tracker := NewTracker(l.container, 1)
	registerPages(tracker, l, 3)

	// Page 1 shows 450, page 2 shows 350.
	l.scrollTo(550)
	if page, _ := tracker.Scroll(); page != 1 {
		t.Fatalf("expected page 1, got %d", page)
	}

	// A taller viewport reveals more of page 2 (450 vs 750).
	l.resize(1200)
	page, changed := tracker.Resize()
	if !changed || page != 2 {
		t.Fatalf("expected resize to move to page 2, got page %d changed %v", page, changed)
	}
}

func TestTracker_UnregisterAndReset(t *testing.T) {
	l := newLayout(1000, 800)
	tracker := NewTracker(l.container, 0)
	if tracker.CurrentPage() != 1 {
		t.Fatalf("expected initial page clamped to 1, got %d", tracker.CurrentPage())
	}
	registerPages(tracker, l, 3)
	tracker.RegisterPage(2, l.page(2))

	pages := tracker.MountedPages()
	if len(pages) != 3 || pages[0] != 1 || pages[1] != 2 || pages[2] != 3 {
		t.Fatalf("expected mounted [1 2 3], got %v", pages)
	}

	tracker.UnregisterPage(2)
	if _, ok := tracker.PageBounds(2); ok {
		t.Fatal("expected page 2 to be unmounted")
	}
	if bounds, ok := tracker.PageBounds(3); !ok || bounds.Y != 2000 {
		t.Fatalf("expected page 3 at 2000, got %+v ok %v", bounds, ok)
	}

	tracker.Reset(1)
	if len(tracker.MountedPages()) != 0 {
		t.Fatalf("expected no mounted pages after reset, got %v", tracker.MountedPages())
	}
}
