package reader

import (
	"sort"
	"sync"
	"time"
)

// Cancel stops a scheduled callback. Calling it more than once is safe.
type Cancel func()

// Scheduler runs callbacks later. Callbacks may run on any goroutine.
type Scheduler interface {
	After(d time.Duration, fn func()) Cancel
	Every(d time.Duration, fn func()) Cancel
}

// Clock is the wall-clock Scheduler.
type Clock struct{}

// NewClock returns a Scheduler backed by the runtime timers.
func NewClock() *Clock {
	return &Clock{}
}

// After runs fn once after d.
func (Clock) After(d time.Duration, fn func()) Cancel {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Every runs fn every d until cancelled.
func (Clock) Every(d time.Duration, fn func()) Cancel {
	ticker := time.NewTicker(d)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}

// ManualClock is a virtual Scheduler. Nothing fires until Advance is called,
// and callbacks then run synchronously on the caller's goroutine.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers map[int]*manualTimer
}

type manualTimer struct {
	id    int
	due   time.Duration
	every time.Duration
	fn    func()
}

// NewManualClock returns a ManualClock at virtual time zero.
func NewManualClock() *ManualClock {
	return &ManualClock{timers: make(map[int]*manualTimer)}
}

// After schedules fn at now+d.
func (c *ManualClock) After(d time.Duration, fn func()) Cancel {
	return c.add(d, 0, fn)
}

// Every schedules fn at now+d, now+2d, ...
func (c *ManualClock) Every(d time.Duration, fn func()) Cancel {
	return c.add(d, d, fn)
}

func (c *ManualClock) add(d, every time.Duration, fn func()) Cancel {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	id := c.seq
	c.timers[id] = &manualTimer{id: id, due: c.now + d, every: every, fn: fn}
	return func() {
		c.mu.Lock()
		delete(c.timers, id)
		c.mu.Unlock()
	}
}

// Advance moves virtual time forward by d, firing due callbacks in order.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDue(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = next.due
		if next.every > 0 {
			next.due += next.every
		} else {
			delete(c.timers, next.id)
		}
		fn := next.fn
		c.mu.Unlock()

		fn()
	}
}

// nextDue returns the earliest timer due at or before target. Callers hold mu.
func (c *ManualClock) nextDue(target time.Duration) *manualTimer {
	due := make([]*manualTimer, 0, len(c.timers))
	for _, t := range c.timers {
		if t.due <= target {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due == due[j].due {
			return due[i].id < due[j].id
		}
		return due[i].due < due[j].due
	})
	return due[0]
}

// Pending returns the number of scheduled callbacks.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// Now returns the virtual time elapsed since creation.
func (c *ManualClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}
