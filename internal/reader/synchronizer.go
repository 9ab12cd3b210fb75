package reader

import (
	"context"
	"sync"
	"time"

	"lector-reader/internal/domain"
)

const (
	DefaultDebounce       = 500 * time.Millisecond
	DefaultHeartbeat      = 30 * time.Second
	DefaultRequestTimeout = 10 * time.Second
)

// SyncOptions tunes the Synchronizer timers.
type SyncOptions struct {
	Debounce       time.Duration
	Heartbeat      time.Duration
	RequestTimeout time.Duration
}

func (o SyncOptions) withDefaults() SyncOptions {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.Heartbeat <= 0 {
		o.Heartbeat = DefaultHeartbeat
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	return o
}

// Synchronizer pushes the reader's position to the progress store: once per
// settled page change, and on a heartbeat so reading time keeps accruing.
// Push failures are logged and never returned.
type Synchronizer struct {
	mu        sync.Mutex
	store     ProgressStore
	scheduler Scheduler
	sessionID func() string
	logger    domain.Logger
	opts      SyncOptions

	page       int
	totalPages int
	pending    Cancel
	pendingSeq uint64
	heartbeat  Cancel
	stopped    bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewSynchronizer creates a synchronizer. sessionID returns the active
// session id, or "" when there is none.
func NewSynchronizer(store ProgressStore, scheduler Scheduler, sessionID func() string, opts SyncOptions, logger domain.Logger) *Synchronizer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Synchronizer{
		store:     store,
		scheduler: scheduler,
		sessionID: sessionID,
		logger:    logger,
		opts:      opts.withDefaults(),
		page:      1,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// SetTotalPages records the document's page count.
func (s *Synchronizer) SetTotalPages(n int) {
	s.mu.Lock()
	s.totalPages = n
	s.mu.Unlock()
}

// SetPage sets the current page without scheduling a push.
func (s *Synchronizer) SetPage(page int) {
	s.mu.Lock()
	s.page = page
	s.mu.Unlock()
}

// CurrentPage returns the latest reported page.
func (s *Synchronizer) CurrentPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// Snapshot returns the update a push would send right now.
func (s *Synchronizer) Snapshot() domain.ProgressUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.ProgressFor(s.page, s.totalPages)
}

// ReportPageChange records page and (re)schedules the debounced push. Only
// the last page reported within the debounce window is sent.
func (s *Synchronizer) ReportPageChange(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.page = page
	if s.pending != nil {
		s.pending()
	}

	s.pendingSeq++
	seq := s.pendingSeq
	s.pending = s.scheduler.After(s.opts.Debounce, func() {
		s.mu.Lock()
		if s.stopped || s.pending == nil || s.pendingSeq != seq {
			s.mu.Unlock()
			return
		}
		s.pending = nil
		update := domain.ProgressFor(s.page, s.totalPages)
		s.mu.Unlock()

		s.push(s.ctx, update, "debounce")
	})
}

// StartHeartbeat starts re-sending the current snapshot every heartbeat
// interval. Ticks are skipped while there is no session or no page count.
func (s *Synchronizer) StartHeartbeat() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.heartbeat != nil {
		return
	}
	s.heartbeat = s.scheduler.Every(s.opts.Heartbeat, func() {
		s.mu.Lock()
		if s.stopped || s.totalPages <= 0 {
			s.mu.Unlock()
			return
		}
		update := domain.ProgressFor(s.page, s.totalPages)
		s.mu.Unlock()

		s.push(s.ctx, update, "heartbeat")
	})
}

// MarkFinished pushes the last page at 100 percent right away, dropping any
// pending debounced push. It returns the update once the push has completed
// or failed; ok is false when nothing could be sent.
func (s *Synchronizer) MarkFinished(ctx context.Context) (update domain.ProgressUpdate, ok bool) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return domain.ProgressUpdate{}, false
	}
	if s.pending != nil {
		s.pending()
		s.pending = nil
	}
	total := s.totalPages
	if total <= 0 {
		s.mu.Unlock()
		s.logger.Warn("Cannot mark as finished before the page count is known")
		return domain.ProgressUpdate{}, false
	}
	s.page = total
	update = domain.ProgressUpdate{
		CurrentPage: total,
		Percent:     100,
		Location:    domain.LocationLabel(total, total),
	}
	s.mu.Unlock()

	return update, s.push(ctx, update, "finish")
}

// Stop cancels the pending push and the heartbeat. No push starts after
// Stop returns, and in-flight pushes see their context cancelled.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	if s.pending != nil {
		s.pending()
		s.pending = nil
	}
	if s.heartbeat != nil {
		s.heartbeat()
		s.heartbeat = nil
	}
	s.mu.Unlock()

	s.cancel()
}

func (s *Synchronizer) push(ctx context.Context, update domain.ProgressUpdate, trigger string) bool {
	sessionID := s.sessionID()
	if sessionID == "" {
		s.logger.Debug("Skipping progress push without a session", "trigger", trigger, "page", update.CurrentPage)
		return false
	}

	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()

	if err := s.store.PushProgress(ctx, sessionID, update); err != nil {
		s.logger.Error("Failed to push reading progress", err,
			"session_id", sessionID,
			"trigger", trigger,
			"page", update.CurrentPage)
		return false
	}
	s.logger.Debug("Reading progress pushed",
		"session_id", sessionID,
		"trigger", trigger,
		"page", update.CurrentPage,
		"percent", update.Percent)
	return true
}
