package reader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"lector-reader/internal/domain"
)

var (
	ErrAlreadyMounted = errors.New("reader already mounted")
	ErrNotMounted     = errors.New("reader not mounted")
)

// GateError is returned by Mount when the actor may not read. The reader
// shows an access screen instead of the document.
type GateError struct {
	Reason string
	Err    error
}

func (e *GateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("reading blocked (%s): %v", e.Reason, e.Err)
	}
	return "reading blocked: " + e.Reason
}

func (e *GateError) Unwrap() error {
	return e.Err
}

// Deps are the collaborators of a Reader.
type Deps struct {
	Gate        EntitlementGate
	Sessions    SessionStore
	Progress    ProgressStore
	Annotations AnnotationStore
	Scheduler   Scheduler
	Logger      domain.Logger
}

// Options tunes a Reader.
type Options struct {
	Sync        SyncOptions
	InitialPage int
}

// Reader coordinates one open document: the page tracker, the reading
// session, progress sync and annotations.
type Reader struct {
	mu   sync.Mutex
	deps Deps
	opts Options

	tracker  *Tracker
	mapper   *Mapper
	sessions *SessionManager
	sync     *Synchronizer

	mounted    bool
	epoch      uint64
	documentID string
	totalPages int
}

// New creates an unmounted reader over the given scroll container.
func New(container BoundsFunc, deps Deps, opts Options) *Reader {
	if deps.Scheduler == nil {
		deps.Scheduler = NewClock()
	}
	tracker := NewTracker(container, opts.InitialPage)
	r := &Reader{
		deps:     deps,
		opts:     opts,
		tracker:  tracker,
		mapper:   NewMapper(tracker, deps.Annotations, deps.Logger),
		sessions: NewSessionManager(deps.Sessions, deps.Logger),
	}
	tracker.OnPageChange(r.onPageChange)
	return r
}

func (r *Reader) onPageChange(page int) {
	r.mu.Lock()
	s := r.sync
	r.mu.Unlock()
	if s != nil {
		s.ReportPageChange(page)
	}
}

// Mount checks the entitlement of actor and opens documentID. A blocked or
// failed entitlement check returns a *GateError and leaves the reader
// unmounted. Session and annotation failures are logged and reading goes on.
func (r *Reader) Mount(ctx context.Context, actor domain.Actor, documentID string) error {
	r.mu.Lock()
	if r.mounted {
		r.mu.Unlock()
		return ErrAlreadyMounted
	}
	r.mounted = true
	r.epoch++
	epoch := r.epoch
	r.mu.Unlock()

	if err := r.checkGate(ctx, actor); err != nil {
		r.mu.Lock()
		if r.epoch == epoch {
			r.mounted = false
		}
		r.mu.Unlock()
		return err
	}

	r.mount(ctx, epoch, documentID)
	return nil
}

func (r *Reader) checkGate(ctx context.Context, actor domain.Actor) error {
	if r.deps.Gate == nil {
		return nil
	}
	ent, err := r.deps.Gate.CheckEntitlement(ctx, actor)
	if err != nil {
		r.deps.Logger.Error("Entitlement check failed", err, "user_id", actor.UserID)
		return &GateError{Reason: domain.ReasonCheckFailed, Err: err}
	}
	if ent != nil && ent.Blocked {
		r.deps.Logger.Info("Reading blocked", "user_id", actor.UserID, "reason", ent.Reason)
		return &GateError{Reason: ent.Reason}
	}
	return nil
}

func (r *Reader) mount(ctx context.Context, epoch uint64, documentID string) {
	sessions := r.sessions
	s := NewSynchronizer(r.deps.Progress, r.deps.Scheduler, sessions.SessionID, r.opts.Sync, r.deps.Logger)
	s.SetPage(r.tracker.CurrentPage())

	r.mu.Lock()
	if r.epoch != epoch {
		// Unmounted while the entitlement check was running.
		r.mu.Unlock()
		return
	}
	r.documentID = documentID
	r.sync = s
	if r.totalPages > 0 {
		s.SetTotalPages(r.totalPages)
	}
	r.mu.Unlock()

	// An Unmount during Start already closed or abandoned the session.
	sessions.Start(ctx, documentID)
	if !r.isEpoch(epoch) {
		return
	}

	if err := r.mapper.Load(ctx, documentID); err != nil {
		r.deps.Logger.Warn("Failed to load annotations", "document_id", documentID, "error", err)
	}

	s.StartHeartbeat()
	r.deps.Logger.Info("Reader mounted", "document_id", documentID, "page", r.tracker.CurrentPage())
}

func (r *Reader) isEpoch(epoch uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.epoch == epoch
}

// Unmount stops progress sync and closes the session. Nothing is pushed
// after Unmount returns.
func (r *Reader) Unmount() {
	r.mu.Lock()
	if !r.mounted {
		r.mu.Unlock()
		return
	}
	r.mounted = false
	r.epoch++
	s := r.sync
	r.sync = nil
	documentID := r.documentID
	r.mu.Unlock()

	if s != nil {
		s.Stop()
	}
	r.sessions.Close()
	r.deps.Logger.Info("Reader unmounted", "document_id", documentID)
}

// SwitchDocument closes the current document and opens documentID for the
// same actor. The new document starts at page one with no page count.
func (r *Reader) SwitchDocument(ctx context.Context, actor domain.Actor, documentID string) error {
	r.Unmount()

	r.mu.Lock()
	r.totalPages = 0
	r.mu.Unlock()
	r.tracker.Reset(1)
	r.mapper.Reset(documentID)

	return r.Mount(ctx, actor, documentID)
}

// SetTotalPages records the page count once the document has loaded. The
// count of a document does not change; a different later value is ignored.
func (r *Reader) SetTotalPages(n int) {
	if n <= 0 {
		return
	}
	r.mu.Lock()
	if r.totalPages > 0 {
		prev := r.totalPages
		r.mu.Unlock()
		if prev != n {
			r.deps.Logger.Warn("Ignoring page count change", "document_id", r.DocumentID(), "pages", prev, "new_pages", n)
		}
		return
	}
	r.totalPages = n
	s := r.sync
	r.mu.Unlock()

	if s != nil {
		s.SetTotalPages(n)
	}
}

// TotalPages returns the page count, or 0 while unknown.
func (r *Reader) TotalPages() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totalPages
}

// DocumentID returns the open document.
func (r *Reader) DocumentID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.documentID
}

// Mounted reports whether a document is open.
func (r *Reader) Mounted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mounted
}

func (r *Reader) RegisterPage(page int, bounds BoundsFunc) { r.tracker.RegisterPage(page, bounds) }
func (r *Reader) UnregisterPage(page int)                  { r.tracker.UnregisterPage(page) }
func (r *Reader) Scroll() (int, bool)                      { return r.tracker.Scroll() }
func (r *Reader) Resize() (int, bool)                      { return r.tracker.Resize() }
func (r *Reader) CurrentPage() int                         { return r.tracker.CurrentPage() }
func (r *Reader) PageBounds(page int) (domain.Rect, bool)  { return r.tracker.PageBounds(page) }

// Select records a finalized text selection on the current page.
func (r *Reader) Select(snapshot SelectionSnapshot) *PendingSelection {
	return r.mapper.Select(snapshot)
}

// PendingSelection returns the selection awaiting a kind and color.
func (r *Reader) PendingSelection() *PendingSelection {
	return r.mapper.Pending()
}

// ClearSelection drops the pending selection.
func (r *Reader) ClearSelection() {
	r.mapper.ClearSelection()
}

// CreateAnnotation saves the pending selection as an annotation.
func (r *Reader) CreateAnnotation(ctx context.Context, kind domain.AnnotationKind, color string) (*domain.Annotation, error) {
	if !r.Mounted() {
		return nil, ErrNotMounted
	}
	return r.mapper.Confirm(ctx, kind, color)
}

// DeleteAnnotation removes an annotation of the open document.
func (r *Reader) DeleteAnnotation(ctx context.Context, annotationID string) error {
	if !r.Mounted() {
		return ErrNotMounted
	}
	return r.mapper.Delete(ctx, annotationID)
}

// Annotations returns the annotations of the open document.
func (r *Reader) Annotations() []*domain.Annotation {
	return r.mapper.Annotations()
}

// Overlays returns what to draw on page.
func (r *Reader) Overlays(page int) []Overlay {
	return r.mapper.Overlays(page)
}

// MarkFinished records the document as read to the end. The returned update
// is what was sent; a push failure is logged, not returned.
func (r *Reader) MarkFinished(ctx context.Context) (domain.ProgressUpdate, bool, error) {
	r.mu.Lock()
	s := r.sync
	mounted := r.mounted
	r.mu.Unlock()
	if !mounted || s == nil {
		return domain.ProgressUpdate{}, false, ErrNotMounted
	}
	update, ok := s.MarkFinished(ctx)
	return update, ok, nil
}

// Progress returns what the next push would send.
func (r *Reader) Progress() domain.ProgressUpdate {
	r.mu.Lock()
	s := r.sync
	total := r.totalPages
	r.mu.Unlock()
	if s == nil {
		return domain.ProgressFor(r.tracker.CurrentPage(), total)
	}
	return s.Snapshot()
}

// SessionState returns the state of the reading session.
func (r *Reader) SessionState() SessionState {
	return r.sessions.State()
}

// SessionID returns the active session id, or "".
func (r *Reader) SessionID() string {
	return r.sessions.SessionID()
}

// Wait blocks until session close requests have finished.
func (r *Reader) Wait() {
	r.sessions.Wait()
}
