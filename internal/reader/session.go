package reader

import (
	"context"
	"sync"
	"time"

	"lector-reader/internal/domain"
)

// SessionState is a step of the session lifecycle.
type SessionState int

const (
	SessionIdle SessionState = iota
	SessionStarting
	SessionActive
	SessionClosing
	SessionClosed
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionStarting:
		return "starting"
	case SessionActive:
		return "active"
	case SessionClosing:
		return "closing"
	case SessionClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const defaultCloseTimeout = 5 * time.Second

// SessionManager owns the server-side reading session of one mounted reader.
// It tracks at most one session id at a time.
type SessionManager struct {
	mu           sync.Mutex
	store        SessionStore
	logger       domain.Logger
	closeTimeout time.Duration

	state      SessionState
	gen        uint64
	sessionID  string
	documentID string
	startedAt  time.Time
	inflight   *startAttempt

	closing sync.WaitGroup
}

// NewSessionManager creates an idle manager.
func NewSessionManager(store SessionStore, logger domain.Logger) *SessionManager {
	return &SessionManager{
		store:        store,
		logger:       logger,
		closeTimeout: defaultCloseTimeout,
	}
}

// startAttempt is one StartOrResumeSession request. owner is the generation
// the result belongs to; a Start that takes the attempt over moves it.
type startAttempt struct {
	documentID string
	owner      uint64
	done       chan struct{}
}

// Start opens (or resumes) a session for documentID. A call made while a
// start is in flight or a session is active does nothing. When a start for
// the same document was abandoned by Close and its request is still out, Start
// takes that request over instead of sending another. A failed start leaves
// the manager idle; reading continues without tracking. It reports whether
// this call left a session active.
func (m *SessionManager) Start(ctx context.Context, documentID string) bool {
	m.mu.Lock()
	switch m.state {
	case SessionStarting:
		m.mu.Unlock()
		return false
	case SessionActive:
		m.mu.Unlock()
		return true
	}
	m.state = SessionStarting
	m.gen++
	gen := m.gen
	m.documentID = documentID

	if a := m.inflight; a != nil && a.documentID == documentID {
		a.owner = gen
		m.mu.Unlock()
		m.logger.Debug("Taking over pending session start", "document_id", documentID)
		<-a.done
		return m.ownsActive(gen)
	}

	a := &startAttempt{documentID: documentID, owner: gen, done: make(chan struct{})}
	m.inflight = a
	m.mu.Unlock()

	session, err := m.store.StartOrResumeSession(ctx, documentID)
	m.finishStart(a, session, err)
	close(a.done)
	return m.ownsActive(gen)
}

func (m *SessionManager) finishStart(a *startAttempt, session *domain.ReadingSession, err error) {
	m.mu.Lock()
	if m.inflight == a {
		m.inflight = nil
	}
	if m.gen != a.owner {
		// Closed while starting and nobody took the request over.
		m.mu.Unlock()
		if err == nil && session != nil && session.ID != "" {
			m.endAsync(session.ID, m.currentGen())
		}
		return
	}
	if err != nil || session == nil || session.ID == "" {
		m.state = SessionIdle
		m.mu.Unlock()
		if err == nil {
			err = domain.ErrSessionNotFound
		}
		m.logger.Error("Failed to start reading session, progress tracking disabled", err, "document_id", a.documentID)
		return
	}
	m.state = SessionActive
	m.sessionID = session.ID
	m.startedAt = session.StartedAt
	m.mu.Unlock()

	m.logger.Info("Reading session started", "session_id", session.ID, "document_id", a.documentID)
}

func (m *SessionManager) ownsActive(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen == gen && m.state == SessionActive
}

// Close ends the active session without waiting for the server. Failures are
// logged. Calling Close while a start is in flight abandons that start.
func (m *SessionManager) Close() {
	m.mu.Lock()
	switch m.state {
	case SessionActive:
		id := m.sessionID
		m.sessionID = ""
		m.state = SessionClosing
		m.gen++
		gen := m.gen
		m.mu.Unlock()
		m.endAsync(id, gen)
	case SessionStarting:
		m.gen++
		m.state = SessionClosed
		m.mu.Unlock()
	default:
		m.mu.Unlock()
	}
}

func (m *SessionManager) endAsync(sessionID string, gen uint64) {
	m.closing.Add(1)
	go func() {
		defer m.closing.Done()

		ctx, cancel := context.WithTimeout(context.Background(), m.closeTimeout)
		defer cancel()

		if err := m.store.EndSession(ctx, sessionID); err != nil {
			m.logger.Warn("Failed to end reading session", "session_id", sessionID, "error", err)
		} else {
			m.logger.Info("Reading session ended", "session_id", sessionID)
		}

		m.mu.Lock()
		if m.gen == gen && m.state == SessionClosing {
			m.state = SessionClosed
		}
		m.mu.Unlock()
	}()
}

func (m *SessionManager) currentGen() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

// SessionID returns the active session id, or "" when none is active.
func (m *SessionManager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != SessionActive {
		return ""
	}
	return m.sessionID
}

// State returns the lifecycle state.
func (m *SessionManager) State() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// StartedAt returns when the active session began.
func (m *SessionManager) StartedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startedAt
}

// Wait blocks until every close request has finished.
func (m *SessionManager) Wait() {
	m.closing.Wait()
}
