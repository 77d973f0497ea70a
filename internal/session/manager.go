package session

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reportlens/backend/internal/models"
)

// SessionMaxAge is how long completed sessions are kept before cleanup.
const SessionMaxAge = 30 * time.Minute

// Event types published to subscribers.
const (
	EventStarted  = "analysis:started"
	EventComplete = "analysis:complete"
	EventError    = "analysis:error"
)

// Event is a session lifecycle notification.
type Event struct {
	Type    string                  `json:"type"`
	Session *models.AnalysisSession `json:"session"`
}

// Manager tracks analysis sessions in memory. Sessions are transient: they
// exist so the frontend can list recent analyses and so the websocket feed
// has something to publish, and they vanish on restart or cleanup.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*models.AnalysisSession
	subs     map[chan Event]struct{}
}

// NewManager creates a new session manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*models.AnalysisSession),
		subs:     make(map[chan Event]struct{}),
	}
}

// Begin registers a new session in the analyzing state.
func (m *Manager) Begin(fileName string, fileSize int64) *models.AnalysisSession {
	sess := models.NewAnalysisSession(uuid.New().String(), fileName, fileSize)

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	snap := snapshot(sess)
	m.mu.Unlock()

	m.publish(Event{Type: EventStarted, Session: snap})
	return snap
}

// Complete marks a session as successfully finished with its result.
func (m *Manager) Complete(id string, result *models.AnalysisResult) {
	m.finish(id, models.SessionStatusComplete, "", result, EventComplete)
}

// Fail marks a session as failed with an error message.
func (m *Manager) Fail(id string, msg string) {
	m.finish(id, models.SessionStatusError, msg, nil, EventError)
}

func (m *Manager) finish(id string, status models.SessionStatus, errMsg string, result *models.AnalysisResult, event string) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	now := time.Now()
	sess.Status = status
	sess.Error = errMsg
	sess.Result = result
	sess.CompletedAt = &now
	snap := snapshot(sess)
	m.mu.Unlock()

	m.publish(Event{Type: event, Session: snap})
}

// Get returns a snapshot of the session with the given ID.
func (m *Manager) Get(id string) (*models.AnalysisSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return snapshot(sess), true
}

// Recent returns snapshots of up to limit sessions, newest first.
func (m *Manager) Recent(limit int) []*models.AnalysisSession {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*models.AnalysisSession, 0, len(m.sessions))
	for _, sess := range m.sessions {
		list = append(list, snapshot(sess))
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].StartedAt.After(list[j].StartedAt)
	})

	if len(list) > limit {
		list = list[:limit]
	}

	return list
}

// CleanupOldSessions removes finished sessions older than maxAge and returns
// how many were removed. In-flight sessions are never removed.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, sess := range m.sessions {
		if sess.Status == models.SessionStatusAnalyzing {
			continue
		}
		if sess.CompletedAt != nil && sess.CompletedAt.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}

	return removed
}

// Subscribe returns a channel receiving session lifecycle events. Slow
// subscribers drop events rather than blocking the analysis path.
func (m *Manager) Subscribe() chan Event {
	ch := make(chan Event, 16)

	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	return ch
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs)
}

// Unsubscribe removes and closes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan Event) {
	m.mu.Lock()
	if _, ok := m.subs[ch]; ok {
		delete(m.subs, ch)
		close(ch)
	}
	m.mu.Unlock()
}

// snapshot copies a session record. Everything handed outside the manager
// (returns, events) is a copy taken under the lock, so callers can marshal
// it while finish mutates the live record.
func snapshot(s *models.AnalysisSession) *models.AnalysisSession {
	cp := *s
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		cp.CompletedAt = &t
	}
	if s.Result != nil {
		r := *s.Result
		r.Highlights = append([]string(nil), s.Result.Highlights...)
		cp.Result = &r
	}
	return &cp
}

func (m *Manager) publish(ev Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for ch := range m.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
