package session

import (
	"sync"
	"time"

	"aibot/core/logger"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

type memoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewMemoryManager constructs the in-memory Manager implementation.
func NewMemoryManager() Manager {
	return &memoryManager{
		sessions: make(map[int64]*Session),
	}
}

// Get returns a snapshot of the user's session record if one exists.
func (m *memoryManager) Get(userID int64) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[userID]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// Start activates a session for the provider. An active session for a
// different provider is superseded inside the same critical section, so no
// reader ever observes two active sessions for one user.
func (m *memoryManager) Start(userID int64, provider Provider) Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	sess, ok := m.sessions[userID]
	if ok && sess.Active && sess.Provider == provider {
		sess.LastActivityAt = now
		return *sess
	}

	if ok && sess.Active && sess.Provider != provider {
		logger.Debug(logger.Background(), "service.sessions", "session.superseded",
			slog.Int64("user_id", userID),
			slog.String("provider", string(sess.Provider)),
		)
	}

	fresh := &Session{
		UserID:         userID,
		Provider:       provider,
		State:          StateIdle,
		Active:         true,
		LastActivityAt: now,
		TempData:       make(map[string]interface{}),
	}
	m.sessions[userID] = fresh
	return *fresh
}

// End deactivates the user's session, keeping a terminal record.
func (m *memoryManager) End(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[userID]; ok {
		sess.Active = false
		sess.State = StateIdle
		sess.LastActivityAt = time.Now().UTC()
	}
}

// HasActive reports whether the user has an active session.
func (m *memoryManager) HasActive(userID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[userID]
	return ok && sess.Active
}

// SetState sets the conversation state of the active session.
func (m *memoryManager) SetState(userID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[userID]; ok && sess.Active {
		sess.State = st
		sess.LastActivityAt = time.Now().UTC()
	}
}

// GetState returns the state of the active session, or StateIdle.
func (m *memoryManager) GetState(userID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sess, ok := m.sessions[userID]; ok && sess.Active {
		return sess.State
	}
	return StateIdle
}

// SetTemp stores a temporary key/value pair on the user's session.
func (m *memoryManager) SetTemp(userID int64, key string, value interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[userID]
	if !ok || !sess.Active {
		return
	}
	sess.TempData[key] = value
}

// GetTemp retrieves a temporary value by key.
func (m *memoryManager) GetTemp(userID int64, key string) (interface{}, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[userID]
	if !ok {
		return nil, false
	}
	val, ok := sess.TempData[key]
	return val, ok
}

// GetTempInt64 retrieves a temporary value by key and asserts it as int64.
func (m *memoryManager) GetTempInt64(userID int64, key string) (int64, bool) {
	val, found := m.GetTemp(userID, key)
	if !found {
		return 0, false
	}
	v, ok := val.(int64)
	if !ok {
		return 0, false
	}
	return v, true
}

// ClearTemp removes a temporary key/value pair.
func (m *memoryManager) ClearTemp(userID int64, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[userID]; ok {
		delete(sess.TempData, key)
	}
}

// InProgress reports whether the active session expects the next message.
func (m *memoryManager) InProgress(userID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[userID]
	return ok && sess.Active && sess.State != StateIdle
}

// ManagerHandler executes the input handler registered for the active
// session's provider, if any.
func (m *memoryManager) ManagerHandler(c tele.Context) error {
	userID := c.Sender().ID
	sess, ok := m.Get(userID)
	if !ok || !sess.Active {
		return nil
	}
	logger.Debug(logger.Background(), "service.sessions", "session.input",
		slog.Int64("user_id", userID),
		slog.String("provider", string(sess.Provider)),
		slog.String("session_state", string(sess.State)),
	)
	if handler, ok := inputHandlers[sess.Provider]; ok {
		return handler(c)
	}
	return nil
}
