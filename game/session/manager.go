package session

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/memory-match-game/game/engine"
	"github.com/wricardo/memory-match-game/game/service"
	"github.com/wricardo/memory-match-game/game/storage"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
	ErrNoPersistence        = errors.New("no persistence configured")
)

// Manager handles game session lifecycle
type Manager struct {
	sessions    map[string]*service.Session
	persistence SessionPersistence
	engineOpts  []engine.Option
	mu          sync.RWMutex
}

// NewManager creates a new in-memory session manager. opts are applied to
// every engine it creates or restores.
func NewManager(opts ...engine.Option) *Manager {
	return &Manager{
		sessions:   make(map[string]*service.Session),
		engineOpts: opts,
	}
}

// NewManagerWithPersistence creates a new session manager with persistence
func NewManagerWithPersistence(persistence SessionPersistence, opts ...engine.Option) *Manager {
	m := NewManager(opts...)
	m.persistence = persistence
	return m
}

// Create starts a new game. The session ID is the engine's session ID.
func (m *Manager) Create(config *engine.GameConfig) (*service.Session, error) {
	if config != nil && config.SessionID != "" {
		if err := validateSessionID(config.SessionID); err != nil {
			return nil, err
		}
	}

	eng, err := engine.NewEngine(config, m.engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sessionExists(eng.SessionID()) {
		eng.Close()
		return nil, ErrSessionAlreadyExists
	}

	return m.add(eng), nil
}

// Replace closes the session id and registers eng in its place.
// eng is usually the result of Restart or NextLevel on the old engine.
func (m *Manager) Replace(id string, eng *engine.GameEngine) (*service.Session, error) {
	if eng == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	old, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		eng.Close()
		return nil, ErrSessionNotFound
	}
	old.Engine.Close()
	delete(m.sessions, strings.ToLower(id))

	return m.add(eng), nil
}

// add starts eng and stores it. Callers hold the write lock.
func (m *Manager) add(eng *engine.GameEngine) *service.Session {
	eng.Start()

	now := time.Now()
	session := &service.Session{
		ID:             eng.SessionID(),
		Engine:         eng,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	m.sessions[strings.ToLower(session.ID)] = session
	return session
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// List returns all active sessions, oldest first
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	sortSessions(result)
	return result
}

// Delete closes and removes a live session
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lowerID := strings.ToLower(id)
	session, exists := m.sessions[lowerID]
	if !exists {
		return ErrSessionNotFound
	}

	session.Engine.Close()
	delete(m.sessions, lowerID)
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return ErrSessionNotFound
	}
	session.LastAccessedAt = time.Now()
	return nil
}

// Save writes a session's snapshot in the given format
func (m *Manager) Save(id string, format storage.Format) (string, error) {
	if m.persistence == nil {
		return "", ErrNoPersistence
	}

	session, err := m.Get(id)
	if err != nil {
		return "", err
	}
	return m.persistence.Save(session.Engine.Snapshot(), format)
}

// Load restores a save file as a live session. A live session with the same
// ID is closed and replaced.
func (m *Manager) Load(fileName string) (*service.Session, error) {
	if m.persistence == nil {
		return nil, ErrNoPersistence
	}

	snapshot, err := m.persistence.Load(fileName)
	if err != nil {
		return nil, err
	}
	eng, err := engine.RestoreEngine(snapshot, m.engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to restore %s: %w", fileName, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	lowerID := strings.ToLower(eng.SessionID())
	if existing, exists := m.sessions[lowerID]; exists {
		existing.Engine.Close()
		delete(m.sessions, lowerID)
	}

	session := m.add(eng)
	log.Printf("Restored session %s from %s", session.ID, fileName)
	return session, nil
}

// CleanupExpiredSessions closes sessions that haven't been accessed in the given duration
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for id, session := range m.sessions {
		if session.LastAccessedAt.Before(cutoff) {
			session.Engine.Close()
			delete(m.sessions, id)
			removed++
		}
	}

	return removed
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SaveAllSessions pauses every unfinished game and saves it in its own save
// format. It is used on shutdown.
func (m *Manager) SaveAllSessions() error {
	if m.persistence == nil {
		return nil // No persistence configured
	}

	sessions := m.List()

	errorCount, saved := 0, 0
	for _, session := range sessions {
		if session.Engine.IsCompleted() {
			continue
		}
		session.Engine.Pause()

		snapshot := session.Engine.Snapshot()
		format, err := storage.ParseFormat(snapshot.SaveFormat)
		if err != nil {
			format = storage.FormatJSON
		}
		if _, err := m.persistence.Save(snapshot, format); err != nil {
			log.Printf("Warning: Failed to save session %s: %v", session.ID, err)
			errorCount++
			continue
		}
		saved++
	}

	if errorCount > 0 {
		return fmt.Errorf("failed to save %d sessions", errorCount)
	}
	if saved > 0 {
		log.Printf("Saved %d sessions to storage", saved)
	}
	return nil
}

// CloseAll stops every engine without saving
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, session := range m.sessions {
		session.Engine.Close()
		delete(m.sessions, id)
	}
}

// sessionExists checks if a session exists (case-insensitive)
func (m *Manager) sessionExists(id string) bool {
	_, exists := m.sessions[strings.ToLower(id)]
	return exists
}

func validateSessionID(id string) error {
	if strings.TrimSpace(id) == "" || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	return nil
}

func sortSessions(sessions []*service.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
		}
		return sessions[i].ID < sessions[j].ID
	})
}
