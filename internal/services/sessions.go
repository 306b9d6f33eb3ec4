package services

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// Session binds a browser cookie to an authenticated identity, carrying the
// CSRF secret for unsafe-method checks. Sessions live only in process memory
// and die on logout, expiry or restart.
type Session struct {
	ID        string
	UserID    string
	Username  string
	Role      string
	CSRFToken string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionManager is a mutex-guarded map with a periodic expiry sweep.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewSessionManager(ttl time.Duration) *SessionManager {
	return &SessionManager{
		sessions: map[string]*Session{},
		ttl:      ttl,
	}
}

func (sm *SessionManager) Create(userID, username, role string) (*Session, error) {
	id, err := randomToken()
	if err != nil {
		return nil, err
	}
	csrf, err := randomToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	session := &Session{
		ID:        id,
		UserID:    userID,
		Username:  username,
		Role:      role,
		CSRFToken: csrf,
		CreatedAt: now,
		ExpiresAt: now.Add(sm.ttl),
	}
	sm.mu.Lock()
	sm.sessions[id] = session
	sm.mu.Unlock()
	return session, nil
}

// Get returns the live session or nil when missing or expired. Expired
// entries are removed lazily.
func (sm *SessionManager) Get(id string) *Session {
	sm.mu.RLock()
	session, ok := sm.sessions[id]
	sm.mu.RUnlock()
	if !ok {
		return nil
	}
	if time.Now().UTC().After(session.ExpiresAt) {
		sm.Destroy(id)
		return nil
	}
	clone := *session
	return &clone
}

// Destroy is idempotent.
func (sm *SessionManager) Destroy(id string) {
	sm.mu.Lock()
	delete(sm.sessions, id)
	sm.mu.Unlock()
}

// VerifyCSRF compares the presented token against the session's secret in
// constant time.
func (sm *SessionManager) VerifyCSRF(id, token string) bool {
	session := sm.Get(id)
	if session == nil || token == "" {
		return false
	}
	return subtleCompare([]byte(session.CSRFToken), []byte(token))
}

// Sweep drops expired sessions every interval until ctx-style stop via the
// returned func.
func (sm *SessionManager) Sweep(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				now := time.Now().UTC()
				sm.mu.Lock()
				for id, session := range sm.sessions {
					if now.After(session.ExpiresAt) {
						delete(sm.sessions, id)
					}
				}
				sm.mu.Unlock()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	return func() { close(done) }
}

func randomToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}
