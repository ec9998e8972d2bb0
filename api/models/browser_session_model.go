package models

import (
	"sync"
	"time"

	ttlworker "github.com/FloatTech/ttl"
	"github.com/moyoez/sharegate/access"
	"github.com/moyoez/sharegate/tool"
)

const DefaultSessionTTL = 3600 * time.Second

// BrowserSession holds the values of one visitor session.
// Lock/Unlock serialize authorization for the session; value access has its own lock.
type BrowserSession struct {
	gate   sync.Mutex
	mu     sync.RWMutex
	id     string
	values map[string]string
}

var (
	_ access.Session = (*BrowserSession)(nil)
	_ sync.Locker    = (*BrowserSession)(nil)
)

func NewBrowserSession(id string) *BrowserSession {
	return &BrowserSession{id: id, values: make(map[string]string)}
}

// ID is the cookie value of the session, empty until it is stored.
func (s *BrowserSession) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

func (s *BrowserSession) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *BrowserSession) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *BrowserSession) Exists(key string) bool {
	_, ok := s.Get(key)
	return ok
}

func (s *BrowserSession) Lock()   { s.gate.Lock() }
func (s *BrowserSession) Unlock() { s.gate.Unlock() }

// SessionStore keeps visitor sessions keyed by the id stored in their cookie.
// Sessions are only stored once something is written to them.
type SessionStore struct {
	mu       sync.Mutex
	sessions *ttlworker.Cache[string, *BrowserSession]
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		sessions: ttlworker.NewCache[string, *BrowserSession](ttl),
	}
}

// Load returns the stored session for id and restarts its idle lifetime.
// An empty or unknown id gives an unstored session and found is false.
func (s *SessionStore) Load(id string) (sess *BrowserSession, found bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" {
		if sess = s.sessions.Get(id); sess != nil {
			s.sessions.Set(id, sess)
			return sess, true
		}
	}
	return NewBrowserSession(""), false
}

// Rotate stores sess under a new id, dropping the old one, and returns the new id.
func (s *SessionStore) Rotate(sess *BrowserSession) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := tool.GenerateRandomUUID()
	sess.mu.Lock()
	old := sess.id
	sess.id = id
	sess.mu.Unlock()
	if old != "" {
		s.sessions.Delete(old)
	}
	s.sessions.Set(id, sess)
	return id
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions.Delete(id)
}
