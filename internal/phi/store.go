package phi

import (
	"sync"
	"time"
)

// TokenStore holds the token-to-original mapping per session so that
// authorized callers can reverse de-identification. Mappings never
// leave the process and are dropped when the session is cleared.
type TokenStore interface {
	// Put records a token mapping for the session.
	Put(sessionID, token, original string)

	// Original resolves a token back to the protected value.
	Original(sessionID, token string) (string, bool)

	// TokenFor returns an existing token for a value already seen in
	// this session, so repeated values map to a single token.
	TokenFor(sessionID, original string) (string, bool)

	// Clear drops every mapping for the session.
	Clear(sessionID string)
}

type sessionEntry struct {
	byToken    map[string]string
	byOriginal map[string]string
	lastUsed   time.Time
}

// MemoryTokenStore is the in-process TokenStore. When the session cap
// is reached the least recently used session is evicted; a cap of zero
// means unbounded.
type MemoryTokenStore struct {
	mu          sync.Mutex
	sessions    map[string]*sessionEntry
	maxSessions int
}

func NewMemoryTokenStore(maxSessions int) *MemoryTokenStore {
	return &MemoryTokenStore{
		sessions:    make(map[string]*sessionEntry),
		maxSessions: maxSessions,
	}
}

func (s *MemoryTokenStore) Put(sessionID, token, original string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		s.evictIfFull()
		entry = &sessionEntry{
			byToken:    make(map[string]string),
			byOriginal: make(map[string]string),
		}
		s.sessions[sessionID] = entry
	}
	entry.byToken[token] = original
	entry.byOriginal[original] = token
	entry.lastUsed = time.Now()
}

func (s *MemoryTokenStore) Original(sessionID, token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return "", false
	}
	entry.lastUsed = time.Now()
	original, ok := entry.byToken[token]
	return original, ok
}

func (s *MemoryTokenStore) TokenFor(sessionID, original string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return "", false
	}
	token, ok := entry.byOriginal[original]
	return token, ok
}

func (s *MemoryTokenStore) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// evictIfFull must be called with the lock held.
func (s *MemoryTokenStore) evictIfFull() {
	if s.maxSessions <= 0 || len(s.sessions) < s.maxSessions {
		return
	}
	var oldestID string
	var oldest time.Time
	for id, entry := range s.sessions {
		if oldestID == "" || entry.lastUsed.Before(oldest) {
			oldestID = id
			oldest = entry.lastUsed
		}
	}
	delete(s.sessions, oldestID)
}
