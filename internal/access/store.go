// Package access holds the API tokens accepted by the web front-end and the
// per-token rate limits attached to them.
package access

import (
	"errors"
	"maps"
	"sync"
)

var (
	// ErrInvalidAPIKey signals that the provided API key is not known.
	ErrInvalidAPIKey = errors.New("invalid api key")
	// ErrTokenStoreNotReady signals that tokens have not been loaded yet,
	// typically because the database was unreachable at startup.
	ErrTokenStoreNotReady = errors.New("token store not ready")
)

// TokenStore is an in-memory snapshot of token -> requests per interval.
type TokenStore struct {
	mu    sync.RWMutex
	cache map[string]int
}

// NewTokenStore returns an empty store that is not ready.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Replace swaps the whole snapshot. The map is copied.
func (s *TokenStore) Replace(m map[string]int) {
	cache := maps.Clone(m)
	if cache == nil {
		cache = make(map[string]int)
	}
	s.mu.Lock()
	s.cache = cache
	s.mu.Unlock()
}

// Ready reports whether a snapshot has been loaded at least once.
func (s *TokenStore) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache != nil
}

// Validate checks a presented key against the snapshot.
func (s *TokenStore) Validate(token string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cache == nil {
		return ErrTokenStoreNotReady
	}
	if _, ok := s.cache[token]; !ok {
		return ErrInvalidAPIKey
	}
	return nil
}

// RateLimit returns the limit of token, or 0 (unlimited) when unknown.
func (s *TokenStore) RateLimit(token string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache[token]
}

// Len is the number of loaded tokens.
func (s *TokenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}
