// Package session implements the access gate: a shared static password
// exchanged for an in-memory session token. Tokens live for the process
// lifetime only, mirroring a browser session.
package session

import (
	"crypto/subtle"
	"sync"

	"github.com/google/uuid"

	"github.com/starford/raido/internal/apperr"
)

// Store issues and validates session tokens against a static password.
type Store struct {
	mu       sync.RWMutex
	password string
	tokens   map[string]struct{}
}

// NewStore creates a session store guarding the given password.
func NewStore(password string) *Store {
	return &Store{
		password: password,
		tokens:   make(map[string]struct{}),
	}
}

// Login compares the supplied password in constant time and issues a new
// token on success.
func (s *Store) Login(password string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) != 1 {
		return "", apperr.ErrInvalidPassword
	}
	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = struct{}{}
	s.mu.Unlock()
	return token, nil
}

// Valid reports whether the token was issued by this store.
func (s *Store) Valid(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tokens[token]
	return ok
}

// Revoke forgets a token. Unknown tokens are ignored.
func (s *Store) Revoke(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}
