package store

import (
	"sync"

	"learn_with_me_client/internal/model"
)

// SessionStore 内存中的登录态，实现 api.TokenSource
type SessionStore struct {
	mu     sync.RWMutex
	email  string
	tokens *model.AuthTokens
	user   *model.User
}

func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

func (s *SessionStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tokens == nil {
		return ""
	}
	return s.tokens.AccessToken
}

func (s *SessionStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tokens == nil {
		return ""
	}
	return s.tokens.RefreshToken
}

func (s *SessionStore) Set(email string, tokens model.AuthTokens, user *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.email = email
	s.tokens = &tokens
	if user != nil {
		u := *user
		s.user = &u
	} else {
		s.user = nil
	}
}

func (s *SessionStore) SetUser(user *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user == nil {
		s.user = nil
		return
	}
	u := *user
	s.user = &u
}

func (s *SessionStore) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *SessionStore) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email
}

func (s *SessionStore) IsAuthenticated() bool {
	return s.AccessToken() != ""
}

func (s *SessionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.email = ""
	s.tokens = nil
	s.user = nil
}
