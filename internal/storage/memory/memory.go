// Package memory is an in-process backend used by tests and by the
// memory data backend. It implements the same ports as the SQLite
// repository: backend.Store and auth.Repository.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"pennywise/internal/auth"
	"pennywise/internal/backend"
	"pennywise/internal/core"
)

type Store struct {
	mu       sync.Mutex
	settings map[string]core.UserSettings
	expenses map[string][]core.Expense
	users    map[string]userRecord // keyed by email
	sessions map[string]auth.Session
}

type userRecord struct {
	user auth.User
	hash string
}

func New() *Store {
	return &Store{
		settings: make(map[string]core.UserSettings),
		expenses: make(map[string][]core.Expense),
		users:    make(map[string]userRecord),
		sessions: make(map[string]auth.Session),
	}
}

// GetSettings implements backend.Store.
func (s *Store) GetSettings(_ context.Context, userID string) (core.UserSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings, ok := s.settings[userID]
	if !ok {
		return core.UserSettings{}, backend.ErrNotFound
	}
	return settings, nil
}

// PutSettings implements backend.Store.
func (s *Store) PutSettings(_ context.Context, userID string, settings core.UserSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[userID] = settings
	return nil
}

// GetExpenses implements backend.Store. Returned slice is a copy sorted by
// date descending, matching the SQLite backend's ordering.
func (s *Store) GetExpenses(_ context.Context, userID string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Expense(nil), s.expenses[userID]...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[j].Date.Before(out[i].Date.Time)
	})
	return out, nil
}

// PutExpense implements backend.Store.
func (s *Store) PutExpense(_ context.Context, userID string, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses[userID] = append(s.expenses[userID], e)
	return nil
}

// CreateUser implements auth.Repository.
func (s *Store) CreateUser(_ context.Context, email, passwordHash, name string) (auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[email]; ok {
		return auth.User{}, auth.ErrEmailTaken
	}
	u := auth.User{ID: uuid.NewString(), Email: email, Name: name}
	s.users[email] = userRecord{user: u, hash: passwordHash}
	return u, nil
}

// UserByEmail implements auth.Repository.
func (s *Store) UserByEmail(_ context.Context, email string) (auth.User, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[email]
	if !ok {
		return auth.User{}, "", auth.ErrBadCredentials
	}
	return rec.user, rec.hash, nil
}

// CreateSession implements auth.Repository.
func (s *Store) CreateSession(_ context.Context, sess auth.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = sess
	return nil
}

// SessionByToken implements auth.Repository.
func (s *Store) SessionByToken(_ context.Context, token string) (auth.Session, auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return auth.Session{}, auth.User{}, auth.ErrInvalidSession
	}
	for _, rec := range s.users {
		if rec.user.ID == sess.UserID {
			return sess, rec.user, nil
		}
	}
	return auth.Session{}, auth.User{}, auth.ErrInvalidSession
}

// DeleteSession implements auth.Repository.
func (s *Store) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
