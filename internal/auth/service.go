package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"pennywise/internal/cache"
	"pennywise/internal/log"
)

// oauthProviders maps provider names to their authorize endpoints. The
// hosted provider completes the flow out of band; resolution arrives as a
// state change once the provider's session lands.
var oauthProviders = map[string]string{
	"google": "https://accounts.google.com/o/oauth2/v2/auth",
}

// Service authenticates users and publishes auth-state transitions.
type Service struct {
	repo       Repository
	sessionTTL time.Duration
	logger     *log.Logger

	// token lookups are hot on every API request; cache hits skip the
	// repository round trip. Entries expire well before the session does.
	tokens *cache.LRU[User]

	mu       sync.Mutex
	watchers map[int]chan StateChange
	nextID   int
}

func NewService(repo Repository, sessionTTL time.Duration, logger *log.Logger) *Service {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Service{
		repo:       repo,
		sessionTTL: sessionTTL,
		logger:     logger.WithComponent(log.ComponentAuth),
		tokens:     cache.NewLRU[User](1000, 5*time.Minute),
		watchers:   make(map[int]chan StateChange),
	}
}

// SignUp registers a new user and opens a session for it.
func (s *Service) SignUp(ctx context.Context, email, password, name string) (User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validEmail(email) {
		return User{}, "", ErrInvalidEmail
	}
	if len(password) < 8 {
		return User{}, "", ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, email, string(hash), displayName(name, email))
	if err != nil {
		return User{}, "", err
	}

	token, err := s.openSession(ctx, user)
	if err != nil {
		return User{}, "", err
	}

	s.logger.InfoContext(ctx, "user registered", log.FieldUserID, user.ID)
	s.notify(&user)
	return user, token, nil
}

// SignIn checks credentials and opens a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, hash, err := s.repo.UserByEmail(ctx, email)
	if err != nil {
		// Do not leak whether the email exists.
		return User{}, "", ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, "", ErrBadCredentials
	}

	token, err := s.openSession(ctx, user)
	if err != nil {
		return User{}, "", err
	}

	s.logger.InfoContext(ctx, "user signed in", log.FieldUserID, user.ID)
	s.notify(&user)
	return user, token, nil
}

// BeginOAuth returns the provider's authorize URL. The caller redirects;
// the eventual session shows up through the state change feed, never as a
// return value here.
func (s *Service) BeginOAuth(provider string) (string, error) {
	u, ok := oauthProviders[strings.ToLower(provider)]
	if !ok {
		return "", ErrUnknownOAuth
	}
	return u, nil
}

// SignOut deletes the session and announces the transition.
func (s *Service) SignOut(ctx context.Context, token string) error {
	s.tokens.Delete(token)
	if err := s.repo.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.InfoContext(ctx, "user signed out")
	s.notify(nil)
	return nil
}

// Authenticate resolves a session token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (User, error) {
	if token == "" {
		return User{}, ErrInvalidSession
	}
	if user, ok := s.tokens.Get(token); ok {
		return user, nil
	}

	session, user, err := s.repo.SessionByToken(ctx, token)
	if err != nil {
		return User{}, ErrInvalidSession
	}
	if time.Now().After(session.ExpiresAt) {
		_ = s.repo.DeleteSession(ctx, token)
		return User{}, ErrExpiredSession
	}

	s.tokens.Set(token, user)
	return user, nil
}

// Subscribe registers a watcher for auth-state transitions. The returned
// function unsubscribes; call it at teardown. The channel is buffered and
// slow consumers drop notifications rather than block sign-in.
func (s *Service) Subscribe() (<-chan StateChange, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan StateChange, 8)
	s.watchers[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(c)
		}
	}
}

func (s *Service) openSession(ctx context.Context, user User) (string, error) {
	session := Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.sessionTTL),
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	s.tokens.Set(session.Token, user)
	return session.Token, nil
}

func (s *Service) notify(user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- StateChange{User: user}:
		default:
		}
	}
}
