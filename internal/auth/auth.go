// Package auth implements the authentication collaborator: credential
// checks, opaque session tokens, and the auth-state change feed the rest
// of the app subscribes to.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"
)

const (
	// SessionTokenHeader carries the opaque session token on API requests.
	SessionTokenHeader = "Authorization"

	defaultSessionTTL = 7 * 24 * time.Hour
)

var (
	ErrBadCredentials = errors.New("invalid email or password")
	ErrEmailTaken     = errors.New("email already registered")
	ErrInvalidEmail   = errors.New("invalid email address")
	ErrWeakPassword   = errors.New("password must be at least 8 characters")
	ErrInvalidSession = errors.New("invalid session")
	ErrExpiredSession = errors.New("session expired")
	ErrUnknownOAuth   = errors.New("unknown oauth provider")
)

// User is the authenticated identity as the rest of the app sees it.
type User struct {
	ID    string
	Email string
	Name  string
}

// Session is one issued token with its expiry.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// StateChange is delivered on every auth transition. User is nil on
// sign-out; consumers re-derive all downstream state either way.
type StateChange struct {
	User *User
}

// Repository is the durable side of the collaborator.
type Repository interface {
	CreateUser(ctx context.Context, email, passwordHash, name string) (User, error)
	UserByEmail(ctx context.Context, email string) (User, string, error)
	CreateSession(ctx context.Context, s Session) error
	SessionByToken(ctx context.Context, token string) (Session, User, error)
	DeleteSession(ctx context.Context, token string) error
}

// displayName falls back to the local part of the email when no name was
// given at sign-up.
func displayName(name, email string) string {
	name = strings.TrimSpace(name)
	if name != "" {
		return name
	}
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}

func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t\n")
}
