// Package session holds the bearer token used for authenticated API calls.
//
// Read access is handed out as a TokenSource; only *Session can change the
// token, through Login and Logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoSession is returned by stores that hold no token.
	ErrNoSession = errors.New("session: no stored token")
	// ErrEmptyToken is returned when Login is called without a token.
	ErrEmptyToken = errors.New("session: token is required")
	// ErrTokenExpired is returned when Login receives a JWT past its exp claim.
	ErrTokenExpired = errors.New("session: token expired")
	// ErrNotAuthenticated is returned by views that refuse to dispatch an
	// authenticated call without a token.
	ErrNotAuthenticated = errors.New("session: not authenticated")
)

// TokenSource exposes the current bearer token without the ability to change it.
type TokenSource interface {
	Token() (string, bool)
}

// Store persists the token between process runs.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Session is the process-wide authentication context.
type Session struct {
	mu    sync.RWMutex
	token string
	store Store
	now   func() time.Time
}

// New returns an unauthenticated session backed by store. A nil store keeps
// the token in memory only.
func New(store Store) *Session {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Session{store: store, now: time.Now}
}

// Open restores a session from store. A missing token is not an error.
func Open(ctx context.Context, store Store) (*Session, error) {
	s := New(store)
	token, err := s.store.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return s, nil
		}
		return nil, fmt.Errorf("session: load: %w", err)
	}
	s.token = strings.TrimSpace(token)
	return s, nil
}

// Token returns the bearer token while the session is authenticated.
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" || s.expiredLocked() {
		return "", false
	}
	return s.token, true
}

// Authenticated reports whether a usable token is present.
func (s *Session) Authenticated() bool {
	_, ok := s.Token()
	return ok
}

// ExpiresAt returns the exp claim of a JWT token, if any.
func (s *Session) ExpiresAt() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return expiry(s.token)
}

// Login stores token as the current credential and persists it.
func (s *Session) Login(ctx context.Context, token string) error {
	token = strings.TrimPrefix(strings.TrimSpace(token), "Bearer ")
	if token == "" {
		return ErrEmptyToken
	}
	if exp, ok := expiry(token); ok && !exp.After(s.now()) {
		return ErrTokenExpired
	}
	if err := s.store.Save(ctx, token); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// Logout drops the token. The in-memory credential is cleared before the
// store so no caller can observe a half-logged-out session.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}

func (s *Session) expiredLocked() bool {
	exp, ok := expiry(s.token)
	return ok && !exp.After(s.now())
}

// expiry reads the exp claim without verifying the signature; the backend
// remains the authority on token validity. Opaque tokens report false.
func expiry(token string) (time.Time, bool) {
	if strings.Count(token, ".") != 2 {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// StaticToken is a fixed TokenSource; an empty string means logged out.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token() (string, bool) {
	return string(t), t != ""
}
