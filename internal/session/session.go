package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"geostaff-client/internal/model"
	"geostaff-client/internal/store"
)

// Reason says why a session was torn down.
type Reason string

const (
	ReasonLogout  Reason = "logout"
	ReasonExpired Reason = "expired"
)

// Session owns the bearer credential and the profile snapshot. It is created
// once by the shell and handed to everything that needs the credential.
type Session struct {
	kv store.KV

	mu       sync.RWMutex
	token    string
	user     *model.User
	nextID   int
	watchers map[int]func(Reason)
}

func New(kv store.KV) *Session {
	return &Session{kv: kv, watchers: make(map[int]func(Reason))}
}

// Init loads a previously persisted credential. A missing credential is not
// an error; a corrupt profile is dropped together with its token.
func (s *Session) Init() error {
	token, err := s.kv.Get(store.KeyToken)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}

	var user *model.User
	raw, err := s.kv.Get(store.KeyUser)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return fmt.Errorf("read user: %w", err)
	default:
		var u model.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			log.Printf("ERROR decode stored user, clearing session: %v", err)
			return s.kv.Delete(store.KeyToken, store.KeyUser)
		}
		user = &u
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()
	return nil
}

// Establish persists a fresh credential, e.g. after OTP verification or a
// token refresh.
func (s *Session) Establish(token string, user model.User) error {
	if token == "" {
		return errors.New("establish session: empty token")
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.kv.Set(store.KeyToken, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	if err := s.kv.Set(store.KeyUser, string(data)); err != nil {
		if derr := s.kv.Delete(store.KeyToken); derr != nil {
			log.Printf("ERROR roll back token: %v", derr)
		}
		return fmt.Errorf("persist user: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.user = &user
	s.mu.Unlock()
	return nil
}

// Teardown clears the credential and notifies every watcher. Tearing down an
// empty session still notifies, so a late 401 is handled the same way.
func (s *Session) Teardown(reason Reason) error {
	err := s.kv.Delete(store.KeyToken, store.KeyUser)

	s.mu.Lock()
	s.token = ""
	s.user = nil
	watchers := make([]func(Reason), 0, len(s.watchers))
	for _, fn := range s.watchers {
		watchers = append(watchers, fn)
	}
	s.mu.Unlock()

	for _, fn := range watchers {
		fn(reason)
	}
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// OnTeardown registers fn to run after every teardown and returns a function
// that unregisters it.
func (s *Session) OnTeardown(fn func(Reason)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// Token returns the bearer token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the profile snapshot, or nil when signed out.
func (s *Session) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// ExpiresAt reads the exp claim of the stored token. The signature is not
// checked; the server stays the authority on validity.
func (s *Session) ExpiresAt() (time.Time, bool) {
	token := s.Token()
	if token == "" {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
