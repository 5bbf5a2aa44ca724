package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"

	pkgerrors "github.com/bookbuddy/storefront/pkg/errors"
	"github.com/bookbuddy/storefront/pkg/logger"
	"github.com/bookbuddy/storefront/pkg/storage"
	"github.com/bookbuddy/storefront/pkg/types"
)

// emptySession is the mirror value of a guest.
const emptySession = `{"user":null,"token":""}`

// Listener observes session replacement (login, logout, profile update).
type Listener func(ctx context.Context, current types.Session)

// Store owns the signed-in user and token plus their durable mirror.
type Store struct {
	mu        sync.Mutex
	storage   storage.Store
	key       string
	logg      *logger.Logger
	now       func() time.Time
	current   types.Session
	listeners []Listener
}

// NewStore builds a session store mirrored under key.
func NewStore(st storage.Store, key string, logg *logger.Logger) (*Store, error) {
	if st == nil {
		return nil, fmt.Errorf("session storage required")
	}
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("session storage key required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{storage: st, key: key, logg: logg, now: time.Now}, nil
}

// Load restores the session from durable storage. A missing, unreadable or
// expired mirror leaves the client as guest.
func (s *Store) Load(ctx context.Context) error {
	raw, err := s.storage.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	var restored types.Session
	if err := json.Unmarshal([]byte(raw), &restored); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "session.mirror_unreadable")
		return nil
	}
	if restored.Token != "" && TokenExpired(restored.Token, s.now()) {
		s.logg.Info(ctx, "session.token_expired")
		if err := s.clearMirror(ctx); err != nil {
			return fmt.Errorf("clearing expired session: %w", err)
		}
		return nil
	}

	s.mu.Lock()
	s.current = restored
	s.mu.Unlock()
	return nil
}

// Login replaces the session wholesale.
func (s *Store) Login(ctx context.Context, next types.Session) error {
	if strings.TrimSpace(next.Token) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session token is required")
	}
	next = next.Clone()
	if err := s.replace(ctx, next); err != nil {
		return err
	}
	if next.User != nil {
		ctx = s.logg.WithUserID(ctx, next.User.ID)
	}
	s.logg.Info(ctx, "session.login")
	return nil
}

// UpdateUser swaps the profile on the current session, keeping the token.
func (s *Store) UpdateUser(ctx context.Context, user types.UserProfile) error {
	s.mu.Lock()
	token := s.current.Token
	s.mu.Unlock()
	if token == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "no active session")
	}
	return s.replace(ctx, types.Session{User: &user, Token: token})
}

// replace updates memory, then the mirror. A failed write restores the previous
// session so memory and mirror stay equal.
func (s *Store) replace(ctx context.Context, next types.Session) error {
	payload, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	s.mu.Lock()
	prev := s.current
	s.current = next
	if err := s.storage.Set(ctx, s.key, string(payload)); err != nil {
		s.current = prev
		s.mu.Unlock()
		return fmt.Errorf("persisting session: %w", err)
	}
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	s.notify(ctx, listeners, next)
	return nil
}

// Logout clears memory and the mirror. Calling it without a session is a no-op
// apart from the mirror delete. Listeners hear about a cleared session even
// when the mirror could not be cleared.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	changed := !s.current.IsZero()
	s.current = types.Session{}
	err := s.clearMirror(ctx)
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	if changed {
		s.logg.Info(ctx, "session.logout")
		s.notify(ctx, listeners, types.Session{})
	}
	if err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// clearMirror removes the durable session. When the delete fails an empty
// session is written over it, which loads as guest.
func (s *Store) clearMirror(ctx context.Context) error {
	delErr := s.storage.Delete(ctx, s.key)
	if delErr == nil {
		return nil
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", delErr.Error()), "session.mirror_delete_failed")
	if setErr := s.storage.Set(ctx, s.key, emptySession); setErr != nil {
		return multierr.Append(delErr, setErr)
	}
	return nil
}

// Current returns a copy of the active session.
func (s *Store) Current() types.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Token returns the raw session token, empty for guests.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Token
}

// Subscribe registers fn for every later session replacement.
func (s *Store) Subscribe(fn Listener) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Store) notify(ctx context.Context, listeners []Listener, current types.Session) {
	for _, fn := range listeners {
		fn(ctx, current.Clone())
	}
}
