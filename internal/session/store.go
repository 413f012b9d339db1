// Package session owns who is logged in: the bearer token and user profile,
// their durable copy, and the derived authentication status.
//
// A Store starts Uninitialized (IsLoading) and leaves that state only through
// InitializeAuth. After that it moves between Authenticated and
// Unauthenticated via Login and Logout and never returns to Uninitialized.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/naveenspark/quill/internal/observe"
	"github.com/naveenspark/quill/internal/storage"
	"github.com/naveenspark/quill/pkg/domain"
)

// Durable storage keys.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// Status is the coarse state of a Store.
type Status int

const (
	StatusUninitialized Status = iota
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// State is a snapshot of the session. IsAuthenticated is true only when both
// Token and User are present.
type State struct {
	Token           string
	User            *domain.User
	IsAuthenticated bool
	IsLoading       bool
}

// Status derives the state-machine position of s.
func (s State) Status() Status {
	switch {
	case s.IsLoading:
		return StatusUninitialized
	case s.IsAuthenticated:
		return StatusAuthenticated
	default:
		return StatusUnauthenticated
	}
}

func (s State) clone() State {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// unauthenticated is the baseline after logout or a failed hydration.
var unauthenticated = State{}

// Store is the session store. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	kv      storage.KV
	state   State
	subject *observe.Subject[State]
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for storage failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns an Uninitialized store backed by kv.
func New(kv storage.KV, opts ...Option) *Store {
	initial := State{IsLoading: true}
	s := &Store{
		kv:      kv,
		state:   initial,
		subject: observe.NewSubject(initial),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Token returns the current bearer token, or "" when logged out. It lets the
// store act as a client.TokenSource.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token
}

// Subscribe returns a channel that always holds the newest state, primed with
// the current one, and a cancel func.
func (s *Store) Subscribe() (<-chan State, func()) {
	return s.subject.Subscribe()
}

// Close ends all subscriptions.
func (s *Store) Close() {
	s.subject.Close()
}

// Login persists token and user and marks the session authenticated. Callers
// validate inputs. The in-memory session is updated even if persistence
// fails; the returned error only means the session will not survive a restart.
func (s *Store) Login(ctx context.Context, token string, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if err := s.kv.Set(ctx, TokenKey, token); err != nil {
		errs = append(errs, err)
	}
	raw, err := json.Marshal(user)
	if err != nil {
		errs = append(errs, fmt.Errorf("marshal user: %w", err))
	} else if err := s.kv.Set(ctx, UserKey, string(raw)); err != nil {
		errs = append(errs, err)
	}

	s.setLocked(State{Token: token, User: &user, IsAuthenticated: true})

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("session.Login: %w", err)
	}
	return nil
}

// Logout clears the durable entries and resets to the unauthenticated
// baseline. Calling it while logged out is harmless.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.clearLocked(ctx)
	s.setLocked(unauthenticated)
	if err != nil {
		return fmt.Errorf("session.Logout: %w", err)
	}
	return nil
}

// InitializeAuth hydrates the store from durable storage and returns the
// settled state. A stored profile that does not decode, or storage that
// cannot be read, is treated as no session and both entries are removed.
// It always clears IsLoading.
func (s *Store) InitializeAuth(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, haveToken, tokenErr := s.kv.Get(ctx, TokenKey)
	rawUser, haveUser, userErr := s.kv.Get(ctx, UserKey)
	if err := errors.Join(tokenErr, userErr); err != nil {
		// Unreadable storage is treated like a corrupt profile.
		s.logger.Warn("discarding unreadable stored session", "error", err)
		if err := s.clearLocked(ctx); err != nil {
			s.logger.Warn("clear unreadable session", "error", err)
		}
		s.setLocked(unauthenticated)
		return s.state.clone()
	}

	if !haveToken || !haveUser || token == "" || rawUser == "" {
		s.setLocked(unauthenticated)
		return s.state.clone()
	}

	var user *domain.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil || user == nil {
		s.logger.Warn("discarding corrupt stored session", "error", err)
		if err := s.clearLocked(ctx); err != nil {
			s.logger.Warn("clear corrupt session", "error", err)
		}
		s.setLocked(unauthenticated)
		return s.state.clone()
	}

	s.setLocked(State{Token: token, User: user, IsAuthenticated: true})
	return s.state.clone()
}

func (s *Store) clearLocked(ctx context.Context) error {
	return errors.Join(
		s.kv.Remove(ctx, TokenKey),
		s.kv.Remove(ctx, UserKey),
	)
}

func (s *Store) setLocked(st State) {
	s.state = st
	s.subject.Publish(st.clone())
}
