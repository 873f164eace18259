// Package session holds the process-wide staff session: the advisory profile cached after login and the last
// access token handed out by the identity provider.
//
// A [Session] moves from Empty to Active on [Session.Start] and to Invalidated on logout or when the API client
// gives up after a failed token refresh. Invalidation clears persisted state exactly once.
package session

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/reeladmin/internal/models"
	"github.com/desertthunder/reeladmin/internal/shared"
)

// State is the lifecycle state of a [Session].
type State int

const (
	Empty State = iota
	Active
	Invalidated
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Invalidated:
		return "invalidated"
	default:
		return "empty"
	}
}

// Store persists the profile blob and access token. Save and Clear always touch both together.
type Store interface {
	Save(profile []byte, accessToken string) error
	// Load returns [shared.ErrNotFound] when no session is stored.
	Load() (profile []byte, accessToken string, err error)
	Clear() error
}

// Session is safe for concurrent use.
type Session struct {
	mu          sync.Mutex
	store       Store
	logger      *log.Logger
	state       State
	profile     *models.Profile
	accessToken string
	hooks       []func(reason error)
}

// New creates an empty session. store may be nil for a purely in-memory session.
func New(store Store, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Session{store: store, logger: logger}
}

// Start records a successful login.
func (s *Session) Start(profile models.Profile, accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store != nil {
		blob, err := profile.Blob()
		if err != nil {
			return fmt.Errorf("failed to encode profile: %w", err)
		}
		if err := s.store.Save(blob, accessToken); err != nil {
			return fmt.Errorf("failed to persist session: %w", err)
		}
	}

	s.profile = &profile
	s.accessToken = accessToken
	s.state = Active
	s.logger.Debug("session started", "user", profile.UserID)
	return nil
}

// Restore loads a previously persisted session. The restored profile is advisory only; it says nothing about
// whether the provider still holds a usable token. It reports whether a session was found.
func (s *Session) Restore() (bool, error) {
	if s.store == nil {
		return false, nil
	}

	blob, token, err := s.store.Load()
	if errors.Is(err, shared.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load session: %w", err)
	}

	profile, err := models.ParseProfile(blob)
	if err != nil {
		s.logger.Warn("discarding unreadable session", "error", err)
		if err := s.store.Clear(); err != nil {
			return false, fmt.Errorf("failed to clear session: %w", err)
		}
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = profile
	s.accessToken = token
	s.state = Active
	return true, nil
}

// SetAccessToken records the most recent token obtained from the provider.
func (s *Session) SetAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Active {
		s.accessToken = token
	}
}

// Invalidate clears the in-memory and persisted session and fires the OnInvalidate hooks.
// Only the first call on an active session does anything; it returns true in that case.
func (s *Session) Invalidate(reason error) bool {
	s.mu.Lock()
	if s.state != Active {
		s.mu.Unlock()
		return false
	}

	s.state = Invalidated
	s.profile = nil
	s.accessToken = ""
	hooks := slices.Clone(s.hooks)

	if s.store != nil {
		if err := s.store.Clear(); err != nil {
			s.logger.Error("failed to clear persisted session", "error", err)
		}
	}
	s.mu.Unlock()

	s.logger.Info("session invalidated", "reason", reason)
	for _, fn := range hooks {
		fn(reason)
	}
	return true
}

// OnInvalidate registers fn to run after the session is invalidated.
func (s *Session) OnInvalidate(fn func(reason error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Profile returns the cached profile, or nil when there is no active session.
func (s *Session) Profile() *models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

// AccessToken returns the last token recorded for the session.
func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
