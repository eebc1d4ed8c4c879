package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"treasury_dashboard/internal/app/port"
	"treasury_dashboard/internal/pkg/utils"
)

// ErrNoToken is returned when an authenticated call is attempted without a session.
var ErrNoToken = errors.New("not logged in")

// AdminIdentity is the signed-in admin.
type AdminIdentity struct {
	Address string   `json:"address"`
	Name    string   `json:"name,omitempty"`
	Roles   []string `json:"roles,omitempty"`
}

// AuthState is an immutable snapshot of the session.
type AuthState struct {
	Token           string
	Admin           *AdminIdentity
	IsAuthenticated bool
}

// persistedAuth is the on-disk form: only the token and identity survive a restart.
type persistedAuth struct {
	Token string         `json:"token,omitempty"`
	Admin *AdminIdentity `json:"admin,omitempty"`
}

// AuthStore holds the bearer token. Every change replaces the whole state, so readers
// never observe a half-applied login.
type AuthStore struct {
	mu     sync.RWMutex
	state  AuthState
	path   string
	logger port.Logger
}

// NewAuthStore creates an empty store persisted at path. An empty path disables persistence.
func NewAuthStore(path string, logger port.Logger) *AuthStore {
	return &AuthStore{path: path, logger: logger}
}

// State returns the current snapshot.
func (s *AuthStore) State() AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Token implements port.TokenSource.
func (s *AuthStore) Token() string {
	return s.State().Token
}

// IsAuthenticated reports whether a token is held.
func (s *AuthStore) IsAuthenticated() bool {
	return s.State().IsAuthenticated
}

// RequireToken returns the token or ErrNoToken.
func (s *AuthStore) RequireToken() (string, error) {
	if t := s.Token(); t != "" {
		return t, nil
	}
	return "", ErrNoToken
}

func (s *AuthStore) set(next AuthState) {
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
}

// Login stores a token together with the admin identity.
func (s *AuthStore) Login(token string, admin AdminIdentity) {
	a := admin
	s.set(AuthState{Token: token, Admin: &a, IsAuthenticated: token != ""})
}

// SetToken replaces the token and keeps the identity.
func (s *AuthStore) SetToken(token string) {
	s.mu.Lock()
	s.state = AuthState{Token: token, Admin: s.state.Admin, IsAuthenticated: token != ""}
	s.mu.Unlock()
}

// Logout clears the session.
func (s *AuthStore) Logout() {
	s.set(AuthState{})
}

// Hydrate loads a persisted session. A missing file leaves the store empty.
func (s *AuthStore) Hydrate() error {
	if s.path == "" {
		return nil
	}
	var saved persistedAuth
	found, err := utils.ReadJSONFile(s.path, &saved)
	if err != nil {
		return fmt.Errorf("failed to hydrate auth store: %w", err)
	}
	if !found {
		return nil
	}
	token := strings.TrimSpace(saved.Token)
	s.set(AuthState{Token: token, Admin: saved.Admin, IsAuthenticated: token != ""})
	if s.logger != nil {
		s.logger.Debug("Auth session restored", "path", s.path, "authenticated", token != "")
	}
	return nil
}

// Persist writes the token and identity to disk.
func (s *AuthStore) Persist() error {
	if s.path == "" {
		return nil
	}
	st := s.State()
	if err := utils.WriteJSONFile(s.path, persistedAuth{Token: st.Token, Admin: st.Admin}); err != nil {
		return fmt.Errorf("failed to persist auth store: %w", err)
	}
	return nil
}
