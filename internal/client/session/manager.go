// Package session owns the authenticated state of a storefront client: the
// bearer token and the account it belongs to, persisted across runs.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ecomt/storefront/internal/client/apiclient"
)

// Listener is called with the current user (nil when signed out) after every change.
type Listener func(user *apiclient.User)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Manager is the auth session provider. It is the client's TokenSource and
// clears itself when the server rejects the token.
type Manager struct {
	api    *apiclient.Client
	store  Store
	logger *zap.Logger

	mu        sync.RWMutex
	token     string
	user      *apiclient.User
	listeners map[int]Listener
	nextID    int
}

// NewManager creates a manager and attaches it to api.
func NewManager(api *apiclient.Client, store Store, opts ...Option) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	m := &Manager{
		api:       api,
		store:     store,
		logger:    zap.NewNop(),
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(m)
	}
	api.SetTokenSource(m)
	api.SetOnUnauthorized(m.Clear)
	return m
}

// Login signs in and persists the session.
func (m *Manager) Login(ctx context.Context, email, password string) (*apiclient.User, error) {
	res, err := m.api.Login(ctx, apiclient.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return m.establish(res)
}

// Register creates an account and signs in with it.
func (m *Manager) Register(ctx context.Context, name, email, password string) (*apiclient.User, error) {
	res, err := m.api.Register(ctx, apiclient.RegisterRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return m.establish(res)
}

func (m *Manager) establish(res apiclient.AuthResult) (*apiclient.User, error) {
	if res.Token == "" {
		return nil, fmt.Errorf("server returned no token")
	}
	user := res.User()
	user.Role = NormalizeRole(user.Role)
	if err := m.set(res.Token, &user); err != nil {
		return nil, err
	}
	return m.User(), nil
}

// Logout revokes the token on the server when possible and always clears
// the local session.
func (m *Manager) Logout(ctx context.Context) {
	if m.Token() != "" {
		if err := m.api.Logout(ctx); err != nil {
			m.logger.Debug("Server logout failed", zap.Error(err))
		}
	}
	m.Clear()
}

// Rehydrate restores a stored session and validates it against the server.
// It reports whether the client is authenticated afterwards; the error
// explains why a stored session was discarded.
func (m *Manager) Rehydrate(ctx context.Context) (bool, error) {
	state, err := m.store.Load()
	if err != nil {
		m.Clear()
		return false, err
	}
	if state == nil || state.Token == "" {
		return false, nil
	}

	m.mu.Lock()
	m.token = state.Token
	m.user = state.User
	m.mu.Unlock()

	profile, err := m.api.Profile(ctx)
	if err != nil {
		m.logger.Info("Stored session rejected", zap.Error(err))
		m.Clear()
		return false, fmt.Errorf("stored session is no longer valid: %w", err)
	}

	profile.Role = NormalizeRole(profile.Role)
	if err := m.set(state.Token, &profile); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateProfile renames the current user.
func (m *Manager) UpdateProfile(ctx context.Context, name string) (*apiclient.User, error) {
	user, err := m.api.UpdateProfile(ctx, apiclient.UpdateProfileRequest{Name: name})
	if err != nil {
		return nil, err
	}
	user.Role = NormalizeRole(user.Role)
	if err := m.set(m.Token(), &user); err != nil {
		return nil, err
	}
	return m.User(), nil
}

// ChangePassword changes the current user's password.
func (m *Manager) ChangePassword(ctx context.Context, current, next string) error {
	return m.api.ChangePassword(ctx, apiclient.ChangePasswordRequest{CurrentPassword: current, NewPassword: next})
}

// Token implements apiclient.TokenSource.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// User returns a copy of the signed-in user, or nil.
func (m *Manager) User() *apiclient.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	cp := *m.user
	return &cp
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != "" && m.user != nil
}

func (m *Manager) IsAdmin() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != "" && m.user != nil && m.user.Role == apiclient.RoleAdmin
}

// Clear drops the session locally and in the store.
func (m *Manager) Clear() {
	m.mu.Lock()
	changed := m.token != "" || m.user != nil
	m.token = ""
	m.user = nil
	m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		m.logger.Warn("Failed to clear stored session", zap.Error(err))
	}
	if changed {
		m.notify()
	}
}

// OnChange subscribes fn to session changes. The returned func unsubscribes.
func (m *Manager) OnChange(fn Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

func (m *Manager) set(token string, user *apiclient.User) error {
	m.mu.Lock()
	m.token = token
	m.user = user
	m.mu.Unlock()

	if err := m.store.Save(State{Token: token, User: user}); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	m.notify()
	return nil
}

func (m *Manager) notify() {
	m.mu.RLock()
	listeners := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.mu.RUnlock()

	user := m.User()
	for _, l := range listeners {
		l(user)
	}
}

// NormalizeRole maps server role spellings ("admin", "ROLE_ADMIN") to USER or ADMIN.
func NormalizeRole(role string) string {
	role = strings.ToUpper(strings.TrimSpace(role))
	role = strings.TrimPrefix(role, "ROLE_")
	if role == apiclient.RoleAdmin {
		return apiclient.RoleAdmin
	}
	return apiclient.RoleUser
}

// Ensure Manager implements apiclient.TokenSource
var _ apiclient.TokenSource = (*Manager)(nil)
