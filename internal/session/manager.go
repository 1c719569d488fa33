package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/makhanda-smiles/portal-api/internal/model"
	"github.com/makhanda-smiles/portal-api/pkg/errors"
)

// Provider is the authentication collaborator.
type Provider interface {
	SignIn(ctx context.Context, clientID, email, password string) (*model.AuthSession, error)
	SignOut(ctx context.Context, clientID string) error
	GetSession(ctx context.Context, clientID string) (*model.AuthSession, error)
	OnChange(fn func(clientID string, session *model.AuthSession)) func()
}

type AdminChecker interface {
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

type Config struct {
	// DemoEnabled allows clients to enter demo mode. Off, demo flags are
	// ignored and EnterDemoMode is forbidden.
	DemoEnabled bool
	// StateTTL bounds how long a resolved state is reused before it is
	// resolved again from the flags and the provider. A real session is
	// never cached past its expiry.
	StateTTL time.Duration
	// AdminCheckTimeout bounds admin lookups made from provider callbacks.
	AdminCheckTimeout time.Duration
}

// Manager is the process-wide session state, keyed by client id. Demo mode
// is a flag override that never reaches the provider.
type Manager struct {
	provider Provider
	admins   AdminChecker
	flags    FlagStore
	states   *cache.Cache
	logger   zerolog.Logger
	cfg      Config

	mu          sync.Mutex
	subscribers map[int]func(clientID string, state State)
	nextID      int
	unsubscribe func()
}

func NewManager(provider Provider, admins AdminChecker, flags FlagStore, logger zerolog.Logger, cfg Config) *Manager {
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = time.Minute
	}
	if cfg.AdminCheckTimeout <= 0 {
		cfg.AdminCheckTimeout = 5 * time.Second
	}
	return &Manager{
		provider:    provider,
		admins:      admins,
		flags:       flags,
		states:      cache.New(cfg.StateTTL, 5*time.Minute),
		logger:      logger,
		cfg:         cfg,
		subscribers: make(map[int]func(string, State)),
	}
}

// Start listens for provider session changes. Close stops listening.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unsubscribe != nil {
		return
	}
	m.unsubscribe = m.provider.OnChange(m.onProviderChange)
}

func (m *Manager) Close() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Subscribe registers fn for state changes and returns its unsubscribe func.
func (m *Manager) Subscribe(fn func(clientID string, state State)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subscribers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}

// Init resolves a client's state once: demo flags first, then the provider.
func (m *Manager) Init(ctx context.Context, clientID string) (State, error) {
	if st, ok := m.cached(clientID); ok && !st.Loading {
		return st, nil
	}
	m.states.SetDefault(clientID, State{Loading: true})

	flags, err := m.flags.Load(ctx, clientID)
	if err != nil {
		m.states.Delete(clientID)
		return State{}, errors.Unavailable("failed to load session", err)
	}
	if flags.DemoMode && m.cfg.DemoEnabled {
		return m.set(clientID, demoState(flags.DemoRole)), nil
	}

	session, err := m.provider.GetSession(ctx, clientID)
	if err != nil {
		m.states.Delete(clientID)
		return State{}, errors.Unavailable("failed to load session", err)
	}
	return m.set(clientID, m.realState(ctx, session)), nil
}

// State returns the last resolved state. An unresolved client is loading.
func (m *Manager) State(clientID string) State {
	if st, ok := m.cached(clientID); ok {
		return st
	}
	return State{Loading: true}
}

func (m *Manager) IsLoading(clientID string) bool {
	return m.State(clientID).Loading
}

func (m *Manager) CurrentIdentity(ctx context.Context, clientID string) (*Identity, error) {
	st, err := m.Init(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return st.Identity(), nil
}

func (m *Manager) IsAdmin(ctx context.Context, clientID string) (bool, error) {
	st, err := m.Init(ctx, clientID)
	if err != nil {
		return false, err
	}
	return st.IsAdmin, nil
}

// SignIn leaves demo mode and signs in with the provider.
func (m *Manager) SignIn(ctx context.Context, clientID, email, password string) (State, error) {
	if err := m.flags.Clear(ctx, clientID); err != nil {
		return State{}, errors.Unavailable("failed to sign in", err)
	}
	m.states.Delete(clientID)

	session, err := m.provider.SignIn(ctx, clientID, email, password)
	if err != nil {
		m.set(clientID, State{})
		return State{}, err
	}
	return m.apply(ctx, clientID, session), nil
}

// SignUp leaves demo mode and adopts the session returned by register,
// which creates the account with the provider.
func (m *Manager) SignUp(ctx context.Context, clientID string, register func(ctx context.Context) (*model.AuthSession, error)) (State, error) {
	if err := m.flags.Clear(ctx, clientID); err != nil {
		return State{}, errors.Unavailable("failed to sign up", err)
	}
	m.states.Delete(clientID)

	session, err := register(ctx)
	if err != nil {
		m.set(clientID, State{})
		return State{}, err
	}
	return m.apply(ctx, clientID, session), nil
}

// SignOut ends the client's session. A demo session is dropped locally;
// a real one is also ended with the provider.
func (m *Manager) SignOut(ctx context.Context, clientID string) error {
	st, _ := m.cached(clientID)
	if err := m.flags.Clear(ctx, clientID); err != nil {
		return errors.Unavailable("failed to sign out", err)
	}
	if !st.DemoMode() {
		if err := m.provider.SignOut(ctx, clientID); err != nil {
			return err
		}
	}
	m.set(clientID, State{})
	return nil
}

// EnterDemoMode fabricates a local session for role.
func (m *Manager) EnterDemoMode(ctx context.Context, clientID string, role Role) (State, error) {
	if !m.cfg.DemoEnabled {
		return State{}, errors.Forbidden("demo mode is disabled")
	}
	if !role.Valid() {
		return State{}, errors.BadRequest(fmt.Sprintf("unknown demo role %q", role), nil)
	}
	if err := m.flags.Save(ctx, clientID, Flags{DemoMode: true, DemoRole: role}); err != nil {
		return State{}, errors.Unavailable("failed to enter demo mode", err)
	}
	return m.set(clientID, demoState(role)), nil
}

// ExitDemoMode clears the demo flags and resolves the client again.
func (m *Manager) ExitDemoMode(ctx context.Context, clientID string) (State, error) {
	if err := m.flags.Clear(ctx, clientID); err != nil {
		return State{}, errors.Unavailable("failed to exit demo mode", err)
	}
	m.set(clientID, State{Loading: true})
	return m.Init(ctx, clientID)
}

func (m *Manager) onProviderChange(clientID string, session *model.AuthSession) {
	if st, ok := m.cached(clientID); ok && st.DemoMode() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.AdminCheckTimeout)
	defer cancel()
	m.apply(ctx, clientID, session)
}

// apply records a provider session unless it is already the current one.
func (m *Manager) apply(ctx context.Context, clientID string, session *model.AuthSession) State {
	if st, ok := m.cached(clientID); ok && sameSession(st, session) {
		return st
	}
	return m.set(clientID, m.realState(ctx, session))
}

func (m *Manager) realState(ctx context.Context, session *model.AuthSession) State {
	if session == nil {
		return State{}
	}
	return State{Source: Real{Session: session}, IsAdmin: m.checkAdmin(ctx, session)}
}

// checkAdmin treats a failed lookup as not an admin.
func (m *Manager) checkAdmin(ctx context.Context, session *model.AuthSession) bool {
	userID, err := uuid.Parse(session.User.ID)
	if err != nil {
		return false
	}
	isAdmin, err := m.admins.IsAdmin(ctx, userID)
	if err != nil {
		m.logger.Warn().Err(err).Str("user_id", session.User.ID).Msg("admin check failed")
		return false
	}
	return isAdmin
}

func (m *Manager) cached(clientID string) (State, bool) {
	v, ok := m.states.Get(clientID)
	if !ok {
		return State{}, false
	}
	return v.(State), true
}

func (m *Manager) set(clientID string, st State) State {
	if ttl := m.ttl(st); ttl > 0 {
		m.states.Set(clientID, st, ttl)
	} else {
		m.states.Delete(clientID)
	}

	m.mu.Lock()
	subscribers := make([]func(string, State), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subscribers = append(subscribers, fn)
	}
	m.mu.Unlock()

	for _, fn := range subscribers {
		fn(clientID, st)
	}
	return st
}

// ttl caps a state's cache lifetime at its session's expiry.
func (m *Manager) ttl(st State) time.Duration {
	ttl := m.cfg.StateTTL
	if real, ok := st.Source.(Real); ok && real.Session != nil {
		if left := time.Until(real.Session.ExpiresAt); left < ttl {
			ttl = left
		}
	}
	return ttl
}

func demoState(role Role) State {
	return State{Source: Demo{Role: role}, IsAdmin: role == RoleAdmin}
}

func sameSession(st State, session *model.AuthSession) bool {
	current, ok := st.Source.(Real)
	if !ok || session == nil || current.Session == nil {
		return false
	}
	return current.Session.AccessToken == session.AccessToken
}
