package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/learnhub-client/internal/core/domain"
	"github.com/arklim/learnhub-client/internal/core/port"
	"github.com/arklim/learnhub-client/internal/infra/logger"
	"github.com/arklim/learnhub-client/internal/repository"
	"github.com/arklim/learnhub-client/internal/validation"
)

const defaultProfileCacheTTL = 5 * time.Minute

// AuthState is the observable view the UI renders from: the current profile,
// the current session, and whether an operation is in flight.
type AuthState struct {
	User    *domain.Profile
	Session *domain.Session
	Loading bool
}

// Authenticated reports whether a session is currently held.
func (s AuthState) Authenticated() bool {
	return s.Session != nil
}

// Listener receives state snapshots whenever the manager's state changes.
type Listener func(AuthState)

// SessionManager mediates between the UI and the external identity provider.
// It owns the authoritative local view of {session, profile, loading},
// guarantees a profile row exists for every authenticated identity, and fans
// provider session-change events out to any number of subscribers.
//
// One instance exists per running application. Operations are safe to invoke
// concurrently with provider callbacks; whichever write commits last wins,
// matching the provider being the single source of truth for session
// validity.
type SessionManager struct {
	provider port.IdentityProvider
	profiles port.ProfileStore
	cache    port.ProfileCache
	cacheTTL time.Duration
	events   port.EventPublisher
	policy   *validation.Policy
	logger   *zap.Logger

	mu      sync.Mutex
	user    *domain.Profile
	session *domain.Session
	loading bool

	listenerMu   sync.Mutex
	listeners    map[int]Listener
	nextListener int

	subscribeOnce sync.Once
	closeOnce     sync.Once
	unsubscribe   func()
}

// SessionManagerOption configures optional SessionManager collaborators.
type SessionManagerOption func(*SessionManager)

// WithProfileCache enables read-through caching of profile rows.
func WithProfileCache(cache port.ProfileCache) SessionManagerOption {
	return func(m *SessionManager) {
		m.cache = cache
	}
}

// WithProfileCacheTTL overrides how long cached profile rows stay fresh.
func WithProfileCacheTTL(ttl time.Duration) SessionManagerOption {
	return func(m *SessionManager) {
		if ttl > 0 {
			m.cacheTTL = ttl
		}
	}
}

// WithEventPublisher enables auth lifecycle event publishing.
func WithEventPublisher(events port.EventPublisher) SessionManagerOption {
	return func(m *SessionManager) {
		m.events = events
	}
}

// WithPasswordPolicy gates sign-up on a local password policy before the
// provider call. Without it the provider's own policy is the only gate.
func WithPasswordPolicy(policy *validation.Policy) SessionManagerOption {
	return func(m *SessionManager) {
		m.policy = policy
	}
}

// NewSessionManager constructs the manager. Provider and profile store are
// required; everything else is optional.
func NewSessionManager(provider port.IdentityProvider, profiles port.ProfileStore, log *zap.Logger, opts ...SessionManagerOption) (*SessionManager, error) {
	if provider == nil {
		return nil, fmt.Errorf("identity provider is required")
	}
	if profiles == nil {
		return nil, fmt.Errorf("profile store is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	m := &SessionManager{
		provider:  provider,
		profiles:  profiles,
		cacheTTL:  defaultProfileCacheTTL,
		logger:    log,
		listeners: make(map[int]Listener),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m, nil
}

// Initialize restores any existing session from the provider and registers
// the lifetime session-change subscription. The manager always ends in a
// non-loading state, authenticated or not. Profile auto-provisioning does
// not happen on this path; a missing row is left for GetCurrentUser.
func (m *SessionManager) Initialize(ctx context.Context) error {
	m.subscribeOnce.Do(func() {
		m.unsubscribe = m.provider.OnSessionChange(m.handleSessionChange)
	})

	m.setLoading(true)
	defer m.setLoading(false)

	session, err := m.provider.GetSession(ctx)
	if err != nil {
		m.logger.Warn("restore session failed", zap.Error(err))
		return &AuthError{Op: "initialize", Message: err.Error(), Err: err}
	}
	if session == nil {
		m.setState(nil, nil)
		return nil
	}

	var profile *domain.Profile
	if id := session.UserID(); id != "" {
		profile = m.loadProfile(ctx, id)
	}
	m.setState(profile, session)

	return nil
}

// Close releases the provider subscription. Safe to call more than once.
func (m *SessionManager) Close() {
	m.closeOnce.Do(func() {
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
	})
}

// Snapshot returns a copy of the current state.
func (m *SessionManager) Snapshot() AuthState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// CurrentUser returns the current profile, or nil when unauthenticated.
func (m *SessionManager) CurrentUser() *domain.Profile {
	return m.Snapshot().User
}

// Subscribe registers a listener for state changes and returns a function
// releasing the registration.
func (m *SessionManager) Subscribe(listener Listener) (unsubscribe func()) {
	m.listenerMu.Lock()
	id := m.nextListener
	m.nextListener++
	m.listeners[id] = listener
	m.listenerMu.Unlock()

	return func() {
		m.listenerMu.Lock()
		delete(m.listeners, id)
		m.listenerMu.Unlock()
	}
}

// SignUp creates a new identity with full name and the default student role
// attached as metadata. No profile row is created yet: unverified identities
// hold no profile, and provisioning is deferred until the first verified
// authenticated access.
func (m *SessionManager) SignUp(ctx context.Context, email, password, fullName string) (*domain.Identity, error) {
	m.setLoading(true)
	defer m.setLoading(false)

	if m.policy != nil {
		if err := m.policy.Validate(password); err != nil {
			return nil, &AuthError{Op: "sign_up", Message: err.Error(), Err: err}
		}
	}

	identity, err := m.provider.SignUp(ctx, port.SignUpParams{
		Email:    email,
		Password: password,
		Metadata: map[string]any{
			"full_name": fullName,
			"role":      string(domain.RoleStudent),
		},
	})
	if err != nil {
		return nil, &AuthError{Op: "sign_up", Message: err.Error(), Err: err}
	}

	m.logger.Info("verification email dispatched", zap.String("email", logger.MaskEmail(email)))

	return identity, nil
}

// SignIn authenticates with email and password. On success the last_login
// timestamp is updated best-effort: a failure there is logged and never fails
// the sign-in itself.
func (m *SessionManager) SignIn(ctx context.Context, email, password string) error {
	m.setLoading(true)
	defer m.setLoading(false)

	identity, session, err := m.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return &AuthError{Op: "sign_in", Message: err.Error(), Err: err}
	}

	var profile *domain.Profile
	if identity != nil {
		if err := m.profiles.TouchLastLogin(ctx, identity.ID, time.Now().UTC()); err != nil {
			m.logger.Warn("update last_login failed",
				zap.String("user_id", identity.ID),
				zap.Error(err),
			)
		}
		profile = m.loadProfile(ctx, identity.ID)
	}

	m.setState(profile, session)
	m.publishSignedIn(ctx, identity)

	return nil
}

// SignOut invalidates the session with the provider and clears local state.
// On provider failure local state is left unchanged: no partial clear.
func (m *SessionManager) SignOut(ctx context.Context) error {
	m.setLoading(true)
	defer m.setLoading(false)

	previous := m.Snapshot()

	if err := m.provider.SignOut(ctx); err != nil {
		return &AuthError{Op: "sign_out", Message: err.Error(), Err: err}
	}

	m.setState(nil, nil)
	m.publishSignedOut(ctx, previous)

	return nil
}

// ResetPassword asks the provider to dispatch a password-reset email.
func (m *SessionManager) ResetPassword(ctx context.Context, email string) error {
	m.setLoading(true)
	defer m.setLoading(false)

	if err := m.provider.ResetPassword(ctx, email); err != nil {
		return &AuthError{Op: "reset_password", Message: err.Error(), Err: err}
	}

	return nil
}

// UpdateProfile performs a partial update of the current user's profile row
// and merges the persisted result into local state. It requires an
// authenticated state and performs no network call without one. Local state
// is unchanged when the store rejects the update.
func (m *SessionManager) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (*domain.Profile, error) {
	current := m.CurrentUser()
	if current == nil {
		return nil, ErrNotAuthenticated
	}

	m.setLoading(true)
	defer m.setLoading(false)

	updated, err := m.profiles.Update(ctx, current.ID, update)
	if err != nil {
		return nil, &PersistenceError{Op: "update profile", Err: err}
	}

	m.invalidateCachedProfile(ctx, current.ID)
	m.setUser(updated)

	return updated, nil
}

// GetCurrentUser returns the authenticated identity from the provider and
// guarantees its profile row exists, creating a minimal one when absent.
// Provisioning failures are logged but never fail the call: authentication
// success is independent of profile-provisioning success.
func (m *SessionManager) GetCurrentUser(ctx context.Context) (*domain.Identity, error) {
	m.setLoading(true)
	defer m.setLoading(false)

	identity, err := m.provider.GetUser(ctx)
	if err != nil {
		return nil, &AuthError{Op: "get_user", Message: err.Error(), Err: err}
	}

	if identity != nil {
		if err := m.ensureProfile(ctx, *identity); err != nil {
			m.logger.Warn("profile provisioning failed",
				zap.String("user_id", identity.ID),
				zap.Error(err),
			)
		}
		if m.Snapshot().Session != nil {
			m.setUser(m.loadProfile(ctx, identity.ID))
		}
	}

	return identity, nil
}

// ensureProfile guarantees a profile row exists for the identity. A found
// row is never touched; only a missing row triggers the minimal insert. A
// lookup transport failure surfaces as PersistenceError and is not treated
// as not-found.
func (m *SessionManager) ensureProfile(ctx context.Context, identity domain.Identity) error {
	_, err := m.profiles.GetByID(ctx, identity.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return &PersistenceError{Op: "lookup profile", Err: err}
	}

	now := time.Now().UTC()
	profile := domain.Profile{
		ID:        identity.ID,
		Email:     identity.Email,
		FullName:  identity.FullName("User"),
		Role:      domain.RoleStudent,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := m.profiles.Insert(ctx, profile); err != nil {
		return &PersistenceError{Op: "provision profile", Err: err}
	}

	m.logger.Info("profile provisioned",
		zap.String("user_id", profile.ID),
		zap.String("email", logger.MaskEmail(profile.Email)),
	)
	m.publishProfileProvisioned(ctx, profile)

	return nil
}

// handleSessionChange is the single provider subscription. SIGNED_IN loads
// the identity's profile; SIGNED_OUT clears local state; TOKEN_REFRESHED
// swaps the session while keeping the already-loaded profile when the
// identity is unchanged.
func (m *SessionManager) handleSessionChange(event domain.AuthEvent, session *domain.Session) {
	ctx := context.Background()

	switch event {
	case domain.AuthEventSignedIn:
		var profile *domain.Profile
		if session != nil {
			if id := session.UserID(); id != "" {
				profile = m.loadProfile(ctx, id)
			}
		}
		m.setState(profile, session)
	case domain.AuthEventTokenRefreshed:
		if session == nil {
			return
		}
		m.mu.Lock()
		sameUser := m.user != nil && m.user.ID == session.UserID()
		current := m.user
		m.mu.Unlock()
		if !sameUser {
			current = m.loadProfile(ctx, session.UserID())
		}
		m.setState(current, session)
	case domain.AuthEventSignedOut:
		m.setState(nil, nil)
	default:
		m.logger.Debug("ignoring session change event", zap.String("event", string(event)))
	}
}

// loadProfile is a read-only fetch: not-found yields nil without an insert,
// and transport errors are logged rather than propagated.
func (m *SessionManager) loadProfile(ctx context.Context, id string) *domain.Profile {
	if m.cache != nil {
		if cached, err := m.cache.Get(ctx, id); err == nil && cached != nil {
			return cached
		}
	}

	profile, err := m.profiles.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			m.logger.Warn("load profile failed", zap.String("user_id", id), zap.Error(err))
		}
		return nil
	}

	if m.cache != nil {
		if err := m.cache.Set(ctx, *profile, m.cacheTTL); err != nil {
			m.logger.Debug("cache profile failed", zap.String("user_id", id), zap.Error(err))
		}
	}

	return profile
}

func (m *SessionManager) invalidateCachedProfile(ctx context.Context, id string) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Invalidate(ctx, id); err != nil {
		m.logger.Debug("invalidate cached profile failed", zap.String("user_id", id), zap.Error(err))
	}
}

func (m *SessionManager) publishSignedIn(ctx context.Context, identity *domain.Identity) {
	if m.events == nil || identity == nil {
		return
	}
	event := domain.SignedInEvent{
		EventID:    uuid.NewString(),
		UserID:     identity.ID,
		Email:      identity.Email,
		SignedInAt: time.Now().UTC(),
	}
	if err := m.events.PublishSignedIn(ctx, event); err != nil {
		m.logger.Warn("publish signed-in event failed", zap.Error(err))
	}
}

func (m *SessionManager) publishSignedOut(ctx context.Context, previous AuthState) {
	if m.events == nil || previous.User == nil {
		return
	}
	event := domain.SignedOutEvent{
		EventID:     uuid.NewString(),
		UserID:      previous.User.ID,
		SignedOutAt: time.Now().UTC(),
	}
	if err := m.events.PublishSignedOut(ctx, event); err != nil {
		m.logger.Warn("publish signed-out event failed", zap.Error(err))
	}
}

func (m *SessionManager) publishProfileProvisioned(ctx context.Context, profile domain.Profile) {
	if m.events == nil {
		return
	}
	event := domain.ProfileProvisionedEvent{
		EventID:       uuid.NewString(),
		UserID:        profile.ID,
		Email:         profile.Email,
		FullName:      profile.FullName,
		Role:          string(profile.Role),
		ProvisionedAt: time.Now().UTC(),
	}
	if err := m.events.PublishProfileProvisioned(ctx, event); err != nil {
		m.logger.Warn("publish profile-provisioned event failed", zap.Error(err))
	}
}

func (m *SessionManager) snapshotLocked() AuthState {
	state := AuthState{Loading: m.loading}
	if m.user != nil {
		user := *m.user
		state.User = &user
	}
	if m.session != nil {
		session := *m.session
		state.Session = &session
	}
	return state
}

func (m *SessionManager) setState(user *domain.Profile, session *domain.Session) {
	m.mu.Lock()
	m.user = user
	m.session = session
	state := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(state)
}

func (m *SessionManager) setUser(user *domain.Profile) {
	m.mu.Lock()
	m.user = user
	state := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(state)
}

func (m *SessionManager) setLoading(loading bool) {
	m.mu.Lock()
	m.loading = loading
	state := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(state)
}

func (m *SessionManager) notify(state AuthState) {
	m.listenerMu.Lock()
	listeners := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.listenerMu.Unlock()

	for _, l := range listeners {
		l(state)
	}
}
