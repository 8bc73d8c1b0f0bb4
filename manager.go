package auth

import (
	"context"
	"sync"
)

// SessionState identifies where the session lifecycle currently is
type SessionState string

const (
	// StateInit means no rehydration check has run yet
	StateInit SessionState = "init"
	// StateValidating means a stored session was found and is being confirmed
	StateValidating SessionState = "validating"
	// StateAuthenticated means a credential and profile are present
	StateAuthenticated SessionState = "authenticated"
	// StateAnonymous means no session exists
	StateAnonymous SessionState = "anonymous"
)

// Snapshot is the immutable view of the session handed to consumers. The
// profile is a copy; mutating it does not affect the manager.
type Snapshot struct {
	State SessionState
	User  *User
	Token string
	// Degraded is set when re-validation failed for a non-authorization
	// reason and the cached profile is being served instead.
	Degraded bool
}

// IsLoading is true only during the initial rehydration check. Consumers
// must not branch on IsAuthenticated until it is false.
func (s Snapshot) IsLoading() bool {
	return s.State == StateInit || s.State == StateValidating
}

// IsAuthenticated requires both the credential and the profile
func (s Snapshot) IsAuthenticated() bool {
	return s.State == StateAuthenticated && s.User != nil && s.Token != ""
}

// Role returns the session role with the guest fallback applied
func (s Snapshot) Role() UserRole {
	if s.User == nil {
		return RoleGuest
	}
	if role, ok := ParseRole(string(s.User.Role)); ok {
		return role
	}
	return RoleGuest
}

// ChangeListener observes every published snapshot
type ChangeListener func(Snapshot)

// InvalidationListener fires when the backend rejects the stored credential.
// Host applications subscribe to it to navigate back to the landing view;
// the core never reaches into navigation itself.
type InvalidationListener func()

// SessionManager owns the process-wide session: rehydration, validation,
// login, logout, and profile updates. Instances are independent; tests can
// construct as many as they need.
type SessionManager struct {
	mu     sync.Mutex
	store  SessionStore
	client IdentityClient
	logger Logger

	// trustMock marks offline mode: mock sessions are accepted without a
	// server round-trip instead of being purged.
	trustMock bool

	// generation increments on every login/logout so a stale validation
	// continuation can detect it was superseded and discard its result.
	generation uint64

	state    SessionState
	user     *User
	token    string
	degraded bool
	disposed bool

	onChange      []ChangeListener
	onInvalidated []InvalidationListener
}

type ManagerOption func(*SessionManager)

// WithManagerLogger overrides the default logger
func WithManagerLogger(l Logger) ManagerOption {
	return func(m *SessionManager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMockSessionsTrusted enables offline mode semantics: stored mock
// sessions are trusted at startup instead of purged.
func WithMockSessionsTrusted(trusted bool) ManagerOption {
	return func(m *SessionManager) {
		m.trustMock = trusted
	}
}

// WithChangeListener registers a snapshot observer at construction time
func WithChangeListener(l ChangeListener) ManagerOption {
	return func(m *SessionManager) {
		if l != nil {
			m.onChange = append(m.onChange, l)
		}
	}
}

// WithInvalidationListener registers a session-invalidated observer
func WithInvalidationListener(l InvalidationListener) ManagerOption {
	return func(m *SessionManager) {
		if l != nil {
			m.onInvalidated = append(m.onInvalidated, l)
		}
	}
}

// NewSessionManager returns a manager in StateInit. Call Init to rehydrate.
func NewSessionManager(store SessionStore, client IdentityClient, opts ...ManagerOption) *SessionManager {
	m := &SessionManager{
		store:  store,
		client: client,
		logger: defLogger{},
		state:  StateInit,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// Init rehydrates the persisted session. It runs the full startup transition
// table:
//
//	no stored session            -> anonymous
//	mock session, offline mode   -> authenticated (trusted, no round-trip)
//	mock session, real mode      -> purged, anonymous
//	real session                 -> validating, then confirmed/purged/degraded
//
// Init is idempotent; calls after the first are no-ops.
func (m *SessionManager) Init(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateInit || m.disposed {
		m.mu.Unlock()
		return nil
	}

	token, user, err := m.store.Load(ctx)
	if err != nil {
		// a store that cannot be read is treated as no session
		m.logger.Error("session store load failed: %v", err)
		token, user = "", nil
	}

	if token == "" || user == nil {
		m.state = StateAnonymous
		m.mu.Unlock()
		m.publish()
		return nil
	}

	if IsMockToken(token) {
		if m.trustMock {
			// mock sessions are never server-validated
			user.EnsureRole()
			m.user = user
			m.token = token
			m.state = StateAuthenticated
			m.mu.Unlock()
			m.publish()
			return nil
		}

		// stale development token after a configuration change: purge it
		// before any state is published
		m.logger.Warn("purging stale mock token found in real mode")
		if err := m.store.Clear(ctx); err != nil {
			m.logger.Error("session store clear failed: %v", err)
		}
		m.state = StateAnonymous
		m.mu.Unlock()
		m.publish()
		return nil
	}

	m.state = StateValidating
	gen := m.generation
	m.mu.Unlock()
	m.publish()

	fresh, err := m.client.Me(ctx, token)

	m.mu.Lock()
	if m.generation != gen || m.state != StateValidating {
		// a login or logout raced the validation; its result wins
		m.mu.Unlock()
		return nil
	}

	switch {
	case err == nil:
		fresh.EnsureRole()
		m.user = fresh
		m.token = token
		m.state = StateAuthenticated
		if err := m.store.Save(ctx, token, fresh); err != nil {
			m.logger.Error("failed to persist refreshed profile: %v", err)
		}
		m.mu.Unlock()
		m.publish()

	case IsUnauthorizedError(err):
		if err := m.store.Clear(ctx); err != nil {
			m.logger.Error("session store clear failed: %v", err)
		}
		m.user = nil
		m.token = ""
		m.state = StateAnonymous
		listeners := append([]InvalidationListener(nil), m.onInvalidated...)
		m.mu.Unlock()
		m.publish()
		for _, l := range listeners {
			l()
		}

	default:
		// transport failure: keep the cached profile rather than logging the
		// user out. Availability over strict freshness.
		m.logger.Warn("session re-validation failed, keeping cached profile: %v", err)
		user.EnsureRole()
		m.user = user
		m.token = token
		m.state = StateAuthenticated
		m.degraded = true
		m.mu.Unlock()
		m.publish()
	}

	return nil
}

// Snapshot returns the current session view
func (m *SessionManager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Login authenticates and replaces any prior session state
func (m *SessionManager) Login(ctx context.Context, email, password string) (*User, error) {
	res, err := m.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	return m.adopt(ctx, res)
}

// Register creates an account and adopts the resulting session
func (m *SessionManager) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	res, err := m.client.Register(ctx, req)
	if err != nil {
		return nil, err
	}

	return m.adopt(ctx, res)
}

// adopt installs an AuthResult as the current session and persists it
func (m *SessionManager) adopt(ctx context.Context, res *AuthResult) (*User, error) {
	user := res.User.Clone()
	user.EnsureRole()

	m.mu.Lock()
	m.generation++
	m.user = user
	m.token = res.Token
	m.state = StateAuthenticated
	m.degraded = false
	if err := m.store.Save(ctx, res.Token, user); err != nil {
		m.logger.Error("failed to persist session: %v", err)
	}
	m.mu.Unlock()
	m.publish()

	return user.Clone(), nil
}

// Logout clears local state unconditionally; no network round-trip is
// required for it to succeed.
func (m *SessionManager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.generation++
	m.user = nil
	m.token = ""
	m.state = StateAnonymous
	m.degraded = false
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Error("session store clear failed: %v", err)
	}
	m.mu.Unlock()
	m.publish()
}

// UpdateUser merges profile changes through the backend and refreshes the
// persisted copy. An authorization failure invalidates the whole session.
func (m *SessionManager) UpdateUser(ctx context.Context, patch ProfilePatch) (*User, error) {
	m.mu.Lock()
	if m.state != StateAuthenticated || m.token == "" {
		m.mu.Unlock()
		return nil, ErrUnauthorized
	}
	token := m.token
	gen := m.generation
	m.mu.Unlock()

	fresh, err := m.client.UpdateMe(ctx, token, patch)
	if err != nil {
		if IsUnauthorizedError(err) {
			m.invalidate(ctx, gen)
		}
		return nil, err
	}

	fresh.EnsureRole()

	m.mu.Lock()
	if m.generation == gen && m.state == StateAuthenticated {
		m.user = fresh.Clone()
		if err := m.store.Save(ctx, token, m.user); err != nil {
			m.logger.Error("failed to persist updated profile: %v", err)
		}
	}
	m.mu.Unlock()
	m.publish()

	return fresh, nil
}

// invalidate purges the session after a backend rejection, provided no
// login/logout superseded the request that observed the rejection.
func (m *SessionManager) invalidate(ctx context.Context, gen uint64) {
	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		return
	}
	m.generation++
	m.user = nil
	m.token = ""
	m.state = StateAnonymous
	m.degraded = false
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Error("session store clear failed: %v", err)
	}
	listeners := append([]InvalidationListener(nil), m.onInvalidated...)
	m.mu.Unlock()
	m.publish()
	for _, l := range listeners {
		l()
	}
}

// Subscribe registers a snapshot observer after construction
func (m *SessionManager) Subscribe(l ChangeListener) {
	if l == nil {
		return
	}
	m.mu.Lock()
	m.onChange = append(m.onChange, l)
	m.mu.Unlock()
}

// OnSessionInvalidated registers a handler for backend credential rejection
func (m *SessionManager) OnSessionInvalidated(l InvalidationListener) {
	if l == nil {
		return
	}
	m.mu.Lock()
	m.onInvalidated = append(m.onInvalidated, l)
	m.mu.Unlock()
}

// Dispose detaches listeners and supersedes any in-flight validation so its
// result is discarded. The manager stays usable only for Snapshot reads.
func (m *SessionManager) Dispose() {
	m.mu.Lock()
	m.disposed = true
	m.generation++
	if m.state == StateInit || m.state == StateValidating {
		m.state = StateAnonymous
	}
	m.onChange = nil
	m.onInvalidated = nil
	m.mu.Unlock()
}

// CurrentUser returns a copy of the authenticated profile, or nil
func (m *SessionManager) CurrentUser() *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user.Clone()
}

// IsAuthenticated reports whether a credential and profile are present
func (m *SessionManager) IsAuthenticated() bool {
	return m.Snapshot().IsAuthenticated()
}

// IsLoading reports whether the initial rehydration check is still running
func (m *SessionManager) IsLoading() bool {
	return m.Snapshot().IsLoading()
}

// IsAdmin reports whether the current role is admin
func (m *SessionManager) IsAdmin() bool { return m.hasRole(RoleAdmin) }

// IsLecturer reports whether the current role is lecturer
func (m *SessionManager) IsLecturer() bool { return m.hasRole(RoleLecturer) }

// IsStudent reports whether the current role is student
func (m *SessionManager) IsStudent() bool { return m.hasRole(RoleStudent) }

// IsCollegeAdmin reports whether the current role is college_admin
func (m *SessionManager) IsCollegeAdmin() bool { return m.hasRole(RoleCollegeAdmin) }

func (m *SessionManager) hasRole(role UserRole) bool {
	return m.Snapshot().Role() == role
}

// LandingRoute resolves the default route for the current session
func (m *SessionManager) LandingRoute() string {
	return ResolveLandingRoute(m.CurrentUser())
}

func (m *SessionManager) snapshotLocked() Snapshot {
	return Snapshot{
		State:    m.state,
		User:     m.user.Clone(),
		Token:    m.token,
		Degraded: m.degraded,
	}
}

func (m *SessionManager) publish() {
	m.mu.Lock()
	snap := m.snapshotLocked()
	listeners := append([]ChangeListener(nil), m.onChange...)
	m.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}
