// Package auth contains the session manager: the single owner of the portal's
// authentication state. All login, registration, logout, and startup
// restoration flows go through it, and everything else observes the session
// through snapshots and published events.
package auth

import (
	"context"
	"strings"
	"sync"

	"github.com/iq-didactic/didactic-portal/internal/domain/identity"
	"github.com/iq-didactic/didactic-portal/internal/domain/session"
	"github.com/iq-didactic/didactic-portal/internal/domain/shared"
	"github.com/iq-didactic/didactic-portal/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES (Interfaces)
// ══════════════════════════════════════════════════════════════════════════════

// APIClient defines the auth operations the manager needs from the
// IQ Didactic API. None of these are retried: a failed call surfaces
// to the user, who decides whether to try again.
type APIClient interface {
	// Register creates an account and returns the created identity.
	Register(ctx context.Context, reg identity.Registration) (*identity.User, error)

	// Login exchanges credentials for a bearer token.
	Login(ctx context.Context, email, password string) (string, error)

	// FetchCurrentUser validates a token and returns who it belongs to.
	FetchCurrentUser(ctx context.Context, token string) (*identity.User, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION MANAGER
// ══════════════════════════════════════════════════════════════════════════════

// Config contains the manager's dependencies.
type Config struct {
	// Store persists the bearer token across restarts
	Store session.Store

	// API is the IQ Didactic API client
	API APIClient

	// Bus receives session lifecycle events. Optional.
	Bus shared.EventPublisher

	// Logger for structured logging
	Logger *logger.Logger
}

// Manager owns the session. It serializes all state transitions through one
// mutex and tags every credential flow with a generation number: when flows
// overlap, only the one started last may write its outcome. A response
// belonging to a superseded generation is discarded, so a slow login can
// never clobber a newer login or resurrect a session after logout.
type Manager struct {
	store session.Store
	api   APIClient
	bus   shared.EventPublisher
	log   *logger.Logger

	mu          sync.Mutex
	sess        session.Session
	gen         uint64
	initialized bool
}

// NewManager creates a session manager. The session starts uninitialized;
// call Initialize before serving traffic.
func NewManager(cfg Config) *Manager {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	return &Manager{
		store: cfg.Store,
		api:   cfg.API,
		bus:   cfg.Bus,
		log:   log.With(logger.Component("session_manager")),
		sess:  session.Session{Status: session.StatusUninitialized},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// STARTUP RESTORATION
// ══════════════════════════════════════════════════════════════════════════════

// Initialize restores the session from the credential store. It always leaves
// the session in a terminal state and never returns a validation failure:
// any failure to validate the stored token deletes it and the session comes
// up anonymous, since an unvalidated token is equivalent to no token.
// Calling Initialize twice is an error.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	if m.initialized {
		m.mu.Unlock()
		return shared.ErrAlreadyInitialized
	}
	m.initialized = true
	gen := m.nextGenLocked()
	m.mu.Unlock()

	token, found, err := m.store.Load(ctx)
	if err != nil {
		m.log.Warn("credential store unreadable, starting anonymous", logger.Err(err))
		token, found = "", false
	}

	if !found || token == "" {
		m.applyAnonymous(gen)
		m.log.Info("no stored credentials, session anonymous")
		return nil
	}

	m.setValidating(gen, token)
	m.publish(shared.NewSessionValidatingEvent())

	user, err := m.api.FetchCurrentUser(ctx, token)
	if err != nil {
		// Any validation failure removes the token: an unvalidated token is
		// no better than none, and keeping it would replay the same failure
		// on every start.
		if clearErr := m.store.Clear(ctx); clearErr != nil {
			m.log.Warn("failed to clear stored token", logger.Err(clearErr))
		}
		m.applyAnonymous(gen)

		reason := "validation_failed"
		if shared.IsAuthentication(err) {
			reason = "token_rejected"
		}
		m.publish(shared.NewSessionClearedEvent(reason))
		m.log.Warn("stored token discarded, session anonymous",
			logger.Reason(reason), logger.Err(err))
		return nil
	}

	if m.applyAuthenticated(gen, user, token) {
		m.publish(shared.NewSessionAuthenticatedEvent(user.ID, user.Email, user.RawRole))
		m.log.Info("session restored",
			logger.UserID(user.ID),
			logger.Role(user.Role.String()),
		)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LOGIN / REGISTER
// ══════════════════════════════════════════════════════════════════════════════

// Login authenticates with the given credentials. On success the token is
// persisted and the session becomes authenticated; on failure the session
// keeps the state it had before the call and the error carries the server's
// message verbatim. The session is only written once the outcome is known,
// so a failed re-login from an authenticated session leaves that session
// standing.
//
// Login starts a new generation: any earlier login or restoration still in
// flight is superseded and its eventual outcome is discarded.
func (m *Manager) Login(ctx context.Context, email, password string) (*identity.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, shared.ErrEmptyEmail
	}
	if password == "" {
		return nil, shared.ErrEmptyPassword
	}

	m.mu.Lock()
	if !m.initialized {
		m.mu.Unlock()
		return nil, shared.ErrSessionNotInitialized
	}
	gen := m.nextGenLocked()
	m.mu.Unlock()

	token, err := m.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	// The issued token, byte for byte, is what every later call uses.
	user, err := m.api.FetchCurrentUser(ctx, token)
	if err != nil {
		return nil, err
	}

	if !m.applyAuthenticated(gen, user, token) {
		// A newer flow took over while this one was in flight.
		return nil, shared.NewDomainError("session", "Login", shared.ErrStateTransition,
			"login superseded by a newer request")
	}

	if err := m.store.Save(ctx, token); err != nil {
		// The session is live either way; only restarts lose it.
		m.log.Warn("failed to persist token", logger.Err(err))
	}

	m.publish(shared.NewSessionAuthenticatedEvent(user.ID, user.Email, user.RawRole))
	m.log.Info("login succeeded",
		logger.UserID(user.ID),
		logger.Email(user.Email),
		logger.Role(user.Role.String()),
	)
	return user, nil
}

// Register creates an account and, on success, logs straight into it.
func (m *Manager) Register(ctx context.Context, reg identity.Registration) (*identity.User, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	reg = reg.Normalized()

	if _, err := m.api.Register(ctx, reg); err != nil {
		return nil, err
	}

	m.log.Info("registration succeeded", logger.Email(reg.Email))
	return m.Login(ctx, reg.Email, reg.Password)
}

// ══════════════════════════════════════════════════════════════════════════════
// LOGOUT
// ══════════════════════════════════════════════════════════════════════════════

// Logout ends the session. It cannot fail: the in-memory session is cleared
// unconditionally, a credential store failure is only logged, and any
// in-flight credential flow is superseded so its result cannot resurrect
// the session.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.nextGenLocked()
	hadUser := m.sess.User != nil
	m.sess = session.Session{Status: session.StatusAnonymous}
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		m.log.Warn("failed to clear stored token", logger.Err(err))
	}

	if hadUser {
		m.publish(shared.NewSessionClearedEvent("logout"))
	}
	m.log.Info("logged out")
}

// ══════════════════════════════════════════════════════════════════════════════
// REFETCH
// ══════════════════════════════════════════════════════════════════════════════

// Refetch refreshes the current user's profile from the server, for example
// after a profile picture upload changed the completion percentage. It is
// best effort: on any failure the session keeps its current state and the
// error is returned for the caller to surface. Refetch joins the current
// generation rather than starting one, so a login or logout that happens
// while it is in flight wins and the refetched profile is discarded.
func (m *Manager) Refetch(ctx context.Context) error {
	m.mu.Lock()
	if m.sess.Status != session.StatusAuthenticated {
		m.mu.Unlock()
		return shared.NewDomainError("session", "Refetch", shared.ErrInvalidState,
			"no authenticated session to refresh")
	}
	gen := m.gen
	token := m.sess.Token
	m.mu.Unlock()

	user, err := m.api.FetchCurrentUser(ctx, token)
	if err != nil {
		m.log.Warn("profile refresh failed", logger.Err(err))
		return err
	}

	m.mu.Lock()
	if m.gen == gen && m.sess.Status == session.StatusAuthenticated {
		m.sess.User = user
		m.mu.Unlock()
		m.publish(shared.NewSessionRefreshedEvent(user.ID))
		return nil
	}
	m.mu.Unlock()
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOTS
// ══════════════════════════════════════════════════════════════════════════════

// Current returns a snapshot of the session. The snapshot is safe to read
// after the session moves on; the contained user is never mutated in place.
func (m *Manager) Current() session.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess
}

// Loading reports whether a credential flow is still in flight.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess.Loading()
}

// ══════════════════════════════════════════════════════════════════════════════
// INTERNALS
// ══════════════════════════════════════════════════════════════════════════════

// nextGenLocked starts a new generation. Callers must hold the mutex.
func (m *Manager) nextGenLocked() uint64 {
	m.gen++
	return m.gen
}

// setValidating moves to the validating state if gen is still current.
func (m *Manager) setValidating(gen uint64, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return
	}
	m.sess = session.Session{Status: session.StatusValidating, Token: token}
}

// applyAuthenticated commits an authenticated session if gen is still
// current. Returns false when a newer flow has superseded this one.
func (m *Manager) applyAuthenticated(gen uint64, user *identity.User, token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return false
	}
	m.sess = session.Session{
		Status: session.StatusAuthenticated,
		User:   user,
		Token:  token,
	}
	return true
}

// applyAnonymous commits an anonymous session if gen is still current.
func (m *Manager) applyAnonymous(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return false
	}
	m.sess = session.Session{Status: session.StatusAnonymous}
	return true
}

func (m *Manager) publish(event shared.Event) {
	if m.bus == nil {
		return
	}
	if err := m.bus.Publish(event); err != nil {
		m.log.Warn("failed to publish event",
			logger.String("event_type", string(event.EventType())),
			logger.Err(err),
		)
	}
}
