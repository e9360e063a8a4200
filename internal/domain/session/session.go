// Package session contains the session state machine: the authority on who is
// logged in right now. The session value itself is pure data; all mutation
// goes through the session manager in the application layer.
package session

import (
	"github.com/iq-didactic/didactic-portal/internal/domain/identity"
	"github.com/iq-didactic/didactic-portal/internal/domain/shared"
)

// Status is the lifecycle state of the session.
type Status int

const (
	// StatusUninitialized is the state at process start, before the
	// credential store has been consulted.
	StatusUninitialized Status = iota
	// StatusValidating means a persisted token was found and is being
	// revalidated against the API.
	StatusValidating
	// StatusAuthenticated means the API vouched for the token and a user
	// snapshot is held.
	StatusAuthenticated
	// StatusAnonymous means no usable credential exists.
	StatusAnonymous
)

// String returns the lower-case name of the status.
func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusValidating:
		return "validating"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is a resting state. The route gate may
// only make admission decisions once the session is terminal.
func (s Status) Terminal() bool {
	return s == StatusAuthenticated || s == StatusAnonymous
}

// Session is a point-in-time snapshot of the authentication state. Consumers
// receive copies and never mutate them.
//
// Invariants:
//   - User is non-nil iff Status == StatusAuthenticated.
//   - Token is non-empty only when Status is Validating or Authenticated.
type Session struct {
	Status Status
	User   *identity.User
	Token  string
}

// Loading reports whether the session has not yet reached a terminal state.
// Guarded views render a loading state, not an admission decision, while
// this is true.
func (s Session) Loading() bool {
	return !s.Status.Terminal()
}

// Authenticated reports whether a verified user is attached.
func (s Session) Authenticated() bool {
	return s.Status == StatusAuthenticated
}

// CheckInvariants verifies the structural invariants hold. It exists for
// tests and debug assertions; production code upholds the invariants by
// construction.
func (s Session) CheckInvariants() error {
	if (s.User != nil) != (s.Status == StatusAuthenticated) {
		return shared.NewDomainError("session", "CheckInvariants", shared.ErrInvalidState,
			"user must be present exactly when status is authenticated")
	}
	if s.Token != "" && s.Status != StatusValidating && s.Status != StatusAuthenticated {
		return shared.NewDomainError("session", "CheckInvariants", shared.ErrInvalidState,
			"token may only be held while validating or authenticated")
	}
	return nil
}
