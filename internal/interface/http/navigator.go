package http

import (
	"sync"

	"github.com/iq-didactic/didactic-portal/internal/domain/identity"
	"github.com/iq-didactic/didactic-portal/internal/domain/shared"
	"github.com/iq-didactic/didactic-portal/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// NAVIGATOR
// ══════════════════════════════════════════════════════════════════════════════

// Navigator translates session lifecycle events into the path the user
// should land on next. It is driven entirely by events: authentication
// points it at the role's destination, a cleared session points it back at
// the login screen. Handlers read it after a flow completes instead of
// re-deriving the destination themselves.
type Navigator struct {
	mu   sync.RWMutex
	path string
	log  *logger.Logger
}

// NewNavigator creates a navigator and subscribes it to session events.
func NewNavigator(bus shared.EventSubscriber, log *logger.Logger) (*Navigator, error) {
	if log == nil {
		log = logger.Default()
	}

	n := &Navigator{
		path: "/login",
		log:  log.With(logger.Component("navigator")),
	}

	if err := bus.Subscribe(shared.EventSessionAuthenticated, n.onAuthenticated); err != nil {
		return nil, err
	}
	if err := bus.Subscribe(shared.EventSessionCleared, n.onCleared); err != nil {
		return nil, err
	}

	return n, nil
}

// Current returns the path the user should be on.
func (n *Navigator) Current() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.path
}

func (n *Navigator) onAuthenticated(event shared.Event) error {
	role := identity.ParseRole(stringPayload(event, "role"))
	dest := identity.Resolve(role)

	n.mu.Lock()
	n.path = dest.Path()
	n.mu.Unlock()

	n.log.Debug("navigation target updated",
		logger.Role(role.String()),
		logger.Route(dest.Path()),
	)
	return nil
}

func (n *Navigator) onCleared(event shared.Event) error {
	n.mu.Lock()
	n.path = "/login"
	n.mu.Unlock()

	n.log.Debug("navigation target reset",
		logger.Reason(stringPayload(event, "reason")),
	)
	return nil
}

// stringPayload reads a string field from an event payload.
func stringPayload(event shared.Event, key string) string {
	if v, ok := event.Payload()[key].(string); ok {
		return v
	}
	return ""
}
