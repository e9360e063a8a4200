package http

import (
	"net/http"

	"github.com/iq-didactic/didactic-portal/internal/application/auth"
	"github.com/iq-didactic/didactic-portal/internal/domain/identity"
	"github.com/iq-didactic/didactic-portal/internal/domain/session"
	"github.com/iq-didactic/didactic-portal/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROUTE GATE
// ══════════════════════════════════════════════════════════════════════════════

// GateState is the route gate's verdict for a request.
type GateState int

const (
	// GateLoading means the session is still being restored; the gate
	// shows a holding page instead of guessing.
	GateLoading GateState = iota

	// GateDenied means the request may not proceed and is redirected.
	GateDenied

	// GateGranted means the request proceeds to the handler.
	GateGranted
)

// String returns the string representation of the gate state.
func (g GateState) String() string {
	switch g {
	case GateLoading:
		return "loading"
	case GateDenied:
		return "denied"
	case GateGranted:
		return "granted"
	default:
		return "unknown"
	}
}

// RouteGate decides, per request, whether the current session may see a
// screen. It never renders a protected screen while the session is still
// validating, and it never sends an authenticated user to the login screen.
type RouteGate struct {
	session *auth.Manager
	logger  *logger.Logger
}

// NewRouteGate creates a route gate over the session manager.
func NewRouteGate(session *auth.Manager, log *logger.Logger) *RouteGate {
	if log == nil {
		log = logger.Default()
	}
	return &RouteGate{
		session: session,
		logger:  log.With(logger.Component("route_gate")),
	}
}

// Decide returns the verdict for a session against a protected route and,
// for a denial, the path to redirect to. adminOnly marks routes reserved
// for users whose role resolves to the admin console.
func Decide(sess session.Session, adminOnly bool) (GateState, string) {
	if sess.Loading() {
		return GateLoading, ""
	}

	if sess.Status != session.StatusAuthenticated {
		return GateDenied, "/login"
	}

	if adminOnly && identity.Resolve(sess.User.Role) != identity.DestinationAdminConsole {
		// Authenticated but not an admin: back to their own landing page.
		return GateDenied, identity.Resolve(sess.User.Role).Path()
	}

	return GateGranted, ""
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// Protect guards a route group behind an authenticated session.
func (g *RouteGate) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		verdict, target := Decide(g.session.Current(), false)
		switch verdict {
		case GateLoading:
			renderLoading(w)
		case GateDenied:
			g.logger.Debug("gate denied", logger.Route(r.URL.Path))
			http.Redirect(w, r, target, http.StatusSeeOther)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// RequireAdmin guards a route group behind the admin console destination.
// It runs after Protect, so the session is known to be authenticated.
func (g *RouteGate) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		verdict, target := Decide(g.session.Current(), true)
		if verdict != GateGranted {
			if target == "" {
				target = "/login"
			}
			g.logger.Info("admin route denied",
				logger.Route(r.URL.Path),
				logger.String("redirect", target),
			)
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RedirectAuthenticated keeps signed-in users off the login and registration
// screens; they land on their role's destination instead. Redirecting to the
// page they are already on never happens: the destinations and the auth
// screens are disjoint.
func (g *RouteGate) RedirectAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := g.session.Current()
		if sess.Authenticated() {
			http.Redirect(w, r, identity.Resolve(sess.User.Role).Path(), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
