package identity

// Destination is a navigation target for an authenticated user.
type Destination int

const (
	// DestinationDashboard is the standard student/teacher dashboard.
	DestinationDashboard Destination = iota
	// DestinationAdminConsole is the administrative console.
	DestinationAdminConsole
)

// String returns a human-readable name for logging.
func (d Destination) String() string {
	switch d {
	case DestinationAdminConsole:
		return "admin_console"
	default:
		return "dashboard"
	}
}

// Path returns the route the destination lives at.
func (d Destination) Path() string {
	switch d {
	case DestinationAdminConsole:
		return "/admin"
	default:
		return "/dashboard"
	}
}

// Resolve maps a role to its landing destination. Total by construction:
// unknown or future role values land on the standard dashboard so that every
// authenticated user reaches a usable view, never a dead end.
func Resolve(role Role) Destination {
	switch role {
	case RoleAdmin:
		return DestinationAdminConsole
	case RoleTeacher, RoleStudent:
		return DestinationDashboard
	default:
		return DestinationDashboard
	}
}

// ResolveRoleString parses and resolves a raw role string in one step, for
// callers that sit at the boundary where the string first arrives.
func ResolveRoleString(raw string) Destination {
	return Resolve(ParseRole(raw))
}
