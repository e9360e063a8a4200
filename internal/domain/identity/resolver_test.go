package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		raw  string
		want Role
	}{
		{"admin", RoleAdmin},
		{"administrator", RoleAdmin},
		{"Admin", RoleAdmin},
		{"ADMINISTRATOR", RoleAdmin},
		{"  admin  ", RoleAdmin},
		{"teacher", RoleTeacher},
		{"instructor", RoleTeacher},
		{"Instructor", RoleTeacher},
		{"student", RoleStudent},
		{"STUDENT", RoleStudent},
		{"", RoleUnknown},
		{"superuser", RoleUnknown},
		{"moderator", RoleUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseRole(tt.raw), "ParseRole(%q)", tt.raw)
	}
}

func TestResolve_RoleMapping(t *testing.T) {
	assert.Equal(t, DestinationAdminConsole, Resolve(RoleAdmin))
	assert.Equal(t, DestinationDashboard, Resolve(RoleTeacher))
	assert.Equal(t, DestinationDashboard, Resolve(RoleStudent))
	assert.Equal(t, DestinationDashboard, Resolve(RoleUnknown))
}

func TestResolve_CaseInsensitive(t *testing.T) {
	assert.Equal(t, ResolveRoleString("admin"), ResolveRoleString("Admin"))
	assert.Equal(t, ResolveRoleString("admin"), ResolveRoleString("ADMINISTRATOR"))
	assert.Equal(t, ResolveRoleString("teacher"), ResolveRoleString("Instructor"))
}

func TestResolve_FailOpenTotality(t *testing.T) {
	// Any role string, including garbage and empty, must resolve to a real
	// destination so that no authenticated user hits a dead end.
	for _, raw := range []string{"", "null", "ADMIN ", "guest", "超级用户", "role-we-add-next-year"} {
		dest := ResolveRoleString(raw)
		assert.Contains(t, []Destination{DestinationDashboard, DestinationAdminConsole}, dest)
		assert.NotEmpty(t, dest.Path())
	}
}

func TestDestination_Path(t *testing.T) {
	assert.Equal(t, "/admin", DestinationAdminConsole.Path())
	assert.Equal(t, "/dashboard", DestinationDashboard.Path())
}
