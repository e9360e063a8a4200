// Package identity contains the server-asserted user identity model and the
// role-to-destination resolution rules. This is pure domain logic with no
// external dependencies.
package identity

import (
	"strings"
	"time"

	"github.com/iq-didactic/didactic-portal/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROLE
// ══════════════════════════════════════════════════════════════════════════════

// Role is the tagged enumeration of user roles. The raw role string from the
// API is normalized exactly once, here; downstream logic matches on the enum
// and never compares strings again.
type Role int

const (
	// RoleUnknown covers absent, empty, or unrecognized role strings.
	RoleUnknown Role = iota
	// RoleStudent is the default platform role.
	RoleStudent
	// RoleTeacher covers teaching staff.
	RoleTeacher
	// RoleAdmin covers platform administrators.
	RoleAdmin
)

// String returns the canonical lower-case name of the role.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleTeacher:
		return "teacher"
	case RoleStudent:
		return "student"
	default:
		return "unknown"
	}
}

// ParseRole maps a raw role string to a Role, case-insensitively. Several
// source strings alias one role; anything unrecognized is RoleUnknown.
func ParseRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin", "administrator":
		return RoleAdmin
	case "teacher", "instructor":
		return RoleTeacher
	case "student":
		return RoleStudent
	default:
		return RoleUnknown
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// USER
// ══════════════════════════════════════════════════════════════════════════════

// User is the server-asserted identity of the logged-in person. It is a
// read-only snapshot: only the API can change it, and the session manager is
// the only component that replaces it.
type User struct {
	ID                string
	StudentID         shared.StudentID
	Email             string
	FullName          string
	Phone             string
	Country           string
	Occupation        string
	Role              Role
	RawRole           string // as the server sent it, for display
	ProfilePicture    string
	PreferredLanguage shared.Language
	EmailVerified     bool
	ProfileCompletion int // percentage, server-computed
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// profileFields returns the fields that count toward profile completion,
// mirroring the server's calculation so the UI can render an estimate even
// when the server value is stale.
func (u *User) profileFields() []string {
	return []string{
		u.FullName,
		u.Email,
		u.Phone,
		u.Country,
		u.Occupation,
		u.ProfilePicture,
	}
}

// CompletionPercent recomputes the profile completion percentage locally.
// The server value in ProfileCompletion wins when present; a Refetch after a
// profile mutation resynchronizes it.
func (u *User) CompletionPercent() int {
	fields := u.profileFields()
	completed := 0
	for _, f := range fields {
		if f != "" {
			completed++
		}
	}
	return completed * 100 / len(fields)
}

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRATION
// ══════════════════════════════════════════════════════════════════════════════

// Registration is the profile submitted when creating an account.
type Registration struct {
	Email             string
	Password          string
	FullName          string
	PreferredLanguage string
	Phone             string
	Country           string
	Occupation        string
}

// Validate performs the cheap client-side checks before a round trip. The
// server remains the authority; its rejections surface verbatim.
func (r Registration) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return shared.ErrEmptyEmail
	}
	if r.Password == "" {
		return shared.ErrEmptyPassword
	}
	if strings.TrimSpace(r.FullName) == "" {
		return shared.ErrEmptyFullName
	}
	if _, err := shared.NewEmail(r.Email); err != nil {
		return err
	}
	return nil
}

// Normalized returns a copy with email and language normalized.
func (r Registration) Normalized() Registration {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.PreferredLanguage = string(shared.NormalizeLanguage(r.PreferredLanguage))
	return r
}
