package didactic

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/iq-didactic/didactic-portal/internal/domain/identity"
	"github.com/iq-didactic/didactic-portal/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST DTOs
// ══════════════════════════════════════════════════════════════════════════════

// RegisterRequestDTO is the body for POST /api/auth/register.
type RegisterRequestDTO struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	FullName          string `json:"full_name"`
	PreferredLanguage string `json:"preferred_language,omitempty"`
	Phone             string `json:"phone,omitempty"`
	Country           string `json:"country,omitempty"`
	Occupation        string `json:"occupation,omitempty"`
}

// LoginRequestDTO is the body for POST /api/auth/login.
type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE DTOs
// ══════════════════════════════════════════════════════════════════════════════

// TokenDTO is the response of POST /api/auth/login.
type TokenDTO struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UserDTO is the user record as the API serves it. Timestamps stay strings
// here; the server emits ISO 8601 with and without a timezone suffix, so
// parsing is lenient and lives in the mapper.
type UserDTO struct {
	ID                string `json:"id"`
	StudentID         string `json:"student_id"`
	Email             string `json:"email"`
	FullName          string `json:"full_name"`
	Phone             string `json:"phone,omitempty"`
	Country           string `json:"country,omitempty"`
	Occupation        string `json:"occupation,omitempty"`
	Role              string `json:"role"`
	ProfilePicture    string `json:"profile_picture,omitempty"`
	PreferredLanguage string `json:"preferred_language"`
	EmailVerified     bool   `json:"email_verified"`
	ProfileCompletion int    `json:"profile_completion"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

// ToDomain maps the wire record to the domain user. The raw role string is
// normalized into the Role enum here, at the boundary where it first arrives.
func (d UserDTO) ToDomain() *identity.User {
	return &identity.User{
		ID:                d.ID,
		StudentID:         shared.StudentID(d.StudentID),
		Email:             d.Email,
		FullName:          d.FullName,
		Phone:             d.Phone,
		Country:           d.Country,
		Occupation:        d.Occupation,
		Role:              identity.ParseRole(d.Role),
		RawRole:           d.Role,
		ProfilePicture:    d.ProfilePicture,
		PreferredLanguage: shared.NormalizeLanguage(d.PreferredLanguage),
		EmailVerified:     d.EmailVerified,
		ProfileCompletion: d.ProfileCompletion,
		CreatedAt:         parseAPITime(d.CreatedAt),
		UpdatedAt:         parseAPITime(d.UpdatedAt),
	}
}

// parseAPITime parses the timestamp formats the API emits. A zero time is
// returned for anything unparseable; timestamps are display-only here.
func parseAPITime(raw string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// OverviewStatsDTO is the response of GET /api/admin/stats/overview.
type OverviewStatsDTO struct {
	Users struct {
		Total    int `json:"total"`
		Students int `json:"students"`
		Teachers int `json:"teachers"`
		Admins   int `json:"admins"`
	} `json:"users"`
	Courses struct {
		Total       int `json:"total"`
		Published   int `json:"published"`
		Draft       int `json:"draft"`
		Enrollments int `json:"enrollments"`
	} `json:"courses"`
}

// UploadResponseDTO is the response of POST /api/upload/profile-picture.
type UploadResponseDTO struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

// PasswordResetDTO is the response of the admin password reset endpoints.
type PasswordResetDTO struct {
	Message     string `json:"message"`
	UserID      string `json:"user_id"`
	Email       string `json:"email,omitempty"`
	NewPassword string `json:"new_password,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR DTO
// ══════════════════════════════════════════════════════════════════════════════

// APIErrorDTO is the API's error envelope: {"detail": ...} where detail is
// usually a string but may be a structured validation list.
type APIErrorDTO struct {
	StatusCode int             `json:"-"`
	Detail     json.RawMessage `json:"detail"`
}

// Error implements the error interface.
func (e *APIErrorDTO) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.DetailString())
}

// DetailString flattens the detail field into the message shown to the user,
// verbatim when the server sent a plain string.
func (e *APIErrorDTO) DetailString() string {
	if len(e.Detail) == 0 {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}

	var s string
	if err := json.Unmarshal(e.Detail, &s); err == nil {
		return s
	}

	// Structured validation detail: [{"loc": [...], "msg": "...", ...}, ...]
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(e.Detail, &items); err == nil && len(items) > 0 {
		msg := items[0].Msg
		for _, it := range items[1:] {
			msg += "; " + it.Msg
		}
		return msg
	}

	return string(e.Detail)
}
