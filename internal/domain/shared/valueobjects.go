package shared

import (
	"fmt"
	"regexp"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// EMAIL
// ══════════════════════════════════════════════════════════════════════════════

// Email represents a normalized email address.
type Email string

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// IsValid checks the email has a plausible shape. Real validation is the
// server's job; this only catches obvious typos before a round trip.
func (e Email) IsValid() bool {
	return emailPattern.MatchString(string(e))
}

// String returns the string representation.
func (e Email) String() string {
	return string(e)
}

// NewEmail normalizes and validates an email address.
func NewEmail(raw string) (Email, error) {
	e := Email(strings.ToLower(strings.TrimSpace(raw)))
	if e == "" {
		return "", ErrEmptyEmail
	}
	if !e.IsValid() {
		return "", NewDomainError("identity", "Validate", ErrInvalidInput, fmt.Sprintf("invalid email: %s", raw))
	}
	return e, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT ID
// ══════════════════════════════════════════════════════════════════════════════

// StudentID is the platform-assigned student identifier, format IQD-YYYY-XXXXX.
type StudentID string

var studentIDPattern = regexp.MustCompile(`^IQD-\d{4}-\d{5}$`)

// IsValid checks the IQD-YYYY-XXXXX format.
func (s StudentID) IsValid() bool {
	return studentIDPattern.MatchString(string(s))
}

// String returns the string representation.
func (s StudentID) String() string {
	return string(s)
}

// IsEmpty reports whether the ID is unset.
func (s StudentID) IsEmpty() bool {
	return s == ""
}

// ══════════════════════════════════════════════════════════════════════════════
// LANGUAGE
// ══════════════════════════════════════════════════════════════════════════════

// Language is a UI language preference carried through registration.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageFrench  Language = "fr"
)

// IsValid checks the language is one the platform supports.
func (l Language) IsValid() bool {
	return l == LanguageEnglish || l == LanguageFrench
}

// NormalizeLanguage maps an arbitrary preference string to a supported
// language, defaulting to English.
func NormalizeLanguage(raw string) Language {
	l := Language(strings.ToLower(strings.TrimSpace(raw)))
	if l.IsValid() {
		return l
	}
	return LanguageEnglish
}
