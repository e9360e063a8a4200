package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iq-didactic/didactic-portal/internal/domain/shared"
)

func TestUser_CompletionPercent(t *testing.T) {
	u := &User{Email: "a@b.com", FullName: "Ada Lovelace"}
	assert.Equal(t, 33, u.CompletionPercent())

	u.Phone = "+33 1 23 45 67 89"
	u.Country = "France"
	u.Occupation = "Engineer"
	u.ProfilePicture = "/uploads/ada.png"
	assert.Equal(t, 100, u.CompletionPercent())

	empty := &User{}
	assert.Equal(t, 0, empty.CompletionPercent())
}

func TestRegistration_Validate(t *testing.T) {
	valid := Registration{Email: "a@b.com", Password: "secret", FullName: "Ada"}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name string
		reg  Registration
		want error
	}{
		{"missing email", Registration{Password: "x", FullName: "Ada"}, shared.ErrEmptyEmail},
		{"missing password", Registration{Email: "a@b.com", FullName: "Ada"}, shared.ErrEmptyPassword},
		{"missing name", Registration{Email: "a@b.com", Password: "x"}, shared.ErrEmptyFullName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.reg.Validate()
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, shared.IsValidation(err))
		})
	}

	malformed := Registration{Email: "not-an-email", Password: "x", FullName: "Ada"}
	assert.True(t, shared.IsValidation(malformed.Validate()))
}

func TestRegistration_Normalized(t *testing.T) {
	r := Registration{Email: "  Ada@Example.COM ", PreferredLanguage: "DE"}
	n := r.Normalized()
	assert.Equal(t, "ada@example.com", n.Email)
	assert.Equal(t, "en", n.PreferredLanguage) // unsupported language falls back

	fr := Registration{Email: "a@b.com", PreferredLanguage: "fr"}.Normalized()
	assert.Equal(t, "fr", fr.PreferredLanguage)
}
