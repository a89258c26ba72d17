package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"salon/internal/apperr"
)

type signup struct {
	Name            string `json:"name" validate:"notblank"`
	Email           string `json:"email" validate:"required,email"`
	Age             int    `json:"age" validate:"gt=0"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

func TestStruct(t *testing.T) {
	ok := signup{Name: "Danu", Email: "danu@example.com", Age: 30, Password: "secret1", ConfirmPassword: "secret1"}
	assert.NoError(t, Struct(ok))

	tests := []struct {
		name    string
		mutate  func(*signup)
		message string
	}{
		{"blank name", func(s *signup) { s.Name = "   " }, "Field 'name' is required"},
		{"bad email", func(s *signup) { s.Email = "nope" }, "Field 'email' must be a valid email"},
		{"negative age", func(s *signup) { s.Age = -1 }, "Field 'age' must be greater than 0"},
		{"mismatch", func(s *signup) { s.ConfirmPassword = "other" }, "Field 'confirmPassword' must match 'Password'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := ok
			tt.mutate(&in)
			err := Struct(in)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
			assert.Equal(t, tt.message, apperr.Message(err))
		})
	}
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("email", "a@b.co", "required,email"))
	err := Var("email", "", "required,email")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, "Field 'email' is required", apperr.Message(err))
}
