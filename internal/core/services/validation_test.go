package services

import (
	"strings"
	"testing"

	"langlearn-api/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordPolicy_Check(t *testing.T) {
	t.Parallel()

	strict := PasswordPolicy{MinLength: 4, RequireDigit: true, RequireUpper: true, RequireLower: true, RequireSymbol: true}

	tests := []struct {
		name   string
		policy PasswordPolicy
		pw     string
		want   []string
	}{
		{name: "reference password", policy: strict, pw: "Pw1!", want: nil},
		{name: "unicode letters", policy: strict, pw: "Пароль1!", want: nil},
		{name: "only lower", policy: strict, pw: "abcdef", want: []string{
			"must contain a digit",
			"must contain an uppercase letter",
			"must contain a non-alphanumeric character",
		}},
		{name: "too short", policy: strict, pw: "P1!", want: []string{"must be at least 4 characters", "must contain a lowercase letter"}},
		{name: "relaxed", policy: PasswordPolicy{MinLength: 4}, pw: "abcd", want: nil},
		{name: "over bcrypt limit", policy: PasswordPolicy{MinLength: 1}, pw: strings.Repeat("a", 73), want: []string{"must be at most 72 bytes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Check(tt.pw))
		})
	}
}

func TestValidator_ForgotPassword(t *testing.T) {
	t.Parallel()

	v := NewValidator(PasswordPolicy{MinLength: 4})
	require.NoError(t, v.ForgotPassword(ForgotPasswordInput{Email: "alice@x.com"}))

	err := v.ForgotPassword(ForgotPasswordInput{Email: ""})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"email: cannot be blank"}, ve.Reasons)
}

func TestValidator_RegisterAcceptsReferenceUser(t *testing.T) {
	t.Parallel()

	v := NewValidator(PasswordPolicy{MinLength: 4, RequireDigit: true, RequireUpper: true, RequireLower: true, RequireSymbol: true})
	assert.NoError(t, v.Register(RegisterInput{Email: "alice@x.com", Username: "alice", Password: "Pw1!"}))
}

func TestValidator_RegisterRejectsEmailAsUsername(t *testing.T) {
	t.Parallel()

	v := NewValidator(PasswordPolicy{MinLength: 4})

	err := v.Register(RegisterInput{Email: "bob@x.com", Username: "alice@x.com", Password: "abcd"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"username: must not be an email address"}, ve.Reasons)

	require.NoError(t, v.Register(RegisterInput{Email: "bob@x.com", Username: "bob+en.learner", Password: "abcd"}))
}
