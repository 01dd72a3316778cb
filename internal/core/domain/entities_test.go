package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_Status(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name    string
		lockout *time.Time
		want    AccountStatus
	}{
		{name: "no lockout", lockout: nil, want: StatusActive},
		{name: "lockout elapsed", lockout: &past, want: StatusActive},
		{name: "lockout ahead", lockout: &future, want: StatusBlocked},
		{name: "blocked forever", lockout: &BlockedForever, want: StatusBlocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{LockoutUntil: tt.lockout}
			assert.Equal(t, tt.want, u.Status(now))
		})
	}
}

func TestUser_Roles(t *testing.T) {
	u := &User{}
	assert.Equal(t, RoleUser, u.PrimaryRole())

	u.AddRole(RoleAdmin)
	u.AddRole(RoleAdmin)
	u.AddRole(RoleUser)

	assert.Equal(t, []Role{RoleAdmin, RoleUser}, u.Roles)
	assert.True(t, u.HasRole(RoleUser))
	assert.Equal(t, RoleAdmin, u.PrimaryRole())
	assert.Equal(t, []string{"Admin", "User"}, u.RoleNames())
	assert.False(t, Role("Guest").Valid())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@x.com", NormalizeEmail("  Alice@X.com "))
}

func TestValidationError(t *testing.T) {
	err := error(NewValidationError("email: cannot be blank", "password: cannot be blank"))

	require.True(t, errors.Is(err, ErrValidationFailed))
	assert.Equal(t, "validation failed: email: cannot be blank; password: cannot be blank", err.Error())

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Reasons, 2)
	assert.Equal(t, "validation failed", NewValidationError().Error())
}
