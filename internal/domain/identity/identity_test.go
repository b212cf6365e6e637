package identity

import (
	"errors"
	"testing"
	"time"

	"github.com/alfalah/schooladmin/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCredentials(t *testing.T) {
	c, err := NewCredentials("  Admin@School.PK ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "admin@school.pk", c.Email)

	_, err = NewCredentials("not-an-email", "secret")
	assert.True(t, shared.IsValidation(err))

	_, err = NewCredentials("admin@school.pk", "")
	assert.Equal(t, CodeInvalidPassword, shared.Code(err))
}

func TestNewRegistration(t *testing.T) {
	r, err := NewRegistration(" Ali ", "Khan", "ali@school.pk", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Ali", r.FirstName)

	_, err = NewRegistration("", "Khan", "ali@school.pk", "secret1")
	assert.Equal(t, CodeInvalidName, shared.Code(err))

	_, err = NewRegistration("Ali", "Khan", "ali@school.pk", "123")
	assert.Equal(t, CodeInvalidPassword, shared.Code(err))
}

func TestNewPasswordChange(t *testing.T) {
	tests := []struct {
		name    string
		userID  string
		current string
		next    string
		confirm string
		code    string
	}{
		{"valid", "u1", "old", "newpass", "newpass", ""},
		{"mismatch", "u1", "old", "newpass", "newpasz", CodePasswordMismatch},
		{"no user", "", "old", "newpass", "newpass", CodeNotAuthenticated},
		{"missing current", "u1", "", "newpass", "newpass", CodeInvalidPassword},
		{"too short", "u1", "old", "abc", "abc", CodeInvalidPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc, err := NewPasswordChange(tt.userID, tt.current, tt.next, tt.confirm)
			if tt.code == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.next, pc.NewPassword)
				return
			}
			assert.Equal(t, tt.code, shared.Code(err))
		})
	}
}

func TestSessionRoundTrip(t *testing.T) {
	saved := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewSession(User{ID: "u1", FirstName: "Sara", LastName: "Ahmed", Email: "sara@school.pk"}, saved)

	data, err := EncodeSession(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"schemaVersion": 1`)

	restored, err := DecodeSession(data)
	require.NoError(t, err)
	assert.True(t, restored.Active())
	assert.Equal(t, "Sara Ahmed", restored.User.FullName())
	assert.True(t, restored.SavedAt.Equal(saved))
}

func TestDecodeSession_UnknownVersion(t *testing.T) {
	_, err := DecodeSession([]byte(`{"schemaVersion":2,"user":{"_id":"u1"},"isAuthenticated":true}`))
	assert.True(t, errors.Is(err, ErrUnknownSchema))

	_, err = DecodeSession([]byte(`{"user":{"_id":"u1"},"isAuthenticated":true}`))
	assert.True(t, errors.Is(err, ErrUnknownSchema))
}

func TestDecodeSession_NotAuthenticated(t *testing.T) {
	s, err := DecodeSession([]byte(`{"schemaVersion":1,"user":{"_id":"u1"},"isAuthenticated":false}`))
	require.NoError(t, err)
	assert.False(t, s.Active())
	assert.Nil(t, s.User)
}

func TestDecodeSession_Garbage(t *testing.T) {
	_, err := DecodeSession([]byte(`{not json`))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnknownSchema))
}
