package auth

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	creds := []Credential{
		{Username: "admin", Password: "admin123", DisplayName: "Administrator", UserType: "Admin"},
		{Username: "viewer", Password: "view", UserType: "admin"},
		{Username: "jsw", Password: string(hash), DisplayName: "JSW Steel", UserType: "user"},
	}

	t.Run("plaintext match", func(t *testing.T) {
		u, ok := Authenticate(creds, "admin", "admin123")
		require.True(t, ok)
		assert.Equal(t, "Administrator", u.DisplayName)
		assert.True(t, u.IsAdmin())
		assert.True(t, u.IsFullAdmin())
		assert.False(t, u.IsLimitedAdmin())
	})

	t.Run("limited admin", func(t *testing.T) {
		u, ok := Authenticate(creds, "viewer", "view")
		require.True(t, ok)
		assert.True(t, u.IsAdmin())
		assert.False(t, u.IsFullAdmin())
		assert.True(t, u.IsLimitedAdmin())
		assert.Equal(t, "viewer", u.DisplayName)
	})

	t.Run("bcrypt hash", func(t *testing.T) {
		u, ok := Authenticate(creds, "jsw", "s3cret")
		require.True(t, ok)
		assert.False(t, u.IsAdmin())
		assert.Equal(t, TypeUser, u.UserType)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, ok := Authenticate(creds, "jsw", "nope")
		assert.False(t, ok)
	})

	t.Run("username is exact", func(t *testing.T) {
		_, ok := Authenticate(creds, "ADMIN", "admin123")
		assert.False(t, ok)
	})

	t.Run("empty input", func(t *testing.T) {
		_, ok := Authenticate(creds, "", "")
		assert.False(t, ok)
	})
}

func TestUserJSON(t *testing.T) {
	b, err := json.Marshal(User{Username: "admin", DisplayName: "A", UserType: TypeAdmin})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, true, got["isFullAdmin"])
	assert.Equal(t, false, got["isLimitedAdmin"])
	assert.Equal(t, "admin", got["userType"])
}

func TestContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithUser(context.Background(), User{Username: "jsw"})
	u, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "jsw", u.Username)
}
