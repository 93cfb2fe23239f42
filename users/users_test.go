package users_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-studio-client/users"
	"github.com/stretchr/testify/require"
)

func TestUser_UnmarshalAcceptsMongoID(t *testing.T) {
	var u users.User
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"abc","email":"a@b.com","role":"admin"}`), &u))
	require.Equal(t, "abc", u.ID)
	require.True(t, u.IsAdmin())
	require.True(t, u.Valid())
}

func TestUser_DefaultsToMemberRole(t *testing.T) {
	var u users.User
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","email":"a@b.com"}`), &u))
	require.Equal(t, users.RoleMember, u.Role)
	require.False(t, u.IsAdmin())
}

func TestUser_NilIsNotAdmin(t *testing.T) {
	var u *users.User
	require.False(t, u.IsAdmin())
	require.False(t, u.Valid())
}
