package main

import (
	"testing"

	"github.com/sbms/facilities-server/internal/auth"
	"github.com/sbms/facilities-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	u, err := newUser("sparky", models.RoleOfficer, "Electrical", "pw", false)
	require.NoError(t, err)
	require.NotNil(t, u.Department)
	assert.Equal(t, "Electrical", *u.Department)
	assert.NotEqual(t, "pw", u.Password)
	assert.True(t, auth.CheckPassword(u.Password, "pw"))

	u, err = newUser("kim", models.RoleStudent, "", "pw", true)
	require.NoError(t, err)
	assert.Equal(t, "pw", u.Password)
	assert.Nil(t, u.Department)

	for name, tc := range map[string]struct {
		role models.Role
		dept string
	}{
		"unknown role":         {"janitor", ""},
		"officer without dept": {models.RoleOfficer, ""},
		"student with dept":    {models.RoleStudent, "IT"},
	} {
		_, err := newUser("x", tc.role, tc.dept, "pw", true)
		assert.Error(t, err, name)
	}
}

func TestRootCommandWiring(t *testing.T) {
	root := rootCmd()
	for _, name := range []string{"migrate", "seed", "adduser", "leaderboard", "version"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}
