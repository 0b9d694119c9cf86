package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Role_DashboardPath(t *testing.T) {
	cases := map[string]string{
		"student":    "/student",
		"supervisor": "/supervisor",
		"admin":      "/admin",
		"ADMIN ":     "/admin",
		"examiner":   "/",
		"":           "/",
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseRole(in).DashboardPath(), in)
	}
}

func Test_Role_decodesFromProfile(t *testing.T) {
	var u User
	assert.NoError(t, json.Unmarshal([]byte(`{"id":1,"email":"x@uni.edu","role":"registrar"}`), &u))
	assert.Equal(t, RoleUnknown, u.Role)
	assert.False(t, u.Role.Valid())

	assert.NoError(t, json.Unmarshal([]byte(`{"id":1,"role":"supervisor"}`), &u))
	assert.Equal(t, RoleSupervisor, u.Role)
	assert.True(t, u.Role.Valid())
}

func Test_Session_Authenticated(t *testing.T) {
	var nilSession *Session
	assert.False(t, nilSession.Authenticated())
	assert.False(t, (&Session{Tokens: TokenPair{Access: "a"}}).Authenticated())
	assert.False(t, (&Session{User: &User{}}).Authenticated())

	s := &Session{Tokens: TokenPair{Access: "a"}, User: &User{Role: RoleAdmin}}
	assert.True(t, s.Authenticated())
	assert.Equal(t, RoleAdmin, s.Role())
}
