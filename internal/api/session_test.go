package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_SignedOut(t *testing.T) {
	s := setupTestServer(t)

	resp, err := s.Client.GET("/api/session")
	require.NoError(t, err)

	var session SessionResponse
	require.NoError(t, readJSON(resp, &session))
	assert.False(t, session.Authenticated)
	assert.Nil(t, session.User)
	assert.Nil(t, session.CurrentAccount)
}

func TestSession_LoginAndLogout(t *testing.T) {
	s := setupTestServer(t)

	resp, err := s.Client.POST("/api/session/login", LoginRequest{Email: "admin@example.com", Password: "password"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var session SessionResponse
	require.NoError(t, readJSON(resp, &session))
	assert.True(t, session.Authenticated)
	require.NotNil(t, session.User)
	assert.Equal(t, "Admin User", session.User.Name)
	require.NotNil(t, session.CurrentAccount)
	assert.Equal(t, "Marketing Bot", session.CurrentAccount.Name)
	assert.Equal(t, "1", s.Runtime.AccountID())

	resp, err = s.Client.POST("/api/session/logout", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.False(t, s.Store.IsAuthenticated())
}

func TestSession_LoginRejected(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name string
		body LoginRequest
	}{
		{"wrong password", LoginRequest{Email: "admin@example.com", Password: "nope"}},
		{"unknown user", LoginRequest{Email: "ghost@example.com", Password: "password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := s.Client.POST("/api/session/login", tt.body)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Contains(t, readBody(resp), "Invalid email or password")
		})
	}

	assert.False(t, s.Store.IsAuthenticated())
}
