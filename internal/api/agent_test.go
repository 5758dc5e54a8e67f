package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp-agent/internal/agent"
)

func TestAgent_StatusReflectsCurrentAccount(t *testing.T) {
	s := setupActiveServer(t)

	resp, err := s.Client.GET("/api/agent")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var status AgentStatusResponse
	require.NoError(t, readJSON(resp, &status))
	assert.True(t, status.Active)
	assert.Equal(t, "1", status.AccountID)
	assert.Equal(t, "business", status.Backend)
	assert.Equal(t, "gpt-4", status.Model)
	assert.Equal(t, 500, status.MaxTokens)
	assert.Equal(t, "marketing@example.com", status.TranscriptEmail)
	assert.Equal(t, "thank you,goodbye,end,done", status.EndKeywords)
	assert.Equal(t, "123456789", status.GroupID)
	assert.Nil(t, status.LastRequest)

	require.Len(t, status.ReplyCategories, 4)
	assert.Equal(t, "pricing", status.ReplyCategories[0].Name)
	assert.Equal(t, []string{"pricing", "cost"}, status.ReplyCategories[0].Keywords)
}

func TestAgent_StatusShowsPreparedRequest(t *testing.T) {
	s := setupActiveServer(t)

	resp, err := s.Client.POST("/api/test-message", TestMessageRequest{PhoneNumber: "+15551234567", Message: "hello"})
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = s.Client.GET("/api/agent")
	require.NoError(t, err)
	var status AgentStatusResponse
	require.NoError(t, readJSON(resp, &status))

	// business prompt plus the user message
	require.NotNil(t, status.LastRequest)
	assert.Equal(t, "gpt-4", status.LastRequest.Model)
	assert.Equal(t, 500, status.LastRequest.MaxTokens)
	assert.Equal(t, 2, status.LastRequest.MessageCount)
	assert.Equal(t, "user", status.LastRequest.LastRole)
}

func TestAgent_StatusSignedOut(t *testing.T) {
	s := setupTestServer(t)

	resp, err := s.Client.GET("/api/agent")
	require.NoError(t, err)

	var status AgentStatusResponse
	require.NoError(t, readJSON(resp, &status))
	assert.False(t, status.Active)
	assert.Empty(t, status.AccountID)
	assert.Empty(t, status.Backend)
}

func TestAgent_Update(t *testing.T) {
	s := setupActiveServer(t)

	resp, err := s.Client.PUT("/api/agent", map[string]bool{"active": false})
	require.NoError(t, err)
	var status AgentStatusResponse
	require.NoError(t, readJSON(resp, &status))
	assert.False(t, status.Active)
	assert.False(t, s.Runtime.Active())

	resp, err = s.Client.PUT("/api/agent", `{}`)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = s.Client.PUT("/api/agent", `{bad`)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAgent_TestMessage(t *testing.T) {
	s := setupActiveServer(t)

	resp, err := s.Client.POST("/api/test-message", TestMessageRequest{PhoneNumber: "+15551234567", Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, readJSON(resp, &body))
	assert.NotEmpty(t, body["response"])

	conv, ok := s.Runtime.Directory().FindActiveByPhone("+15551234567")
	require.True(t, ok)
	assert.Len(t, conv.Messages, 2)
}

func TestAgent_TestMessageInactive(t *testing.T) {
	s := setupTestServer(t)

	resp, err := s.Client.POST("/api/test-message", TestMessageRequest{PhoneNumber: "+15551234567", Message: "hello"})
	require.NoError(t, err)

	var body map[string]string
	require.NoError(t, readJSON(resp, &body))
	assert.Equal(t, agent.InactiveMessage, body["response"])
	assert.Empty(t, s.Runtime.Directory().List())
}

func TestAgent_TestMessageValidation(t *testing.T) {
	s := setupActiveServer(t)

	tests := []struct {
		name string
		body any
	}{
		{"missing phone", TestMessageRequest{Message: "hi"}},
		{"blank message", TestMessageRequest{PhoneNumber: "+1555", Message: "   "}},
		{"malformed", `{"phone_number":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := s.Client.POST("/api/test-message", tt.body)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestAgent_Notify(t *testing.T) {
	s := setupActiveServer(t)

	resp, err := s.Client.POST("/api/notifications", NotificationRequest{Subject: "Agent started", Message: "Ready"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]bool
	require.NoError(t, readJSON(resp, &body))
	assert.True(t, body["sent"])

	emails := s.Runtime.Notifier().Outbox()
	require.Len(t, emails, 1)
	assert.Equal(t, "alerts@example.com", emails[0].To)
}

func TestAgent_NotifyUnconfigured(t *testing.T) {
	s := setupTestServer(t)

	resp, err := s.Client.POST("/api/notifications", NotificationRequest{Subject: "x"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body map[string]bool
	require.NoError(t, readJSON(resp, &body))
	assert.False(t, body["sent"])
}

func TestAgent_Outbox(t *testing.T) {
	s := setupActiveServer(t)

	resp, err := s.Client.POST("/api/test-message", TestMessageRequest{PhoneNumber: "+15551234567", Message: "goodbye"})
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = s.Client.GET("/api/outbox")
	require.NoError(t, err)

	var outbox OutboxResponse
	require.NoError(t, readJSON(resp, &outbox))

	// goodbye to the user, then the group transcript
	require.Len(t, outbox.Messages, 2)
	assert.Equal(t, "+15551234567", outbox.Messages[0].To)
	assert.Equal(t, "15551234567", outbox.Messages[0].Recipient)
	assert.False(t, outbox.Messages[0].Group)
	assert.Equal(t, "123456789", outbox.Messages[1].To)
	assert.Equal(t, "123456789@g.us", outbox.Messages[1].Recipient)
	assert.True(t, outbox.Messages[1].Group)

	require.Len(t, outbox.Emails, 1)
	assert.Equal(t, "marketing@example.com", outbox.Emails[0].To)
}
