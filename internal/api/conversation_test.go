package api

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp-agent/internal/conversation"
	"whatsapp-agent/internal/models"
)

func TestListConversations_Empty(t *testing.T) {
	s := setupTestServer(t)

	resp, err := s.Client.GET("/api/conversations")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var list []ConversationResponse
	require.NoError(t, readJSON(resp, &list))
	assert.Empty(t, list)
}

func TestListConversations_OmitsMessages(t *testing.T) {
	s := setupActiveServer(t)
	ctx := context.Background()

	_, err := s.Runtime.ProcessTestMessage(ctx, "+15550000001", "hello")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = s.Runtime.ProcessTestMessage(ctx, "+15550000002", "hello")
	require.NoError(t, err)

	resp, err := s.Client.GET("/api/conversations")
	require.NoError(t, err)

	var list []ConversationResponse
	require.NoError(t, readJSON(resp, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "+15550000002", list[0].PhoneNumber, "most recent first")
	for _, c := range list {
		assert.Empty(t, c.Messages)
		assert.Equal(t, string(models.StatusActive), c.Status)
	}
}

func TestGetConversation(t *testing.T) {
	s := setupActiveServer(t)

	_, err := s.Runtime.ProcessTestMessage(context.Background(), "+15551234567", "What are your hours?")
	require.NoError(t, err)
	conv, ok := s.Runtime.Directory().FindActiveByPhone("+15551234567")
	require.True(t, ok)

	resp, err := s.Client.GET("/api/conversations/" + conv.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got ConversationResponse
	require.NoError(t, readJSON(resp, &got))
	assert.Equal(t, conv.ID, got.ID)
	assert.Equal(t, "User (4567)", got.DisplayName)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "user", got.Messages[0].Sender)
	assert.Equal(t, "agent", got.Messages[1].Sender)
}

func TestGetConversation_NotFound(t *testing.T) {
	s := setupTestServer(t)

	resp, err := s.Client.GET("/api/conversations/conv_missing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, conversation.NotFoundMessage, strings.TrimSpace(readBody(resp)))

	resp, err = s.Client.GET("/api/conversations/conv_missing/messages")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestGetMessages(t *testing.T) {
	s := setupActiveServer(t)
	conv := s.Runtime.Directory().Create("+15550000003")
	s.Runtime.Directory().Append(conv.ID, models.SenderUser, "one")
	s.Runtime.Directory().Append(conv.ID, models.SenderAgent, "two")

	resp, err := s.Client.GET("/api/conversations/" + conv.ID + "/messages")
	require.NoError(t, err)

	var messages []MessageResponse
	require.NoError(t, readJSON(resp, &messages))
	require.Len(t, messages, 2)
	assert.Equal(t, "one", messages[0].Content)
	assert.Equal(t, "two", messages[1].Content)
	assert.NotEmpty(t, messages[0].Timestamp)
}

func TestEndConversation_Handler(t *testing.T) {
	s := setupActiveServer(t)
	conv := s.Runtime.Directory().Create("+15550000004")

	resp, err := s.Client.POST("/api/conversations/"+conv.ID+"/end", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, readJSON(resp, &body))
	assert.Equal(t, conversation.GoodbyeMessage, body["message"])

	got, err := s.Runtime.Directory().Get(conv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)

	resp, err = s.Client.POST("/api/conversations/"+conv.ID+"/end", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestEndConversation_HandlerNotFound(t *testing.T) {
	s := setupActiveServer(t)

	resp, err := s.Client.POST("/api/conversations/conv_missing/end", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Conversation not found", strings.TrimSpace(readBody(resp)))
	assert.Empty(t, s.Runtime.Gateway().Sent())
}
