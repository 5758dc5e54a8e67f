package logic

import (
	"strings"
	"testing"
	"time"

	"whatsapp-agent/internal/models"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		phone    string
		expected string
	}{
		{phone: "+15551234567", expected: "User (4567)"},
		{phone: "1234", expected: "User (1234)"},
		{phone: "12", expected: "User (12)"},
		{phone: "", expected: "User ()"},
	}

	for _, tt := range tests {
		if got := DisplayName(tt.phone); got != tt.expected {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.phone, got, tt.expected)
		}
	}
}

func testConversation() *models.Conversation {
	return &models.Conversation{
		ID:          "conv_1",
		PhoneNumber: "+15551234567",
		DisplayName: "User (4567)",
		Status:      models.StatusCompleted,
		Messages: []models.Message{
			{ID: "m1", Sender: models.SenderUser, Content: "What are your hours?", Timestamp: "9:00:00 AM"},
			{ID: "m2", Sender: models.SenderAgent, Content: HoursReply, Timestamp: "9:00:01 AM"},
		},
	}
}

func TestFormatWhatsAppTranscript(t *testing.T) {
	at := time.Date(2026, 3, 4, 14, 5, 6, 0, time.UTC)
	result := FormatWhatsAppTranscript(testConversation(), at)

	expected := "*Conversation Transcript*\n" +
		"User: User (4567)\n" +
		"Phone: +15551234567\n" +
		"Date: 3/4/2026, 2:05:06 PM\n\n" +
		"*User (4567) (9:00:00 AM)*:\nWhat are your hours?\n\n" +
		"*AI Assistant (9:00:01 AM)*:\n" + HoursReply

	if result != expected {
		t.Errorf("FormatWhatsAppTranscript() =\n%s\nwant\n%s", result, expected)
	}
}

func TestFormatWhatsAppTranscript_NoMessages(t *testing.T) {
	conv := testConversation()
	conv.Messages = nil

	result := FormatWhatsAppTranscript(conv, time.Now())
	if !strings.HasPrefix(result, "*Conversation Transcript*\n") {
		t.Errorf("missing header: %q", result)
	}
	if !strings.HasSuffix(result, "\n\n") {
		t.Errorf("expected header only, got %q", result)
	}
}

func TestFormatEmailTranscript(t *testing.T) {
	conv := testConversation()
	data := models.TranscriptData{
		PhoneNumber:    conv.PhoneNumber,
		DisplayName:    conv.DisplayName,
		ConversationID: conv.ID,
		Messages:       conv.Messages,
	}
	at := time.Date(2026, 3, 4, 14, 5, 6, 0, time.UTC)

	result := FormatEmailTranscript(data, at)

	for _, want := range []string{
		"Conversation Transcript\n=======================\n",
		"User: User (4567) (+15551234567)\n",
		"Conversation ID: conv_1\n",
		"Date: 3/4/2026, 2:05:06 PM\n",
		"9:00:00 AM - User (4567): What are your hours?",
		"9:00:01 AM - AI Assistant: " + HoursReply,
	} {
		if !strings.Contains(result, want) {
			t.Errorf("email transcript missing %q\n%s", want, result)
		}
	}
}
