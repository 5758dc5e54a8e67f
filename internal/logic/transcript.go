package logic

import (
	"fmt"
	"strings"
	"time"

	"whatsapp-agent/internal/models"
)

const (
	// DisplayTimeLayout is the message timestamp format shown to operators
	DisplayTimeLayout = "3:04:05 PM"

	// DisplayDateTimeLayout is used in transcript headers
	DisplayDateTimeLayout = "1/2/2006, 3:04:05 PM"

	// AgentLabel names the agent in transcripts
	AgentLabel = "AI Assistant"
)

// DisplayName derives the label shown for a phone number: "User (<last 4>)"
func DisplayName(phoneNumber string) string {
	suffix := phoneNumber
	if len(phoneNumber) > 4 {
		suffix = phoneNumber[len(phoneNumber)-4:]
	}
	return fmt.Sprintf("User (%s)", suffix)
}

// SenderLabel returns the transcript label for a message sender
func SenderLabel(sender models.SenderType, displayName string) string {
	if sender == models.SenderUser {
		return displayName
	}
	return AgentLabel
}

// FormatWhatsAppTranscript renders a conversation for a WhatsApp group message.
// Format:
//
//	*Conversation Transcript*
//	User: {displayName}
//	Phone: {phone}
//	Date: {generatedAt}
//
//	*{sender} ({timestamp})*:
//	{content}
func FormatWhatsAppTranscript(conv *models.Conversation, generatedAt time.Time) string {
	header := fmt.Sprintf("*Conversation Transcript*\nUser: %s\nPhone: %s\nDate: %s\n\n",
		conv.DisplayName, conv.PhoneNumber, generatedAt.Format(DisplayDateTimeLayout))

	lines := make([]string, len(conv.Messages))
	for i, msg := range conv.Messages {
		lines[i] = fmt.Sprintf("*%s (%s)*:\n%s", SenderLabel(msg.Sender, conv.DisplayName), msg.Timestamp, msg.Content)
	}

	return header + strings.Join(lines, "\n\n")
}

// FormatEmailTranscript renders a transcript as a plain text email body
func FormatEmailTranscript(data models.TranscriptData, generatedAt time.Time) string {
	lines := make([]string, len(data.Messages))
	for i, msg := range data.Messages {
		lines[i] = fmt.Sprintf("%s - %s: %s", msg.Timestamp, SenderLabel(msg.Sender, data.DisplayName), msg.Content)
	}

	var b strings.Builder
	b.WriteString("Conversation Transcript\n")
	b.WriteString("=======================\n")
	fmt.Fprintf(&b, "User: %s (%s)\n", data.DisplayName, data.PhoneNumber)
	fmt.Fprintf(&b, "Conversation ID: %s\n", data.ConversationID)
	fmt.Fprintf(&b, "Date: %s\n\n", generatedAt.Format(DisplayDateTimeLayout))
	b.WriteString(strings.Join(lines, "\n\n"))
	return b.String()
}
