package models

import "time"

// ConversationStatus is the lifecycle state of a conversation
type ConversationStatus string

const (
	StatusActive    ConversationStatus = "active"
	StatusCompleted ConversationStatus = "completed"
)

// SenderType defines who sent the message
type SenderType string

const (
	SenderUser  SenderType = "user"
	SenderAgent SenderType = "agent"
)

// Conversation represents one exchange between a phone number and the agent
type Conversation struct {
	ID           string             `json:"id"`
	PhoneNumber  string             `json:"phone_number"`
	DisplayName  string             `json:"display_name"`
	Status       ConversationStatus `json:"status"`
	LastActivity time.Time          `json:"last_activity"`
	CreatedAt    time.Time          `json:"created_at"`
	Messages     []Message          `json:"messages,omitempty"`
}

// IsActive reports whether the conversation still accepts messages
func (c *Conversation) IsActive() bool {
	return c.Status == StatusActive
}

// Message represents a single message in a conversation
type Message struct {
	ID        string     `json:"id"`
	Sender    SenderType `json:"sender"`
	Content   string     `json:"content"`
	Timestamp string     `json:"timestamp"`
}

// InboundMessage is a message extracted from a provider webhook payload
type InboundMessage struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

// SendResult is the outcome of an outbound WhatsApp send.
// Error is only set when Success is false.
type SendResult struct {
	MessageID string `json:"message_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// TranscriptData is everything the notifier needs to render a transcript
type TranscriptData struct {
	PhoneNumber    string
	DisplayName    string
	ConversationID string
	Messages       []Message
}

// Event is a directory change pushed to dashboard subscribers
type Event struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	Data           any    `json:"data"`
}

const (
	EventConversationCreated = "conversation_created"
	EventMessage             = "message"
	EventConversationEnded   = "conversation_ended"
)
