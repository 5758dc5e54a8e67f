package notifier

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"whatsapp-agent/internal/logic"
	"whatsapp-agent/internal/models"
)

// Email is one delivered (logged) email
type Email struct {
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sent_at"`
}

// Notifier delivers conversation transcripts and system notifications by email.
// Delivery is simulated: emails are logged and kept in an outbox.
type Notifier struct {
	mu     sync.RWMutex
	config *models.NotifierConfig
	outbox []Email
	now    func() time.Time
}

// New creates an uninitialized notifier
func New() *Notifier {
	return &Notifier{now: time.Now}
}

// Initialize stores the recipient addresses. No validation is performed.
func (n *Notifier) Initialize(cfg models.NotifierConfig) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.config = &cfg
	log.Printf("[Notifier] Initialized transcript_email=%s notification_email=%s", cfg.TranscriptEmail, cfg.NotificationEmail)
}

// Config returns the active configuration, false when not initialized
func (n *Notifier) Config() (models.NotifierConfig, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.config == nil {
		return models.NotifierConfig{}, false
	}
	return *n.config, true
}

// SendTranscript emails a formatted transcript to the transcript recipient
func (n *Notifier) SendTranscript(ctx context.Context, data models.TranscriptData) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.config == nil {
		log.Printf("[Notifier] SendTranscript failed: not initialized conversation_id=%s", data.ConversationID)
		return false
	}

	now := n.now()
	email := Email{
		To:      n.config.TranscriptEmail,
		Subject: fmt.Sprintf("WhatsApp Conversation Transcript - %s", data.DisplayName),
		Body:    logic.FormatEmailTranscript(data, now),
		SentAt:  now,
	}
	n.outbox = append(n.outbox, email)

	log.Printf("[Notifier] Transcript sent to=%s conversation_id=%s phone=%s messages=%d",
		email.To, data.ConversationID, data.PhoneNumber, len(data.Messages))
	return true
}

// SendNotification emails a system notification to the notification recipient
func (n *Notifier) SendNotification(ctx context.Context, subject, text string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.config == nil {
		log.Printf("[Notifier] SendNotification failed: not initialized subject=%q", subject)
		return false
	}

	n.outbox = append(n.outbox, Email{
		To:      n.config.NotificationEmail,
		Subject: subject,
		Body:    text,
		SentAt:  n.now(),
	})

	log.Printf("[Notifier] Notification sent to=%s subject=%q", n.config.NotificationEmail, subject)
	return true
}

// Outbox returns a copy of every delivered email, oldest first
func (n *Notifier) Outbox() []Email {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]Email, len(n.outbox))
	copy(out, n.outbox)
	return out
}
