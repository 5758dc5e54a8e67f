package messaging

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"whatsapp-agent/internal/models"
)

// SubscribeMode is the hub.mode value sent by the provider when verifying a webhook
const SubscribeMode = "subscribe"

var (
	// ErrNotInitialized is returned when the gateway has no configuration yet
	ErrNotInitialized = errors.New("WhatsApp service not initialized")

	// ErrVerificationFailed is returned when a webhook challenge does not match
	ErrVerificationFailed = errors.New("webhook verification failed")

	// ErrMalformedPayload is returned when a webhook body is not valid JSON
	ErrMalformedPayload = errors.New("malformed webhook payload")

	// ErrNoMessage is returned when a webhook body carries no usable message
	ErrNoMessage = errors.New("webhook payload contains no message")
)

// SentMessage is a record of one outbound send
type SentMessage struct {
	MessageID string    `json:"message_id"`
	To        string    `json:"to"`
	Recipient string    `json:"recipient"`
	Text      string    `json:"text"`
	Group     bool      `json:"group"`
	Backend   string    `json:"backend"`
	SentAt    time.Time `json:"sent_at"`
}

// Gateway sends and receives WhatsApp messages through the backend chosen by the account configuration
type Gateway struct {
	mu         sync.RWMutex
	config     *models.MessagingConfig
	backend    Backend
	newBackend func(cfg models.MessagingConfig) Backend
	outbox     []SentMessage
}

// Option configures the gateway
type Option func(*Gateway)

// WithBackendFactory overrides how a backend is chosen for a configuration
func WithBackendFactory(factory func(cfg models.MessagingConfig) Backend) Option {
	return func(g *Gateway) {
		g.newBackend = factory
	}
}

// NewGateway creates a new, uninitialized gateway
func NewGateway(opts ...Option) *Gateway {
	g := &Gateway{
		newBackend: NewBackend,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Initialize stores the configuration and selects the backend. No connection is made.
func (g *Gateway) Initialize(cfg models.MessagingConfig) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.config = &cfg
	g.backend = g.newBackend(cfg)
	log.Printf("[Gateway] Initialized backend=%s phone_number_id=%s", g.backend.Name(), cfg.PhoneNumberID)
}

// Config returns the active configuration, false when not initialized
func (g *Gateway) Config() (models.MessagingConfig, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.config == nil {
		return models.MessagingConfig{}, false
	}
	return *g.config, true
}

// BackendName returns the name of the selected backend, empty when not initialized
func (g *Gateway) BackendName() string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.backend == nil {
		return ""
	}
	return g.backend.Name()
}

// VerifyWebhookChallenge returns the challenge when mode is "subscribe" and the token matches.
// This is a plain string comparison, not a signature check.
func (g *Gateway) VerifyWebhookChallenge(mode, token, challenge string) (string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.config == nil {
		log.Printf("[Gateway] Webhook verification failed: not initialized")
		return "", ErrNotInitialized
	}

	if mode == SubscribeMode && token == g.config.VerificationToken {
		log.Printf("[Gateway] Webhook verified")
		return challenge, nil
	}

	log.Printf("[Gateway] Webhook verification failed mode=%q", mode)
	return "", ErrVerificationFailed
}

// ParseInboundWebhook extracts the first inbound message from a webhook payload
func (g *Gateway) ParseInboundWebhook(payload []byte) (*models.InboundMessage, error) {
	g.mu.RLock()
	backend := g.backend
	g.mu.RUnlock()

	if backend == nil {
		log.Printf("[Gateway] ParseInboundWebhook failed: not initialized")
		return nil, ErrNotInitialized
	}

	msg, err := backend.ParseWebhook(payload)
	if err != nil {
		log.Printf("[Gateway] ParseInboundWebhook dropped payload backend=%s err=%v", backend.Name(), err)
		return nil, err
	}

	log.Printf("[Gateway] Inbound message parsed backend=%s message_id=%s from=%s", backend.Name(), msg.ID, msg.From)
	return msg, nil
}

// SendDirect sends text to a single recipient
func (g *Gateway) SendDirect(ctx context.Context, to, text string) models.SendResult {
	return g.send(ctx, to, text, false)
}

// SendToGroup sends text to a group
func (g *Gateway) SendToGroup(ctx context.Context, groupID, text string) models.SendResult {
	return g.send(ctx, groupID, text, true)
}

func (g *Gateway) send(ctx context.Context, to, text string, group bool) models.SendResult {
	g.mu.RLock()
	backend := g.backend
	g.mu.RUnlock()

	if backend == nil {
		log.Printf("[Gateway] Send failed: not initialized to=%s group=%t", to, group)
		return models.SendResult{Success: false, Error: ErrNotInitialized.Error()}
	}

	var (
		receipt Receipt
		err     error
	)
	if group {
		receipt, err = backend.SendGroup(ctx, to, text)
	} else {
		receipt, err = backend.Send(ctx, to, text)
	}
	if err != nil {
		log.Printf("[Gateway] Send failed backend=%s to=%s group=%t err=%v", backend.Name(), to, group, err)
		return models.SendResult{Success: false, Error: err.Error()}
	}
	id := receipt.MessageID

	g.mu.Lock()
	g.outbox = append(g.outbox, SentMessage{
		MessageID: id,
		To:        to,
		Recipient: receipt.Recipient,
		Text:      text,
		Group:     group,
		Backend:   backend.Name(),
		SentAt:    time.Now(),
	})
	g.mu.Unlock()

	log.Printf("[Gateway] Send completed backend=%s to=%s group=%t message_id=%s length=%d",
		backend.Name(), to, group, id, len(text))
	return models.SendResult{MessageID: id, Success: true}
}

// Sent returns a copy of every successful send, oldest first
func (g *Gateway) Sent() []SentMessage {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]SentMessage, len(g.outbox))
	copy(out, g.outbox)
	return out
}
