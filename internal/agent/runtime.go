package agent

import (
	"context"
	"errors"
	"log"
	"sync"

	"whatsapp-agent/internal/assistant"
	"whatsapp-agent/internal/conversation"
	"whatsapp-agent/internal/logic"
	"whatsapp-agent/internal/messaging"
	"whatsapp-agent/internal/models"
	"whatsapp-agent/internal/notifier"
)

// InactiveMessage is returned for test messages while the agent is switched off
const InactiveMessage = "Agent is currently inactive. Please activate it first."

// ErrInactive is returned by HandleWebhook while the agent is switched off
var ErrInactive = errors.New("agent is inactive")

// Runtime wires the messaging gateway, response generator, notifier and
// conversation directory for the current account
type Runtime struct {
	mu        sync.RWMutex
	active    bool
	accountID string

	gateway   *messaging.Gateway
	generator *assistant.Generator
	notifier  *notifier.Notifier
	directory *conversation.Directory
}

// NewRuntime creates an inactive runtime with uninitialized services
func NewRuntime(opts ...conversation.Option) *Runtime {
	r := &Runtime{
		gateway:   messaging.NewGateway(),
		generator: assistant.NewGenerator(),
		notifier:  notifier.New(),
	}
	r.directory = conversation.NewDirectory(r.gateway, r.generator, r.notifier, opts...)
	return r
}

// ApplyAccount reinitializes every service from the account's configuration.
// A nil account leaves the services configured as they were.
func (r *Runtime) ApplyAccount(a *models.Account) {
	if a == nil {
		r.mu.Lock()
		r.accountID = ""
		r.mu.Unlock()
		log.Printf("[Agent] No current account; services keep their last configuration")
		return
	}

	r.gateway.Initialize(a.Messaging)
	r.generator.Initialize(a.Response)
	r.notifier.Initialize(a.Notifier)

	keywords := a.EndKeywords
	if keywords == "" {
		keywords = logic.DefaultEndKeywords
	}
	r.directory.Configure(keywords, a.GroupID)

	r.mu.Lock()
	r.accountID = a.ID
	r.mu.Unlock()

	log.Printf("[Agent] Applied account account_id=%s name=%q backend=%s", a.ID, a.Name, r.gateway.BackendName())
}

// AccountID returns the id of the last applied account
func (r *Runtime) AccountID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.accountID
}

// SetActive switches the agent on or off
func (r *Runtime) SetActive(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != active {
		log.Printf("[Agent] Active changed active=%t", active)
	}
	r.active = active
}

// Active reports whether the agent answers messages
func (r *Runtime) Active() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// ProcessTestMessage runs a dashboard test message through the directory
func (r *Runtime) ProcessTestMessage(ctx context.Context, phoneNumber, text string) (string, error) {
	if !r.Active() {
		return InactiveMessage, nil
	}
	return r.directory.ProcessInboundMessage(ctx, phoneNumber, text)
}

// HandleWebhook parses an inbound webhook and processes it when the agent is active.
// The parsed message is returned even when processing is skipped.
func (r *Runtime) HandleWebhook(ctx context.Context, payload []byte) (*models.InboundMessage, string, error) {
	msg, err := r.gateway.ParseInboundWebhook(payload)
	if err != nil {
		return nil, "", err
	}

	if !r.Active() {
		log.Printf("[Agent] Webhook message ignored: agent inactive message_id=%s", msg.ID)
		return msg, "", ErrInactive
	}

	reply, err := r.directory.ProcessInboundMessage(ctx, msg.From, msg.Text)
	if err != nil {
		return msg, "", err
	}
	return msg, reply, nil
}

// Gateway returns the messaging gateway
func (r *Runtime) Gateway() *messaging.Gateway {
	return r.gateway
}

// Generator returns the response generator
func (r *Runtime) Generator() *assistant.Generator {
	return r.generator
}

// Notifier returns the transcript notifier
func (r *Runtime) Notifier() *notifier.Notifier {
	return r.notifier
}

// Directory returns the conversation directory
func (r *Runtime) Directory() *conversation.Directory {
	return r.directory
}
