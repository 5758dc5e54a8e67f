package messaging

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mau.fi/whatsmeow/types"

	"whatsapp-agent/internal/models"
)

// BusinessAccountObject is the object type of WhatsApp Business webhook payloads
const BusinessAccountObject = "whatsapp_business_account"

// Backend is one provider API shape. Sends are simulated and never reach the network.
type Backend interface {
	Name() string
	ParseWebhook(payload []byte) (*models.InboundMessage, error)
	Send(ctx context.Context, to, text string) (Receipt, error)
	SendGroup(ctx context.Context, groupID, text string) (Receipt, error)
}

// Receipt identifies an accepted send and the address the provider delivered to
type Receipt struct {
	MessageID string
	Recipient string
}

// NewBackend selects the backend for a configuration
func NewBackend(cfg models.MessagingConfig) Backend {
	if cfg.UseBusinessAPI {
		return &businessBackend{phoneNumberID: cfg.PhoneNumberID}
	}
	return &regularBackend{endpoint: cfg.RegularAPIEndpoint}
}

// businessBackend speaks the WhatsApp Business (Cloud) API shape
type businessBackend struct {
	phoneNumberID string
}

type businessPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Field string `json:"field"`
			Value struct {
				Messages []struct {
					ID        string `json:"id"`
					From      string `json:"from"`
					Timestamp string `json:"timestamp"`
					Text      *struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

func (b *businessBackend) Name() string {
	return "business"
}

func (b *businessBackend) ParseWebhook(payload []byte) (*models.InboundMessage, error) {
	var body businessPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, ErrMalformedPayload
	}

	if body.Object != BusinessAccountObject || len(body.Entry) == 0 {
		return nil, ErrNoMessage
	}

	entry := body.Entry[0]
	if len(entry.Changes) == 0 || entry.Changes[0].Field != "messages" {
		return nil, ErrNoMessage
	}

	messages := entry.Changes[0].Value.Messages
	if len(messages) == 0 || messages[0].From == "" {
		return nil, ErrNoMessage
	}

	data := messages[0]
	msg := &models.InboundMessage{
		ID:        data.ID,
		From:      data.From,
		Timestamp: data.Timestamp,
	}
	if data.Text != nil {
		msg.Text = data.Text.Body
	}
	return msg, nil
}

// Send addresses the Cloud API by bare wa_id, the user part of the JID
func (b *businessBackend) Send(ctx context.Context, to, text string) (Receipt, error) {
	waID := UserJID(to).User
	log.Printf("[Gateway] Business send simulated path=/%s/messages to=%s", b.phoneNumberID, waID)
	return Receipt{MessageID: "mock_business_" + uuid.NewString(), Recipient: waID}, nil
}

func (b *businessBackend) SendGroup(ctx context.Context, groupID, text string) (Receipt, error) {
	jid := GroupJID(groupID)
	log.Printf("[Gateway] Business group send simulated jid=%s", jid)
	return Receipt{MessageID: "mock_business_group_" + uuid.NewString(), Recipient: jid.String()}, nil
}

// regularBackend speaks the plain WhatsApp API shape and addresses recipients as JIDs
type regularBackend struct {
	endpoint string
}

type regularPayload struct {
	Messages []struct {
		ID        string          `json:"id"`
		From      string          `json:"from"`
		Timestamp string          `json:"timestamp"`
		Text      json.RawMessage `json:"text"`
		Body      string          `json:"body"`
	} `json:"messages"`
}

func (b *regularBackend) Name() string {
	return "regular"
}

func (b *regularBackend) ParseWebhook(payload []byte) (*models.InboundMessage, error) {
	var body regularPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, ErrMalformedPayload
	}

	if len(body.Messages) == 0 || body.Messages[0].From == "" {
		return nil, ErrNoMessage
	}

	data := body.Messages[0]
	msg := &models.InboundMessage{
		ID:        data.ID,
		From:      data.From,
		Timestamp: data.Timestamp,
		Text:      regularText(data.Text),
	}
	if msg.ID == "" {
		msg.ID = "reg_" + uuid.NewString()
	}
	if msg.Timestamp == "" {
		msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	if msg.Text == "" {
		msg.Text = data.Body
	}
	return msg, nil
}

// regularText accepts text either as a plain string or as {"body": "..."}
func regularText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var obj struct {
		Body string `json:"body"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Body
	}
	return ""
}

func (b *regularBackend) Send(ctx context.Context, to, text string) (Receipt, error) {
	jid := UserJID(to)
	log.Printf("[Gateway] Regular send simulated endpoint=%s jid=%s", b.endpoint, jid)
	return Receipt{MessageID: "mock_regular_" + uuid.NewString(), Recipient: jid.String()}, nil
}

func (b *regularBackend) SendGroup(ctx context.Context, groupID, text string) (Receipt, error) {
	jid := GroupJID(groupID)
	log.Printf("[Gateway] Regular group send simulated endpoint=%s jid=%s", b.endpoint, jid)
	return Receipt{MessageID: "mock_regular_group_" + uuid.NewString(), Recipient: jid.String()}, nil
}

// UserJID addresses a phone number on the default user server
func UserJID(phone string) types.JID {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if digits == "" {
		digits = phone
	}
	return types.NewJID(digits, types.DefaultUserServer)
}

// GroupJID addresses a group id, accepting either a bare id or a full JID
func GroupJID(groupID string) types.JID {
	if strings.Contains(groupID, "@") {
		if jid, err := types.ParseJID(groupID); err == nil {
			return jid
		}
	}
	return types.NewJID(groupID, types.GroupServer)
}
