package conversation

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"whatsapp-agent/internal/assistant"
	"whatsapp-agent/internal/logic"
	"whatsapp-agent/internal/models"
)

const (
	// NotFoundMessage is returned when ending an unknown conversation
	NotFoundMessage = "Conversation not found"

	// GoodbyeMessage is sent to the user when a conversation ends
	GoodbyeMessage = "Thank you for contacting us! Your conversation has ended. We'll send you a transcript shortly."
)

var (
	// ErrNotFound is returned for unknown conversation ids
	ErrNotFound = errors.New("conversation not found")

	// ErrAlreadyCompleted is returned when ending a conversation twice
	ErrAlreadyCompleted = errors.New("conversation already completed")
)

// Messenger delivers agent messages over WhatsApp
type Messenger interface {
	SendDirect(ctx context.Context, to, text string) models.SendResult
	SendToGroup(ctx context.Context, groupID, text string) models.SendResult
}

// Responder produces replies and detects the end of a conversation
type Responder interface {
	GenerateReply(ctx context.Context, text string, history []openai.ChatCompletionMessage) string
	IsEndOfConversation(text, keywordsCSV string) bool
}

// Notifier delivers transcripts of completed conversations
type Notifier interface {
	SendTranscript(ctx context.Context, data models.TranscriptData) bool
}

// EventSink receives directory changes
type EventSink interface {
	Publish(event models.Event)
}

// Directory is the in-memory registry of conversations and runs each message turn
type Directory struct {
	mu            sync.RWMutex
	conversations map[string]*models.Conversation
	endKeywords   string
	groupID       string

	messenger Messenger
	responder Responder
	notifier  Notifier
	events    EventSink
	locks     *PhoneLocks
	now       func() time.Time
}

// Option configures the directory
type Option func(*Directory)

// WithEventSink publishes directory changes to sink
func WithEventSink(sink EventSink) Option {
	return func(d *Directory) {
		d.events = sink
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(d *Directory) {
		d.now = now
	}
}

// NewDirectory creates an empty directory using the given collaborators
func NewDirectory(messenger Messenger, responder Responder, notifier Notifier, opts ...Option) *Directory {
	d := &Directory{
		conversations: make(map[string]*models.Conversation),
		endKeywords:   logic.DefaultEndKeywords,
		messenger:     messenger,
		responder:     responder,
		notifier:      notifier,
		locks:         NewPhoneLocks(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Configure sets the end keywords and the transcript group
func (d *Directory) Configure(endKeywords, groupID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.endKeywords = endKeywords
	d.groupID = groupID
	log.Printf("[Directory] Configured end_keywords=%q group_id=%s", endKeywords, groupID)
}

// Settings returns the configured end keywords and group id
func (d *Directory) Settings() (string, string) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.endKeywords, d.groupID
}

// FindActiveByPhone returns the active conversation for a phone number
func (d *Directory) FindActiveByPhone(phoneNumber string) (*models.Conversation, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	conv := d.findActiveLocked(phoneNumber)
	if conv == nil {
		return nil, false
	}
	return snapshot(conv, true), true
}

func (d *Directory) findActiveLocked(phoneNumber string) *models.Conversation {
	for _, conv := range d.conversations {
		if conv.PhoneNumber == phoneNumber && conv.IsActive() {
			return conv
		}
	}
	return nil
}

// Create registers a new active conversation for a phone number
func (d *Directory) Create(phoneNumber string) *models.Conversation {
	d.mu.Lock()
	conv := d.createLocked(phoneNumber)
	created := snapshot(conv, true)
	d.mu.Unlock()

	d.publish(models.EventConversationCreated, created.ID, snapshot(created, false))
	return created
}

func (d *Directory) createLocked(phoneNumber string) *models.Conversation {
	now := d.now()
	conv := &models.Conversation{
		ID:           "conv_" + uuid.NewString(),
		PhoneNumber:  phoneNumber,
		DisplayName:  logic.DisplayName(phoneNumber),
		Status:       models.StatusActive,
		LastActivity: now,
		CreatedAt:    now,
		Messages:     []models.Message{},
	}
	d.conversations[conv.ID] = conv

	log.Printf("[Directory] Conversation created conversation_id=%s phone=%s", conv.ID, phoneNumber)
	return conv
}

// Get returns a copy of a conversation including its messages
func (d *Directory) Get(id string) (*models.Conversation, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	conv, ok := d.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return snapshot(conv, true), nil
}

// List returns all conversations without messages, most recently active first
func (d *Directory) List() []models.Conversation {
	d.mu.RLock()
	items := make([]models.Conversation, 0, len(d.conversations))
	for _, conv := range d.conversations {
		items = append(items, *snapshot(conv, false))
	}
	d.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if items[i].LastActivity.Equal(items[j].LastActivity) {
			return items[i].ID < items[j].ID
		}
		return items[i].LastActivity.After(items[j].LastActivity)
	})
	return items
}

// Append adds a message to a conversation. Unknown ids are ignored.
func (d *Directory) Append(conversationID string, sender models.SenderType, content string) {
	d.mu.Lock()
	msg, ok := d.appendLocked(conversationID, sender, content)
	d.mu.Unlock()

	if ok {
		d.publish(models.EventMessage, conversationID, msg)
	}
}

func (d *Directory) appendLocked(conversationID string, sender models.SenderType, content string) (models.Message, bool) {
	conv, ok := d.conversations[conversationID]
	if !ok {
		log.Printf("[Directory] Append ignored: unknown conversation conversation_id=%s", conversationID)
		return models.Message{}, false
	}

	now := d.now()
	msg := models.Message{
		ID:        "msg_" + uuid.NewString(),
		Sender:    sender,
		Content:   content,
		Timestamp: now.Format(logic.DisplayTimeLayout),
	}
	conv.Messages = append(conv.Messages, msg)
	conv.LastActivity = now
	return msg, true
}

// ProcessInboundMessage runs one message turn for a phone number and returns the agent's reply
func (d *Directory) ProcessInboundMessage(ctx context.Context, phoneNumber, text string) (string, error) {
	log.Printf("[Directory] Processing message phone=%s length=%d", phoneNumber, len(text))

	if err := d.locks.Lock(ctx, phoneNumber); err != nil {
		return "", err
	}
	defer d.locks.Unlock(phoneNumber)

	d.mu.Lock()
	conv := d.findActiveLocked(phoneNumber)
	var created *models.Conversation
	if conv == nil {
		conv = d.createLocked(phoneNumber)
		created = snapshot(conv, false)
	}
	conversationID := conv.ID
	userMsg, _ := d.appendLocked(conversationID, models.SenderUser, text)
	endKeywords := d.endKeywords
	history := assistant.HistoryFromMessages(conv.Messages)
	d.mu.Unlock()

	if created != nil {
		d.publish(models.EventConversationCreated, conversationID, created)
	}
	d.publish(models.EventMessage, conversationID, userMsg)

	if d.responder.IsEndOfConversation(text, endKeywords) {
		log.Printf("[Directory] End keyword detected conversation_id=%s", conversationID)
		return d.endLocked(ctx, conversationID)
	}

	reply := d.responder.GenerateReply(ctx, text, history)
	d.Append(conversationID, models.SenderAgent, reply)

	result := d.messenger.SendDirect(ctx, phoneNumber, reply)
	if !result.Success {
		log.Printf("[Directory] Reply send failed conversation_id=%s err=%s", conversationID, result.Error)
	}

	log.Printf("[Directory] Message processed conversation_id=%s message_id=%s", conversationID, result.MessageID)
	return reply, nil
}

// EndConversation completes a conversation, says goodbye, and sends its transcripts.
// Unknown ids return NotFoundMessage with ErrNotFound and change nothing.
func (d *Directory) EndConversation(ctx context.Context, conversationID string) (string, error) {
	d.mu.RLock()
	conv, ok := d.conversations[conversationID]
	var phone string
	if ok {
		phone = conv.PhoneNumber
	}
	d.mu.RUnlock()

	if !ok {
		log.Printf("[Directory] EndConversation failed: not found conversation_id=%s", conversationID)
		return NotFoundMessage, ErrNotFound
	}

	if err := d.locks.Lock(ctx, phone); err != nil {
		return "", err
	}
	defer d.locks.Unlock(phone)

	return d.endLocked(ctx, conversationID)
}

// endLocked ends a conversation; the caller holds the phone lock
func (d *Directory) endLocked(ctx context.Context, conversationID string) (string, error) {
	d.mu.Lock()
	conv, ok := d.conversations[conversationID]
	if !ok {
		d.mu.Unlock()
		return NotFoundMessage, ErrNotFound
	}
	if !conv.IsActive() {
		d.mu.Unlock()
		log.Printf("[Directory] EndConversation skipped: already completed conversation_id=%s", conversationID)
		return GoodbyeMessage, ErrAlreadyCompleted
	}

	conv.Status = models.StatusCompleted
	goodbye, _ := d.appendLocked(conversationID, models.SenderAgent, GoodbyeMessage)
	completed := snapshot(conv, true)
	groupID := d.groupID
	d.mu.Unlock()

	d.publish(models.EventMessage, conversationID, goodbye)

	result := d.messenger.SendDirect(ctx, completed.PhoneNumber, GoodbyeMessage)
	if !result.Success {
		log.Printf("[Directory] Goodbye send failed conversation_id=%s err=%s", conversationID, result.Error)
	}

	d.sendTranscripts(ctx, completed, groupID)

	d.publish(models.EventConversationEnded, conversationID, snapshot(completed, false))
	log.Printf("[Directory] Conversation ended conversation_id=%s messages=%d", conversationID, len(completed.Messages))
	return GoodbyeMessage, nil
}

func (d *Directory) sendTranscripts(ctx context.Context, conv *models.Conversation, groupID string) {
	if groupID != "" {
		transcript := logic.FormatWhatsAppTranscript(conv, d.now())
		result := d.messenger.SendToGroup(ctx, groupID, transcript)
		if !result.Success {
			log.Printf("[Directory] Group transcript send failed conversation_id=%s group_id=%s err=%s",
				conv.ID, groupID, result.Error)
		}
	}

	ok := d.notifier.SendTranscript(ctx, models.TranscriptData{
		PhoneNumber:    conv.PhoneNumber,
		DisplayName:    conv.DisplayName,
		ConversationID: conv.ID,
		Messages:       conv.Messages,
	})
	if !ok {
		log.Printf("[Directory] Email transcript send failed conversation_id=%s", conv.ID)
	}
}

// IdleSince returns the ids of active conversations with no activity since cutoff
func (d *Directory) IdleSince(cutoff time.Time) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var ids []string
	for id, conv := range d.conversations {
		if conv.IsActive() && conv.LastActivity.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (d *Directory) publish(eventType, conversationID string, data any) {
	if d.events == nil {
		return
	}
	d.events.Publish(models.Event{
		Type:           eventType,
		ConversationID: conversationID,
		Data:           data,
	})
}

// snapshot copies a conversation so callers never share the directory's message slice
func snapshot(conv *models.Conversation, withMessages bool) *models.Conversation {
	c := *conv
	if withMessages {
		c.Messages = make([]models.Message, len(conv.Messages))
		copy(c.Messages, conv.Messages)
	} else {
		c.Messages = nil
	}
	return &c
}
