package api

import (
	"encoding/json"
	"log"
	"sync"

	"whatsapp-agent/internal/models"
)

// Event is one Server-Sent Event
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// EventBroadcaster manages SSE clients and fans events out per conversation
type EventBroadcaster struct {
	mu      sync.RWMutex
	clients map[string]map[chan Event]struct{} // conversationID -> clients
}

// NewEventBroadcaster creates a new broadcaster
func NewEventBroadcaster() *EventBroadcaster {
	return &EventBroadcaster{
		clients: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe adds a client for a conversation's events
func (b *EventBroadcaster) Subscribe(conversationID string) chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 10)

	if b.clients[conversationID] == nil {
		b.clients[conversationID] = make(map[chan Event]struct{})
	}
	b.clients[conversationID][ch] = struct{}{}

	log.Printf("[SSE] Client subscribed conversation_id=%s total_clients=%d",
		conversationID, len(b.clients[conversationID]))

	return ch
}

// Unsubscribe removes a client and closes its channel
func (b *EventBroadcaster) Unsubscribe(conversationID string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if clients, ok := b.clients[conversationID]; ok {
		if _, subscribed := clients[ch]; subscribed {
			delete(clients, ch)
			close(ch)
		}
		if len(clients) == 0 {
			delete(b.clients, conversationID)
		}
	}

	log.Printf("[SSE] Client unsubscribed conversation_id=%s", conversationID)
}

// Broadcast sends an event to every client watching a conversation.
// Slow clients with a full buffer miss the event.
func (b *EventBroadcaster) Broadcast(conversationID string, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	clients := b.clients[conversationID]
	if len(clients) == 0 {
		return
	}

	log.Printf("[SSE] Broadcasting event type=%s conversation_id=%s clients=%d",
		event.Type, conversationID, len(clients))

	for ch := range clients {
		select {
		case ch <- event:
		default:
			log.Printf("[SSE] Client channel full, skipping event conversation_id=%s", conversationID)
		}
	}
}

// Publish forwards a directory event to the conversation's SSE clients
func (b *EventBroadcaster) Publish(event models.Event) {
	b.Broadcast(event.ConversationID, Event{Type: event.Type, Data: event.Data})
}

// ClientCount returns the number of clients subscribed to a conversation
func (b *EventBroadcaster) ClientCount(conversationID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[conversationID])
}

// TotalClientCount returns the number of clients across all conversations
func (b *EventBroadcaster) TotalClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := 0
	for _, clients := range b.clients {
		total += len(clients)
	}
	return total
}

// FormatSSE formats an event in the SSE wire format
func FormatSSE(event Event) ([]byte, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return nil, err
	}
	return []byte("event: " + event.Type + "\ndata: " + string(data) + "\n\n"), nil
}

// Events fans directory events out to SSE and websocket clients
type Events struct {
	sse *EventBroadcaster
	ws  *WebSocketHub
}

// NewEvents creates the SSE broadcaster and websocket hub
func NewEvents() *Events {
	return &Events{
		sse: NewEventBroadcaster(),
		ws:  NewWebSocketHub(),
	}
}

// Publish implements conversation.EventSink
func (e *Events) Publish(event models.Event) {
	e.sse.Publish(event)
	e.ws.Publish(event)
}

// SSE returns the SSE broadcaster
func (e *Events) SSE() *EventBroadcaster {
	return e.sse
}

// WebSocket returns the websocket hub
func (e *Events) WebSocket() *WebSocketHub {
	return e.ws
}
