package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"whatsapp-agent/internal/conversation"
	"whatsapp-agent/internal/models"
)

// ConversationHandler serves the conversation directory to the dashboard
type ConversationHandler struct {
	directory *conversation.Directory
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(directory *conversation.Directory) *ConversationHandler {
	return &ConversationHandler{directory: directory}
}

// ConversationResponse represents a conversation in API responses
type ConversationResponse struct {
	ID           string            `json:"id"`
	PhoneNumber  string            `json:"phone_number"`
	DisplayName  string            `json:"display_name"`
	Status       string            `json:"status"`
	LastActivity string            `json:"last_activity"`
	CreatedAt    string            `json:"created_at"`
	Messages     []MessageResponse `json:"messages,omitempty"`
}

// MessageResponse represents a message in API responses
type MessageResponse struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

func toConversationResponse(c *models.Conversation) ConversationResponse {
	resp := ConversationResponse{
		ID:           c.ID,
		PhoneNumber:  c.PhoneNumber,
		DisplayName:  c.DisplayName,
		Status:       string(c.Status),
		LastActivity: c.LastActivity.Format(time.RFC3339),
		CreatedAt:    c.CreatedAt.Format(time.RFC3339),
	}
	if len(c.Messages) > 0 {
		resp.Messages = toMessageResponses(c.Messages)
	}
	return resp
}

func toMessageResponses(messages []models.Message) []MessageResponse {
	out := make([]MessageResponse, len(messages))
	for i, m := range messages {
		out[i] = MessageResponse{
			ID:        m.ID,
			Sender:    string(m.Sender),
			Content:   m.Content,
			Timestamp: m.Timestamp,
		}
	}
	return out
}

// List handles GET /api/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	conversations := h.directory.List()

	response := make([]ConversationResponse, len(conversations))
	for i := range conversations {
		response[i] = toConversationResponse(&conversations[i])
	}
	writeJSON(w, http.StatusOK, response)
}

// Get handles GET /api/conversations/{id}
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	conv, err := h.directory.Get(r.PathValue("id"))
	if err != nil {
		http.Error(w, conversation.NotFoundMessage, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toConversationResponse(conv))
}

// GetMessages handles GET /api/conversations/{id}/messages
func (h *ConversationHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	conv, err := h.directory.Get(r.PathValue("id"))
	if err != nil {
		http.Error(w, conversation.NotFoundMessage, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toMessageResponses(conv.Messages))
}

// End handles POST /api/conversations/{id}/end
func (h *ConversationHandler) End(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	log.Printf("[API] End conversation started conversation_id=%s", id)

	reply, err := h.directory.EndConversation(r.Context(), id)
	switch {
	case errors.Is(err, conversation.ErrNotFound):
		http.Error(w, reply, http.StatusNotFound)
		return
	case errors.Is(err, conversation.ErrAlreadyCompleted):
		writeJSON(w, http.StatusConflict, map[string]string{"message": reply, "error": err.Error()})
		return
	case err != nil:
		log.Printf("[API] End conversation failed conversation_id=%s err=%v", id, err)
		http.Error(w, "Failed to end conversation", http.StatusInternalServerError)
		return
	}

	log.Printf("[API] End conversation completed conversation_id=%s", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": reply})
}
