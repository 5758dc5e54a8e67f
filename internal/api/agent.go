package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"whatsapp-agent/internal/agent"
	"whatsapp-agent/internal/logic"
	"whatsapp-agent/internal/messaging"
	"whatsapp-agent/internal/notifier"
)

// AgentHandler exposes the agent switch, test messages, notifications and the outbox
type AgentHandler struct {
	runtime *agent.Runtime
}

// NewAgentHandler creates a new agent handler
func NewAgentHandler(runtime *agent.Runtime) *AgentHandler {
	return &AgentHandler{runtime: runtime}
}

// AgentStatusResponse describes the agent and the configuration its services run with
type AgentStatusResponse struct {
	Active            bool    `json:"active"`
	AccountID         string  `json:"account_id,omitempty"`
	Backend           string  `json:"backend,omitempty"`
	PhoneNumberID     string  `json:"phone_number_id,omitempty"`
	Model             string  `json:"model,omitempty"`
	Temperature       float32 `json:"temperature,omitempty"`
	MaxTokens         int     `json:"max_tokens,omitempty"`
	TranscriptEmail   string  `json:"transcript_email,omitempty"`
	NotificationEmail string  `json:"notification_email,omitempty"`
	EndKeywords       string  `json:"end_keywords"`
	GroupID           string  `json:"group_id,omitempty"`

	ReplyCategories []ReplyCategoryResponse `json:"reply_categories"`
	LastRequest     *PreparedRequestResponse `json:"last_request,omitempty"`
}

// ReplyCategoryResponse is one canned reply trigger
type ReplyCategoryResponse struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

// PreparedRequestResponse summarises the last completion request the generator prepared
type PreparedRequestResponse struct {
	Model        string  `json:"model"`
	Temperature  float32 `json:"temperature"`
	MaxTokens    int     `json:"max_tokens"`
	MessageCount int     `json:"message_count"`
	LastRole     string  `json:"last_role,omitempty"`
}

// UpdateAgentRequest is the body of PUT /api/agent
type UpdateAgentRequest struct {
	Active *bool `json:"active"`
}

// TestMessageRequest is the body of POST /api/test-message
type TestMessageRequest struct {
	PhoneNumber string `json:"phone_number"`
	Message     string `json:"message"`
}

// NotificationRequest is the body of POST /api/notifications
type NotificationRequest struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// OutboxResponse lists everything the agent has delivered
type OutboxResponse struct {
	Messages []messaging.SentMessage `json:"messages"`
	Emails   []notifier.Email        `json:"emails"`
}

func (h *AgentHandler) status() AgentStatusResponse {
	keywords, groupID := h.runtime.Directory().Settings()
	resp := AgentStatusResponse{
		Active:      h.runtime.Active(),
		AccountID:   h.runtime.AccountID(),
		Backend:     h.runtime.Gateway().BackendName(),
		EndKeywords: keywords,
		GroupID:     groupID,
	}
	if cfg, ok := h.runtime.Gateway().Config(); ok {
		resp.PhoneNumberID = cfg.PhoneNumberID
	}
	if cfg, ok := h.runtime.Generator().Config(); ok {
		resp.Model = cfg.Model
		resp.Temperature = cfg.Temperature
		resp.MaxTokens = cfg.MaxTokens
	}
	if cfg, ok := h.runtime.Notifier().Config(); ok {
		resp.TranscriptEmail = cfg.TranscriptEmail
		resp.NotificationEmail = cfg.NotificationEmail
	}
	for _, category := range logic.ReplyCategories() {
		resp.ReplyCategories = append(resp.ReplyCategories, ReplyCategoryResponse{
			Name:     category.Name,
			Keywords: category.Keywords,
		})
	}
	if req, ok := h.runtime.Generator().LastRequest(); ok {
		prepared := &PreparedRequestResponse{
			Model:        req.Model,
			Temperature:  req.Temperature,
			MaxTokens:    req.MaxTokens,
			MessageCount: len(req.Messages),
		}
		if n := len(req.Messages); n > 0 {
			prepared.LastRole = req.Messages[n-1].Role
		}
		resp.LastRequest = prepared
	}
	return resp
}

// Get handles GET /api/agent
func (h *AgentHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status())
}

// Update handles PUT /api/agent
func (h *AgentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[API] Update agent failed: invalid request body err=%v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Active == nil {
		http.Error(w, "active is required", http.StatusBadRequest)
		return
	}

	h.runtime.SetActive(*req.Active)
	writeJSON(w, http.StatusOK, h.status())
}

// TestMessage handles POST /api/test-message
func (h *AgentHandler) TestMessage(w http.ResponseWriter, r *http.Request) {
	var req TestMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[API] Test message failed: invalid request body err=%v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if req.PhoneNumber == "" || strings.TrimSpace(req.Message) == "" {
		http.Error(w, "phone_number and message are required", http.StatusBadRequest)
		return
	}

	log.Printf("[API] Test message phone=%s length=%d", req.PhoneNumber, len(req.Message))

	reply, err := h.runtime.ProcessTestMessage(r.Context(), req.PhoneNumber, req.Message)
	if err != nil {
		log.Printf("[API] Test message failed phone=%s err=%v", req.PhoneNumber, err)
		http.Error(w, "Failed to process message", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"response": reply})
}

// Notify handles POST /api/notifications
func (h *AgentHandler) Notify(w http.ResponseWriter, r *http.Request) {
	var req NotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Subject == "" {
		http.Error(w, "subject is required", http.StatusBadRequest)
		return
	}

	sent := h.runtime.Notifier().SendNotification(r.Context(), req.Subject, req.Message)
	status := http.StatusOK
	if !sent {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]bool{"sent": sent})
}

// Outbox handles GET /api/outbox
func (h *AgentHandler) Outbox(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, OutboxResponse{
		Messages: h.runtime.Gateway().Sent(),
		Emails:   h.runtime.Notifier().Outbox(),
	})
}
