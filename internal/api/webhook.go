package api

import (
	"errors"
	"io"
	"log"
	"net/http"

	"whatsapp-agent/internal/agent"
	"whatsapp-agent/internal/messaging"
)

const maxWebhookBody = 1 << 20

// WebhookHandler receives WhatsApp webhook deliveries
type WebhookHandler struct {
	runtime *agent.Runtime
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(runtime *agent.Runtime) *WebhookHandler {
	return &WebhookHandler{runtime: runtime}
}

// WebhookResponse is the acknowledgement returned for every POST /webhook
type WebhookResponse struct {
	Status    string `json:"status"`
	MessageID string `json:"message_id,omitempty"`
	Reply     string `json:"reply,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Verify handles GET /webhook (subscription challenge)
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")

	challenge, err := h.runtime.Gateway().VerifyWebhookChallenge(mode, q.Get("hub.verify_token"), q.Get("hub.challenge"))
	if err != nil {
		log.Printf("[Webhook] Verification failed mode=%q err=%v", mode, err)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	log.Printf("[Webhook] Verification succeeded")
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(challenge))
}

// Receive handles POST /webhook. Deliveries are always acknowledged with 200
// so the provider does not retry events we cannot use.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		log.Printf("[Webhook] Failed to read body err=%v", err)
		writeJSON(w, http.StatusOK, WebhookResponse{Status: "ignored", Reason: "unreadable body"})
		return
	}

	msg, reply, err := h.runtime.HandleWebhook(r.Context(), body)
	if err != nil {
		reason := err.Error()
		switch {
		case errors.Is(err, messaging.ErrMalformedPayload), errors.Is(err, messaging.ErrNoMessage):
			log.Printf("[Webhook] Payload ignored err=%v", err)
		case errors.Is(err, agent.ErrInactive):
			reason = "agent inactive"
		default:
			log.Printf("[Webhook] Processing failed err=%v", err)
		}

		resp := WebhookResponse{Status: "ignored", Reason: reason}
		if msg != nil {
			resp.MessageID = msg.ID
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	log.Printf("[Webhook] Message processed message_id=%s from=%s", msg.ID, msg.From)
	writeJSON(w, http.StatusOK, WebhookResponse{Status: "processed", MessageID: msg.ID, Reply: reply})
}
