package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"whatsapp-agent/internal/account"
	"whatsapp-agent/internal/models"
)

// SessionHandler signs dashboard operators in and out
type SessionHandler struct {
	store *account.Store
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(store *account.Store) *SessionHandler {
	return &SessionHandler{store: store}
}

// LoginRequest is the body of POST /api/session/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse describes the current session
type SessionResponse struct {
	Authenticated  bool            `json:"authenticated"`
	User           *models.User    `json:"user,omitempty"`
	CurrentAccount *models.Account `json:"current_account,omitempty"`
}

func (h *SessionHandler) session() SessionResponse {
	var resp SessionResponse
	if user, ok := h.store.User(); ok {
		resp.Authenticated = true
		resp.User = &user
	}
	if current, ok := h.store.Current(); ok {
		resp.CurrentAccount = &current
	}
	return resp
}

// Get handles GET /api/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session())
}

// Login handles POST /api/session/login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if _, err := h.store.Login(req.Email, req.Password); err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			http.Error(w, "Invalid email or password", http.StatusUnauthorized)
			return
		}
		log.Printf("[API] Login failed err=%v", err)
		http.Error(w, "Failed to sign in", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, h.session())
}

// Logout handles POST /api/session/logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Logout(); err != nil {
		log.Printf("[API] Logout failed err=%v", err)
		http.Error(w, "Failed to sign out", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
