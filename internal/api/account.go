package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"whatsapp-agent/internal/account"
	"whatsapp-agent/internal/models"
)

// AccountHandler manages the signed-in user's bot accounts
type AccountHandler struct {
	store *account.Store
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(store *account.Store) *AccountHandler {
	return &AccountHandler{store: store}
}

// requireAuth writes 401 and returns false when nobody is signed in
func (h *AccountHandler) requireAuth(w http.ResponseWriter) bool {
	if !h.store.IsAuthenticated() {
		http.Error(w, "Not signed in", http.StatusUnauthorized)
		return false
	}
	return true
}

// List handles GET /api/accounts
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.requireAuth(w) {
		return
	}
	writeJSON(w, http.StatusOK, h.store.Accounts())
}

// Current handles GET /api/accounts/current
func (h *AccountHandler) Current(w http.ResponseWriter, r *http.Request) {
	if !h.requireAuth(w) {
		return
	}
	current, ok := h.store.Current()
	if !ok {
		http.Error(w, "No current account", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, current)
}

// Create handles POST /api/accounts
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.requireAuth(w) {
		return
	}

	var req models.Account
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[API] Create account failed: invalid request body err=%v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	created, err := h.store.CreateAccount(req)
	if err != nil {
		log.Printf("[API] Create account failed err=%v", err)
		http.Error(w, "Failed to create account", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update handles PUT /api/accounts/{id}
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.requireAuth(w) {
		return
	}

	var patch models.AccountPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		http.Error(w, "Name cannot be empty", http.StatusBadRequest)
		return
	}

	updated, err := h.store.UpdateAccount(r.PathValue("id"), patch)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/accounts/{id}
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.requireAuth(w) {
		return
	}
	if err := h.store.DeleteAccount(r.PathValue("id")); err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Switch handles POST /api/accounts/{id}/switch
func (h *AccountHandler) Switch(w http.ResponseWriter, r *http.Request) {
	if !h.requireAuth(w) {
		return
	}
	if err := h.store.SwitchAccount(r.PathValue("id")); err != nil {
		h.writeStoreError(w, err)
		return
	}
	current, _ := h.store.Current()
	writeJSON(w, http.StatusOK, current)
}

func (h *AccountHandler) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, account.ErrAccountNotFound) {
		http.Error(w, "Account not found", http.StatusNotFound)
		return
	}
	log.Printf("[API] Account operation failed err=%v", err)
	http.Error(w, "Account operation failed", http.StatusInternalServerError)
}
