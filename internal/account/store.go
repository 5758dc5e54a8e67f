package account

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"whatsapp-agent/internal/models"
)

var (
	// ErrInvalidCredentials is returned when the email or password does not match
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountNotFound is returned for unknown account ids
	ErrAccountNotFound = errors.New("account not found")
)

// Listener is called with the new current account, or nil when none is selected
type Listener func(current *models.Account)

// Store holds the signed-in user, their accounts, and the current account.
// changeMu is held from a state change until its listeners return, so listeners
// see current-account changes in the order the store made them.
type Store struct {
	changeMu  sync.Mutex
	mu        sync.RWMutex
	session   SessionStore
	users     []models.User
	password  string
	seed      []models.Account
	user      *models.User
	accounts  []models.Account
	currentID string
	listeners []Listener
}

// NewStore creates a signed-out store. seed is the account list loaded for every user.
func NewStore(session SessionStore, users []models.User, password string, seed []models.Account) *Store {
	return &Store{
		session:  session,
		users:    users,
		password: password,
		seed:     seed,
	}
}

// OnCurrentChange registers a listener for changes of the current account
func (s *Store) OnCurrentChange(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Restore signs back in the user saved in the session store, if any
func (s *Store) Restore() error {
	s.changeMu.Lock()
	defer s.changeMu.Unlock()

	raw, err := s.session.GetState(UserKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read saved user: %w", err)
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		log.Printf("[Account] Failed to parse saved user, clearing session err=%v", err)
		return s.session.DeleteState(UserKey)
	}

	savedCurrent, err := s.session.GetState(CurrentAccountKey)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to read current account: %w", err)
	}

	s.mu.Lock()
	s.user = &user
	s.loadAccountsLocked()
	if savedCurrent != "" && s.indexLocked(savedCurrent) >= 0 {
		s.currentID = savedCurrent
	}
	current, listeners := s.currentLocked(), s.listeners
	s.mu.Unlock()

	if err := s.persistCurrent(current); err != nil {
		return err
	}
	log.Printf("[Account] Session restored user=%s current=%s", user.Email, accountID(current))
	notify(listeners, current)
	return nil
}

// Login signs a demo user in and selects their first account
func (s *Store) Login(email, password string) (models.User, error) {
	var found *models.User
	for i := range s.users {
		if strings.EqualFold(s.users[i].Email, email) {
			found = &s.users[i]
			break
		}
	}
	if found == nil || password != s.password {
		log.Printf("[Account] Login failed email=%s", email)
		return models.User{}, ErrInvalidCredentials
	}

	s.changeMu.Lock()
	defer s.changeMu.Unlock()

	user := *found
	data, err := json.Marshal(user)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to encode user: %w", err)
	}
	if err := s.session.SetState(UserKey, string(data)); err != nil {
		return models.User{}, fmt.Errorf("failed to save user: %w", err)
	}

	s.mu.Lock()
	s.user = &user
	s.loadAccountsLocked()
	current, listeners := s.currentLocked(), s.listeners
	s.mu.Unlock()

	if err := s.persistCurrent(current); err != nil {
		return models.User{}, err
	}
	log.Printf("[Account] Login succeeded user=%s accounts=%d", user.Email, len(s.Accounts()))
	notify(listeners, current)
	return user, nil
}

// Logout clears the user, their accounts, and the persisted session
func (s *Store) Logout() error {
	s.changeMu.Lock()
	defer s.changeMu.Unlock()

	s.mu.Lock()
	wasCurrent := s.currentID != ""
	s.user = nil
	s.accounts = nil
	s.currentID = ""
	listeners := s.listeners
	s.mu.Unlock()

	if err := s.session.DeleteState(UserKey); err != nil {
		return fmt.Errorf("failed to clear user: %w", err)
	}
	if err := s.session.DeleteState(CurrentAccountKey); err != nil {
		return fmt.Errorf("failed to clear current account: %w", err)
	}

	log.Printf("[Account] Logged out")
	if wasCurrent {
		notify(listeners, nil)
	}
	return nil
}

// User returns the signed-in user
func (s *Store) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// IsAuthenticated reports whether a user is signed in
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// Accounts returns a copy of the signed-in user's accounts
func (s *Store) Accounts() []models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Account, len(s.accounts))
	copy(out, s.accounts)
	return out
}

// Current returns the current account
func (s *Store) Current() (models.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.currentLocked()
	if current == nil {
		return models.Account{}, false
	}
	return *current, true
}

// CreateAccount adds an account with a fresh id. The first account becomes current.
func (s *Store) CreateAccount(a models.Account) (models.Account, error) {
	s.changeMu.Lock()
	defer s.changeMu.Unlock()

	a.ID = strings.ReplaceAll(uuid.NewString(), "-", "")[:9]

	s.mu.Lock()
	s.accounts = append(s.accounts, a)
	first := len(s.accounts) == 1
	if first {
		s.currentID = a.ID
	}
	current, listeners := s.currentLocked(), s.listeners
	s.mu.Unlock()

	log.Printf("[Account] Account created account_id=%s name=%q", a.ID, a.Name)
	if first {
		if err := s.persistCurrent(current); err != nil {
			return models.Account{}, err
		}
		notify(listeners, current)
	}
	return a, nil
}

// SwitchAccount makes the account with id current
func (s *Store) SwitchAccount(id string) error {
	s.changeMu.Lock()
	defer s.changeMu.Unlock()

	s.mu.Lock()
	if s.indexLocked(id) < 0 {
		s.mu.Unlock()
		return ErrAccountNotFound
	}
	s.currentID = id
	current, listeners := s.currentLocked(), s.listeners
	s.mu.Unlock()

	if err := s.persistCurrent(current); err != nil {
		return err
	}
	log.Printf("[Account] Switched account account_id=%s name=%q", id, current.Name)
	notify(listeners, current)
	return nil
}

// UpdateAccount applies patch to the account with id
func (s *Store) UpdateAccount(id string, patch models.AccountPatch) (models.Account, error) {
	s.changeMu.Lock()
	defer s.changeMu.Unlock()

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return models.Account{}, ErrAccountNotFound
	}
	updated := patch.Apply(s.accounts[idx])
	updated.ID = id
	s.accounts[idx] = updated
	isCurrent := s.currentID == id
	current, listeners := s.currentLocked(), s.listeners
	s.mu.Unlock()

	log.Printf("[Account] Account updated account_id=%s current=%t", id, isCurrent)
	if isCurrent {
		notify(listeners, current)
	}
	return updated, nil
}

// DeleteAccount removes the account with id. Deleting the current account selects the first remaining one.
func (s *Store) DeleteAccount(id string) error {
	s.changeMu.Lock()
	defer s.changeMu.Unlock()

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrAccountNotFound
	}
	s.accounts = append(s.accounts[:idx], s.accounts[idx+1:]...)
	wasCurrent := s.currentID == id
	if wasCurrent {
		s.currentID = ""
		if len(s.accounts) > 0 {
			s.currentID = s.accounts[0].ID
		}
	}
	current, listeners := s.currentLocked(), s.listeners
	s.mu.Unlock()

	log.Printf("[Account] Account deleted account_id=%s was_current=%t", id, wasCurrent)
	if wasCurrent {
		if err := s.persistCurrent(current); err != nil {
			return err
		}
		notify(listeners, current)
	}
	return nil
}

// loadAccountsLocked replaces the account list with a copy of the seed and selects the first
func (s *Store) loadAccountsLocked() {
	s.accounts = make([]models.Account, len(s.seed))
	copy(s.accounts, s.seed)
	s.currentID = ""
	if len(s.accounts) > 0 {
		s.currentID = s.accounts[0].ID
	}
}

func (s *Store) indexLocked(id string) int {
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) currentLocked() *models.Account {
	idx := s.indexLocked(s.currentID)
	if s.currentID == "" || idx < 0 {
		return nil
	}
	a := s.accounts[idx]
	return &a
}

func (s *Store) persistCurrent(current *models.Account) error {
	var err error
	if current == nil {
		err = s.session.DeleteState(CurrentAccountKey)
	} else {
		err = s.session.SetState(CurrentAccountKey, current.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to save current account: %w", err)
	}
	return nil
}

// notify runs listeners in registration order; callers hold changeMu
func notify(listeners []Listener, current *models.Account) {
	for _, l := range listeners {
		l(current)
	}
}

func accountID(a *models.Account) string {
	if a == nil {
		return ""
	}
	return a.ID
}
