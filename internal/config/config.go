package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"whatsapp-agent/internal/models"
)

// DefaultDemoPassword is the shared password of the built-in demo users
const DefaultDemoPassword = "password"

// AccountsFile holds the demo users and seed accounts read from accounts.yaml
type AccountsFile struct {
	Password string           `yaml:"password"`
	Users    []models.User    `yaml:"users"`
	Accounts []models.Account `yaml:"accounts"`
}

// Config holds all application configuration
type Config struct {
	Port              string
	DBPath            string
	StaticDir         string
	SettingsDir       string
	IdleTimeout       time.Duration
	IdleCheckInterval time.Duration
	DemoPassword      string
	Users             []models.User
	Accounts          []models.Account
}

// Load loads configuration from environment and files
func Load() (*Config, error) {
	settingsDir := getEnv("SETTINGS_DIR", "settings")

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DBPath:      getEnv("DB_PATH", "data/app.db"),
		StaticDir:   getEnv("STATIC_DIR", "static"),
		SettingsDir: settingsDir,
	}

	var err error
	if cfg.IdleTimeout, err = getDuration("IDLE_TIMEOUT", 0); err != nil {
		return nil, err
	}
	if cfg.IdleCheckInterval, err = getDuration("IDLE_CHECK_INTERVAL", time.Minute); err != nil {
		return nil, err
	}

	accounts, err := loadAccountsFile(filepath.Join(settingsDir, "accounts.yaml"))
	if err != nil {
		return nil, err
	}
	cfg.DemoPassword = accounts.Password
	cfg.Users = accounts.Users
	cfg.Accounts = accounts.Accounts

	return cfg, nil
}

// loadAccountsFile reads the accounts file. A missing file yields the built-in demo data,
// and any section left out of the file falls back to its demo default.
func loadAccountsFile(path string) (*AccountsFile, error) {
	defaults := DefaultAccountsFile()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read accounts file: %w", err)
	}

	var file AccountsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse accounts file %s: %w", path, err)
	}

	if file.Password == "" {
		file.Password = defaults.Password
	}
	if len(file.Users) == 0 {
		file.Users = defaults.Users
	}
	if file.Accounts == nil {
		file.Accounts = defaults.Accounts
	}
	return &file, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getDuration accepts Go durations ("90s") or a bare number of seconds
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

// DefaultAccountsFile returns the demo users and the two demo bot accounts
func DefaultAccountsFile() *AccountsFile {
	return &AccountsFile{
		Password: DefaultDemoPassword,
		Users: []models.User{
			{ID: "1", Email: "admin@example.com", Name: "Admin User", Role: models.RoleAdmin},
			{ID: "2", Email: "user@example.com", Name: "Regular User", Role: models.RoleUser},
		},
		Accounts: []models.Account{
			{
				ID:   "1",
				Name: "Marketing Bot",
				Messaging: models.MessagingConfig{
					APIKey:             "demo-api-key-1",
					PhoneNumberID:      "1234567890",
					VerificationToken:  "demo-token-1",
					BusinessAccountID:  "1234567890",
					UseBusinessAPI:     true,
					RegularAPIEndpoint: "https://api.whatsapp.com/v1/messages",
				},
				Response: models.ResponseConfig{
					Model:          "gpt-4",
					Temperature:    0.7,
					MaxTokens:      500,
					BusinessPrompt: "You are a helpful marketing assistant.",
				},
				Notifier: models.NotifierConfig{
					TranscriptEmail:   "marketing@example.com",
					NotificationEmail: "alerts@example.com",
				},
				EndKeywords: "thank you,goodbye,end,done",
				GroupID:     "123456789",
			},
			{
				ID:   "2",
				Name: "Support Bot",
				Messaging: models.MessagingConfig{
					APIKey:             "demo-api-key-2",
					PhoneNumberID:      "0987654321",
					VerificationToken:  "demo-token-2",
					BusinessAccountID:  "0987654321",
					UseBusinessAPI:     false,
					RegularAPIEndpoint: "https://api.whatsapp.com/v1/messages",
				},
				Response: models.ResponseConfig{
					Model:          "gpt-4",
					Temperature:    0.5,
					MaxTokens:      800,
					BusinessPrompt: "You are a helpful customer support assistant.",
				},
				Notifier: models.NotifierConfig{
					TranscriptEmail:   "support@example.com",
					NotificationEmail: "alerts@example.com",
				},
				EndKeywords: "thank you,goodbye,end,done,resolved",
				GroupID:     "987654321",
			},
		},
	}
}
