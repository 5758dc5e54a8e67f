package models

// Role is the permission level of a dashboard user
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is a signed-in dashboard operator
type User struct {
	ID    string `json:"id" yaml:"id"`
	Email string `json:"email" yaml:"email"`
	Name  string `json:"name" yaml:"name"`
	Role  Role   `json:"role" yaml:"role"`
}

// MessagingConfig holds WhatsApp API credentials for one account
type MessagingConfig struct {
	APIKey             string `json:"api_key" yaml:"api_key"`
	PhoneNumberID      string `json:"phone_number_id" yaml:"phone_number_id"`
	VerificationToken  string `json:"verification_token" yaml:"verification_token"`
	BusinessAccountID  string `json:"business_account_id" yaml:"business_account_id"`
	UseBusinessAPI     bool   `json:"use_business_api" yaml:"use_business_api"`
	RegularAPIEndpoint string `json:"regular_api_endpoint" yaml:"regular_api_endpoint"`
}

// ResponseConfig holds the language model settings for one account
type ResponseConfig struct {
	Model          string  `json:"model" yaml:"model"`
	Temperature    float32 `json:"temperature" yaml:"temperature"`
	MaxTokens      int     `json:"max_tokens" yaml:"max_tokens"`
	BusinessPrompt string  `json:"business_prompt" yaml:"business_prompt"`
}

// NotifierConfig holds the email recipients for one account
type NotifierConfig struct {
	TranscriptEmail   string `json:"transcript_email" yaml:"transcript_email"`
	NotificationEmail string `json:"notification_email" yaml:"notification_email"`
}

// Account bundles everything one bot identity needs
type Account struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Messaging   MessagingConfig `json:"messaging" yaml:"messaging"`
	Response    ResponseConfig  `json:"response" yaml:"response"`
	Notifier    NotifierConfig  `json:"notifier" yaml:"notifier"`
	EndKeywords string          `json:"end_keywords" yaml:"end_keywords"`
	GroupID     string          `json:"group_id" yaml:"group_id"`
}

// AccountPatch carries the fields of an account update; nil fields are left untouched
type AccountPatch struct {
	Name        *string          `json:"name,omitempty"`
	Messaging   *MessagingConfig `json:"messaging,omitempty"`
	Response    *ResponseConfig  `json:"response,omitempty"`
	Notifier    *NotifierConfig  `json:"notifier,omitempty"`
	EndKeywords *string          `json:"end_keywords,omitempty"`
	GroupID     *string          `json:"group_id,omitempty"`
}

// Apply returns a copy of a with the patch fields applied
func (p AccountPatch) Apply(a Account) Account {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Messaging != nil {
		a.Messaging = *p.Messaging
	}
	if p.Response != nil {
		a.Response = *p.Response
	}
	if p.Notifier != nil {
		a.Notifier = *p.Notifier
	}
	if p.EndKeywords != nil {
		a.EndKeywords = *p.EndKeywords
	}
	if p.GroupID != nil {
		a.GroupID = *p.GroupID
	}
	return a
}
