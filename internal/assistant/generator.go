package assistant

import (
	"context"
	"log"
	"sync"

	"github.com/sashabaranov/go-openai"

	"whatsapp-agent/internal/logic"
	"whatsapp-agent/internal/models"
)

const (
	// NotConfiguredReply is returned when GenerateReply runs before Initialize
	NotConfiguredReply = "I'm sorry, I'm not configured properly. Please contact support."

	defaultModel = "gpt-4"
)

// Generator produces agent replies from keyword matched canned responses.
// It prepares the chat completion request a model backed generator would send
// but never sends it.
type Generator struct {
	mu          sync.RWMutex
	config      *models.ResponseConfig
	lastRequest *openai.ChatCompletionRequest
}

// Option configures the generator
type Option func(*Generator)

// WithConfig initializes the generator at construction time
func WithConfig(cfg models.ResponseConfig) Option {
	return func(g *Generator) {
		g.config = &cfg
	}
}

// NewGenerator creates a new response generator
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Initialize stores the response configuration. No validation is performed.
func (g *Generator) Initialize(cfg models.ResponseConfig) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.config = &cfg
	g.lastRequest = nil
	log.Printf("[Assistant] Initialized model=%s temperature=%.2f max_tokens=%d", cfg.Model, cfg.Temperature, cfg.MaxTokens)
}

// Config returns the active configuration, false when not initialized
func (g *Generator) Config() (models.ResponseConfig, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.config == nil {
		return models.ResponseConfig{}, false
	}
	return *g.config, true
}

// LastRequest returns the most recently prepared completion request
func (g *Generator) LastRequest() (openai.ChatCompletionRequest, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.lastRequest == nil {
		return openai.ChatCompletionRequest{}, false
	}
	return *g.lastRequest, true
}

// GenerateReply returns the reply for a message given the conversation history.
// History and model settings shape the prepared request but not the reply text.
func (g *Generator) GenerateReply(ctx context.Context, text string, history []openai.ChatCompletionMessage) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.config == nil {
		log.Printf("[Assistant] GenerateReply failed: not initialized")
		return NotConfiguredReply
	}

	req := BuildRequest(*g.config, text, history)
	g.lastRequest = &req

	category, reply := logic.SelectReply(text)
	log.Printf("[Assistant] GenerateReply completed category=%s history_length=%d", category, len(history))
	return reply
}

// IsEndOfConversation reports whether text contains any of the comma separated keywords
func (g *Generator) IsEndOfConversation(text, keywordsCSV string) bool {
	return logic.IsEndOfConversation(text, keywordsCSV)
}

// BuildRequest assembles the chat completion request for a reply.
// The user message is not repeated when history already ends with it.
func BuildRequest(cfg models.ResponseConfig, text string, history []openai.ChatCompletionMessage) openai.ChatCompletionRequest {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if cfg.BusinessPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: cfg.BusinessPrompt,
		})
	}
	messages = append(messages, history...)

	n := len(history)
	if n == 0 || history[n-1].Role != openai.ChatMessageRoleUser || history[n-1].Content != text {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: text,
		})
	}

	return openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
}

// HistoryFromMessages maps conversation messages to chat roles (user -> user, agent -> assistant)
func HistoryFromMessages(messages []models.Message) []openai.ChatCompletionMessage {
	history := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		role := openai.ChatMessageRoleAssistant
		if msg.Sender == models.SenderUser {
			role = openai.ChatMessageRoleUser
		}
		history[i] = openai.ChatCompletionMessage{Role: role, Content: msg.Content}
	}
	return history
}
