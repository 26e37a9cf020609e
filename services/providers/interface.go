package providers

import (
	"context"
	"net/http"
	"time"
)

// Service identifies one of the LLM backends a chat request can be routed to
type Service string

const (
	ServiceGroq       Service = "groq"
	ServiceDatabricks Service = "databricks"
)

// KnownServices returns every routable service in a stable order
func KnownServices() []Service {
	return []Service{ServiceGroq, ServiceDatabricks}
}

// ParseService maps a caller-supplied name to a known Service
func ParseService(name string) (Service, bool) {
	switch Service(name) {
	case ServiceGroq:
		return ServiceGroq, true
	case ServiceDatabricks:
		return ServiceDatabricks, true
	default:
		return "", false
	}
}

// Role is the author of a chat message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Usage represents token usage statistics reported by a provider
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the provider-independent result of a chat call.
// Content is always populated, with a human-readable message when Error is set.
type ChatResponse struct {
	Content string    `json:"content"`
	Service Service   `json:"service"`
	Model   string    `json:"model,omitempty"`
	Usage   *Usage    `json:"usage,omitempty"`
	Error   ErrorKind `json:"error,omitempty"`
}

// Provider is implemented by every LLM adapter.
// Chat never returns a Go error: every outcome is folded into the ChatResponse.
type Provider interface {
	// Name returns the service this adapter serves
	Name() Service

	// Chat sends message with the persona for chatbotType and the trailing window of history
	Chat(ctx context.Context, message string, chatbotType ChatbotType, history []Message) ChatResponse
}

// ProviderConfig holds common configuration for providers
type ProviderConfig struct {
	// APIKey for authentication
	APIKey string

	// BaseURL is the API root (Groq) or full serving endpoint (Databricks)
	BaseURL string

	// Timeout for requests
	Timeout time.Duration

	// Personas maps chatbot types to system prompts; nil uses DefaultPersonas
	Personas map[ChatbotType]string

	// HTTPClient overrides the client built from Timeout
	HTTPClient *http.Client
}

// DefaultTimeout bounds every upstream call
const DefaultTimeout = 30 * time.Second

// NewHTTPClient returns the configured client or one bounded by Timeout
func (c ProviderConfig) NewHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
