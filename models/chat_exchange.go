package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatExchange is the metadata of one routed chat call.
// Message text and history content are never stored.
type ChatExchange struct {
	ID               uuid.UUID `json:"id" db:"id"`
	RequestID        string    `json:"request_id" db:"request_id"`
	Service          string    `json:"service" db:"service"`
	ChatbotType      string    `json:"chatbot_type" db:"chatbot_type"`
	Model            *string   `json:"model,omitempty" db:"model"`
	ErrorKind        *string   `json:"error_kind,omitempty" db:"error_kind"`
	PromptTokens     *int      `json:"prompt_tokens,omitempty" db:"prompt_tokens"`
	CompletionTokens *int      `json:"completion_tokens,omitempty" db:"completion_tokens"`
	TotalTokens      *int      `json:"total_tokens,omitempty" db:"total_tokens"`
	HistoryLen       int       `json:"history_len" db:"history_len"`
	LatencyMs        int       `json:"latency_ms" db:"latency_ms"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the ChatExchange model
func (ChatExchange) TableName() string {
	return "chat_exchanges"
}

// NewChatExchange creates a new ChatExchange instance
func NewChatExchange(requestID, service, chatbotType string) *ChatExchange {
	return &ChatExchange{
		ID:          uuid.New(),
		RequestID:   requestID,
		Service:     service,
		ChatbotType: chatbotType,
		CreatedAt:   time.Now().UTC(),
	}
}

// WithModel sets the model that served the call
func (e *ChatExchange) WithModel(model string) *ChatExchange {
	if model != "" {
		e.Model = &model
	}
	return e
}

// WithError sets the error kind of a failed call
func (e *ChatExchange) WithError(kind string) *ChatExchange {
	if kind != "" {
		e.ErrorKind = &kind
	}
	return e
}

// WithUsage sets the token accounting reported by the provider
func (e *ChatExchange) WithUsage(prompt, completion, total int) *ChatExchange {
	e.PromptTokens = &prompt
	e.CompletionTokens = &completion
	e.TotalTokens = &total
	return e
}

// WithTiming sets the history length and latency of the call
func (e *ChatExchange) WithTiming(historyLen int, latency time.Duration) *ChatExchange {
	e.HistoryLen = historyLen
	e.LatencyMs = int(latency.Milliseconds())
	return e
}

// Succeeded reports whether the call produced model output
func (e *ChatExchange) Succeeded() bool {
	return e.ErrorKind == nil
}
