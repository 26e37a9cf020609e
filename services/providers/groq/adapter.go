package groq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/upb/multiai-chatbot/services/providers"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.groq.com/openai/v1"

	// DefaultModel is the Groq model every request is sent to
	DefaultModel = "llama-3.1-8b-instant"

	// HistoryWindow is how many trailing history entries are forwarded
	HistoryWindow = 6

	temperature = 0.7
	maxTokens   = 1024
	topP        = 1.0
)

// ErrMissingAPIKey is returned by NewAdapter when no API key is configured
var ErrMissingAPIKey = errors.New("groq: API key not configured")

// Adapter implements providers.Provider for the Groq chat completions API
type Adapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
	personas   map[providers.ChatbotType]string
	logger     *zap.Logger
}

// NewAdapter creates a new Groq adapter
func NewAdapter(config providers.ProviderConfig, logger *zap.Logger) (*Adapter, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = providers.DefaultTimeout
	}

	personas := config.Personas
	if personas == nil {
		personas = providers.DefaultPersonas()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Adapter{
		config:     config,
		httpClient: config.NewHTTPClient(),
		personas:   personas,
		logger:     logger.With(zap.String("provider", string(providers.ServiceGroq))),
	}, nil
}

// Name returns the provider name
func (a *Adapter) Name() providers.Service {
	return providers.ServiceGroq
}

// Chat sends one chat completion request and normalizes the outcome
func (a *Adapter) Chat(ctx context.Context, message string, chatbotType providers.ChatbotType, history []providers.Message) providers.ChatResponse {
	startTime := time.Now()
	req := a.buildRequest(message, chatbotType, history)

	a.logger.Debug("sending request to Groq API", zap.Int("messages", len(req.Messages)))

	completion, err := a.send(ctx, req)
	if err != nil {
		a.logger.Warn("groq request failed",
			zap.Error(err),
			zap.Duration("latency", time.Since(startTime)))
		return providers.ErrorResponse(providers.ServiceGroq, err, providers.ErrorKindGeneral)
	}

	a.logger.Debug("received response from Groq API",
		zap.String("model", completion.Model),
		zap.Duration("latency", time.Since(startTime)))

	return providers.ChatResponse{
		Content: completion.Choices[0].Message.Content,
		Service: providers.ServiceGroq,
		Model:   completion.Model,
		Usage:   completion.Usage,
	}
}

// buildRequest converts the generic call into a Groq request body
func (a *Adapter) buildRequest(message string, chatbotType providers.ChatbotType, history []providers.Message) *ChatCompletionRequest {
	systemPrompt := providers.SystemPrompt(a.personas, chatbotType)

	return &ChatCompletionRequest{
		Model:       DefaultModel,
		Messages:    providers.BuildMessages(systemPrompt, history, HistoryWindow, message),
		Temperature: temperature,
		MaxTokens:   maxTokens,
		TopP:        topP,
		Stream:      false,
	}
}

func (a *Adapter) send(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	status, body, err := providers.PostJSON(ctx, a.httpClient, a.config.BaseURL+"/chat/completions", a.config.APIKey, req)
	if err != nil {
		return nil, transportError(err)
	}

	if provErr := statusError(status, body); provErr != nil {
		return nil, provErr
	}

	var completion ChatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, providers.NewProviderError(providers.ServiceGroq, providers.ErrorKindGeneral,
			fmt.Sprintf("Error: could not decode Groq response: %v", err), status, err)
	}
	if len(completion.Choices) == 0 {
		return nil, providers.NewProviderError(providers.ServiceGroq, providers.ErrorKindGeneral,
			"Error: Groq returned no choices", status, errors.New("empty choices"))
	}

	return &completion, nil
}

func transportError(err error) error {
	switch providers.ClassifyTransportError(err) {
	case providers.ErrorKindTimeout:
		return providers.NewProviderError(providers.ServiceGroq, providers.ErrorKindTimeout,
			"Timeout Error: The request took too long. Please try again.", 0, err)
	case providers.ErrorKindConnection:
		return providers.NewProviderError(providers.ServiceGroq, providers.ErrorKindConnection,
			"Connection Error: Cannot reach Groq API. Check your internet connection.", 0, err)
	default:
		return providers.NewProviderError(providers.ServiceGroq, providers.ErrorKindGeneral,
			fmt.Sprintf("Error: %v", err), 0, err)
	}
}

// statusError maps non-success statuses; it returns nil for 2xx
func statusError(status int, body []byte) *providers.ProviderError {
	cause := fmt.Errorf("groq: unexpected status %d: %s", status, upstreamMessage(body))

	switch status {
	case http.StatusUnauthorized:
		return providers.NewProviderError(providers.ServiceGroq, providers.ErrorKindAuthentication,
			"Authentication Error: Invalid Groq API key. Please check your configuration.", status, cause)
	case http.StatusTooManyRequests:
		return providers.NewProviderError(providers.ServiceGroq, providers.ErrorKindRateLimit,
			"Rate Limit Exceeded: Please try again in a few moments.", status, cause)
	case http.StatusBadRequest:
		return providers.NewProviderError(providers.ServiceGroq, providers.ErrorKindBadRequest,
			"API Error: Bad request. The message might be too long or malformed.", status, cause)
	}

	if status < 200 || status >= 300 {
		return providers.NewProviderError(providers.ServiceGroq, providers.ErrorKindGeneral,
			fmt.Sprintf("Error: %d %s from Groq API", status, http.StatusText(status)), status, cause)
	}
	return nil
}

// upstreamMessage extracts the error message of an OpenAI-style error body
func upstreamMessage(body []byte) string {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	if len(body) > 256 {
		body = body[:256]
	}
	return string(body)
}

// Groq-specific request/response types

type ChatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []providers.Message `json:"messages"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens"`
	TopP        float64             `json:"top_p"`
	Stream      bool                `json:"stream"`
}

type ChatCompletionResponse struct {
	ID      string           `json:"id"`
	Object  string           `json:"object"`
	Created int64            `json:"created"`
	Model   string           `json:"model"`
	Choices []Choice         `json:"choices"`
	Usage   *providers.Usage `json:"usage,omitempty"`
}

type Choice struct {
	Index        int               `json:"index"`
	Message      providers.Message `json:"message"`
	FinishReason string            `json:"finish_reason"`
}

type ErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}
