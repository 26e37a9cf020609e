package databricks

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
	// ModelLabel is reported when the serving endpoint does not echo a model
	ModelLabel = "databricks-serving-endpoint"

	// HistoryWindow is how many trailing history entries are forwarded
	HistoryWindow = 4

	temperature = 0.7
	maxTokens   = 1024
)

var (
	// ErrMissingAPIKey is returned by NewAdapter when no token is configured
	ErrMissingAPIKey = errors.New("databricks: API key not configured")

	// ErrMissingEndpoint is returned by NewAdapter when no serving endpoint is configured
	ErrMissingEndpoint = errors.New("databricks: serving endpoint not configured")
)

// Adapter implements providers.Provider for a Databricks model serving endpoint.
// The endpoint speaks the chat completions format and is addressed by its full URL.
type Adapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
	personas   map[providers.ChatbotType]string
	logger     *zap.Logger
}

// NewAdapter creates a new Databricks adapter
func NewAdapter(config providers.ProviderConfig, logger *zap.Logger) (*Adapter, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(config.BaseURL) == "" {
		return nil, ErrMissingEndpoint
	}
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
		logger:     logger.With(zap.String("provider", string(providers.ServiceDatabricks))),
	}, nil
}

// Name returns the provider name
func (a *Adapter) Name() providers.Service {
	return providers.ServiceDatabricks
}

// Chat sends one request to the serving endpoint and normalizes the outcome
func (a *Adapter) Chat(ctx context.Context, message string, chatbotType providers.ChatbotType, history []providers.Message) providers.ChatResponse {
	startTime := time.Now()
	systemPrompt := providers.SystemPrompt(a.personas, chatbotType)
	req := &InvocationRequest{
		Messages:    providers.BuildMessages(systemPrompt, history, HistoryWindow, message),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	result, err := a.invoke(ctx, req)
	if err != nil {
		a.logger.Warn("databricks request failed",
			zap.Error(err),
			zap.Duration("latency", time.Since(startTime)))
		return providers.ErrorResponse(providers.ServiceDatabricks, err, providers.ErrorKindDatabricks)
	}

	model := result.Model
	if model == "" {
		model = ModelLabel
	}

	a.logger.Debug("received response from Databricks endpoint",
		zap.String("model", model),
		zap.Duration("latency", time.Since(startTime)))

	return providers.ChatResponse{
		Content: result.Choices[0].Message.Content,
		Service: providers.ServiceDatabricks,
		Model:   model,
		Usage:   result.Usage,
	}
}

func (a *Adapter) invoke(ctx context.Context, req *InvocationRequest) (*InvocationResponse, error) {
	status, body, err := providers.PostJSON(ctx, a.httpClient, a.config.BaseURL, a.config.APIKey, req)
	if err != nil {
		return nil, transportError(err)
	}

	if provErr := statusError(status, body); provErr != nil {
		return nil, provErr
	}

	var result InvocationResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, providers.NewProviderError(providers.ServiceDatabricks, providers.ErrorKindDatabricks,
			fmt.Sprintf("Databricks Error: could not decode response: %v", err), status, err)
	}
	if len(result.Choices) == 0 {
		return nil, providers.NewProviderError(providers.ServiceDatabricks, providers.ErrorKindDatabricks,
			"Databricks Error: the serving endpoint returned no choices", status, errors.New("empty choices"))
	}
	return &result, nil
}

func transportError(err error) error {
	switch providers.ClassifyTransportError(err) {
	case providers.ErrorKindTimeout:
		return providers.NewProviderError(providers.ServiceDatabricks, providers.ErrorKindTimeout,
			"Timeout Error: The Databricks endpoint took too long. Please try again.", 0, err)
	case providers.ErrorKindConnection:
		return providers.NewProviderError(providers.ServiceDatabricks, providers.ErrorKindConnection,
			"Connection Error: Cannot reach the Databricks serving endpoint.", 0, err)
	default:
		return providers.NewProviderError(providers.ServiceDatabricks, providers.ErrorKindDatabricks,
			fmt.Sprintf("Databricks Error: %v", err), 0, err)
	}
}

// statusError maps non-success statuses; it returns nil for 2xx
func statusError(status int, body []byte) *providers.ProviderError {
	cause := fmt.Errorf("databricks: unexpected status %d: %s", status, upstreamMessage(body))

	switch status {
	case http.StatusUnauthorized:
		return providers.NewProviderError(providers.ServiceDatabricks, providers.ErrorKindAuthentication,
			"Authentication Error: Invalid Databricks token. Please check your configuration.", status, cause)
	case http.StatusTooManyRequests:
		return providers.NewProviderError(providers.ServiceDatabricks, providers.ErrorKindRateLimit,
			"Rate Limit Exceeded: Please try again in a few moments.", status, cause)
	case http.StatusBadRequest:
		return providers.NewProviderError(providers.ServiceDatabricks, providers.ErrorKindBadRequest,
			"API Error: Bad request. The message might be too long or malformed.", status, cause)
	}

	if status < 200 || status >= 300 {
		return providers.NewProviderError(providers.ServiceDatabricks, providers.ErrorKindDatabricks,
			fmt.Sprintf("Databricks Error: %d %s from serving endpoint", status, http.StatusText(status)), status, cause)
	}
	return nil
}

// upstreamMessage extracts the message of a Databricks error body
func upstreamMessage(body []byte) string {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return errResp.Message
	}
	if len(body) > 256 {
		body = body[:256]
	}
	return string(body)
}

// Databricks serving request/response types

type InvocationRequest struct {
	Messages    []providers.Message `json:"messages"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens"`
}

type InvocationResponse struct {
	ID      string           `json:"id,omitempty"`
	Model   string           `json:"model,omitempty"`
	Choices []Choice         `json:"choices"`
	Usage   *providers.Usage `json:"usage,omitempty"`
}

type Choice struct {
	Index        int               `json:"index"`
	Message      providers.Message `json:"message"`
	FinishReason string            `json:"finish_reason"`
}

type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}
