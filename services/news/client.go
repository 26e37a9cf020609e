package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/upb/multiai-chatbot/services"
	"go.uber.org/zap"
)

const (
	defaultBaseURL  = "https://newsapi.org/v2"
	defaultTimeout  = 30 * time.Second
	maxPayloadBytes = 4 << 20

	// DefaultCategory and DefaultCountry are used when the caller omits them
	DefaultCategory = "general"
	DefaultCountry  = "us"

	// MinQueryLength is the shortest accepted search query, in characters
	MinQueryLength = 3
)

// ErrMissingAPIKey is returned by NewClient when no key is configured
var ErrMissingAPIKey = errors.New("news: API key not configured")

// Config holds the news provider settings
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client forwards headline and search lookups to a NewsAPI-compatible provider
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new news client
func NewClient(config Config, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiKey:     config.APIKey,
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger.With(zap.String("component", "news")),
	}, nil
}

// GetNews returns the raw top headlines payload for category and country
func (c *Client) GetNews(ctx context.Context, category, country string) (json.RawMessage, error) {
	if category == "" {
		category = DefaultCategory
	}
	if country == "" {
		country = DefaultCountry
	}

	params := url.Values{}
	params.Set("category", category)
	params.Set("country", country)
	return c.get(ctx, "/top-headlines", params)
}

// SearchNews returns the raw search payload for query.
// Queries shorter than MinQueryLength are rejected before any request is sent.
func (c *Client) SearchNews(ctx context.Context, query string) (json.RawMessage, error) {
	if utf8.RuneCountInString(query) < MinQueryLength {
		return nil, services.ErrQueryTooShort
	}

	params := url.Values{}
	params.Set("q", query)
	return c.get(ctx, "/everything", params)
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	endpoint := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.WrapInternal("failed to build news request", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("news request failed", zap.String("path", path), zap.Error(err))
		return nil, services.NewNewsUpstreamError(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, services.NewNewsUpstreamError(fmt.Errorf("read response: %w", err))
	}

	c.logger.Debug("news response received",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(startTime)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, services.NewNewsUpstreamError(
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))).
			WithDetail("status", resp.StatusCode)
	}
	if !json.Valid(body) {
		return nil, services.NewNewsUpstreamError(errors.New("malformed JSON payload"))
	}

	return json.RawMessage(body), nil
}
