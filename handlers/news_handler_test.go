package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/multiai-chatbot/services/news"
	"github.com/upb/multiai-chatbot/utils"
	"go.uber.org/zap"
)

func newNewsUpstream(t *testing.T, status int, body string) (*news.Client, *int32, *url.Values) {
	t.Helper()
	var calls int32
	var lastQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		lastQuery = r.URL.Query()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	client, err := news.NewClient(news.Config{APIKey: "news-key", BaseURL: server.URL}, zap.NewNop())
	require.NoError(t, err)
	return client, &calls, &lastQuery
}

func TestNewsHandler_GetNews(t *testing.T) {
	payload := `{"status":"ok","totalResults":1,"articles":[{"title":"Headline"}]}`
	client, calls, lastQuery := newNewsUpstream(t, http.StatusOK, payload)
	handler := NewNewsHandler(client, zap.NewNop())

	w := httptest.NewRecorder()
	handler.HandleGetNews(w, httptest.NewRequest(http.MethodGet, "/api/v1/news?category=technology", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, payload, w.Body.String())
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Equal(t, "technology", lastQuery.Get("category"))
	assert.Equal(t, news.DefaultCountry, lastQuery.Get("country"))
}

func TestNewsHandler_SearchNews(t *testing.T) {
	t.Run("short query rejected before any call", func(t *testing.T) {
		client, calls, _ := newNewsUpstream(t, http.StatusOK, `{}`)
		handler := NewNewsHandler(client, zap.NewNop())

		w := httptest.NewRecorder()
		handler.HandleSearchNews(w, httptest.NewRequest(http.MethodGet, "/api/v1/news/search?query=ab", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var response utils.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "Query must be at least 3 characters", response.Message)
		assert.Equal(t, int32(0), atomic.LoadInt32(calls))
	})

	t.Run("valid query proceeds", func(t *testing.T) {
		client, calls, lastQuery := newNewsUpstream(t, http.StatusOK, `{"status":"ok","articles":[]}`)
		handler := NewNewsHandler(client, zap.NewNop())

		w := httptest.NewRecorder()
		handler.HandleSearchNews(w, httptest.NewRequest(http.MethodGet, "/api/v1/news/search?query=abcd", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int32(1), atomic.LoadInt32(calls))
		assert.Equal(t, "abcd", lastQuery.Get("q"))
	})

	t.Run("upstream failure is 500", func(t *testing.T) {
		client, _, _ := newNewsUpstream(t, http.StatusUnauthorized, `{"status":"error","code":"apiKeyInvalid"}`)
		handler := NewNewsHandler(client, zap.NewNop())

		w := httptest.NewRecorder()
		handler.HandleSearchNews(w, httptest.NewRequest(http.MethodGet, "/api/v1/news/search?query=golang", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var response utils.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "upstream_error", response.Error)
		assert.Contains(t, response.Message, "apiKeyInvalid")
	})
}

func TestNewsHandler_NotConfigured(t *testing.T) {
	handler := NewNewsHandler(nil, zap.NewNop())

	for _, target := range []string{"/api/v1/news", "/api/v1/news/search?query=golang"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, target, nil)
		if req.URL.Path == "/api/v1/news" {
			handler.HandleGetNews(w, req)
		} else {
			handler.HandleSearchNews(w, req)
		}
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, target)
	}
}
