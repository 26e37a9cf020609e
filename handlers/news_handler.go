package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/upb/multiai-chatbot/services"
	"github.com/upb/multiai-chatbot/utils"
	"go.uber.org/zap"
)

// NewsClient looks up headlines and searches at the news provider
type NewsClient interface {
	GetNews(ctx context.Context, category, country string) (json.RawMessage, error)
	SearchNews(ctx context.Context, query string) (json.RawMessage, error)
}

// NewsHandler passes news lookups through to the provider unchanged
type NewsHandler struct {
	client NewsClient
	logger *zap.Logger
}

// NewNewsHandler creates a new NewsHandler. A nil client disables the endpoints.
func NewNewsHandler(client NewsClient, logger *zap.Logger) *NewsHandler {
	return &NewsHandler{client: client, logger: logger}
}

// HandleGetNews handles GET /api/v1/news?category=&country=
func (h *NewsHandler) HandleGetNews(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		HandleServiceError(w, services.ErrNewsUnavailable, h.logger)
		return
	}

	query := r.URL.Query()
	payload, err := h.client.GetNews(r.Context(), query.Get("category"), query.Get("country"))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.write(w, payload)
}

// HandleSearchNews handles GET /api/v1/news/search?query=
func (h *NewsHandler) HandleSearchNews(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		HandleServiceError(w, services.ErrNewsUnavailable, h.logger)
		return
	}

	payload, err := h.client.SearchNews(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.write(w, payload)
}

func (h *NewsHandler) write(w http.ResponseWriter, payload json.RawMessage) {
	if err := utils.WriteRawJSON(w, http.StatusOK, payload); err != nil {
		h.logger.Error("failed to write news response", zap.Error(err))
	}
}
