package handlers

import (
	"net/http"

	"github.com/upb/multiai-chatbot/utils"
	"go.uber.org/zap"
)

// Version is the API version reported by the info endpoints
const Version = "1.0.0"

// InfoHandler serves the static discovery endpoints
type InfoHandler struct {
	environment string
	logger      *zap.Logger
}

// NewInfoHandler creates a new InfoHandler
func NewInfoHandler(environment string, logger *zap.Logger) *InfoHandler {
	return &InfoHandler{environment: environment, logger: logger}
}

// HandleRoot handles GET /
func (h *InfoHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	h.write(w, map[string]interface{}{
		"message":     ServiceName + " is running!",
		"version":     Version,
		"status":      "healthy",
		"environment": h.environment,
		"endpoints": map[string]string{
			"health":   "/health",
			"services": "/api/v1/services",
			"chat":     "/api/v1/chat",
			"news":     "/api/v1/news",
			"metrics":  "/metrics",
		},
	})
}

// HandleAPIInfo handles GET /api
func (h *InfoHandler) HandleAPIInfo(w http.ResponseWriter, r *http.Request) {
	h.write(w, map[string]interface{}{
		"name":        ServiceName,
		"version":     Version,
		"description": "Backend API for Multi-AI Chatbot with Groq and Databricks integration",
		"endpoints": map[string]string{
			"chat":        "/api/v1/chat",
			"news":        "/api/v1/news",
			"news_search": "/api/v1/news/search",
			"services":    "/api/v1/services",
			"exchanges":   "/api/v1/exchanges",
		},
	})
}

// HandleTest handles GET /test
func (h *InfoHandler) HandleTest(w http.ResponseWriter, r *http.Request) {
	h.write(w, map[string]string{
		"message": "API is working correctly!",
		"status":  "success",
	})
}

func (h *InfoHandler) write(w http.ResponseWriter, body interface{}) {
	if err := utils.WriteJSON(w, http.StatusOK, body); err != nil {
		h.logger.Error("failed to write info response", zap.Error(err))
	}
}
