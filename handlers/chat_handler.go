package handlers

import (
	"context"
	"net/http"

	"github.com/upb/multiai-chatbot/middleware"
	"github.com/upb/multiai-chatbot/services/availability"
	"github.com/upb/multiai-chatbot/services/chat"
	"github.com/upb/multiai-chatbot/services/providers"
	"github.com/upb/multiai-chatbot/utils"
	"go.uber.org/zap"
)

// ChatMessage is one history entry of a chat request.
// Assistant turns may be empty; an upstream can legitimately return no text.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required_unless=Role assistant"`
}

// ChatRequest is the body of POST /api/v1/chat.
// History is capped at 100 entries; adapters only forward a short tail.
type ChatRequest struct {
	Message     string        `json:"message" validate:"required"`
	ChatbotType string        `json:"chatbot_type" validate:"required"`
	Service     string        `json:"service" validate:"required"`
	History     []ChatMessage `json:"history" validate:"omitempty,max=100,dive"`
}

// ChatRouter routes a validated chat request to a provider
type ChatRouter interface {
	Route(ctx context.Context, req chat.Request) providers.ChatResponse
}

// AvailabilityChecker reports which services are usable
type AvailabilityChecker interface {
	Check() availability.ServiceAvailability
}

// ChatHandler handles chat and service discovery requests
type ChatHandler struct {
	router    ChatRouter
	checker   AvailabilityChecker
	validator *utils.Validator
	logger    *zap.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(router ChatRouter, checker AvailabilityChecker, validator *utils.Validator, logger *zap.Logger) *ChatHandler {
	if validator == nil {
		validator = utils.NewValidator()
	}
	return &ChatHandler{
		router:    router,
		checker:   checker,
		validator: validator,
		logger:    logger,
	}
}

// HandleChat handles POST /api/v1/chat
// The response is always HTTP 200; failures are reported in the error field.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestIDFromContext(r.Context())

	var req ChatRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.logger.Debug("rejected chat request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		h.respond(w, badRequest(req.Service, "Invalid request: "+err.Error()))
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		h.logger.Debug("chat request failed validation",
			zap.String("request_id", requestID),
			zap.Error(err))
		h.respond(w, badRequest(req.Service, "Invalid request: "+err.Error()))
		return
	}

	h.logger.Info("chat request received",
		zap.String("request_id", requestID),
		zap.String("service", req.Service),
		zap.String("chatbot_type", req.ChatbotType),
		zap.Int("history_len", len(req.History)))

	resp := h.router.Route(r.Context(), chat.Request{
		Message:     req.Message,
		ChatbotType: providers.ChatbotType(req.ChatbotType),
		Service:     req.Service,
		History:     toMessages(req.History),
		RequestID:   requestID,
	})

	h.respond(w, resp)
}

// HandleServices handles GET /api/v1/services
func (h *ChatHandler) HandleServices(w http.ResponseWriter, r *http.Request) {
	if err := utils.WriteJSON(w, http.StatusOK, h.checker.Check()); err != nil {
		h.logger.Error("failed to write services response", zap.Error(err))
	}
}

func (h *ChatHandler) respond(w http.ResponseWriter, resp providers.ChatResponse) {
	if err := utils.WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("failed to write chat response", zap.Error(err))
	}
}

func badRequest(service, message string) providers.ChatResponse {
	return providers.ChatResponse{
		Content: message,
		Service: providers.Service(service),
		Error:   providers.ErrorKindBadRequest,
	}
}

func toMessages(history []ChatMessage) []providers.Message {
	if len(history) == 0 {
		return nil
	}
	messages := make([]providers.Message, len(history))
	for i, m := range history {
		messages[i] = providers.Message{Role: providers.Role(m.Role), Content: m.Content}
	}
	return messages
}
