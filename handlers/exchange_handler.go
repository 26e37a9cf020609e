package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/multiai-chatbot/models"
	"github.com/upb/multiai-chatbot/repositories"
	"github.com/upb/multiai-chatbot/services"
	"github.com/upb/multiai-chatbot/utils"
	"go.uber.org/zap"
)

// ExchangeListResponse is the body of GET /api/v1/exchanges
type ExchangeListResponse struct {
	Exchanges []*models.ChatExchange `json:"exchanges"`
	Count     int                    `json:"count"`
}

type listExchangesQuery struct {
	Limit int `json:"limit" validate:"min=0,max=100"`
}

// ExchangeHandler exposes the recorded chat exchange metadata
type ExchangeHandler struct {
	repo      repositories.ChatExchangeRepository
	validator *utils.Validator
	logger    *zap.Logger
}

// NewExchangeHandler creates a new ExchangeHandler. A nil repo disables the endpoints.
func NewExchangeHandler(repo repositories.ChatExchangeRepository, validator *utils.Validator, logger *zap.Logger) *ExchangeHandler {
	if validator == nil {
		validator = utils.NewValidator()
	}
	return &ExchangeHandler{repo: repo, validator: validator, logger: logger}
}

// HandleList handles GET /api/v1/exchanges?limit=
func (h *ExchangeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		h.writeDisabled(w)
		return
	}

	var query listExchangesQuery
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			HandleValidationError(w, fmt.Errorf("limit must be a number: %q", raw), h.logger)
			return
		}
		query.Limit = limit
	}
	if err := h.validator.Struct(&query); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	exchanges, err := h.repo.ListRecent(r.Context(), query.Limit)
	if err != nil {
		HandleServiceError(w, services.WrapInternal("failed to list chat exchanges", err), h.logger)
		return
	}
	if exchanges == nil {
		exchanges = []*models.ChatExchange{}
	}

	if err := utils.WriteJSON(w, http.StatusOK, ExchangeListResponse{
		Exchanges: exchanges,
		Count:     len(exchanges),
	}); err != nil {
		h.logger.Error("failed to write exchanges response", zap.Error(err))
	}
}

// HandleGet handles GET /api/v1/exchanges/{id}
func (h *ExchangeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		h.writeDisabled(w)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		HandleValidationError(w, fmt.Errorf("invalid exchange id: %s", chi.URLParam(r, "id")), h.logger)
		return
	}

	exchange, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if !services.IsNotFoundError(err) {
			err = services.WrapInternal("failed to load chat exchange", err)
		}
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, exchange); err != nil {
		h.logger.Error("failed to write exchange response", zap.Error(err))
	}
}

func (h *ExchangeHandler) writeDisabled(w http.ResponseWriter) {
	if err := utils.WriteServiceUnavailable(w, "exchange recording is not enabled"); err != nil {
		h.logger.Error("failed to write unavailable response", zap.Error(err))
	}
}
