package handlers

import (
	"errors"
	"net/http"

	"github.com/upb/multiai-chatbot/services"
	"github.com/upb/multiai-chatbot/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	details := services.GetErrorDetails(err)
	if len(details) == 0 {
		details = nil
	}

	var writeErr error
	switch {
	case services.IsNotFoundError(err):
		writeErr = utils.WriteNotFound(w, publicMessage(err))

	case services.IsValidationError(err):
		writeErr = utils.WriteBadRequest(w, publicMessage(err), details)

	case services.IsUnavailableError(err):
		writeErr = utils.WriteServiceUnavailable(w, publicMessage(err))

	case services.IsExternalError(err):
		// Upstream failures surface as 500 with the upstream cause in the message
		logger.Warn("upstream error", zap.Error(err))
		writeErr = utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse{
			Error:   "upstream_error",
			Message: err.Error(),
			Details: details,
		})

	case services.IsInternalError(err):
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An internal error occurred")

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		writeErr = utils.WriteInternalServerError(w, "An unexpected error occurred")
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{}, len(fields))
		for k, v := range fields {
			details[k] = v
		}
		if err := utils.WriteBadRequest(w, "Validation failed", details); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}

// publicMessage returns the caller-facing message of a domain error
func publicMessage(err error) string {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		return domainErr.Message
	}
	return err.Error()
}
