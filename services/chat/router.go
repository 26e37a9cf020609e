package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/upb/multiai-chatbot/services/availability"
	"github.com/upb/multiai-chatbot/services/providers"
	"go.uber.org/zap"
)

// AvailabilityChecker reports which services are currently usable
type AvailabilityChecker interface {
	Check() availability.ServiceAvailability
}

// ProviderLookup resolves the adapter for a service
type ProviderLookup interface {
	GetProvider(service providers.Service) (providers.Provider, error)
}

// Request is a single routed chat call
type Request struct {
	Message     string
	ChatbotType providers.ChatbotType
	Service     string
	History     []providers.Message
	RequestID   string
}

// Router selects the adapter for a request and returns its normalized response
type Router struct {
	checker   AvailabilityChecker
	providers ProviderLookup
	observers []Observer
	logger    *zap.Logger
}

// NewRouter creates a new Router. Observers are notified after every call.
func NewRouter(checker AvailabilityChecker, lookup ProviderLookup, logger *zap.Logger, observers ...Observer) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		checker:   checker,
		providers: lookup,
		observers: observers,
		logger:    logger,
	}
}

// Route never returns an error: every failure is folded into the response
func (r *Router) Route(ctx context.Context, req Request) (resp providers.ChatResponse) {
	startTime := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("chat routing panicked",
				zap.String("request_id", req.RequestID),
				zap.String("service", req.Service),
				zap.Any("panic", rec),
				zap.Stack("stack"))
			resp = providers.ChatResponse{
				Content: fmt.Sprintf("Server error: %v", rec),
				Service: providers.Service(req.Service),
				Error:   providers.ErrorKindServer,
			}
		}
		r.notify(ctx, req, resp, time.Since(startTime))
	}()

	return r.route(ctx, req)
}

func (r *Router) route(ctx context.Context, req Request) providers.ChatResponse {
	available := r.checker.Check()

	service, ok := providers.ParseService(req.Service)
	if !ok {
		r.logger.Info("rejected chat request for unknown service",
			zap.String("request_id", req.RequestID),
			zap.String("service", req.Service))
		return providers.ChatResponse{
			Content: fmt.Sprintf("Invalid service selected: %s", req.Service),
			Service: providers.Service(req.Service),
			Error:   providers.ErrorKindInvalidService,
		}
	}

	if !available.IsAvailable(service) {
		return providers.ChatResponse{
			Content: fmt.Sprintf("Service %s is not available. Available services: %s", service, listServices(available.Available())),
			Service: service,
			Error:   providers.ErrorKindServiceUnavailable,
		}
	}

	provider, err := r.providers.GetProvider(service)
	if err != nil || provider == nil {
		r.logger.Warn("adapter not initialized",
			zap.String("request_id", req.RequestID),
			zap.String("service", string(service)),
			zap.Error(err))
		return providers.ChatResponse{
			Content: notInitializedMessage(service),
			Service: service,
			Error:   providers.ErrorKindServiceError,
		}
	}

	r.logger.Debug("routing chat request",
		zap.String("request_id", req.RequestID),
		zap.String("service", string(service)),
		zap.String("chatbot_type", string(req.ChatbotType)),
		zap.Int("history_len", len(req.History)))

	resp := provider.Chat(ctx, req.Message, req.ChatbotType, req.History)
	resp.Service = service
	return resp
}

// notify runs outside the routing recover, so each observer gets its own guard
func (r *Router) notify(ctx context.Context, req Request, resp providers.ChatResponse, latency time.Duration) {
	outcome := Outcome{
		RequestID:   req.RequestID,
		Service:     string(resp.Service),
		ChatbotType: req.ChatbotType,
		Model:       resp.Model,
		Error:       resp.Error,
		Usage:       resp.Usage,
		HistoryLen:  len(req.History),
		Latency:     latency,
	}
	for _, observer := range r.observers {
		if observer != nil {
			r.observe(ctx, observer, outcome)
		}
	}
}

func (r *Router) observe(ctx context.Context, observer Observer, outcome Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("chat observer panicked",
				zap.String("request_id", outcome.RequestID),
				zap.String("service", outcome.Service),
				zap.Any("panic", rec))
		}
	}()
	observer.ObserveChat(ctx, outcome)
}

func notInitializedMessage(service providers.Service) string {
	switch service {
	case providers.ServiceGroq:
		return "Groq service is not properly initialized. Check your API key."
	case providers.ServiceDatabricks:
		return "Databricks service is not properly initialized."
	default:
		return fmt.Sprintf("%s service is not properly initialized.", service)
	}
}

func listServices(services []providers.Service) string {
	if len(services) == 0 {
		return "none"
	}
	names := make([]string, len(services))
	for i, s := range services {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
