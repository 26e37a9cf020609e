package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/multiai-chatbot/app"
	"github.com/upb/multiai-chatbot/handlers"
	"github.com/upb/multiai-chatbot/internal/observability"
	"github.com/upb/multiai-chatbot/middleware"
	"github.com/upb/multiai-chatbot/utils"
)

const defaultRequestTimeout = 60 * time.Second

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	requestTimeout := deps.Config.Server.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(requestTimeout))

	// CORS middleware: any origin may call the API
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Optional collaborators are passed as untyped nil when absent
	var db handlers.HealthChecker
	if deps.DB != nil {
		db = deps.DB
	}
	var newsClient handlers.NewsClient
	if deps.NewsClient != nil {
		newsClient = deps.NewsClient
	}

	infoHandler := handlers.NewInfoHandler(deps.Config.Environment, deps.Logger)
	healthHandler := handlers.NewHealthHandler(db, deps.Logger)
	chatHandler := handlers.NewChatHandler(deps.ChatRouter, deps.Checker, deps.Validator, deps.Logger)
	newsHandler := handlers.NewNewsHandler(newsClient, deps.Logger)
	exchangeHandler := handlers.NewExchangeHandler(deps.ChatExchanges, deps.Validator, deps.Logger)

	// Info and health endpoints
	r.Get("/", infoHandler.HandleRoot)
	r.Get("/api", infoHandler.HandleAPIInfo)
	r.Get("/test", infoHandler.HandleTest)
	r.Get("/health", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	if deps.Config.Observability.MetricsEnabled && deps.MetricsRegistry != nil {
		r.Handle("/metrics", observability.Handler(deps.MetricsRegistry))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/services", chatHandler.HandleServices)
		r.Post("/chat", chatHandler.HandleChat)

		r.Route("/news", func(r chi.Router) {
			r.Get("/", newsHandler.HandleGetNews)
			r.Get("/search", newsHandler.HandleSearchNews)
		})

		r.Route("/exchanges", func(r chi.Router) {
			r.Get("/", exchangeHandler.HandleList)
			r.Get("/{id}", exchangeHandler.HandleGet)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return r
}
