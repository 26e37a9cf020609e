package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/upb/multiai-chatbot/config"
	"github.com/upb/multiai-chatbot/internal/observability"
	"github.com/upb/multiai-chatbot/repositories"
	"github.com/upb/multiai-chatbot/repositories/postgres"
	"github.com/upb/multiai-chatbot/services/audit"
	"github.com/upb/multiai-chatbot/services/availability"
	"github.com/upb/multiai-chatbot/services/chat"
	"github.com/upb/multiai-chatbot/services/news"
	"github.com/upb/multiai-chatbot/services/providers"
	"github.com/upb/multiai-chatbot/services/providers/databricks"
	"github.com/upb/multiai-chatbot/services/providers/groq"
	"github.com/upb/multiai-chatbot/utils"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger
	DB     *postgres.DB // nil when exchange recording is disabled

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	ChatExchanges repositories.ChatExchangeRepository

	// Chat pipeline
	Checker          *availability.Checker
	ProviderRegistry *providers.Registry
	ChatRouter       *chat.Router
	Recorder         *audit.Recorder

	// News passthrough; nil when no news key is configured
	NewsClient *news.Client

	// Metrics
	MetricsRegistry *prometheus.Registry
	ChatMetrics     *observability.ChatMetrics

	Validator *utils.Validator
}

// Option customizes NewDependencies
type Option func(*options)

type options struct {
	credentials availability.CredentialSource
}

// WithCredentialSource replaces the environment as the source of provider credentials
func WithCredentialSource(source availability.CredentialSource) Option {
	return func(o *options) {
		o.credentials = source
	}
}

// NewDependencies creates and wires up all application dependencies.
// Providers whose credentials are missing are logged and left unregistered;
// only a configured but unreachable database is fatal.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Dependencies, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	deps := &Dependencies{
		Config:    cfg,
		Logger:    logger,
		Checker:   availability.NewChecker(o.credentials),
		Validator: utils.NewValidator(),
	}

	if cfg.RecordingEnabled() {
		if err := deps.initDatabase(ctx, cfg); err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := deps.initRecorder(cfg); err != nil {
			_ = deps.RepoFactory.Close()
			return nil, fmt.Errorf("failed to start exchange recorder: %w", err)
		}
	} else {
		logger.Info("DATABASE_URL and DB_HOST not set, exchange recording disabled")
	}

	if err := deps.initProviders(cfg); err != nil {
		deps.shutdownRecording()
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}
	deps.initNews(cfg)

	if err := deps.initMetrics(); err != nil {
		deps.shutdownRecording()
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	deps.initRouter()

	logger.Info("all dependencies initialized successfully",
		zap.Any("availability", deps.Checker.Check()),
		zap.Bool("recording", deps.Recorder != nil),
		zap.Bool("news", deps.NewsClient != nil))
	return deps, nil
}

// initDatabase opens the PostgreSQL pool and creates the schema
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(ctx, *cfg.Database, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()
	d.ChatExchanges = factory.NewRepositories().ChatExchanges

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))
	return nil
}

// initRecorder starts the asynchronous exchange recorder
func (d *Dependencies) initRecorder(cfg *config.Config) error {
	recorder := audit.NewRecorder(d.ChatExchanges, d.Logger, audit.Config{
		BufferSize:  cfg.Recorder.BufferSize,
		WorkerCount: cfg.Recorder.WorkerCount,
	})
	if err := recorder.Start(); err != nil {
		return err
	}
	d.Recorder = recorder
	return nil
}

// initProviders builds each adapter once. A construction failure leaves the
// adapter unregistered for the process lifetime.
func (d *Dependencies) initProviders(cfg *config.Config) error {
	var adapters []providers.Provider

	groqAdapter, err := groq.NewAdapter(providers.ProviderConfig{
		APIKey:  cfg.Providers.Groq.APIKey,
		BaseURL: cfg.Providers.Groq.BaseURL,
		Timeout: cfg.Providers.Groq.Timeout,
	}, d.Logger)
	if err != nil {
		d.Logger.Warn("groq adapter not initialized", zap.Error(err))
	} else {
		adapters = append(adapters, groqAdapter)
	}

	databricksAdapter, err := databricks.NewAdapter(providers.ProviderConfig{
		APIKey:  cfg.Providers.Databricks.APIKey,
		BaseURL: cfg.Providers.Databricks.Endpoint,
		Timeout: cfg.Providers.Databricks.Timeout,
	}, d.Logger)
	if err != nil {
		d.Logger.Warn("databricks adapter not initialized", zap.Error(err))
	} else {
		adapters = append(adapters, databricksAdapter)
	}

	registry, err := providers.NewRegistry(adapters...)
	if err != nil {
		return err
	}

	registered := registry.ListProviders()
	if len(registered) == 0 {
		d.Logger.Warn("no LLM providers configured")
	} else {
		d.Logger.Info("providers registered", zap.Any("providers", registered))
	}

	d.ProviderRegistry = registry
	return nil
}

// initNews builds the news client; without a key the news endpoints answer 503
func (d *Dependencies) initNews(cfg *config.Config) {
	client, err := news.NewClient(news.Config{
		APIKey:  cfg.News.APIKey,
		BaseURL: cfg.News.BaseURL,
		Timeout: cfg.News.Timeout,
	}, d.Logger)
	if err != nil {
		d.Logger.Warn("news client not initialized", zap.Error(err))
		return
	}
	d.NewsClient = client
}

// initMetrics registers the chat collectors on a private registry
func (d *Dependencies) initMetrics() error {
	d.MetricsRegistry = observability.NewRegistry()

	chatMetrics, err := observability.NewChatMetrics(d.MetricsRegistry)
	if err != nil {
		return err
	}
	d.ChatMetrics = chatMetrics
	return nil
}

// initRouter wires the chat router with every available observer
func (d *Dependencies) initRouter() {
	var observers []chat.Observer
	if d.ChatMetrics != nil {
		observers = append(observers, d.ChatMetrics)
	}
	if d.Recorder != nil {
		observers = append(observers, d.Recorder)
	}

	d.ChatRouter = chat.NewRouter(d.Checker, d.ProviderRegistry, d.Logger, observers...)
}

func (d *Dependencies) shutdownRecording() {
	if d.Recorder != nil {
		if err := d.Recorder.Stop(d.Config.Recorder.StopTimeout); err != nil {
			d.Logger.Warn("exchange recorder did not stop cleanly", zap.Error(err))
		}
	}
	if d.RepoFactory != nil {
		_ = d.RepoFactory.Close()
	}
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Drain the recorder before the pool it writes to goes away
	if d.Recorder != nil {
		if err := d.Recorder.Stop(d.Config.Recorder.StopTimeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop exchange recorder: %w", err))
		} else {
			stats := d.Recorder.GetStats()
			d.Logger.Info("exchange recorder stopped", zap.Int("dropped", stats.Dropped))
		}
	}

	// Close database connection
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
