package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/upb/multiai-chatbot/app"
	"github.com/upb/multiai-chatbot/config"
	"github.com/upb/multiai-chatbot/internal/observability"
	"github.com/upb/multiai-chatbot/routes"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api-gateway: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger, err := initLogger()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.New(ctx)
	if err != nil {
		logger.Error("failed to load configuration", zap.Error(err))
		return err
	}

	logger.Info("starting MultiAI chatbot gateway",
		zap.String("environment", cfg.Environment),
		zap.String("address", cfg.Server.Address()),
		zap.Bool("tls", cfg.Server.TLS.Enabled),
		zap.Bool("recording", cfg.RecordingEnabled()))

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dependencies", zap.Error(err))
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           routes.SetupRoutes(deps),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ErrorLog:          zap.NewStdLog(logger),
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("api-gateway listening", zap.String("address", srv.Addr))

		var err error
		if cfg.Server.TLS.Enabled {
			err = srv.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err, ok := <-serverErr:
		if ok {
			logger.Error("server error", zap.Error(err))
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if err := deps.Close(shutdownCtx); err != nil {
		logger.Error("dependency shutdown failed", zap.Error(err))
	}

	logger.Info("api-gateway stopped")
	return runErr
}

// initLogger builds the process logger from LOG_LEVEL and LOG_FORMAT
func initLogger() (*zap.Logger, error) {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	format := os.Getenv("LOG_FORMAT")
	if format == "" {
		format = "json"
	}
	return observability.NewLogger(level, format)
}
