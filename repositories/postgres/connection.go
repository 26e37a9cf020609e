package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/upb/multiai-chatbot/config"
	"go.uber.org/zap"
)

// Executor is the subset of *sql.DB used by the repositories
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return &DB{
		DB:     db,
		logger: logger,
	}, nil
}

// WrapDB wraps an already opened pool
func WrapDB(db *sql.DB, logger *zap.Logger) *DB {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DB{DB: db, logger: logger}
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	// Check if we can query
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// Stats returns database connection pool statistics
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// InitSchema creates the chat_exchanges table and its indexes
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS chat_exchanges (
			id UUID PRIMARY KEY,
			request_id VARCHAR(255) NOT NULL,
			service VARCHAR(50) NOT NULL,
			chatbot_type VARCHAR(50) NOT NULL,
			model VARCHAR(255),
			error_kind VARCHAR(50),
			prompt_tokens INTEGER,
			completion_tokens INTEGER,
			total_tokens INTEGER,
			history_len INTEGER NOT NULL DEFAULT 0,
			latency_ms INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_chat_exchanges_created_at ON chat_exchanges(created_at);
		CREATE INDEX IF NOT EXISTS idx_chat_exchanges_request_id ON chat_exchanges(request_id);
		CREATE INDEX IF NOT EXISTS idx_chat_exchanges_service ON chat_exchanges(service);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}
