package postgres

import (
	"context"

	"github.com/upb/multiai-chatbot/config"
	"github.com/upb/multiai-chatbot/repositories"
	"go.uber.org/zap"
)

// RepositoryFactory creates and manages all repositories
type RepositoryFactory struct {
	db     *DB
	logger *zap.Logger
}

// NewRepositoryFactory opens the pool and creates the schema
func NewRepositoryFactory(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*RepositoryFactory, error) {
	db, err := NewDB(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := db.InitSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &RepositoryFactory{db: db, logger: logger}, nil
}

// NewRepositories creates all repository instances
func (f *RepositoryFactory) NewRepositories() *repositories.Repositories {
	return &repositories.Repositories{
		ChatExchanges: NewChatExchangeRepository(f.db, f.logger),
	}
}

// GetDB returns the database connection
func (f *RepositoryFactory) GetDB() *DB {
	return f.db
}

// Close closes the database connection
func (f *RepositoryFactory) Close() error {
	return f.db.Close()
}
