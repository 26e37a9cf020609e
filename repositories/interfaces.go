package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/upb/multiai-chatbot/models"
)

// ChatExchangeRepository handles chat exchange metadata
type ChatExchangeRepository interface {
	// Insert stores a new exchange record
	Insert(ctx context.Context, exchange *models.ChatExchange) error

	// GetByID retrieves an exchange by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.ChatExchange, error)

	// ListRecent returns the newest exchanges first
	ListRecent(ctx context.Context, limit int) ([]*models.ChatExchange, error)
}

// Repositories holds all repository instances
type Repositories struct {
	ChatExchanges ChatExchangeRepository
}
