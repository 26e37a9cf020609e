package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/multiai-chatbot/models"
	"github.com/upb/multiai-chatbot/repositories"
	"github.com/upb/multiai-chatbot/services"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

const exchangeColumns = `id, request_id, service, chatbot_type, model, error_kind,
	prompt_tokens, completion_tokens, total_tokens, history_len, latency_ms, created_at`

// ChatExchangeRepository implements the repositories.ChatExchangeRepository interface
type ChatExchangeRepository struct {
	db     Executor
	logger *zap.Logger
}

// NewChatExchangeRepository creates a new chat exchange repository
func NewChatExchangeRepository(db Executor, logger *zap.Logger) repositories.ChatExchangeRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatExchangeRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new exchange record
func (r *ChatExchangeRepository) Insert(ctx context.Context, exchange *models.ChatExchange) error {
	query := `
		INSERT INTO chat_exchanges (` + exchangeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		exchange.ID,
		exchange.RequestID,
		exchange.Service,
		exchange.ChatbotType,
		exchange.Model,
		exchange.ErrorKind,
		exchange.PromptTokens,
		exchange.CompletionTokens,
		exchange.TotalTokens,
		exchange.HistoryLen,
		exchange.LatencyMs,
		exchange.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert chat exchange: %w", err)
	}

	r.logger.Debug("chat exchange inserted",
		zap.String("id", exchange.ID.String()),
		zap.String("service", exchange.Service))
	return nil
}

// GetByID retrieves an exchange by ID
func (r *ChatExchangeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ChatExchange, error) {
	query := `SELECT ` + exchangeColumns + ` FROM chat_exchanges WHERE id = $1`

	exchange, err := scanExchange(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", services.ErrExchangeNotFound, id)
		}
		return nil, fmt.Errorf("failed to get chat exchange: %w", err)
	}
	return exchange, nil
}

// ListRecent returns up to limit exchanges, newest first
func (r *ChatExchangeRepository) ListRecent(ctx context.Context, limit int) ([]*models.ChatExchange, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	query := `SELECT ` + exchangeColumns + ` FROM chat_exchanges ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat exchanges: %w", err)
	}
	defer rows.Close()

	var exchanges []*models.ChatExchange
	for rows.Next() {
		exchange, err := scanExchange(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat exchange: %w", err)
		}
		exchanges = append(exchanges, exchange)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat exchange rows: %w", err)
	}

	return exchanges, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanExchange(row rowScanner) (*models.ChatExchange, error) {
	exchange := &models.ChatExchange{}
	err := row.Scan(
		&exchange.ID,
		&exchange.RequestID,
		&exchange.Service,
		&exchange.ChatbotType,
		&exchange.Model,
		&exchange.ErrorKind,
		&exchange.PromptTokens,
		&exchange.CompletionTokens,
		&exchange.TotalTokens,
		&exchange.HistoryLen,
		&exchange.LatencyMs,
		&exchange.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return exchange, nil
}
