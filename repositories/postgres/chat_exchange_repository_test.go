package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/multiai-chatbot/models"
	"github.com/upb/multiai-chatbot/services"
	"go.uber.org/zap"
)

var columns = []string{
	"id", "request_id", "service", "chatbot_type", "model", "error_kind",
	"prompt_tokens", "completion_tokens", "total_tokens", "history_len", "latency_ms", "created_at",
}

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return WrapDB(sqlDB, zap.NewNop()), mock
}

func TestChatExchangeRepository_Insert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChatExchangeRepository(db, zap.NewNop())

	exchange := models.NewChatExchange("req-1", "groq", "technical").
		WithModel("llama-3.1-8b-instant").
		WithUsage(10, 5, 15).
		WithTiming(2, 120*time.Millisecond)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO chat_exchanges")).
		WithArgs(
			exchange.ID,
			"req-1",
			"groq",
			"technical",
			exchange.Model,
			exchange.ErrorKind,
			exchange.PromptTokens,
			exchange.CompletionTokens,
			exchange.TotalTokens,
			2,
			120,
			exchange.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), exchange))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatExchangeRepository_InsertError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChatExchangeRepository(db, zap.NewNop())

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO chat_exchanges")).
		WillReturnError(errors.New("connection reset"))

	err := repo.Insert(context.Background(), models.NewChatExchange("req-2", "databricks", "news"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert chat exchange")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatExchangeRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChatExchangeRepository(db, zap.NewNop())

	id := uuid.New()
	createdAt := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM chat_exchanges WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(id.String(), "req-3", "databricks", "news", "databricks-serving-endpoint", "rate_limit_error", nil, nil, nil, 4, 900, createdAt))

	exchange, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, exchange.ID)
	assert.Equal(t, "databricks", exchange.Service)
	require.NotNil(t, exchange.ErrorKind)
	assert.Equal(t, "rate_limit_error", *exchange.ErrorKind)
	assert.Nil(t, exchange.TotalTokens)
	assert.Equal(t, 4, exchange.HistoryLen)
	assert.Equal(t, createdAt, exchange.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatExchangeRepository_GetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChatExchangeRepository(db, zap.NewNop())

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("FROM chat_exchanges WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(columns))

	exchange, err := repo.GetByID(context.Background(), id)
	assert.Nil(t, exchange)
	assert.ErrorIs(t, err, services.ErrExchangeNotFound)
	assert.True(t, services.IsNotFoundError(err))
}

func TestChatExchangeRepository_ListRecent(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{"explicit limit", 5, 5},
		{"default limit", 0, defaultListLimit},
		{"capped limit", 1000, maxListLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewChatExchangeRepository(db, zap.NewNop())

			now := time.Now().UTC()
			mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT $1")).
				WithArgs(tt.wantLimit).
				WillReturnRows(sqlmock.NewRows(columns).
					AddRow(uuid.New().String(), "req-b", "groq", "creative", "llama-3.1-8b-instant", nil, 3, 4, 7, 0, 50, now).
					AddRow(uuid.New().String(), "req-a", "groq", "other", nil, "invalid_service", nil, nil, nil, 1, 1, now.Add(-time.Minute)))

			exchanges, err := repo.ListRecent(context.Background(), tt.limit)
			require.NoError(t, err)
			require.Len(t, exchanges, 2)
			assert.Equal(t, "req-b", exchanges[0].RequestID)
			assert.True(t, exchanges[0].Succeeded())
			assert.False(t, exchanges[1].Succeeded())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDB_HealthCheck(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()

	db := WrapDB(sqlDB, zap.NewNop())

	mock.ExpectPing()
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	assert.NoError(t, db.HealthCheck(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	assert.ErrorContains(t, db.HealthCheck(context.Background()), "database health check failed")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_InitSchema(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS chat_exchanges")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, db.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
