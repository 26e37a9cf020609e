package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/multiai-chatbot/models"
	"github.com/upb/multiai-chatbot/services/chat"
	"github.com/upb/multiai-chatbot/services/providers"
	"go.uber.org/zap"
)

// MockChatExchangeRepository is a mock implementation of ChatExchangeRepository
type MockChatExchangeRepository struct {
	mock.Mock
	mu       sync.Mutex
	inserted []*models.ChatExchange
	block    chan struct{}
}

func (m *MockChatExchangeRepository) Insert(ctx context.Context, exchange *models.ChatExchange) error {
	if m.block != nil {
		<-m.block
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	args := m.Called(ctx, exchange)
	m.inserted = append(m.inserted, exchange)
	return args.Error(0)
}

func (m *MockChatExchangeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ChatExchange, error) {
	args := m.Called(ctx, id)
	if exchange := args.Get(0); exchange != nil {
		return exchange.(*models.ChatExchange), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChatExchangeRepository) ListRecent(ctx context.Context, limit int) ([]*models.ChatExchange, error) {
	args := m.Called(ctx, limit)
	if exchanges := args.Get(0); exchanges != nil {
		return exchanges.([]*models.ChatExchange), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChatExchangeRepository) Inserted() []*models.ChatExchange {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.ChatExchange(nil), m.inserted...)
}

func TestRecorder_StartStop(t *testing.T) {
	recorder := NewRecorder(new(MockChatExchangeRepository), zap.NewNop(), Config{BufferSize: 10, WorkerCount: 2})

	require.NoError(t, recorder.Start())

	stats := recorder.GetStats()
	assert.True(t, stats.Started)
	assert.Equal(t, 2, stats.WorkerCount)
	assert.Equal(t, 10, stats.BufferSize)

	// Cannot start again
	assert.Error(t, recorder.Start())

	require.NoError(t, recorder.Stop(5*time.Second))
	assert.False(t, recorder.GetStats().Started)

	// Stopped recorders reject work instead of panicking
	assert.ErrorIs(t, recorder.LogEvent(&ExchangeEvent{Exchange: models.NewChatExchange("r", "groq", "news")}), ErrNotStarted)
	assert.ErrorIs(t, recorder.Stop(time.Second), ErrNotStarted)
	assert.Error(t, recorder.Start())
}

func TestRecorder_DefaultsApplied(t *testing.T) {
	recorder := NewRecorder(new(MockChatExchangeRepository), nil, Config{})
	stats := recorder.GetStats()
	assert.Equal(t, DefaultConfig().BufferSize, stats.BufferSize)
	assert.Equal(t, DefaultConfig().WorkerCount, stats.WorkerCount)
}

func TestRecorder_LogEventBeforeStart(t *testing.T) {
	recorder := NewRecorder(new(MockChatExchangeRepository), zap.NewNop(), DefaultConfig())
	err := recorder.LogEvent(&ExchangeEvent{Exchange: models.NewChatExchange("r", "groq", "news")})
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestRecorder_ObserveChat(t *testing.T) {
	repo := new(MockChatExchangeRepository)
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	recorder := NewRecorder(repo, zap.NewNop(), Config{BufferSize: 10, WorkerCount: 1})
	require.NoError(t, recorder.Start())

	recorder.ObserveChat(context.Background(), chat.Outcome{
		RequestID:   "req-1",
		Service:     "groq",
		ChatbotType: providers.ChatbotTechnical,
		Model:       "llama-3.1-8b-instant",
		Usage:       &providers.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		HistoryLen:  3,
		Latency:     250 * time.Millisecond,
	})

	// Stop drains the buffer
	require.NoError(t, recorder.Stop(5*time.Second))

	inserted := repo.Inserted()
	require.Len(t, inserted, 1)
	exchange := inserted[0]
	assert.Equal(t, "req-1", exchange.RequestID)
	assert.Equal(t, "groq", exchange.Service)
	assert.Equal(t, "technical", exchange.ChatbotType)
	require.NotNil(t, exchange.Model)
	assert.Equal(t, "llama-3.1-8b-instant", *exchange.Model)
	assert.Nil(t, exchange.ErrorKind)
	require.NotNil(t, exchange.TotalTokens)
	assert.Equal(t, 15, *exchange.TotalTokens)
	assert.Equal(t, 3, exchange.HistoryLen)
	assert.Equal(t, 250, exchange.LatencyMs)
}

func TestRecorder_ObserveFailedChat(t *testing.T) {
	repo := new(MockChatExchangeRepository)
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	recorder := NewRecorder(repo, zap.NewNop(), Config{BufferSize: 10, WorkerCount: 1})
	require.NoError(t, recorder.Start())

	recorder.ObserveChat(context.Background(), chat.Outcome{
		RequestID: "req-2",
		Service:   "nonexistent",
		Error:     providers.ErrorKindInvalidService,
	})
	require.NoError(t, recorder.Stop(5*time.Second))

	inserted := repo.Inserted()
	require.Len(t, inserted, 1)
	require.NotNil(t, inserted[0].ErrorKind)
	assert.Equal(t, "invalid_service", *inserted[0].ErrorKind)
	assert.Nil(t, inserted[0].TotalTokens)
}

func TestRecorder_InsertErrorDoesNotStopWorkers(t *testing.T) {
	repo := new(MockChatExchangeRepository)
	repo.On("Insert", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	recorder := NewRecorder(repo, zap.NewNop(), Config{BufferSize: 10, WorkerCount: 1})
	require.NoError(t, recorder.Start())

	require.NoError(t, recorder.LogEvent(&ExchangeEvent{Exchange: models.NewChatExchange("a", "groq", "news")}))
	require.NoError(t, recorder.LogEvent(&ExchangeEvent{Exchange: models.NewChatExchange("b", "groq", "news")}))
	require.NoError(t, recorder.Stop(5*time.Second))

	assert.Len(t, repo.Inserted(), 2)
}

func TestRecorder_BufferFullDropsEvents(t *testing.T) {
	repo := &MockChatExchangeRepository{block: make(chan struct{})}
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	recorder := NewRecorder(repo, zap.NewNop(), Config{BufferSize: 1, WorkerCount: 1})
	require.NoError(t, recorder.Start())

	// The worker takes the first event and blocks on Insert; the second fills the buffer
	require.NoError(t, recorder.LogEvent(&ExchangeEvent{Exchange: models.NewChatExchange("1", "groq", "news")}))
	require.Eventually(t, func() bool { return recorder.GetStats().PendingEvents == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, recorder.LogEvent(&ExchangeEvent{Exchange: models.NewChatExchange("2", "groq", "news")}))

	err := recorder.LogEvent(&ExchangeEvent{Exchange: models.NewChatExchange("3", "groq", "news")})
	assert.ErrorIs(t, err, ErrBufferFull)
	assert.Equal(t, 1, recorder.GetStats().Dropped)

	close(repo.block)
	require.NoError(t, recorder.Stop(5*time.Second))
	assert.Len(t, repo.Inserted(), 2)
}
