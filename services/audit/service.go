package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/upb/multiai-chatbot/models"
	"github.com/upb/multiai-chatbot/repositories"
	"github.com/upb/multiai-chatbot/services/chat"
	"go.uber.org/zap"
)

var (
	// ErrNotStarted is returned when events are logged before Start or after Stop
	ErrNotStarted = errors.New("exchange recorder not started")

	// ErrBufferFull is returned when the event buffer cannot take another event
	ErrBufferFull = errors.New("exchange recorder buffer full")
)

// ExchangeEvent represents an exchange waiting to be persisted
type ExchangeEvent struct {
	Exchange *models.ChatExchange
}

// Recorder persists chat exchange metadata asynchronously.
// It implements chat.Observer so the router never waits on the database.
type Recorder struct {
	repo        repositories.ChatExchangeRepository
	logger      *zap.Logger
	eventChan   chan *ExchangeEvent
	workerCount int
	bufferSize  int
	dropped     int
	wg          sync.WaitGroup
	started     bool
	stopped     bool
	mu          sync.Mutex
}

// Config holds configuration for the Recorder
type Config struct {
	BufferSize  int // Size of the event buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  1000,
		WorkerCount: 2,
	}
}

// NewRecorder creates a new Recorder instance
func NewRecorder(repo repositories.ChatExchangeRepository, logger *zap.Logger, config Config) *Recorder {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultConfig().WorkerCount
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Recorder{
		repo:        repo,
		logger:      logger,
		eventChan:   make(chan *ExchangeEvent, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
	}
}

// Start starts the background workers
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return fmt.Errorf("exchange recorder already started")
	}
	if r.stopped {
		return fmt.Errorf("exchange recorder cannot be restarted")
	}

	for i := 0; i < r.workerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.started = true
	r.logger.Info("started exchange recorder",
		zap.Int("worker_count", r.workerCount),
		zap.Int("buffer_size", r.bufferSize))

	return nil
}

// Stop stops accepting events and waits for pending ones to be written
func (r *Recorder) Stop(timeout time.Duration) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return ErrNotStarted
	}
	r.started = false
	r.stopped = true
	pending := len(r.eventChan)
	close(r.eventChan)
	r.mu.Unlock()

	r.logger.Info("stopping exchange recorder", zap.Int("pending_events", pending))

	// Wait for workers to finish with timeout
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("exchange recorder stopped gracefully")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("exchange recorder stop timeout after %v", timeout)
	}
}

// LogEvent queues an event without blocking; a full buffer drops it
func (r *Recorder) LogEvent(event *ExchangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return ErrNotStarted
	}

	select {
	case r.eventChan <- event:
		return nil
	default:
		r.dropped++
		r.logger.Warn("exchange event channel full, dropping event",
			zap.String("request_id", event.Exchange.RequestID),
			zap.String("service", event.Exchange.Service))
		return ErrBufferFull
	}
}

// ObserveChat implements chat.Observer
func (r *Recorder) ObserveChat(ctx context.Context, outcome chat.Outcome) {
	exchange := models.NewChatExchange(outcome.RequestID, outcome.Service, string(outcome.ChatbotType)).
		WithModel(outcome.Model).
		WithError(string(outcome.Error)).
		WithTiming(outcome.HistoryLen, outcome.Latency)
	if outcome.Usage != nil {
		exchange.WithUsage(outcome.Usage.PromptTokens, outcome.Usage.CompletionTokens, outcome.Usage.TotalTokens)
	}

	if err := r.LogEvent(&ExchangeEvent{Exchange: exchange}); err != nil && !errors.Is(err, ErrBufferFull) {
		r.logger.Debug("exchange not recorded", zap.Error(err))
	}
}

// worker processes events from the channel
func (r *Recorder) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("exchange worker started", zap.Int("worker_id", id))

	for event := range r.eventChan {
		if err := r.processEvent(event); err != nil {
			r.logger.Error("failed to record chat exchange",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("request_id", event.Exchange.RequestID))
		}
	}

	r.logger.Debug("exchange worker stopped", zap.Int("worker_id", id))
}

// processEvent writes a single exchange
func (r *Recorder) processEvent(event *ExchangeEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.repo.Insert(ctx, event.Exchange); err != nil {
		return fmt.Errorf("failed to insert chat exchange: %w", err)
	}

	return nil
}

// GetStats returns statistics about the recorder
func (r *Recorder) GetStats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Stats{
		BufferSize:    r.bufferSize,
		PendingEvents: len(r.eventChan),
		WorkerCount:   r.workerCount,
		Dropped:       r.dropped,
		Started:       r.started,
	}
}

// Stats represents recorder statistics
type Stats struct {
	BufferSize    int
	PendingEvents int
	WorkerCount   int
	Dropped       int
	Started       bool
}
