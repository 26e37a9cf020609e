package chat

import (
	"context"
	"time"

	"github.com/upb/multiai-chatbot/services/providers"
)

// Outcome describes a finished chat call. It never carries message text.
type Outcome struct {
	RequestID   string
	Service     string
	ChatbotType providers.ChatbotType
	Model       string
	Error       providers.ErrorKind
	Usage       *providers.Usage
	HistoryLen  int
	Latency     time.Duration
}

// Succeeded reports whether the call produced model output
func (o Outcome) Succeeded() bool {
	return o.Error == ""
}

// Observer is notified after every routed call, including rejected ones.
// Implementations must not block the request for long.
type Observer interface {
	ObserveChat(ctx context.Context, outcome Outcome)
}
