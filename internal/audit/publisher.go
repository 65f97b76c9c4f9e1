package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"policycheck/internal/eligibility"
	"policycheck/pkg/requestcontext"
)

// Publisher ships audit events to a sink.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// MemoryPublisher keeps events in memory. Used in tests and when no broker
// is configured.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Emit(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	p.events = append(p.events, event)
	return nil
}

// Events returns a snapshot of everything emitted so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

// Hook adapts a Publisher into an eligibility outcome hook. Emit failures
// are logged and never reach the observer.
func Hook(publisher Publisher, logger *slog.Logger) eligibility.OutcomeHook {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(ctx context.Context, info eligibility.CheckInfo, outcome eligibility.Outcome) {
		event := FromCheck(info, outcome)
		if info.StartedAt.IsZero() {
			event.Timestamp = requestcontext.Now(ctx)
		}
		if err := publisher.Emit(ctx, event); err != nil {
			logger.WarnContext(ctx, "audit emit failed",
				"request_id", info.RequestID,
				"error", err,
			)
		}
	}
}
