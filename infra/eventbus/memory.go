// Package eventbus provides the in-memory event bus implementation the
// wallet runs with. Handlers are synchronous; a panicking handler must not
// take the publisher down.
package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/amirasaad/kapital/pkg/domain"
	"github.com/amirasaad/kapital/pkg/eventbus"
)

// MemoryBus is a simple in-memory implementation of eventbus.Bus.
type MemoryBus struct {
	handlers  map[string][]func(context.Context, domain.Event)
	mu        sync.RWMutex
	logger    *slog.Logger
	published []domain.Event
}

// NewWithMemory creates a new in-memory event bus.
func NewWithMemory(logger *slog.Logger) *MemoryBus {
	return &MemoryBus{
		handlers: make(map[string][]func(context.Context, domain.Event)),
		logger:   logger.With("bus", "memory"),
	}
}

// Subscribe registers a handler for a specific event type.
func (b *MemoryBus) Subscribe(eventType string, handler func(context.Context, domain.Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish dispatches the event to every handler registered for its type.
func (b *MemoryBus) Publish(ctx context.Context, event domain.Event) error {
	b.mu.RLock()
	handlers := append([]func(context.Context, domain.Event){}, b.handlers[event.Type()]...)
	b.mu.RUnlock()

	b.mu.Lock()
	b.published = append(b.published, event)
	b.mu.Unlock()

	for _, handler := range handlers {
		b.dispatch(ctx, event, handler)
	}
	return nil
}

func (b *MemoryBus) dispatch(ctx context.Context, event domain.Event, handler func(context.Context, domain.Event)) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic recovered in event handler", "type", event.Type(), "panic", r)
		}
	}()
	handler(ctx, event)
}

// Published returns every event published so far. Useful for tests.
func (b *MemoryBus) Published() []domain.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.Event, len(b.published))
	copy(out, b.published)
	return out
}

var _ eventbus.Bus = (*MemoryBus)(nil)
