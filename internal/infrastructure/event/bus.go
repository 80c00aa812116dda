// Package event carries domain events from the application services to
// their subscribers, such as the audit log and the export sessions.
package event

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/disciplinario/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// InMemoryEventBus delivers events synchronously on the publishing
// goroutine. A handler that fails or panics is logged and skipped.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	stopped  atomic.Bool
	inflight sync.WaitGroup
}

// NewInMemoryEventBus returns a running bus.
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger.Named("event_bus"),
	}
}

// Publish hands every event to its handlers. It never fails; events
// published while the bus is stopped are dropped.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if b.stopped.Load() {
		b.logger.Warn("event bus stopped, dropping events", zap.Int("count", len(events)))
		return nil
	}
	b.inflight.Add(1)
	defer b.inflight.Done()

	for _, ev := range events {
		b.deliver(ctx, ev)
	}
	return nil
}

func (b *InMemoryEventBus) deliver(ctx context.Context, ev shared.DomainEvent) {
	for _, h := range b.registry.HandlersFor(ev.EventType()) {
		if err := safeHandle(ctx, h, ev); err != nil {
			b.logger.Error("handler failed to process event",
				zap.String("event_type", ev.EventType()),
				zap.Stringer("event_id", ev.EventID()),
				zap.Stringer("aggregate_id", ev.AggregateID()),
				zap.Error(err),
			)
		}
	}
}

func safeHandle(ctx context.Context, h shared.EventHandler, ev shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Handle(ctx, ev)
}

// Subscribe registers handler for eventTypes, defaulting to the types the
// handler declares. No types at all means every event.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes handler from every event type.
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start resumes delivery after Stop.
func (b *InMemoryEventBus) Start(context.Context) error {
	b.stopped.Store(false)
	b.logger.Info("event bus started")
	return nil
}

// Stop refuses new events and waits for in-flight publishes, or for ctx.
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.stopped.Store(true)

	drained := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		b.logger.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
