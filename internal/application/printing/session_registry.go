package printing

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/disciplinario/backend/internal/domain/disciplinary"
	"github.com/disciplinario/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultSessionTTL is how long an unused controller is kept
const DefaultSessionTTL = 30 * time.Minute

// ControllerFactory builds a fresh controller for a new session
type ControllerFactory func() *ExportController

// SessionRegistry holds one export controller per user
type SessionRegistry struct {
	factory ControllerFactory
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*ExportController
}

// NewSessionRegistry creates an empty registry
func NewSessionRegistry(factory ControllerFactory, ttl time.Duration, logger *zap.Logger) *SessionRegistry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRegistry{
		factory:  factory,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
		sessions: make(map[string]*ExportController),
	}
}

// Get returns the user's controller, creating it on first use
func (r *SessionRegistry) Get(userKey string) *ExportController {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.sessions[userKey]; ok {
		return c
	}
	c := r.factory()
	r.sessions[userKey] = c
	r.logger.Debug("Export session created", zap.String("user", userKey))
	return c
}

// Remove closes and forgets the user's controller. A controller that is
// exporting is kept and ErrExportInProgress returned.
func (r *SessionRegistry) Remove(userKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.sessions[userKey]
	if !ok {
		return nil
	}
	if err := c.Close(); err != nil {
		return err
	}
	delete(r.sessions, userKey)
	return nil
}

// Evict drops sessions idle for longer than the TTL and returns how many
// were removed. Sessions in the middle of an export are never evicted.
// Controllers are inspected outside the registry lock so a slow preview
// does not hold up Get.
func (r *SessionRegistry) Evict() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	snapshot := maps.Clone(r.sessions)
	r.mu.Unlock()

	var idle []string
	for key, c := range snapshot {
		if c.State() == StateExporting || c.LastActive().After(cutoff) {
			continue
		}
		idle = append(idle, key)
	}
	if len(idle) == 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for _, key := range idle {
		// the session may have been replaced since the snapshot
		if r.sessions[key] != snapshot[key] {
			continue
		}
		delete(r.sessions, key)
		evicted++
	}
	if evicted > 0 {
		r.logger.Info("Evicted idle export sessions", zap.Int("count", evicted))
	}
	return evicted
}

// Len returns the number of live sessions
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Run evicts idle sessions every interval until ctx is cancelled
func (r *SessionRegistry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = r.ttl / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Evict()
		}
	}
}

// Handle marks every session's record set stale after a request changes,
// so the next preview lists the store again.
func (r *SessionRegistry) Handle(_ context.Context, event shared.DomainEvent) error {
	r.mu.Lock()
	controllers := make([]*ExportController, 0, len(r.sessions))
	for _, c := range r.sessions {
		controllers = append(controllers, c)
	}
	r.mu.Unlock()

	for _, c := range controllers {
		if set := c.Records(); set != nil {
			set.Invalidate()
		}
	}
	r.logger.Debug("Export sessions invalidated",
		zap.String("event_type", event.EventType()),
		zap.String("request_id", event.AggregateID().String()),
		zap.Int("sessions", len(controllers)))
	return nil
}

// EventTypes lists the request changes that make a listing stale
func (r *SessionRegistry) EventTypes() []string {
	return []string{
		disciplinary.EventTypeRequestSubmitted,
		disciplinary.EventTypeAttachmentsAdded,
		disciplinary.EventTypeRequestReviewed,
		disciplinary.EventTypeSanctionImposed,
		disciplinary.EventTypeRequestUpdated,
		disciplinary.EventTypeRequestDeleted,
	}
}

var _ shared.EventHandler = (*SessionRegistry)(nil)
