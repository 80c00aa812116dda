package cache

import (
	"context"
	"sync"
	"time"
)

const sweepInterval = 5 * time.Minute

// InMemoryIdempotencyStore holds idempotency claims for a single process.
type InMemoryIdempotencyStore struct {
	mu      sync.Mutex
	expiry  map[string]time.Time
	now     func() time.Time
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewInMemoryIdempotencyStore starts a background sweeper for expired
// claims; Close stops it.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	ctx, cancel := context.WithCancel(context.Background())
	s := &InMemoryIdempotencyStore{
		expiry:  map[string]time.Time{},
		now:     time.Now,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
	go s.sweep(ctx, sweepInterval)
	return s
}

// Claim reserves key for ttl and reports false if a live claim exists.
func (s *InMemoryIdempotencyStore) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if until, held := s.expiry[key]; held && now.Before(until) {
		return false, nil
	}
	s.expiry[key] = now.Add(ttl)
	return true, nil
}

func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.expiry, key)
	s.mu.Unlock()
	return nil
}

// Close is idempotent.
func (s *InMemoryIdempotencyStore) Close() error {
	s.cancel()
	<-s.stopped
	return nil
}

func (s *InMemoryIdempotencyStore) sweep(ctx context.Context, every time.Duration) {
	defer close(s.stopped)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryIdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, until := range s.expiry {
		if !now.Before(until) {
			delete(s.expiry, key)
		}
	}
}

// Size counts held keys, including expired ones not yet swept.
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expiry)
}
