package printing

import (
	"context"
	"sync"
	"time"

	"github.com/disciplinario/backend/internal/domain/disciplinary"
	"github.com/disciplinario/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// RecordSource lists every stored request, newest first
type RecordSource interface {
	List(ctx context.Context) ([]disciplinary.Request, error)
}

// RecordSet is the set of requests a session previews from. It is loaded
// from the record store on first use and looked up by exact ID afterwards.
// Invalidate makes the next Load fetch a fresh listing.
type RecordSet struct {
	source RecordSource
	logger *zap.Logger
	group  singleflight.Group

	mu       sync.RWMutex
	records  []disciplinary.Request
	byID     map[uuid.UUID]int
	loadedAt time.Time
	loaded   bool
	gen      uint64 // bumped by Invalidate
}

// NewRecordSet creates an empty record set backed by source
func NewRecordSet(source RecordSource, logger *zap.Logger) *RecordSet {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordSet{
		source: source,
		logger: logger,
		byID:   make(map[uuid.UUID]int),
	}
}

// Load fetches the records unless they were already loaded. A listing
// that was in flight when Invalidate ran is fetched again.
func (s *RecordSet) Load(ctx context.Context) error {
	if s.Loaded() {
		return nil
	}
	if err := s.Refresh(ctx); err != nil {
		return err
	}
	if s.Loaded() {
		return nil
	}
	return s.Refresh(ctx)
}

// Refresh replaces the records with a fresh listing. Concurrent callers
// share a single store round trip.
func (s *RecordSet) Refresh(ctx context.Context) error {
	_, err, dup := s.group.Do("list", func() (any, error) {
		s.mu.RLock()
		gen := s.gen
		s.mu.RUnlock()

		records, err := s.source.List(ctx)
		if err != nil {
			return nil, err
		}
		s.replace(records, gen)
		return nil, nil
	})
	if err != nil {
		s.logger.Warn("Failed to load records", zap.Error(err), zap.Bool("shared", dup))
		return wrapBackendError("list requests", err)
	}
	return nil
}

// replace installs records listed at generation gen. A listing that raced
// an invalidation is kept for lookups but not marked loaded.
func (s *RecordSet) replace(records []disciplinary.Request, gen uint64) {
	byID := make(map[uuid.UUID]int, len(records))
	for i := range records {
		byID[records[i].ID] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
	s.byID = byID
	s.loadedAt = time.Now()
	s.loaded = s.gen == gen
}

// Invalidate marks the listing stale so the next Load refetches it
func (s *RecordSet) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.loaded = false
}

// Lookup returns the record with exactly this ID
func (s *RecordSet) Lookup(id uuid.UUID) (*disciplinary.Request, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return &s.records[i], true
}

// Records returns a copy of the loaded records in listing order
func (s *RecordSet) Records() []disciplinary.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]disciplinary.Request, len(s.records))
	copy(out, s.records)
	return out
}

// Loaded reports whether the set holds a listing
func (s *RecordSet) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// LoadedAt returns when the current listing was fetched
func (s *RecordSet) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

func wrapBackendError(op string, err error) error {
	if _, ok := err.(*shared.BackendError); ok {
		return err
	}
	return shared.NewBackendError(op, err)
}
