package disciplinary

import (
	"context"

	"github.com/disciplinario/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ListFilter narrows the admin listing of requests
type ListFilter struct {
	shared.Filter
	// Area matches the worker area exactly when not empty
	Area string
	// Status matches the workflow status when not empty
	Status Status
}

// DefaultListFilter returns a filter with default pagination, newest first
func DefaultListFilter() ListFilter {
	f := shared.DefaultFilter()
	return ListFilter{Filter: f}
}

// RequestRepository defines the interface for disciplinary request persistence
type RequestRepository interface {
	// FindByID finds a request by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Request, error)

	// FindAll finds requests matching the filter (search on worker name / national ID)
	FindAll(ctx context.Context, filter ListFilter) ([]Request, error)

	// Count returns the number of requests matching the filter
	Count(ctx context.Context, filter ListFilter) (int64, error)

	// List returns every request ordered by creation time, newest first
	List(ctx context.Context) ([]Request, error)

	// Create inserts a new request
	Create(ctx context.Context, request *Request) error

	// Save updates an existing request, checking the optimistic lock version
	Save(ctx context.Context, request *Request) error

	// Delete deletes a request by ID
	Delete(ctx context.Context, id uuid.UUID) error

	// Areas returns the distinct worker areas, sorted
	Areas(ctx context.Context) ([]string, error)
}
