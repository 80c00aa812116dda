package disciplinary

import (
	"github.com/disciplinario/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeRequest is the aggregate type for disciplinary requests
const AggregateTypeRequest = "DisciplinaryRequest"

// Event type constants for Request
const (
	EventTypeRequestSubmitted = "RequestSubmitted"
	EventTypeAttachmentsAdded = "AttachmentsAdded"
	EventTypeRequestReviewed  = "RequestReviewed"
	EventTypeSanctionImposed  = "SanctionImposed"
	EventTypeRequestUpdated   = "RequestUpdated"
	EventTypeRequestDeleted   = "RequestDeleted"
)

// RequestSubmittedEvent is published when a new request is filed
type RequestSubmittedEvent struct {
	shared.BaseDomainEvent
	RequestID  uuid.UUID `json:"request_id"`
	WorkerName string    `json:"worker_name"`
	Area       string    `json:"area"`
	CreatedBy  string    `json:"created_by"`
}

// NewRequestSubmittedEvent creates a new RequestSubmittedEvent
func NewRequestSubmittedEvent(r *Request) *RequestSubmittedEvent {
	return &RequestSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRequestSubmitted, AggregateTypeRequest, r.ID),
		RequestID:       r.ID,
		WorkerName:      r.Worker.Name,
		Area:            r.Worker.Area,
		CreatedBy:       r.CreatedBy,
	}
}

// AttachmentsAddedEvent is published when attachments are appended
type AttachmentsAddedEvent struct {
	shared.BaseDomainEvent
	RequestID uuid.UUID `json:"request_id"`
	Added     int       `json:"added"`
	Total     int       `json:"total"`
}

// NewAttachmentsAddedEvent creates a new AttachmentsAddedEvent
func NewAttachmentsAddedEvent(r *Request, added int) *AttachmentsAddedEvent {
	return &AttachmentsAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAttachmentsAdded, AggregateTypeRequest, r.ID),
		RequestID:       r.ID,
		Added:           added,
		Total:           len(r.Attachments),
	}
}

// RequestReviewedEvent is published when a reviewer records a decision
type RequestReviewedEvent struct {
	shared.BaseDomainEvent
	RequestID uuid.UUID `json:"request_id"`
	OldStatus Status    `json:"old_status"`
	Decision  Decision  `json:"decision"`
	Reviewer  string    `json:"reviewer"`
}

// NewRequestReviewedEvent creates a new RequestReviewedEvent
func NewRequestReviewedEvent(r *Request, oldStatus Status) *RequestReviewedEvent {
	return &RequestReviewedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRequestReviewed, AggregateTypeRequest, r.ID),
		RequestID:       r.ID,
		OldStatus:       oldStatus,
		Decision:        r.Review.Decision,
		Reviewer:        r.Review.Reviewer,
	}
}

// SanctionImposedEvent is published when an administrator sanctions a request
type SanctionImposedEvent struct {
	shared.BaseDomainEvent
	RequestID    uuid.UUID `json:"request_id"`
	OldStatus    Status    `json:"old_status"`
	SanctionType string    `json:"sanction_type"`
	ImposedBy    string    `json:"imposed_by"`
}

// NewSanctionImposedEvent creates a new SanctionImposedEvent
func NewSanctionImposedEvent(r *Request, oldStatus Status) *SanctionImposedEvent {
	return &SanctionImposedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSanctionImposed, AggregateTypeRequest, r.ID),
		RequestID:       r.ID,
		OldStatus:       oldStatus,
		SanctionType:    r.Sanction.Type,
		ImposedBy:       r.Sanction.ImposedBy,
	}
}

// RequestUpdatedEvent is published when an administrator edits a request
type RequestUpdatedEvent struct {
	shared.BaseDomainEvent
	RequestID  uuid.UUID `json:"request_id"`
	WorkerName string    `json:"worker_name"`
}

// NewRequestUpdatedEvent creates a new RequestUpdatedEvent
func NewRequestUpdatedEvent(r *Request) *RequestUpdatedEvent {
	return &RequestUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRequestUpdated, AggregateTypeRequest, r.ID),
		RequestID:       r.ID,
		WorkerName:      r.Worker.Name,
	}
}

// RequestDeletedEvent is published after a request and its blobs are removed
type RequestDeletedEvent struct {
	shared.BaseDomainEvent
	RequestID     uuid.UUID `json:"request_id"`
	ReleasedBlobs int       `json:"released_blobs"`
}

// NewRequestDeletedEvent creates a new RequestDeletedEvent
func NewRequestDeletedEvent(r *Request) *RequestDeletedEvent {
	return &RequestDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRequestDeleted, AggregateTypeRequest, r.ID),
		RequestID:       r.ID,
		ReleasedBlobs:   len(r.BlobPaths()),
	}
}
