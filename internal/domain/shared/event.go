package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact raised by an aggregate and published once the
// aggregate has been persisted.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
}

// BaseDomainEvent holds the metadata every event carries. Concrete events
// embed it and add their payload fields.
type BaseDomainEvent struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"type"`
	At       time.Time `json:"timestamp"`
	SourceID uuid.UUID `json:"aggregate_id"`
	Source   string    `json:"aggregate_type"`
}

// NewBaseDomainEvent stamps a new event of eventType raised by the
// aggregate aggType/aggID.
func NewBaseDomainEvent(eventType, aggType string, aggID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:       uuid.New(),
		Name:     eventType,
		At:       time.Now().UTC(),
		SourceID: aggID,
		Source:   aggType,
	}
}

func (e *BaseDomainEvent) EventID() uuid.UUID     { return e.ID }
func (e *BaseDomainEvent) EventType() string      { return e.Name }
func (e *BaseDomainEvent) OccurredAt() time.Time  { return e.At }
func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.SourceID }
func (e *BaseDomainEvent) AggregateType() string  { return e.Source }
