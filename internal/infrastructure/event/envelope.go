package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/disciplinario/backend/internal/domain/disciplinary"
	"github.com/disciplinario/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Envelope is the wire form of a domain event sent to external consumers
type Envelope struct {
	ID            uuid.UUID       `json:"id"`
	Type          string          `json:"type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// EventSerializer converts domain events to envelopes and back
type EventSerializer struct {
	mu       sync.RWMutex
	registry map[string]reflect.Type
}

// NewEventSerializer creates a serializer with the disciplinary events registered
func NewEventSerializer() *EventSerializer {
	s := &EventSerializer{registry: make(map[string]reflect.Type)}
	RegisterDisciplinaryEvents(s)
	return s
}

// RegisterDisciplinaryEvents registers every disciplinary request event type
func RegisterDisciplinaryEvents(s *EventSerializer) {
	s.Register(disciplinary.EventTypeRequestSubmitted, &disciplinary.RequestSubmittedEvent{})
	s.Register(disciplinary.EventTypeAttachmentsAdded, &disciplinary.AttachmentsAddedEvent{})
	s.Register(disciplinary.EventTypeRequestReviewed, &disciplinary.RequestReviewedEvent{})
	s.Register(disciplinary.EventTypeSanctionImposed, &disciplinary.SanctionImposedEvent{})
	s.Register(disciplinary.EventTypeRequestUpdated, &disciplinary.RequestUpdatedEvent{})
	s.Register(disciplinary.EventTypeRequestDeleted, &disciplinary.RequestDeletedEvent{})
}

// Register registers an event type for deserialization
func (s *EventSerializer) Register(eventType string, eventInstance shared.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := reflect.TypeOf(eventInstance)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s.registry[eventType] = t
}

// Marshal wraps the event in an envelope and encodes it as JSON
func (s *EventSerializer) Marshal(event shared.DomainEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}
	return json.Marshal(Envelope{
		ID:            event.EventID(),
		Type:          event.EventType(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		OccurredAt:    event.OccurredAt().UTC(),
		Payload:       payload,
	})
}

// Unmarshal decodes an envelope and its payload into the registered event type
func (s *EventSerializer) Unmarshal(data []byte) (shared.DomainEvent, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	s.mu.RLock()
	t, ok := s.registry[env.Type]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", env.Type)
	}

	ptr := reflect.New(t).Interface()
	if err := json.Unmarshal(env.Payload, ptr); err != nil {
		return nil, fmt.Errorf("unmarshal event payload: %w", err)
	}

	event, ok := ptr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("type %s does not implement DomainEvent", t)
	}
	return event, nil
}

// IsRegistered checks if an event type is registered
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registry[eventType]
	return ok
}
