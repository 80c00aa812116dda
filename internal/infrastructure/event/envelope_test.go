package event

import (
	"encoding/json"
	"testing"

	"github.com/disciplinario/backend/internal/domain/disciplinary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubmittedRequest(t *testing.T) *disciplinary.Request {
	t.Helper()
	r, err := disciplinary.NewRequest(
		disciplinary.Requester{Name: "Laura Gómez", Title: "Jefe de planta", RequestDate: "2026-10-01"},
		disciplinary.Worker{Name: "Pedro Pérez", NationalID: "1020304050", JobTitle: "Operario", Area: "Producción", Supervisor: "Carlos Ruiz"},
		disciplinary.Incident{Dates: "2026-09-28", Location: "Bodega 2", Description: "Abandono del puesto"},
		"laura@empresa.co",
	)
	require.NoError(t, err)
	return r
}

func TestEventSerializer_RoundTrip(t *testing.T) {
	s := NewEventSerializer()
	r := newSubmittedRequest(t)
	original := r.PendingEvents()[0].(*disciplinary.RequestSubmittedEvent)

	data, err := s.Marshal(original)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, disciplinary.EventTypeRequestSubmitted, env.Type)
	assert.Equal(t, disciplinary.AggregateTypeRequest, env.AggregateType)
	assert.Equal(t, r.ID, env.AggregateID)
	assert.Equal(t, original.EventID(), env.ID)

	decoded, err := s.Unmarshal(data)
	require.NoError(t, err)
	submitted, ok := decoded.(*disciplinary.RequestSubmittedEvent)
	require.True(t, ok)
	assert.Equal(t, "Pedro Pérez", submitted.WorkerName)
	assert.Equal(t, "Producción", submitted.Area)
	assert.Equal(t, r.ID, submitted.AggregateID())
}

func TestEventSerializer_Registration(t *testing.T) {
	s := NewEventSerializer()
	for _, eventType := range []string{
		disciplinary.EventTypeRequestSubmitted,
		disciplinary.EventTypeAttachmentsAdded,
		disciplinary.EventTypeRequestReviewed,
		disciplinary.EventTypeSanctionImposed,
		disciplinary.EventTypeRequestUpdated,
		disciplinary.EventTypeRequestDeleted,
	} {
		assert.True(t, s.IsRegistered(eventType), eventType)
	}

	_, err := s.Unmarshal([]byte(`{"type":"Unknown","payload":{}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")

	_, err = s.Unmarshal([]byte(`not json`))
	require.Error(t, err)
}
