package printing_test

import (
	"context"
	"testing"
	"time"

	"github.com/disciplinario/backend/internal/application/printing"
	"github.com/disciplinario/backend/internal/domain/disciplinary"
	"github.com/disciplinario/backend/internal/infrastructure/event"
	infra "github.com/disciplinario/backend/internal/infrastructure/printing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// newSubscribedRegistry builds sessions that render with the real page
// template and listen to bus.
func newSubscribedRegistry(t *testing.T, source *MockRecordSource) (*printing.SessionRegistry, *event.InMemoryEventBus) {
	t.Helper()
	renderer := infra.NewTemplateEngine(infra.WithLocation(time.UTC))
	registry := printing.NewSessionRegistry(func() *printing.ExportController {
		return printing.NewExportController(printing.ControllerDeps{
			Records:  printing.NewRecordSet(source, zaptest.NewLogger(t)),
			Renderer: renderer,
			Logger:   zaptest.NewLogger(t),
			Now:      func() time.Time { return fixedNow },
		})
	}, time.Minute, zaptest.NewLogger(t))

	bus := event.NewInMemoryEventBus(zaptest.NewLogger(t))
	bus.Subscribe(registry)
	return registry, bus
}

func TestSessionRegistry_PreviewAfterSanction(t *testing.T) {
	ctx := context.Background()
	original := newRequest(t, "Juan Pérez")
	original.PullDomainEvents()

	sanctioned := original
	require.NoError(t, sanctioned.ImposeSanction("Suspensión", "Tres días sin salario", "2026-10-20", "2026-10-22",
		"admin@example.com", fixedNow))
	events := sanctioned.PullDomainEvents()
	require.Len(t, events, 1)

	source := new(MockRecordSource)
	source.On("List", mock.Anything).Return([]disciplinary.Request{original}, nil).Once()
	source.On("List", mock.Anything).Return([]disciplinary.Request{sanctioned}, nil).Once()

	registry, bus := newSubscribedRegistry(t, source)
	session := registry.Get("ana@example.com")

	before, err := session.Preview(ctx, original.ID)
	require.NoError(t, err)
	assert.NotContains(t, before.Markup, "SANCIÓN IMPUESTA")

	require.NoError(t, bus.Publish(ctx, events...))
	assert.False(t, session.Records().Loaded())

	after, err := session.Preview(ctx, original.ID)
	require.NoError(t, err)
	assert.Contains(t, after.Markup, "6. SANCIÓN IMPUESTA")
	assert.Contains(t, after.Markup, "Tipo de sanción:</td><td>Suspensión</td>")
	assert.Contains(t, session.Markup(), "6. SANCIÓN IMPUESTA")
	source.AssertNumberOfCalls(t, "List", 2)
}

func TestSessionRegistry_PreviewAfterDelete(t *testing.T) {
	ctx := context.Background()
	r := newRequest(t, "Juan Pérez")
	r.PullDomainEvents()

	source := new(MockRecordSource)
	source.On("List", mock.Anything).Return([]disciplinary.Request{r}, nil).Once()
	source.On("List", mock.Anything).Return([]disciplinary.Request{}, nil).Once()

	registry, bus := newSubscribedRegistry(t, source)
	session := registry.Get("ana@example.com")

	_, err := session.Preview(ctx, r.ID)
	require.NoError(t, err)

	r.MarkDeleted()
	require.NoError(t, bus.Publish(ctx, r.PullDomainEvents()...))

	_, err = session.Preview(ctx, r.ID)
	assert.ErrorIs(t, err, printing.ErrRecordNotFound)
	assert.Equal(t, printing.StatePreviewing, session.State(), "a missing record leaves the controller unchanged")
}

func TestSessionRegistry_EventTypes(t *testing.T) {
	registry := printing.NewSessionRegistry(nil, time.Minute, nil)

	assert.ElementsMatch(t, []string{
		disciplinary.EventTypeRequestSubmitted,
		disciplinary.EventTypeAttachmentsAdded,
		disciplinary.EventTypeRequestReviewed,
		disciplinary.EventTypeSanctionImposed,
		disciplinary.EventTypeRequestUpdated,
		disciplinary.EventTypeRequestDeleted,
	}, registry.EventTypes())

	r := newRequest(t, "Juan Pérez")
	assert.NoError(t, registry.Handle(context.Background(), r.PullDomainEvents()[0]), "no sessions to invalidate")
}
