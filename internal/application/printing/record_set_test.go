package printing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/disciplinario/backend/internal/application/printing"
	"github.com/disciplinario/backend/internal/domain/disciplinary"
	"github.com/disciplinario/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRecordSet_LoadOnce(t *testing.T) {
	source := new(MockRecordSource)
	records := []disciplinary.Request{newRequest(t, "Juan"), newRequest(t, "María")}
	source.On("List", mock.Anything).Return(records, nil)

	set := printing.NewRecordSet(source, nil)
	assert.False(t, set.Loaded())

	require.NoError(t, set.Load(context.Background()))
	require.NoError(t, set.Load(context.Background()))
	source.AssertNumberOfCalls(t, "List", 1)

	assert.True(t, set.Loaded())
	assert.False(t, set.LoadedAt().IsZero())
	assert.Len(t, set.Records(), 2)

	got, ok := set.Lookup(records[1].ID)
	require.True(t, ok)
	assert.Equal(t, "María", got.Worker.Name)

	_, ok = set.Lookup(uuid.New())
	assert.False(t, ok)
}

func TestRecordSet_Refresh(t *testing.T) {
	source := new(MockRecordSource)
	first := []disciplinary.Request{newRequest(t, "Juan")}
	second := []disciplinary.Request{newRequest(t, "Pedro"), first[0]}
	source.On("List", mock.Anything).Return(first, nil).Once()
	source.On("List", mock.Anything).Return(second, nil).Once()

	set := printing.NewRecordSet(source, nil)
	require.NoError(t, set.Load(context.Background()))
	require.NoError(t, set.Refresh(context.Background()))

	records := set.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "Pedro", records[0].Worker.Name)
	_, ok := set.Lookup(second[0].ID)
	assert.True(t, ok)
}

func TestRecordSet_RecordsReturnsCopy(t *testing.T) {
	source := new(MockRecordSource)
	source.On("List", mock.Anything).Return([]disciplinary.Request{newRequest(t, "Juan")}, nil)

	set := printing.NewRecordSet(source, nil)
	require.NoError(t, set.Load(context.Background()))

	records := set.Records()
	records[0].Worker.Name = "otro"
	assert.Equal(t, "Juan", set.Records()[0].Worker.Name)
}

func TestRecordSet_BackendError(t *testing.T) {
	source := new(MockRecordSource)
	cause := errors.New("timeout")
	source.On("List", mock.Anything).Return(nil, cause)

	set := printing.NewRecordSet(source, nil)
	err := set.Load(context.Background())

	var backendErr *shared.BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.ErrorIs(t, err, cause)
	assert.False(t, set.Loaded())
}

func TestRecordSet_Invalidate(t *testing.T) {
	source := new(MockRecordSource)
	first := []disciplinary.Request{newRequest(t, "Juan")}
	second := []disciplinary.Request{newRequest(t, "Pedro")}
	source.On("List", mock.Anything).Return(first, nil).Once()
	source.On("List", mock.Anything).Return(second, nil).Once()

	set := printing.NewRecordSet(source, nil)
	require.NoError(t, set.Load(context.Background()))

	set.Invalidate()
	assert.False(t, set.Loaded())
	_, ok := set.Lookup(first[0].ID)
	assert.True(t, ok, "the stale listing stays readable until reloaded")

	require.NoError(t, set.Load(context.Background()))
	assert.True(t, set.Loaded())
	_, ok = set.Lookup(second[0].ID)
	assert.True(t, ok)
	_, ok = set.Lookup(first[0].ID)
	assert.False(t, ok)
	source.AssertNumberOfCalls(t, "List", 2)
}

func TestRecordSet_InvalidateDuringLoad(t *testing.T) {
	source := new(MockRecordSource)
	stale := []disciplinary.Request{newRequest(t, "Juan")}
	fresh := []disciplinary.Request{newRequest(t, "Pedro")}

	listing := make(chan struct{})
	release := make(chan struct{})
	source.On("List", mock.Anything).Run(func(mock.Arguments) {
		close(listing)
		<-release
	}).Return(stale, nil).Once()
	source.On("List", mock.Anything).Return(fresh, nil).Once()

	set := printing.NewRecordSet(source, nil)
	done := make(chan error, 1)
	go func() { done <- set.Load(context.Background()) }()

	<-listing
	set.Invalidate()
	close(release)
	require.NoError(t, <-done)

	assert.True(t, set.Loaded())
	_, ok := set.Lookup(fresh[0].ID)
	assert.True(t, ok, "a listing that raced an invalidation is fetched again")
	source.AssertNumberOfCalls(t, "List", 2)
}
