package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/disciplinario/backend/internal/domain/disciplinary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newListedRequest(t *testing.T, worker, area string, createdAt time.Time) disciplinary.Request {
	t.Helper()
	r, err := disciplinary.NewRequest(
		disciplinary.Requester{Name: "Laura Gómez", Title: "Jefe de planta", RequestDate: "2026-10-01"},
		disciplinary.Worker{Name: worker, NationalID: "1020304050", JobTitle: "Operario", Area: area, Supervisor: "Carlos Ruiz"},
		disciplinary.Incident{Dates: "2026-09-28", Location: "Bodega 2", Description: "Abandono del puesto"},
		"laura@empresa.co",
	)
	require.NoError(t, err)
	r.CreatedAt = createdAt
	return *r
}

func TestRequestListWorkbook(t *testing.T) {
	created := time.Date(2026, 10, 2, 14, 30, 0, 0, time.UTC)
	sanctioned := newListedRequest(t, "Pedro Pérez", "Producción", created)
	require.NoError(t, sanctioned.ImposeSanction("Suspensión", "Tres días", "2026-10-05", "2026-10-07", "admin@empresa.co", created))

	requests := []disciplinary.Request{
		sanctioned,
		newListedRequest(t, "Ana Ruiz", "Logística", created.Add(-time.Hour)),
	}

	data, err := RequestListWorkbook(requests, time.UTC)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Fecha de registro", rows[0][0])
	assert.Equal(t, "Creado por", rows[0][len(rows[0])-1])

	assert.Equal(t, "02/10/2026 14:30", rows[1][0])
	assert.Equal(t, "Pedro Pérez", rows[1][3])
	assert.Equal(t, "sancionado", rows[1][11])
	assert.Equal(t, "Suspensión", rows[1][12])
	assert.Equal(t, "0", rows[1][13])

	assert.Equal(t, "Ana Ruiz", rows[2][3])
	assert.Equal(t, "pendiente", rows[2][11])

	panes, err := f.GetPanes(SheetName)
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
}

func TestRequestListWorkbook_Empty(t *testing.T) {
	data, err := RequestListWorkbook(nil, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], len(listColumns))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "solicitudes_2026-10-17_0905.xlsx", FileName(time.Date(2026, 10, 17, 9, 5, 0, 0, time.UTC)))
}
