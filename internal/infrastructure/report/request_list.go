// Package report builds downloadable spreadsheets of disciplinary requests.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/disciplinario/backend/internal/domain/disciplinary"
	"github.com/xuri/excelize/v2"
)

// SheetName is the single worksheet of the listing workbook
const SheetName = "Solicitudes"

// ContentType is the MIME type of the generated workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var listColumns = []struct {
	header string
	width  float64
	value  func(r *disciplinary.Request, loc *time.Location) any
}{
	{"Fecha de registro", 18, func(r *disciplinary.Request, loc *time.Location) any {
		return r.CreatedAt.In(loc).Format("02/01/2006 15:04")
	}},
	{"Solicitante", 24, func(r *disciplinary.Request, _ *time.Location) any { return r.Requester.Name }},
	{"Cargo solicitante", 22, func(r *disciplinary.Request, _ *time.Location) any { return r.Requester.Title }},
	{"Trabajador", 26, func(r *disciplinary.Request, _ *time.Location) any { return r.Worker.Name }},
	{"Cédula", 14, func(r *disciplinary.Request, _ *time.Location) any { return r.Worker.NationalID }},
	{"Cargo", 20, func(r *disciplinary.Request, _ *time.Location) any { return r.Worker.JobTitle }},
	{"Área", 18, func(r *disciplinary.Request, _ *time.Location) any { return r.Worker.Area }},
	{"Jefe inmediato", 22, func(r *disciplinary.Request, _ *time.Location) any { return r.Worker.Supervisor }},
	{"Fecha(s) del hecho", 18, func(r *disciplinary.Request, _ *time.Location) any { return r.Incident.Dates }},
	{"Lugar", 18, func(r *disciplinary.Request, _ *time.Location) any { return r.Incident.Location }},
	{"Descripción", 50, func(r *disciplinary.Request, _ *time.Location) any { return r.Incident.Description }},
	{"Estado", 12, func(r *disciplinary.Request, _ *time.Location) any { return r.Status.String() }},
	{"Sanción", 22, func(r *disciplinary.Request, _ *time.Location) any {
		if r.Sanction == nil {
			return ""
		}
		return r.Sanction.Type
	}},
	{"Anexos", 8, func(r *disciplinary.Request, _ *time.Location) any { return len(r.Attachments) }},
	{"Creado por", 24, func(r *disciplinary.Request, _ *time.Location) any { return r.CreatedBy }},
}

// RequestListWorkbook renders the admin listing as an XLSX workbook with a
// bold frozen header row and an auto filter over the data range.
func RequestListWorkbook(requests []disciplinary.Request, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.Local
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1F4E78"}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
			WrapText:   true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]any, len(listColumns))
	for i, col := range listColumns {
		header[i] = col.header
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, name, name, col.width); err != nil {
			return nil, fmt.Errorf("failed to size column %s: %w", name, err)
		}
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(listColumns))
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i := range requests {
		row := make([]any, len(listColumns))
		for j, col := range listColumns {
			row[j] = col.value(&requests[i], loc)
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}

	lastRow := max(len(requests)+1, 2)
	if err := f.AutoFilter(SheetName, fmt.Sprintf("A1:%s%d", lastCol, lastRow), nil); err != nil {
		return nil, fmt.Errorf("failed to set auto filter: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// FileName returns the download name for a listing generated at t
func FileName(t time.Time) string {
	return "solicitudes_" + t.Format("2006-01-02_1504") + ".xlsx"
}
