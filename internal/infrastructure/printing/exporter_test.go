package printing

import (
	"bytes"
	"context"
	"image/color"
	"testing"

	"github.com/disciplinario/backend/internal/domain/printing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewPDFExporter_Defaults(t *testing.T) {
	e := NewPDFExporter(nil)
	assert.Equal(t, printing.A4Portrait(), e.config.Geometry)
	assert.Equal(t, DefaultJPEGQuality, e.config.JPEGQuality)

	e = NewPDFExporter(&PDFExporterConfig{JPEGQuality: 150})
	assert.Equal(t, DefaultJPEGQuality, e.config.JPEGQuality)
}

func TestPDFExporter_Export(t *testing.T) {
	e := NewPDFExporter(&PDFExporterConfig{Creator: "disciplinario", Logger: zaptest.NewLogger(t)})

	bitmap, err := NewBitmap(solidImage(1588, 2246, color.White))
	require.NoError(t, err)

	doc, err := e.Export(context.Background(), bitmap, "Solicitud_Juan_P_rez.pdf")
	require.NoError(t, err)

	assert.Equal(t, "Solicitud_Juan_P_rez.pdf", doc.FileName)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.True(t, bytes.HasPrefix(doc.Data, []byte("%PDF-")))
	assert.Equal(t, len(doc.Data), doc.Size())
	assert.Contains(t, string(doc.Data), "/Count 1")
	assert.Contains(t, string(doc.Data), "595.28 841.89")
	assert.Contains(t, string(doc.Data), "/DCTDecode")

	assert.Equal(t, 190.0, doc.Placement.Width)
	assert.InDelta(t, 268.73, doc.Placement.Height, 0.01)
	assert.Equal(t, 10.0, doc.Placement.X)
	assert.Equal(t, 10.0, doc.Placement.Y)
}

func TestPDFExporter_Export_TallBitmap(t *testing.T) {
	e := NewPDFExporter(nil)

	bitmap, err := NewBitmap(solidImage(100, 277, color.Black))
	require.NoError(t, err)

	doc, err := e.Export(context.Background(), bitmap, "")
	require.NoError(t, err)
	assert.Equal(t, "Solicitud_documento.pdf", doc.FileName)
	assert.Equal(t, 277.0, doc.Placement.Height)
	assert.InDelta(t, 100.0, doc.Placement.Width, 1e-9)
	assert.InDelta(t, 55.0, doc.Placement.X, 1e-9)
}

func TestPDFExporter_Export_Errors(t *testing.T) {
	e := NewPDFExporter(nil)
	var exportErr *ExportError

	_, err := e.Export(context.Background(), nil, "x.pdf")
	require.ErrorAs(t, err, &exportErr)
	assert.Equal(t, ErrCodeInvalidBitmap, exportErr.Code)

	bitmap, err := NewBitmap(solidImage(10, 10, color.White))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Export(ctx, bitmap, "x.pdf")
	require.ErrorAs(t, err, &exportErr)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = e.Export(context.Background(), &Bitmap{Image: bitmap.Image, Width: 0, Height: 10}, "x.pdf")
	require.ErrorAs(t, err, &exportErr)
	assert.Equal(t, ErrCodeInvalidBitmap, exportErr.Code)
}
