package printing

import (
	"bytes"
	"context"
	"image/jpeg"
	"time"

	"github.com/disciplinario/backend/internal/domain/printing"
	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

const (
	// DefaultJPEGQuality is the quality the page bitmap is embedded at
	DefaultJPEGQuality = 95
	// PDFContentType is the MIME type of exported documents
	PDFContentType = "application/pdf"

	pageImageName = "page"
)

// PDFExporterConfig contains configuration for the PDF exporter
type PDFExporterConfig struct {
	// Geometry is the physical page (default A4 portrait, 10mm margin)
	Geometry printing.PageGeometry
	// JPEGQuality of the embedded bitmap, 1-100 (default 95)
	JPEGQuality int
	// Creator is written to the document metadata
	Creator string
	// Logger for debug output
	Logger *zap.Logger
}

// ExportedDocument is a finished single-page document ready for download
type ExportedDocument struct {
	FileName    string
	ContentType string
	Data        []byte
	Placement   printing.Placement
}

// Size returns the document size in bytes
func (d *ExportedDocument) Size() int {
	return len(d.Data)
}

// Exporter turns a page bitmap into a downloadable document
type Exporter interface {
	Export(ctx context.Context, bitmap *Bitmap, fileName string) (*ExportedDocument, error)
}

// PDFExporter embeds a page bitmap into a one-page PDF
type PDFExporter struct {
	config *PDFExporterConfig
	logger *zap.Logger
}

// NewPDFExporter creates a PDF exporter
func NewPDFExporter(config *PDFExporterConfig) *PDFExporter {
	if config == nil {
		config = &PDFExporterConfig{}
	}
	if config.Geometry.Width <= 0 || config.Geometry.Height <= 0 {
		config.Geometry = printing.A4Portrait()
	}
	if config.JPEGQuality <= 0 || config.JPEGQuality > 100 {
		config.JPEGQuality = DefaultJPEGQuality
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PDFExporter{config: config, logger: logger}
}

// Export places the bitmap on one page, scaled to fit the printable area,
// centered horizontally and pinned to the top margin
func (e *PDFExporter) Export(ctx context.Context, bitmap *Bitmap, fileName string) (*ExportedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewExportError(ErrCodeExportFailed, "export cancelled", err)
	}
	if bitmap == nil || bitmap.Image == nil {
		return nil, NewExportError(ErrCodeInvalidBitmap, "bitmap is nil", nil)
	}
	if fileName == "" {
		fileName = printing.ExportFileName("")
	}

	startTime := time.Now()
	g := e.config.Geometry

	placement, err := g.Fit(bitmap.Width, bitmap.Height)
	if err != nil {
		return nil, NewExportError(ErrCodeInvalidBitmap, "bitmap cannot be placed", err)
	}

	var img bytes.Buffer
	if err := jpeg.Encode(&img, bitmap.Image, &jpeg.Options{Quality: e.config.JPEGQuality}); err != nil {
		return nil, NewExportError(ErrCodeEncodeFailed, "failed to encode page bitmap", err)
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: g.Width, Ht: g.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(fileName, true)
	if e.config.Creator != "" {
		pdf.SetCreator(e.config.Creator, true)
	}
	pdf.AddPage()

	opt := fpdf.ImageOptions{ImageType: "JPG"}
	pdf.RegisterImageOptionsReader(pageImageName, opt, bytes.NewReader(img.Bytes()))
	pdf.ImageOptions(pageImageName, placement.X, placement.Y, placement.Width, placement.Height, false, opt, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, NewExportError(ErrCodeExportFailed, "failed to write PDF", err)
	}

	e.logger.Info("Document exported",
		zap.String("file_name", fileName),
		zap.Int("bytes", out.Len()),
		zap.Float64("width_mm", placement.Width),
		zap.Float64("height_mm", placement.Height),
		zap.Duration("duration", time.Since(startTime)))

	return &ExportedDocument{
		FileName:    fileName,
		ContentType: PDFContentType,
		Data:        out.Bytes(),
		Placement:   placement,
	}, nil
}

// Ensure PDFExporter implements Exporter
var _ Exporter = (*PDFExporter)(nil)
