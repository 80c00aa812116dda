package printing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/disciplinario/backend/internal/domain/disciplinary"
	domain "github.com/disciplinario/backend/internal/domain/printing"
	infra "github.com/disciplinario/backend/internal/infrastructure/printing"
	"github.com/disciplinario/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the phase of an export controller
type State int

const (
	StateIdle State = iota
	StatePreviewing
	StateExporting
)

// String returns the string representation of State
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreviewing:
		return "previewing"
	case StateExporting:
		return "exporting"
	default:
		return "unknown"
	}
}

// Pipeline stages reported to the observer
const (
	StageRender    = "render"
	StageRasterize = "rasterize"
	StageExport    = "export"
)

// Renderer fills the page template for a request
type Renderer interface {
	RenderRequest(ctx context.Context, r *disciplinary.Request, generatedAt time.Time) (string, error)
}

// PipelineObserver receives the duration and outcome of each stage
type PipelineObserver interface {
	ObserveStage(stage string, duration time.Duration, err error)
}

type noopObserver struct{}

func (noopObserver) ObserveStage(string, time.Duration, error) {}

// ControllerDeps are the collaborators of an export controller
type ControllerDeps struct {
	Records       *RecordSet
	Renderer      Renderer
	Rasterizer    infra.Rasterizer
	Exporter      infra.Exporter
	RasterOptions infra.RasterOptions
	Observer      PipelineObserver
	Logger        *zap.Logger
	Now           func() time.Time
}

// Preview is the markup of the selected record
type Preview struct {
	ID       uuid.UUID
	Markup   string
	FileName string
}

// ExportController drives one user's preview and export of a request.
//
// Idle -> Previewing on Preview; Previewing -> Exporting on Confirm;
// Exporting -> Idle on success or back to Previewing on failure, keeping
// the markup so the user can retry. Close returns to Idle from any state
// except Exporting.
type ExportController struct {
	deps ControllerDeps

	mu         sync.Mutex
	state      State
	selected   *disciplinary.Request
	markup     string
	lastActive time.Time
}

// NewExportController creates an idle controller
func NewExportController(deps ControllerDeps) *ExportController {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Observer == nil {
		deps.Observer = noopObserver{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &ExportController{
		deps:       deps,
		state:      StateIdle,
		lastActive: deps.Now(),
	}
}

// Preview selects a record and renders its page. Previewing again replaces
// the selection. A missing record leaves the controller unchanged. The
// listing and the template run without holding the controller lock, so an
// export that starts meanwhile wins and the preview is rejected.
func (c *ExportController) Preview(ctx context.Context, id uuid.UUID) (*Preview, error) {
	c.mu.Lock()
	if c.state == StateExporting {
		c.mu.Unlock()
		return nil, ErrExportInProgress
	}
	c.lastActive = c.deps.Now()
	c.mu.Unlock()

	if err := c.deps.Records.Load(ctx); err != nil {
		return nil, err
	}

	record, ok := c.deps.Records.Lookup(id)
	if !ok {
		return nil, ErrRecordNotFound
	}

	var markup string
	err := c.runStage(ctx, StageRender, func(ctx context.Context) error {
		var err error
		markup, err = c.deps.Renderer.RenderRequest(ctx, record, c.deps.Now())
		return err
	})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateExporting {
		return nil, ErrExportInProgress
	}
	c.state = StatePreviewing
	c.selected = record
	c.markup = markup

	c.deps.Logger.Debug("Preview ready",
		zap.String("request_id", id.String()),
		zap.Int("markup_bytes", len(markup)))

	return &Preview{
		ID:       record.ID,
		Markup:   markup,
		FileName: domain.ExportFileName(record.Worker.Name),
	}, nil
}

// Confirm exports the previewed page. Rasterizing and exporting run one
// after the other; a second Confirm while exporting is rejected.
func (c *ExportController) Confirm(ctx context.Context) (*infra.ExportedDocument, error) {
	c.mu.Lock()
	switch c.state {
	case StateExporting:
		c.mu.Unlock()
		return nil, ErrExportInProgress
	case StateIdle:
		c.mu.Unlock()
		return nil, ErrNotPreviewing
	}
	c.state = StateExporting
	c.lastActive = c.deps.Now()
	record := c.selected
	markup := c.markup
	c.mu.Unlock()

	logger := c.deps.Logger.With(zap.String("request_id", record.ID.String()))

	var bitmap *infra.Bitmap
	err := c.runStage(ctx, StageRasterize, func(ctx context.Context) error {
		var err error
		bitmap, err = c.deps.Rasterizer.Rasterize(ctx, markup, c.deps.RasterOptions)
		return err
	})
	if err != nil {
		logger.Warn("Page capture failed", zap.Error(err))
		c.fail()
		return nil, asCaptureError(err)
	}

	var doc *infra.ExportedDocument
	err = c.runStage(ctx, StageExport, func(ctx context.Context) error {
		var err error
		doc, err = c.deps.Exporter.Export(ctx, bitmap, domain.ExportFileName(record.Worker.Name))
		return err
	})
	if err != nil {
		logger.Warn("Document export failed", zap.Error(err))
		c.fail()
		return nil, asExportError(err)
	}

	c.mu.Lock()
	c.state = StateIdle
	c.selected = nil
	c.markup = ""
	c.lastActive = c.deps.Now()
	c.mu.Unlock()

	logger.Info("Document exported", zap.String("file_name", doc.FileName), zap.Int("bytes", doc.Size()))
	return doc, nil
}

// runStage runs one pipeline stage in its own span with the stage attached
// as a profiling label, and reports its duration to the observer
func (c *ExportController) runStage(ctx context.Context, stage string, fn func(context.Context) error) error {
	ctx, span := telemetry.StartSpan(ctx, "export."+stage, telemetry.WithAttribute(telemetry.SpanAttrStage, stage))
	defer span.End()

	start := time.Now()
	var err error
	telemetry.WithProfilingLabels(ctx, map[string]string{telemetry.ProfilingLabelStage: stage}, func(ctx context.Context) {
		err = fn(ctx)
	})
	c.deps.Observer.ObserveStage(stage, time.Since(start), err)
	telemetry.RecordError(span, err)
	return err
}

// fail returns to Previewing with the markup retained
func (c *ExportController) fail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StatePreviewing
	c.lastActive = c.deps.Now()
}

// Close discards the preview
func (c *ExportController) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateExporting {
		return ErrExportInProgress
	}
	c.state = StateIdle
	c.selected = nil
	c.markup = ""
	c.lastActive = c.deps.Now()
	return nil
}

// State returns the current state
func (c *ExportController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SelectedID returns the previewed record ID, if any
func (c *ExportController) SelectedID() (uuid.UUID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return uuid.Nil, false
	}
	return c.selected.ID, true
}

// Markup returns the previewed markup, empty when idle
func (c *ExportController) Markup() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.markup
}

// Records returns the record set the controller previews from
func (c *ExportController) Records() *RecordSet {
	return c.deps.Records
}

// LastActive returns the time of the last state change or request
func (c *ExportController) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

func asCaptureError(err error) error {
	var captureErr *infra.CaptureError
	if errors.As(err, &captureErr) {
		return err
	}
	return infra.NewCaptureError(infra.ErrCodeCaptureFailed, "page capture failed", err)
}

func asExportError(err error) error {
	var exportErr *infra.ExportError
	if errors.As(err, &exportErr) {
		return err
	}
	return infra.NewExportError(infra.ErrCodeExportFailed, "document export failed", err)
}
