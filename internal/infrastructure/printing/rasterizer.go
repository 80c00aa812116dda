package printing

import (
	"context"

	"github.com/disciplinario/backend/internal/domain/printing"
)

// Default capture settings
const (
	DefaultRasterScale      = 2.0
	DefaultRasterBackground = "#ffffff"
	DefaultRasterSelector   = "#plantillaPDF"
)

// RasterOptions controls how the page container is captured
type RasterOptions struct {
	// Scale is the device pixel ratio of the capture
	Scale float64
	// Background is the hex color painted behind transparent areas
	Background string
	// Selector identifies the page container in the markup
	Selector string
	// MaxWidth caps the bitmap width in pixels (0 = no cap)
	MaxWidth int
	// Geometry is the physical page the viewport is sized to
	Geometry printing.PageGeometry
}

// DefaultRasterOptions returns scale 2 on a white background, capturing the
// page container of an A4 portrait page
func DefaultRasterOptions() RasterOptions {
	return RasterOptions{
		Scale:      DefaultRasterScale,
		Background: DefaultRasterBackground,
		Selector:   DefaultRasterSelector,
		Geometry:   printing.A4Portrait(),
	}
}

// withDefaults fills zero fields from DefaultRasterOptions
func (o RasterOptions) withDefaults() RasterOptions {
	d := DefaultRasterOptions()
	if o.Scale <= 0 {
		o.Scale = d.Scale
	}
	if o.Background == "" {
		o.Background = d.Background
	}
	if o.Selector == "" {
		o.Selector = d.Selector
	}
	if o.Geometry.Width <= 0 || o.Geometry.Height <= 0 {
		o.Geometry = d.Geometry
	}
	return o
}

// Rasterizer turns page markup into a bitmap of the page container
type Rasterizer interface {
	// Rasterize materializes the markup, waits until it is laid out and
	// captures the element matched by opts.Selector
	Rasterize(ctx context.Context, markup string, opts RasterOptions) (*Bitmap, error)
	// Close releases any resources held by the rasterizer
	Close() error
}
