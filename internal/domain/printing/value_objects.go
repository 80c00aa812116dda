package printing

import (
	"strconv"

	"github.com/disciplinario/backend/internal/domain/shared"
)

// DefaultMargin is the uniform page margin in millimeters
const DefaultMargin = 10.0

// PaperSize names a supported sheet.
type PaperSize string

const (
	PaperSizeA4     PaperSize = "A4"
	PaperSizeA5     PaperSize = "A5"
	PaperSizeLetter PaperSize = "LETTER"
)

// portrait sheet sizes in millimeters
var paperDimensions = map[PaperSize][2]float64{
	PaperSizeA4:     {210, 297},
	PaperSizeA5:     {148, 210},
	PaperSizeLetter: {215.9, 279.4},
}

func (p PaperSize) IsValid() bool {
	_, ok := paperDimensions[p]
	return ok
}

func (p PaperSize) String() string { return string(p) }

// Dimensions is the portrait width and height. Unknown sizes fall back to A4.
func (p PaperSize) Dimensions() (width, height float64) {
	d, ok := paperDimensions[p]
	if !ok {
		d = paperDimensions[PaperSizeA4]
	}
	return d[0], d[1]
}

type Orientation string

const (
	OrientationPortrait  Orientation = "PORTRAIT"
	OrientationLandscape Orientation = "LANDSCAPE"
)

func (o Orientation) IsValid() bool {
	return o == OrientationPortrait || o == OrientationLandscape
}

func (o Orientation) String() string { return string(o) }

// PageGeometry is the physical page used both to size the preview and to
// place the rasterized page in the exported document. Units are millimeters.
type PageGeometry struct {
	PaperSize   PaperSize   `json:"paper_size"`
	Orientation Orientation `json:"orientation"`
	Width       float64     `json:"width"`
	Height      float64     `json:"height"`
	Margin      float64     `json:"margin"`
}

// NewPageGeometry creates a page geometry with a uniform margin
func NewPageGeometry(paper PaperSize, orientation Orientation, margin float64) (PageGeometry, error) {
	if !paper.IsValid() {
		return PageGeometry{}, shared.NewDomainError("INVALID_PAPER_SIZE", "Invalid paper size: "+paper.String())
	}
	if !orientation.IsValid() {
		return PageGeometry{}, shared.NewDomainError("INVALID_ORIENTATION", "Invalid orientation: "+orientation.String())
	}
	w, h := paper.Dimensions()
	if orientation == OrientationLandscape {
		w, h = h, w
	}
	if margin < 0 {
		return PageGeometry{}, shared.NewDomainError("INVALID_MARGINS", "Margin cannot be negative")
	}
	if 2*margin >= w || 2*margin >= h {
		return PageGeometry{}, shared.NewDomainError("INVALID_MARGINS", "Margin leaves no printable area")
	}
	return PageGeometry{
		PaperSize:   paper,
		Orientation: orientation,
		Width:       w,
		Height:      h,
		Margin:      margin,
	}, nil
}

// A4Portrait returns the default geometry: A4 portrait with a 10mm margin
func A4Portrait() PageGeometry {
	return PageGeometry{
		PaperSize:   PaperSizeA4,
		Orientation: OrientationPortrait,
		Width:       210,
		Height:      297,
		Margin:      DefaultMargin,
	}
}

// PrintableWidth returns the page width inside the margins
func (g PageGeometry) PrintableWidth() float64 {
	return g.Width - 2*g.Margin
}

// PrintableHeight returns the page height inside the margins
func (g PageGeometry) PrintableHeight() float64 {
	return g.Height - 2*g.Margin
}

// Placement is where a bitmap is drawn on the page
type Placement struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Fit scales a bitmap of the given pixel size to the printable area keeping
// its aspect ratio. The bitmap fills the printable width unless that would
// overflow the printable height, in which case it fills the height instead.
// It is centered horizontally and pinned to the top margin.
func (g PageGeometry) Fit(pixelWidth, pixelHeight int) (Placement, error) {
	if pixelWidth <= 0 || pixelHeight <= 0 {
		return Placement{}, shared.NewDomainError("INVALID_BITMAP", "Bitmap dimensions must be positive")
	}

	pw := float64(pixelWidth)
	ph := float64(pixelHeight)
	maxW := g.PrintableWidth()
	maxH := g.PrintableHeight()

	// Equivalent to comparing maxW/r against maxH, kept in products so the
	// boundary ratio lands exactly on the printable area.
	width := maxW
	height := maxW * ph / pw
	if maxW*ph > maxH*pw {
		height = maxH
		width = maxH * pw / ph
	}

	return Placement{
		X:      (g.Width - width) / 2,
		Y:      g.Margin,
		Width:  width,
		Height: height,
	}, nil
}

// CSSSize returns the page size as CSS millimeter lengths
func (g PageGeometry) CSSSize() (width, height, padding string) {
	return formatMM(g.Width), formatMM(g.Height), formatMM(g.Margin)
}

func formatMM(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "mm"
}
