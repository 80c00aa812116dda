// Package printing provides the document pipeline for disciplinary requests:
// rendering a request into one page of HTML, rasterizing that page in a
// headless browser and embedding the bitmap into a single-page PDF.
//
// This package contains:
// - TemplateEngine, which renders a request with the embedded page template
// - Rasterizer interface and the ChromedpRasterizer implementation
// - NormalizeBitmap for flattening and down-scaling captures
// - PDFExporter, which places the bitmap on the physical page
//
// Example usage:
//
//	engine := NewTemplateEngine()
//	markup, err := engine.RenderRequest(ctx, request, time.Now())
//	if err != nil {
//	    return err
//	}
//
//	bitmap, err := rasterizer.Rasterize(ctx, markup, DefaultRasterOptions())
//	if err != nil {
//	    return err
//	}
//
//	doc, err := NewPDFExporter(nil).Export(ctx, bitmap, printing.ExportFileName(request.Worker.Name))
package printing
