package printing

// Failure codes carried by the pipeline errors
const (
	ErrCodeRenderFailed      = "RENDER_FAILED"
	ErrCodeContainerMissing  = "CONTAINER_MISSING"
	ErrCodeCaptureTimeout    = "CAPTURE_TIMEOUT"
	ErrCodeCaptureFailed     = "CAPTURE_FAILED"
	ErrCodeInvalidBitmap     = "INVALID_BITMAP"
	ErrCodeEncodeFailed      = "ENCODE_FAILED"
	ErrCodeExportFailed      = "EXPORT_FAILED"
	ErrCodeInvalidTemplate   = "INVALID_TEMPLATE"
	ErrCodeInvalidBackground = "INVALID_BACKGROUND"
)

// stageError is the shape shared by the failures of each pipeline stage.
// Message is safe to show to the user; Cause is not.
type stageError struct {
	Code    string
	Message string
	Cause   error
}

func (e *stageError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *stageError) Unwrap() error { return e.Cause }

// RenderError means the page template could not be filled.
type RenderError struct{ stageError }

// CaptureError means the rendered page could not be rasterized.
type CaptureError struct{ stageError }

// ExportError means the bitmap could not be turned into a document.
type ExportError struct{ stageError }

func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{stageError{code, message, cause}}
}

func NewCaptureError(code, message string, cause error) *CaptureError {
	return &CaptureError{stageError{code, message, cause}}
}

func NewExportError(code, message string, cause error) *ExportError {
	return &ExportError{stageError{code, message, cause}}
}
