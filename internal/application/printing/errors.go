package printing

import "github.com/disciplinario/backend/internal/domain/shared"

// Controller errors
var (
	ErrRecordNotFound   = shared.NewDomainError("RECORD_NOT_FOUND", "Record not found")
	ErrExportInProgress = shared.NewDomainError("EXPORT_IN_PROGRESS", "An export is already in progress")
	ErrNotPreviewing    = shared.NewDomainError("INVALID_STATE", "No record is being previewed")
)
