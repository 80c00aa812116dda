package handler

import (
	"net/http"
	"time"

	"github.com/disciplinario/backend/internal/application/printing"
	"github.com/disciplinario/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ExportSessions hands out one export controller per user
type ExportSessions interface {
	Get(userKey string) *printing.ExportController
	Remove(userKey string) error
}

// ExportHandler drives the preview and PDF export of requests. Each
// authenticated user has their own controller keyed by email.
type ExportHandler struct {
	BaseHandler
	sessions ExportSessions
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(sessions ExportSessions) *ExportHandler {
	return &ExportHandler{sessions: sessions}
}

// PreviewRequest selects the record to preview
type PreviewRequest struct {
	ID string `json:"id" binding:"required,uuid"`
}

// PreviewResponse is the rendered page of the selected record
type PreviewResponse struct {
	ID       uuid.UUID `json:"id"`
	FileName string    `json:"file_name"`
	Markup   string    `json:"markup"`
	State    string    `json:"state"`
}

// ExportStateResponse describes a user's export session
type ExportStateResponse struct {
	State      string     `json:"state"`
	SelectedID *uuid.UUID `json:"selected_id,omitempty"`
	Records    int        `json:"records"`
	LoadedAt   *time.Time `json:"loaded_at,omitempty"`
}

// RecordOption is one entry of the record picker
type RecordOption struct {
	ID         uuid.UUID `json:"id"`
	WorkerName string    `json:"trabajador_nombre"`
	NationalID string    `json:"trabajador_cedula"`
	Area       string    `json:"trabajador_area"`
	Status     string    `json:"estado"`
}

func (h *ExportHandler) controller(c *gin.Context) *printing.ExportController {
	return h.sessions.Get(middleware.GetJWTEmail(c))
}

// Records lists the requests available for export, loading them on first use.
//
//	GET /exportacion/registros
func (h *ExportHandler) Records(c *gin.Context) {
	set := h.controller(c).Records()
	if err := set.Load(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}

	records := set.Records()
	options := make([]RecordOption, len(records))
	for i, r := range records {
		options[i] = RecordOption{
			ID:         r.ID,
			WorkerName: r.Worker.Name,
			NationalID: r.Worker.NationalID,
			Area:       r.Worker.Area,
			Status:     r.Status.String(),
		}
	}
	h.Success(c, options)
}

// Refresh reloads the records from the store.
//
//	POST /exportacion/registros/refrescar
func (h *ExportHandler) Refresh(c *gin.Context) {
	ctrl := h.controller(c)
	if err := ctrl.Records().Refresh(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, h.stateOf(ctrl))
}

// Preview renders the page of the selected record. Clients asking for
// text/html get the bare markup so it can be framed directly.
//
//	POST /exportacion/vista-previa
func (h *ExportHandler) Preview(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	ctrl := h.controller(c)
	preview, err := ctrl.Preview(c.Request.Context(), uuid.MustParse(req.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(preview.Markup))
		return
	}

	h.Success(c, PreviewResponse{
		ID:       preview.ID,
		FileName: preview.FileName,
		Markup:   preview.Markup,
		State:    ctrl.State().String(),
	})
}

// CurrentPreview returns the markup being previewed as HTML.
//
//	GET /exportacion/vista-previa
func (h *ExportHandler) CurrentPreview(c *gin.Context) {
	markup := h.controller(c).Markup()
	if markup == "" {
		h.HandleError(c, printing.ErrNotPreviewing)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(markup))
}

// State reports the user's export session.
//
//	GET /exportacion/estado
func (h *ExportHandler) State(c *gin.Context) {
	h.Success(c, h.stateOf(h.controller(c)))
}

// Confirm exports the previewed page and streams the PDF back.
//
//	POST /exportacion/confirmar
func (h *ExportHandler) Confirm(c *gin.Context) {
	doc, err := h.controller(c).Confirm(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+doc.FileName+"\"")
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}

// Close discards the preview and ends the session.
//
//	DELETE /exportacion
func (h *ExportHandler) Close(c *gin.Context) {
	if err := h.sessions.Remove(middleware.GetJWTEmail(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *ExportHandler) stateOf(ctrl *printing.ExportController) ExportStateResponse {
	resp := ExportStateResponse{State: ctrl.State().String()}
	if id, ok := ctrl.SelectedID(); ok {
		resp.SelectedID = &id
	}
	set := ctrl.Records()
	if set.Loaded() {
		resp.Records = len(set.Records())
		loadedAt := set.LoadedAt()
		resp.LoadedAt = &loadedAt
	}
	return resp
}
