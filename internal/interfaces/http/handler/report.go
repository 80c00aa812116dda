package handler

import (
	"context"
	"net/http"
	"time"

	appdisciplinary "github.com/disciplinario/backend/internal/application/disciplinary"
	"github.com/disciplinario/backend/internal/domain/disciplinary"
	"github.com/disciplinario/backend/internal/infrastructure/logger"
	"github.com/disciplinario/backend/internal/infrastructure/report"
	"github.com/disciplinario/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLister returns every request matching the listing filters
type RequestLister interface {
	ListAll(ctx context.Context, req appdisciplinary.ListRequest) ([]disciplinary.Request, error)
}

// ReportHandler serves spreadsheet downloads of the request listing
type ReportHandler struct {
	BaseHandler
	lister   RequestLister
	location *time.Location
	now      func() time.Time
}

// NewReportHandler creates a new ReportHandler. Dates are printed in loc.
func NewReportHandler(lister RequestLister, loc *time.Location) *ReportHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ReportHandler{
		lister:   lister,
		location: loc,
		now:      time.Now,
	}
}

// RequestList downloads the filtered listing as XLSX. Pagination parameters
// are ignored; the workbook holds every matching request.
//
//	GET /reportes/solicitudes.xlsx?search=&area=&estado=
func (h *ReportHandler) RequestList(c *gin.Context) {
	var req appdisciplinary.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	requests, err := h.lister.ListAll(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	data, err := report.RequestListWorkbook(requests, h.location)
	if err != nil {
		logger.GetGinLogger(c).Error("Failed to build listing workbook", zap.Error(err))
		h.InternalError(c, "No se pudo generar el reporte")
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+report.FileName(h.now().In(h.location))+"\"")
	c.Data(http.StatusOK, report.ContentType, data)
}
