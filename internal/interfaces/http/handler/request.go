package handler

import (
	"context"
	"io"
	"mime/multipart"

	"github.com/disciplinario/backend/internal/application/disciplinary"
	"github.com/disciplinario/backend/internal/domain/shared"
	"github.com/disciplinario/backend/internal/interfaces/http/dto"
	"github.com/disciplinario/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Multipart form fields of the attachment upload
const (
	uploadFilesField = "archivos"
	uploadLinksField = "enlaces"
)

// RequestService is the part of the disciplinary service used by RequestHandler
type RequestService interface {
	Submit(ctx context.Context, req disciplinary.SubmitRequest) (*disciplinary.RequestResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*disciplinary.RequestResponse, error)
	List(ctx context.Context, req disciplinary.ListRequest) (*shared.Paginated[disciplinary.RequestListItem], error)
	Areas(ctx context.Context) ([]string, error)
	Review(ctx context.Context, id uuid.UUID, req disciplinary.ReviewRequest, reviewer string) (*disciplinary.RequestResponse, error)
	Sanction(ctx context.Context, id uuid.UUID, req disciplinary.SanctionRequest, admin string) (*disciplinary.RequestResponse, error)
	Update(ctx context.Context, id uuid.UUID, req disciplinary.UpdateRequest) (*disciplinary.RequestResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UploadAttachments(ctx context.Context, id uuid.UUID, files []disciplinary.UploadFile, links string) (*disciplinary.UploadResult, error)
}

// RequestHandler handles disciplinary request endpoints
type RequestHandler struct {
	BaseHandler
	service RequestService
}

// NewRequestHandler creates a new RequestHandler
func NewRequestHandler(service RequestService) *RequestHandler {
	return &RequestHandler{service: service}
}

// Submit files a new request. Anyone may submit; the creator is the
// authenticated email, or anonymous without a session.
//
//	POST /solicitudes
func (h *RequestHandler) Submit(c *gin.Context) {
	var req disciplinary.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	req.CreatedBy = middleware.GetJWTEmail(c)

	resp, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// UploadAttachments appends files and links to a submitted request.
//
//	POST /solicitudes/:id/anexos
func (h *RequestHandler) UploadAttachments(c *gin.Context) {
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		h.BadRequest(c, "Formulario de anexos inválido")
		return
	}

	headers := form.File[uploadFilesField]
	files := make([]disciplinary.UploadFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, toUploadFile(fh))
	}

	var links string
	if values := form.Value[uploadLinksField]; len(values) > 0 {
		links = values[0]
	}

	result, err := h.service.UploadAttachments(c.Request.Context(), id, files, links)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

func toUploadFile(fh *multipart.FileHeader) disciplinary.UploadFile {
	return disciplinary.UploadFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// List returns a page of requests.
//
//	GET /solicitudes?page=&page_size=&search=&area=&estado=
func (h *RequestHandler) List(c *gin.Context) {
	var req disciplinary.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	page, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, dto.PageMeta(*page))
}

// Get returns one request.
//
//	GET /solicitudes/:id
func (h *RequestHandler) Get(c *gin.Context) {
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	resp, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Areas lists the worker areas present in stored requests.
//
//	GET /solicitudes/areas
func (h *RequestHandler) Areas(c *gin.Context) {
	areas, err := h.service.Areas(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, areas)
}

// Review records the reviewer's decision.
//
//	POST /solicitudes/:id/revision
func (h *RequestHandler) Review(c *gin.Context) {
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	var req disciplinary.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.service.Review(c.Request.Context(), id, req, middleware.GetJWTEmail(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Sanction imposes a sanction.
//
//	POST /solicitudes/:id/sancion
func (h *RequestHandler) Sanction(c *gin.Context) {
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	var req disciplinary.SanctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.service.Sanction(c.Request.Context(), id, req, middleware.GetJWTEmail(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Update edits the worker details and description.
//
//	PUT /solicitudes/:id
func (h *RequestHandler) Update(c *gin.Context) {
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	var req disciplinary.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Delete removes a request and its stored files.
//
//	DELETE /solicitudes/:id
func (h *RequestHandler) Delete(c *gin.Context) {
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
