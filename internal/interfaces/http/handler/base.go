package handler

import (
	"errors"
	"net/http"

	"github.com/disciplinario/backend/internal/domain/shared"
	"github.com/disciplinario/backend/internal/infrastructure/logger"
	"github.com/disciplinario/backend/internal/infrastructure/printing"
	"github.com/disciplinario/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler writes the response envelopes shared by every handler.
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	if id := c.GetString(logger.GinRequestIDKey); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// parseIDParam reads :id as a UUID and answers 400 when it is not one.
func (h *BaseHandler) parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Identificador inválido")
		return uuid.Nil, false
	}
	return id, true
}

func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta answers 200 with a page of data and its pagination meta.
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, meta *dto.Meta) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, meta))
}

func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error writes an error envelope tagged with the request ID.
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// ErrorWithCode writes an error envelope with the status registered for code.
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.ErrorWithCode(c, dto.ErrCodeBadRequest, message)
}

func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.ErrorWithCode(c, dto.ErrCodeNotFound, message)
}

func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.ErrorWithCode(c, dto.ErrCodeUnauthorized, message)
}

func (h *BaseHandler) Forbidden(c *gin.Context, message string) {
	h.ErrorWithCode(c, dto.ErrCodeForbidden, message)
}

func (h *BaseHandler) Conflict(c *gin.Context, message string) {
	h.ErrorWithCode(c, dto.ErrCodeConflict, message)
}

func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.ErrorWithCode(c, dto.ErrCodeInternal, message)
}

// ValidationError answers 400 with one detail per rejected field.
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed", getRequestID(c), details))
}

// HandleError records err on the gin context and translates it into an
// error envelope. Domain errors keep their own code.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	if e, ok := as[*shared.DomainError](err); ok {
		h.ErrorWithCode(c, dto.NormalizeErrorCode(e.Code), e.Message)
		return
	}
	if e, ok := as[*shared.BackendError](err); ok {
		logger.GetGinLogger(c).Error("Backend failure", zap.String("op", e.Op), zap.Error(e.Err))
		h.ErrorWithCode(c, dto.ErrCodeBackendError, "El servicio de datos no está disponible")
		return
	}
	if e, ok := as[*printing.CaptureError](err); ok {
		h.ErrorWithCode(c, dto.ErrCodeCaptureFailed, e.Message)
		return
	}
	if e, ok := as[*printing.ExportError](err); ok {
		h.ErrorWithCode(c, dto.ErrCodeExportFailed, e.Message)
		return
	}
	if e, ok := as[*printing.RenderError](err); ok {
		h.ErrorWithCode(c, dto.ErrCodeRenderFailed, e.Message)
		return
	}

	logger.GetGinLogger(c).Error("Unhandled error", zap.Error(err))
	h.InternalError(c, "An unexpected error occurred")
}

func as[E error](err error) (E, bool) {
	var target E
	ok := errors.As(err, &target)
	return target, ok
}
