package handler

import (
	"github.com/disciplinario/backend/internal/domain/identity"
	"github.com/disciplinario/backend/internal/interfaces/http/middleware"
	"github.com/disciplinario/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// UploadRoute is the full pattern of the attachment upload route. The body
// limit middleware keys its per-route overrides on it.
const UploadRoute = "/api/v1/solicitudes/:id/anexos"

// RequestRoutes creates the route group for disciplinary requests. Submission
// and attachment upload are open to anyone; listing and review need a
// reviewer; edits, sanctions and deletion need an administrator. Guards
// (rate limiting, idempotency) apply to the public routes only; nil guards
// are skipped.
func RequestRoutes(handler *RequestHandler, guards ...gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("solicitudes", "/solicitudes")

	public := group.Group("public", "")
	for _, guard := range guards {
		if guard != nil {
			public.Use(guard)
		}
	}
	public.POST("", handler.Submit)
	public.POST("/:id/anexos", handler.UploadAttachments)

	review := group.Group("review", "").Use(middleware.RequireReviewer())
	review.GET("", handler.List)
	review.GET("/areas", handler.Areas)
	review.GET("/:id", handler.Get)
	review.POST("/:id/revision", handler.Review)

	admin := group.Group("admin", "").Use(middleware.RequireAdmin())
	admin.PUT("/:id", handler.Update)
	admin.DELETE("/:id", handler.Delete)
	admin.POST("/:id/sancion", handler.Sanction)

	return group
}

// ExportRoutes creates the route group for document preview and export
func ExportRoutes(handler *ExportHandler) *router.DomainGroup {
	group := router.NewDomainGroup("exportacion", "/exportacion")
	group.Use(middleware.RequireExport())

	group.GET("/registros", handler.Records)
	group.POST("/registros/refrescar", handler.Refresh)
	group.GET("/estado", handler.State)
	group.POST("/vista-previa", handler.Preview)
	group.GET("/vista-previa", handler.CurrentPreview)
	group.POST("/confirmar", handler.Confirm)
	group.DELETE("", handler.Close)

	return group
}

// AuthRoutes creates the route group for session management
func AuthRoutes(handler *AuthHandler, loginLimit gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("auth", "/auth")

	login := group.Group("login", "")
	if loginLimit != nil {
		login.Use(loginLimit)
	}
	login.POST("/login", handler.Login)

	group.GET("/me", handler.GetCurrentUser)
	group.Group("session", "").
		Use(middleware.RequireRole(identity.RoleUser)).
		POST("/logout", handler.Logout)

	return group
}

// ReportRoutes creates the route group for spreadsheet downloads
func ReportRoutes(handler *ReportHandler) *router.DomainGroup {
	group := router.NewDomainGroup("reportes", "/reportes")
	group.Use(middleware.RequireAdmin())

	group.GET("/solicitudes.xlsx", handler.RequestList)

	return group
}

// SystemRoutes creates the route group for probes and build information
func SystemRoutes(handler *SystemHandler) *router.DomainGroup {
	group := router.NewDomainGroup("system", "/system")

	group.GET("/info", handler.GetSystemInfo)
	group.GET("/ping", handler.Ping)
	group.GET("/health", handler.Health)

	return group
}
