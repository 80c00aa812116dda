package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func ok(body string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, body)
	}
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.groups)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	group := NewDomainGroup("system", "/system")
	group.GET("/ping", ok("pong"))

	r.Register(group).Setup()

	w := serve(engine, "GET", "/api/v1/system/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestRouterUse(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	r.Use(func(c *gin.Context) {
		c.Header("X-API", "v1")
		c.Next()
	})

	r.Register(NewDomainGroup("system", "/system").GET("/ping", ok("pong"))).Setup()
	engine.GET("/health", ok("up"))

	assert.Equal(t, "v1", serve(engine, "GET", "/api/v1/system/ping").Header().Get("X-API"))
	assert.Empty(t, serve(engine, "GET", "/health").Header().Get("X-API"), "middleware is scoped to the API prefix")
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name and prefix", func(t *testing.T) {
		g := NewDomainGroup("solicitudes", "/solicitudes")
		assert.Equal(t, "solicitudes", g.name)
		assert.Equal(t, "/solicitudes", g.prefix)
	})

	methods := []struct {
		method   string
		register func(g *DomainGroup, path string, h gin.HandlerFunc)
	}{
		{"GET", func(g *DomainGroup, p string, h gin.HandlerFunc) { g.GET(p, h) }},
		{"POST", func(g *DomainGroup, p string, h gin.HandlerFunc) { g.POST(p, h) }},
		{"PUT", func(g *DomainGroup, p string, h gin.HandlerFunc) { g.PUT(p, h) }},
		{"DELETE", func(g *DomainGroup, p string, h gin.HandlerFunc) { g.DELETE(p, h) }},
		{"PATCH", func(g *DomainGroup, p string, h gin.HandlerFunc) { g.Handle(http.MethodPatch, p, h) }},
	}
	for _, m := range methods {
		t.Run("registers "+m.method+" route", func(t *testing.T) {
			engine := gin.New()
			g := NewDomainGroup("solicitudes", "/solicitudes")
			m.register(g, "/:id", ok(m.method))

			g.RegisterRoutes(engine.Group("/api/v1"))

			w := serve(engine, m.method, "/api/v1/solicitudes/123")
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, m.method, w.Body.String())
		})
	}

	t.Run("applies middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("solicitudes", "/solicitudes")
		g.Use(func(c *gin.Context) {
			c.Header("X-Test-Middleware", "applied")
			c.Next()
		})
		g.GET("", ok("list"))

		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, "GET", "/api/v1/solicitudes")
		assert.Equal(t, "applied", w.Header().Get("X-Test-Middleware"))
	})

	t.Run("empty-prefix subgroup scopes middleware to its routes", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("solicitudes", "/solicitudes")
		g.POST("", ok("submitted"))

		admin := g.Group("admin", "")
		admin.Use(func(c *gin.Context) {
			c.AbortWithStatus(http.StatusForbidden)
		})
		admin.DELETE("/:id", ok("deleted"))

		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, http.StatusOK, serve(engine, "POST", "/api/v1/solicitudes").Code)
		assert.Equal(t, http.StatusForbidden, serve(engine, "DELETE", "/api/v1/solicitudes/1").Code)
	})

	t.Run("creates subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("exportacion", "/exportacion")
		g.Group("registros", "/registros").GET("", ok("records"))
		g.Group("estado", "/estado").GET("", ok("state"))

		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, "records", serve(engine, "GET", "/api/v1/exportacion/registros").Body.String())
		assert.Equal(t, "state", serve(engine, "GET", "/api/v1/exportacion/estado").Body.String())
	})
}

func TestRouterRoutes(t *testing.T) {
	r := NewRouter(gin.New())

	requests := NewDomainGroup("solicitudes", "/solicitudes")
	requests.POST("", ok(""))
	admin := requests.Group("admin", "")
	admin.DELETE("/:id", ok(""))
	admin.GET("/:id", ok(""))

	auth := NewDomainGroup("auth", "/auth")
	auth.POST("/login", ok(""))

	r.Register(requests, auth)

	assert.Equal(t, []RouteInfo{
		{Group: "auth", Method: "POST", Path: "/api/v1/auth/login"},
		{Group: "solicitudes", Method: "POST", Path: "/api/v1/solicitudes"},
		{Group: "admin", Method: "DELETE", Path: "/api/v1/solicitudes/:id"},
		{Group: "admin", Method: "GET", Path: "/api/v1/solicitudes/:id"},
	}, r.Routes())
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "/api/v1", joinPath("/api/v1", ""))
	assert.Equal(t, "/api/v1/auth/login", joinPath("/api/v1/auth", "/login"))
	assert.Equal(t, "/api/v1/files/", joinPath("/api/v1", "/files/"))
}

func TestChainedMethodCalls(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	g := NewDomainGroup("test", "/test")
	g.GET("/a", ok("a")).
		POST("/b", ok("b")).
		PUT("/c", ok("c"))

	r.Register(g).Setup()

	tests := []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/test/a"},
		{"POST", "/api/v1/test/b"},
		{"PUT", "/api/v1/test/c"},
	}

	for _, tt := range tests {
		w := serve(engine, tt.method, tt.path)
		assert.Equal(t, http.StatusOK, w.Code, "Route %s %s should work", tt.method, tt.path)
	}
}
