// Package router mounts the API route groups below a versioned prefix.
package router

import (
	"cmp"
	"net/http"
	"path"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
)

// RouteInfo is one mounted route, used for the startup route log.
type RouteInfo struct {
	Group  string
	Method string
	Path   string
}

// Router mounts DomainGroups on an engine under /api/<version>.
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	groups     []*DomainGroup
}

type RouterOption func(*Router)

func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.apiVersion = version }
}

// NewRouter defaults to version v1.
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) BasePath() string { return "/api/" + r.apiVersion }

// Use adds middleware to every API route. Routes outside the prefix are
// unaffected.
func (r *Router) Use(middleware ...gin.HandlerFunc) *Router {
	r.middleware = append(r.middleware, middleware...)
	return r
}

// Register queues groups for Setup.
func (r *Router) Register(groups ...*DomainGroup) *Router {
	r.groups = append(r.groups, groups...)
	return r
}

// Setup mounts every registered group on the engine.
func (r *Router) Setup() {
	api := r.engine.Group(r.BasePath(), r.middleware...)
	for _, g := range r.groups {
		g.RegisterRoutes(api)
	}
}

// Routes lists the registered routes ordered by path, then method.
func (r *Router) Routes() []RouteInfo {
	var routes []RouteInfo
	for _, g := range r.groups {
		routes = g.collect(r.BasePath(), routes)
	}
	slices.SortFunc(routes, func(a, b RouteInfo) int {
		return cmp.Or(strings.Compare(a.Path, b.Path), strings.Compare(a.Method, b.Method))
	})
	return routes
}

// DomainGroup is a named set of routes sharing a prefix and middleware.
// Subgroups with an empty prefix share the parent's paths, which scopes
// extra middleware such as role guards to some of its routes.
type DomainGroup struct {
	name       string
	prefix     string
	middleware []gin.HandlerFunc
	routes     []route
	subgroups  []*DomainGroup
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds middleware to the group's routes and subgroups.
func (g *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	g.middleware = append(g.middleware, middleware...)
	return g
}

func (g *DomainGroup) Handle(method, relPath string, handlers ...gin.HandlerFunc) *DomainGroup {
	g.routes = append(g.routes, route{method: method, path: relPath, handlers: handlers})
	return g
}

func (g *DomainGroup) GET(relPath string, handlers ...gin.HandlerFunc) *DomainGroup {
	return g.Handle(http.MethodGet, relPath, handlers...)
}

func (g *DomainGroup) POST(relPath string, handlers ...gin.HandlerFunc) *DomainGroup {
	return g.Handle(http.MethodPost, relPath, handlers...)
}

func (g *DomainGroup) PUT(relPath string, handlers ...gin.HandlerFunc) *DomainGroup {
	return g.Handle(http.MethodPut, relPath, handlers...)
}

func (g *DomainGroup) DELETE(relPath string, handlers ...gin.HandlerFunc) *DomainGroup {
	return g.Handle(http.MethodDelete, relPath, handlers...)
}

// Group adds a subgroup below this one.
func (g *DomainGroup) Group(name, prefix string) *DomainGroup {
	sub := NewDomainGroup(name, prefix)
	g.subgroups = append(g.subgroups, sub)
	return sub
}

// RegisterRoutes mounts the group, its middleware and subgroups on rg.
func (g *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	mounted := rg.Group(g.prefix, g.middleware...)
	for _, rt := range g.routes {
		mounted.Handle(rt.method, rt.path, rt.handlers...)
	}
	for _, sub := range g.subgroups {
		sub.RegisterRoutes(mounted)
	}
}

func (g *DomainGroup) collect(base string, into []RouteInfo) []RouteInfo {
	prefix := joinPath(base, g.prefix)
	for _, rt := range g.routes {
		into = append(into, RouteInfo{Group: g.name, Method: rt.method, Path: joinPath(prefix, rt.path)})
	}
	for _, sub := range g.subgroups {
		into = sub.collect(prefix, into)
	}
	return into
}

// joinPath keeps a trailing slash present on rel, as gin does.
func joinPath(base, rel string) string {
	if rel == "" {
		return base
	}
	joined := path.Join(base, rel)
	if strings.HasSuffix(rel, "/") && !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	return joined
}
