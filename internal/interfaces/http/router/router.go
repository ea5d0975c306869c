// Package router assembles the gin engine: global middleware, the system
// endpoints and the tenant-scoped API group.
package router

import (
	"net/http"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/logger"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/metrics"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/interfaces/http/dto"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/interfaces/http/handler"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/interfaces/http/middleware"
	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Config holds the HTTP settings the engine needs
type Config struct {
	APIVersion     string
	ServiceName    string
	Tracing        bool
	MaxBodySize    int64
	TrustedProxies []string
}

// Deps are the collaborators wired into the engine
type Deps struct {
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Tokens   middleware.TokenValidator
	Tenants  middleware.TenantResolver
	System   *handler.SystemHandler
}

// Router manages HTTP route registration
type Router struct {
	cfg        Config
	deps       Deps
	registrars []RouteRegistrar
}

// NewRouter creates a new Router
func NewRouter(cfg Config, deps Deps) *Router {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v1"
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "restaurante-core"
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Router{cfg: cfg, deps: deps}
}

// Register adds a registrar mounted under the tenant-scoped API group
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Engine builds the gin engine
func (r *Router) Engine() (*gin.Engine, error) {
	if r.deps.Tokens == nil {
		return nil, errors.New("router: token validator is required")
	}
	if r.deps.Tenants == nil {
		return nil, errors.New("router: tenant resolver is required")
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(r.cfg.TrustedProxies); err != nil {
		return nil, errors.Wrap(err, "invalid trusted proxies")
	}
	engine.Use(middleware.RequestID())
	if r.cfg.Tracing {
		engine.Use(middleware.Tracing(r.cfg.ServiceName))
	}
	engine.Use(
		logger.GinMiddleware(r.deps.Logger),
		logger.Recovery(r.deps.Logger),
		middleware.Secure(),
		r.deps.Metrics.GinMiddleware(),
		middleware.BodyLimit(r.cfg.MaxBodySize),
	)
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID("NOT_FOUND", "Route not found", middleware.GetRequestID(c)))
	})

	if r.deps.System != nil {
		engine.GET("/health", r.deps.System.Health)
	}
	if r.deps.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := engine.Group("/api/"+r.cfg.APIVersion, middleware.Tenant(r.deps.Tokens, r.deps.Tenants))
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
	return engine, nil
}
