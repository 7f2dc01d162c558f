package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/salesdeck/crm-api/internal/handler"
	"github.com/salesdeck/crm-api/internal/middleware"
	"github.com/salesdeck/crm-api/internal/model"
	"github.com/salesdeck/crm-api/pkg/logger"
)

// Handler registers a group of routes on the API.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// PublicHandler additionally exposes routes that skip authentication.
type PublicHandler interface {
	Handler
	RegisterPublicRoutes(*gin.RouterGroup)
}

type Config struct {
	// TrackRateLimit bounds the unauthenticated tracking endpoints,
	// which are hit by every recipient mail client.
	TrackRateLimit rate.Limit
	TrackRateBurst int
	CORSConfig     middleware.CORSConfig
	MetricsPrefix  string
	Logger         *logger.Logger
}

type Router struct {
	engine        *gin.Engine
	auth          *middleware.AuthMiddleware
	dealH         Handler
	contactH      Handler
	companyH      Handler
	userH         Handler
	workflowH     Handler
	notificationH Handler
	activityH     Handler
	trackingH     PublicHandler
	h             *handler.Handler
	cfg           Config
	metrics       *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	dealH Handler,
	contactH Handler,
	companyH Handler,
	userH Handler,
	workflowH Handler,
	notificationH Handler,
	activityH Handler,
	trackingH PublicHandler,
	h *handler.Handler,
	cfg Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	registerValidations()
	engine := gin.New()

	r := &Router{
		engine:        engine,
		auth:          auth,
		dealH:         dealH,
		contactH:      contactH,
		companyH:      companyH,
		userH:         userH,
		workflowH:     workflowH,
		notificationH: notificationH,
		activityH:     activityH,
		trackingH:     trackingH,
		h:             h,
		cfg:           cfg,
		metrics:       initRouterMetrics(cfg.MetricsPrefix),
	}

	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.Logger(cfg.Logger),
		middleware.ErrorHandler(cfg.Logger),
		r.metricsMiddleware(),
		middleware.CORS(cfg.CORSConfig),
	)

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	health := api.Group("/health")
	{
		health.GET("", r.h.HealthCheck)
		health.GET("/metrics", r.h.MetricsHandler)
	}

	// Tracking links are unauthenticated and abuse-prone, so they sit
	// behind their own rate limiter.
	public := api.Group("")
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  r.cfg.TrackRateLimit,
		Burst: r.cfg.TrackRateBurst,
	})
	public.Use(limiter.RateLimit())
	r.trackingH.RegisterPublicRoutes(public)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.setupProtectedRoutes(protected)
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	r.dealH.RegisterRoutes(rg)
	r.contactH.RegisterRoutes(rg)
	r.companyH.RegisterRoutes(rg)
	r.activityH.RegisterRoutes(rg)
	r.notificationH.RegisterRoutes(rg)
	r.trackingH.RegisterRoutes(rg)

	managers := rg.Group("")
	managers.Use(r.auth.RequireRole(model.UserRoleAdmin, model.UserRoleManager))
	r.userH.RegisterRoutes(managers)

	admins := rg.Group("")
	admins.Use(r.auth.RequireRole(model.UserRoleAdmin))
	r.workflowH.RegisterRoutes(admins)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string) *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// Use the route template so path cardinality stays bounded.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).
			Observe(time.Since(start).Seconds())
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
