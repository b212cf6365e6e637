package router

import (
	"net/http"

	"github.com/alfalah/schooladmin/internal/infrastructure/logger"
	"github.com/alfalah/schooladmin/internal/interfaces/http/dto"
	"github.com/alfalah/schooladmin/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// EngineConfig selects the middleware of the print server engine
type EngineConfig struct {
	CORS         middleware.CORSConfig
	MaxBodyBytes int64
	// RateLimiter limits requests per client IP; nil disables limiting
	RateLimiter *middleware.RateLimiter
	// Registry backs the HTTP metrics and GET /metrics; nil disables both
	Registry *prometheus.Registry
	// TraceService names the otelgin server spans; empty disables tracing
	TraceService string
}

// NewEngine creates a gin engine with request ids, request logging, panic
// recovery, security headers and CORS, plus the optional tracing, body limit,
// rate limit and metrics
func NewEngine(cfg EngineConfig, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
	)
	if cfg.TraceService != "" {
		engine.Use(middleware.Tracing(cfg.TraceService)...)
	}
	engine.Use(
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Secure(),
		middleware.CORS(cfg.CORS),
	)
	if cfg.Registry != nil {
		engine.Use(middleware.NewHTTPMetrics(cfg.Registry).Middleware())
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	}
	if cfg.RateLimiter != nil {
		engine.Use(middleware.RateLimit(cfg.RateLimiter))
	}
	if cfg.MaxBodyBytes > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})
	return engine
}
