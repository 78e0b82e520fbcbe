// Package api exposes the writing engine over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/wordsmith/internal/telemetry"
	"github.com/abhisek/wordsmith/internal/writing"
)

// Options configures the router. Metrics, Logger and Health are optional.
type Options struct {
	Metrics *telemetry.Metrics
	Logger  *zap.Logger

	// Health is called by /healthz, typically a database ping.
	Health func(ctx context.Context) error

	// RequestsPerSecond and Burst throttle assessment routes per client IP.
	RequestsPerSecond float64
	Burst             int
}

// Server holds the handlers' dependencies.
type Server struct {
	svc     *writing.Service
	logger  *zap.Logger
	health  func(ctx context.Context) error
	metrics *telemetry.Metrics
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(svc *writing.Service, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Server{svc: svc, logger: opts.Logger, health: opts.Health, metrics: opts.Metrics}

	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.logger.Error("panic in handler", zap.Any("panic", recovered), zap.String("route", c.FullPath()))
		abortWithError(c, http.StatusInternalServerError, CodeInternal, GenericFailureMessage)
	}))
	r.Use(requestLogger(s.logger))
	if s.metrics != nil {
		r.Use(s.metrics.Middleware())
	}
	r.Use(telemetry.TracingMiddleware())

	r.GET("/healthz", s.healthz)
	if s.metrics != nil {
		r.GET("/metrics", s.metrics.Handler())
	}

	v1 := r.Group("/api/v1")
	{
		limited := RateLimit(opts.RequestsPerSecond, opts.Burst)
		v1.POST("/assessments", limited, s.submitCurriculum)
		v1.POST("/assessments/demo", limited, s.submitDemo)
		v1.POST("/attempts/draft", s.saveDraft)

		v1.GET("/formulas", s.formulas)
		v1.GET("/levels", s.listLevels)
		v1.GET("/levels/:id", s.getLevel)

		v1.GET("/pupils/:id/progress", s.progress)
		v1.GET("/pupils/:id/mastery", s.mastery)
		v1.GET("/pupils/:id/attempts", s.attempts)
	}

	r.NoRoute(func(c *gin.Context) {
		abortWithError(c, http.StatusNotFound, "not_found", "route not found")
	})
	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
