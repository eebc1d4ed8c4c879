package restapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterOptions configures SetupRouter.
type RouterOptions struct {
	// AllowedOrigins lists CORS origins; empty allows all.
	AllowedOrigins []string
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
	// SwaggerPath mounts the API docs UI when set.
	SwaggerPath string
	Logger      *zap.Logger
}

// SetupRouter builds the view server: read models under /api/v1/view, plus health, metrics and API docs.
func SetupRouter(h *ViewHandler, opts RouterOptions) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	if len(opts.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = opts.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition"}
	router.Use(cors.New(corsConfig))

	router.Use(ZapLoggerMiddleware(opts.Logger))
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1/view")
	{
		v1.GET("/dashboard", h.Dashboard)
		v1.GET("/dashboard/snapshot.json", h.DashboardSnapshot)
		v1.GET("/transfers", h.Transfers)
		v1.GET("/budgets", h.Budgets)
		v1.GET("/grants/:id", h.Grant)
		v1.GET("/audit-log.csv", h.AuditLogCSV)
	}

	router.GET("/healthz", h.Healthz)
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics))
	}
	if opts.SwaggerPath != "" {
		mountSwagger(router, opts.SwaggerPath)
	}
	return router
}

// ZapLoggerMiddleware logs one line per request.
func ZapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("HTTP")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("clientIP", c.ClientIP()),
		}
		switch {
		case len(c.Errors) > 0:
			log.Error("Request failed", append(fields, zap.String("errors", c.Errors.String()))...)
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("Request failed", fields...)
		default:
			log.Info("Request served", fields...)
		}
	}
}
