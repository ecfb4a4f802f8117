package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bda-pipeline/internal/runs"
	"bda-pipeline/internal/shared/config"
	"bda-pipeline/internal/shared/metrics"
	"bda-pipeline/internal/shared/server/middleware"
	"bda-pipeline/internal/shared/server/respond"
	"bda-pipeline/internal/uploads"
)

// RouterDeps are the handlers mounted by NewRouter.
type RouterDeps struct {
	Config         config.Config
	RunsHandler    *runs.Handler
	UploadsHandler *uploads.Handler
	RateLimiter    *middleware.RateLimiter
}

const (
	rateGroupSubmit  = "SUBMIT"
	rateGroupPolling = "POLLING"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if deps.RunsHandler != nil {
		api.Use(middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: rateGroupPolling,
			GroupFor:     rateGroupFor,
			Limiter:      deps.RateLimiter,
			Rules: map[string]middleware.RateLimitRule{
				rateGroupSubmit:  {Rate: 1, Burst: 5},
				rateGroupPolling: {Rate: 10, Burst: 30},
			},
		}))
		deps.RunsHandler.RegisterRoutes(api)
	}
	if deps.UploadsHandler != nil {
		deps.UploadsHandler.RegisterRoutes(api)
	}

	return r
}

func rateGroupFor(c *gin.Context) string {
	if c.Request.Method == http.MethodPost {
		return rateGroupSubmit
	}
	return rateGroupPolling
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
