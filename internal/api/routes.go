package api

import (
	"github.com/gin-gonic/gin"

	"github.com/irfndi/hdb-resale-go/internal/api/handlers"
	"github.com/irfndi/hdb-resale-go/internal/logging"
	"github.com/irfndi/hdb-resale-go/internal/middleware"
	"github.com/irfndi/hdb-resale-go/internal/pipeline"
)

// Dependencies are the collaborators the routes need. History and Cache are
// nil when their backends are disabled; their routes are then not mounted.
type Dependencies struct {
	Runner         handlers.PredictionRunner
	Health         *handlers.HealthHandler
	History        handlers.HistoryReader
	Cache          handlers.PredictionCacheAdmin
	Logger         logging.Logger
	AdminAPIKey    string
	ServiceName    string
	AllowedOrigins []string
}

// NewRouter builds the gin engine with the standard middleware chain.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.Tracing(deps.ServiceName),
		middleware.RequestID(),
		middleware.RequestLogger(deps.Logger),
		middleware.Recovery(deps.Logger, pipeline.GenericErrorMessage),
		middleware.CORS(deps.AllowedOrigins),
	)
	SetupRoutes(router, deps)
	return router
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	health := router.Group("/", middleware.HealthCheckTelemetryMiddleware())
	{
		health.GET("/health", deps.Health.HealthCheck)
		health.HEAD("/health", deps.Health.HealthCheck)
		health.GET("/ready", deps.Health.ReadinessCheck)
		health.GET("/live", deps.Health.LivenessCheck)
	}

	v1 := router.Group("/api/v1")
	{
		predictions := handlers.NewPredictionHandler(deps.Runner, deps.Logger)
		v1.POST("/predict", predictions.Predict)
		v1.GET("/options", predictions.Options)

		admin := middleware.NewAdminMiddleware(deps.AdminAPIKey)
		if deps.History != nil {
			history := handlers.NewHistoryHandler(deps.History)
			v1.GET("/predictions/recent", admin.RequireAdminAuth(), history.Recent)
		}
		if deps.Cache != nil {
			cacheHandler := handlers.NewCacheHandler(deps.Cache)
			cacheGroup := v1.Group("/cache", admin.RequireAdminAuth())
			{
				cacheGroup.GET("/stats", cacheHandler.GetCacheStats)
				cacheGroup.DELETE("", cacheHandler.ClearCache)
			}
		}
	}
}
