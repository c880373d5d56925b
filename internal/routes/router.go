package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet-compliance-monitor/internal/config"
	"fleet-compliance-monitor/internal/delivery/http/handler"
	"fleet-compliance-monitor/internal/infrastructure/database/postgres"
	"fleet-compliance-monitor/internal/middleware"
	"fleet-compliance-monitor/pkg/utils"
)

// SetupRouter wires the HTTP surface: the dashboard read API and the
// dispatcher command API, behind the shared middleware chain.
func SetupRouter(
	cfg *config.Config,
	db *postgres.DB,
	dashboard *handler.DashboardHandler,
	commands *handler.CommandHandler,
) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.RequestSizeLimitMiddleware(0))
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RateLimitMiddleware(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst))

	router.GET("/health", func(c *gin.Context) {
		if err := db.Health(); err != nil {
			utils.ErrorResponse(c, http.StatusServiceUnavailable, "database unreachable")
			return
		}
		utils.SuccessResponse(c, http.StatusOK, "ok", nil)
	})

	v1 := router.Group("/api/v1")
	{
		dashboard.RegisterRoutes(v1)
		commands.RegisterRoutes(v1)
	}

	return router
}
