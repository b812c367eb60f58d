package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/catalogrecon/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		admin := AdminAuthMiddleware(cfg.Server.AdminToken)

		products := v1.Group("/products")
		{
			products.GET("", handler.ListProducts)
			products.GET("/similar", handler.SimilarProducts)
			products.POST("/slugs/refresh", admin, handler.RefreshSlugs)
		}

		variations := v1.Group("/variations")
		{
			variations.GET("/detect", handler.DetectVariations)
			variations.GET("/export", handler.ExportVariations)
		}

		stock := v1.Group("/stock")
		{
			stock.POST("/sync", admin, handler.SyncStock)
		}
	}

	return router
}
