package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Marrmee/spark-gate/service"
)

// SetupRouter sets up the gin router.
func SetupRouter(handlers *Handlers, auth *service.AuthService) *gin.Engine {
	router := gin.Default()

	router.GET("/healthz", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth routes
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/verify", handlers.Verify)
	}

	// Protected API routes
	api := router.Group("/api")
	api.Use(AddressAuth(auth))
	{
		api.GET("/me", handlers.Me)
		api.GET("/authorize", handlers.Authorize)
	}

	// Operational routes, gated like the API
	admin := router.Group("/admin")
	admin.Use(AddressAuth(auth))
	{
		admin.POST("/refresh", handlers.Refresh)
	}

	return router
}
