package apihandlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the HTTP API on top of gin.Default().
func NewRouter(h *APIHandler) *gin.Engine {
	router := gin.Default() // Includes logger and recovery middleware

	v1 := router.Group("/api/v1")
	{
		waitGroup := v1.Group("/waits")
		{
			waitGroup.POST("", h.CreateWaitHandler)
			waitGroup.GET("", h.ListWaitsHandler)
			waitGroup.GET("/:id", h.GetWaitHandler)
		}
		v1.GET("/kinds", h.ListKindsHandler)
	}

	router.GET("/health", h.HealthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}
