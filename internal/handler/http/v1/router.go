package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Маршруты, требующие API-ключ
	protected := api.Group("")
	protected.Use(APIKeyAuthMiddleware(h.cfg, h.logger))
	{
		protected.POST("/telemetry", h.ingestTelemetry)
		protected.GET("/districts", h.listDistricts)
		protected.GET("/districts/:name", h.getDistrict)
		protected.GET("/coordinator", h.getCoordinator)
	}

	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)
}
