package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler) {
	group := g.Group("/bookings")
	{
		group.GET("", h.List)
		group.GET("/available", h.CheckAvailability)
		group.GET("/:id", h.Get)
		group.POST("", h.Create)
		group.PUT("/:id", h.Update)
		group.PATCH("/:id/cancel", h.Cancel)
		group.DELETE("/:id", h.Delete)
	}

	g.GET("/resources/:id/free-slots", h.FreeSlots)
}
