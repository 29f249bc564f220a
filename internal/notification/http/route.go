package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the read-only notification endpoints.
func RegisterRoutes(g *gin.RouterGroup, h *Handler) {
	group := g.Group("/notifications")
	{
		group.GET("", h.List)
		group.GET("/booking/:bookingId", h.ListByBooking)
		group.GET("/:id", h.Get)
	}
}
