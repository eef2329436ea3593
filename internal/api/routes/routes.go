package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/cartpilot/cartpilot/internal/api/handlers"
	"github.com/cartpilot/cartpilot/internal/api/middleware"
)

type Deps struct {
	Assistant *handlers.AssistantHandler
	WS        *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.POST("/assistant/query", d.Assistant.Query)
	auth.GET("/cart", d.Assistant.Cart)

	admin := auth.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	admin.GET("/audit/:user_id", d.Assistant.AuditHistory)

	// WebSocket
	auth.GET("/ws/assistant", d.WS.AssistantWS)
}
