package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"battleship/internal/api/ws"
	"battleship/internal/config"
	"battleship/internal/registry"
)

func SetupRouter(reg *registry.Registry, hub *ws.Hub, cfg config.Config) *gin.Engine {
	r := gin.Default()

	// Game protocol over WebSocket
	r.GET("/ws", hub.HandleWS)

	// Static front end
	r.Static("/front", cfg.StaticDir)
	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/front/index.html")
	})

	// --- READ-ONLY REST ENDPOINTS ---
	r.GET("/winners", WinnersHandler(reg))
	r.GET("/config", GameConfigHandler(cfg))
	r.GET("/healthz", HealthHandler())

	return r
}
