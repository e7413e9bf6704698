package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"battleship/internal/config"
	"battleship/internal/registry"
)

// @Summary Leaderboard
// @Description Players with at least one win, most wins first
// @Tags Game
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /winners [get]
func WinnersHandler(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"winners": reg.Winners()})
	}
}

// @Summary Game rules
// @Description Board size and fleet composition the server enforces
// @Tags Game
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /config [get]
func GameConfigHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"boardSize":  cfg.Game.BoardSize,
			"fleetQuota": cfg.Game.FleetQuota,
		})
	}
}

// @Summary Health check
// @Tags Ops
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /healthz [get]
func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
