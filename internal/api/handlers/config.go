package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tiltbar/backend/internal/config"
)

// GetConfig returns minimal config values required by frontend
func GetConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"playfield_width":        cfg.PlayfieldWidth,
			"playfield_height":       cfg.PlayfieldHeight,
			"ball_radius":            cfg.BallRadius,
			"session_expiry_minutes": cfg.SessionExpiryMinutes,
		})
	}
}
