package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/tiltbar/backend/internal/config"
	"github.com/tiltbar/backend/internal/ws"
)

// HandleGameWebSocket handles real-time session communication
func HandleGameWebSocket(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return ws.HandleWebSocket
}
