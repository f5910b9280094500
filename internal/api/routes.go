package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/tiltbar/backend/internal/api/handlers"
	"github.com/tiltbar/backend/internal/config"
	"github.com/tiltbar/backend/internal/middleware"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] No-cache headers enabled for all routes")
	}

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)
		v1.GET("/status", handlers.GetServerStatus())
		v1.GET("/config", handlers.GetConfig(cfg))
		v1.GET("/leaderboard", handlers.GetLeaderboard())

		// Auth endpoints
		auth := v1.Group("/auth")
		{
			auth.POST("/register", handlers.Register(db, cfg))
			auth.POST("/login", handlers.Login(db, cfg))
		}

		// Player endpoints (authenticated)
		me := v1.Group("/me")
		me.Use(handlers.AuthMiddleware(cfg))
		{
			me.GET("", handlers.GetMe(db))
			me.PUT("/display-name", handlers.UpdateDisplayName(db))
			me.GET("/session", handlers.GetCurrentSession())
		}

		// Session endpoints
		session := v1.Group("/session")
		{
			session.POST("", handlers.AuthMiddleware(cfg), handlers.CreateGameSession(db, cfg))
			session.GET("/:token", handlers.GetGameSession(cfg))
			session.GET("/:token/ws", middleware.WebSocketCORSCheck(cfg), handlers.HandleGameWebSocket(db, rdb, cfg))
		}
	}
}
