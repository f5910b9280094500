package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/tiltbar/backend/internal/config"
	"github.com/tiltbar/backend/internal/game"
)

// CreateGameSession starts a new run for the authenticated player.
func CreateGameSession(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		pidI, ok := c.Get("player_id")
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		pid := pidI.(int)

		if game.Manager == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "game manager not ready"})
			return
		}

		var player struct {
			Username    string `db:"username"`
			DisplayName string `db:"display_name"`
		}
		if err := db.Get(&player, `SELECT username, display_name FROM players WHERE id=$1`, pid); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "player not found"})
			return
		}

		s, err := game.Manager.CreateSession(pid, player.Username, player.DisplayName)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}

		log.Printf("[API] Session %s created for player %d", s.ID, pid)

		c.Header("X-Session-ID", s.ID)
		c.JSON(http.StatusCreated, gin.H{
			"session_id":    s.ID,
			"session_token": s.Token,
			"player_token":  s.Player.PlayerToken,
			"status":        s.Status,
			"lives":         s.Lives,
			"level":         s.LevelNumber,
			"expires_at":    s.ExpiresAt,
			"ws_path":       "/api/v1/session/" + s.Token + "/ws",
		})
	}
}

// GetGameSession returns the current snapshot for a session token. The
// snapshot carries everything a client needs to render a frame.
func GetGameSession(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
			return
		}

		if game.Manager == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "game manager not ready"})
			return
		}

		s, err := game.Manager.GetSessionByToken(token)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}

		c.JSON(http.StatusOK, s.Snapshot())
	}
}

// GetCurrentSession returns the authenticated player's live session, if any.
func GetCurrentSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		pidI, ok := c.Get("player_id")
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		pid := pidI.(int)

		if game.Manager == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "game manager not ready"})
			return
		}

		s, err := game.Manager.GetSessionForPlayer(pid)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
			return
		}

		snapshot := s.Snapshot()
		snapshot["player_token"] = s.Player.PlayerToken
		c.JSON(http.StatusOK, snapshot)
	}
}

// GetLeaderboard returns the top scores.
func GetLeaderboard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if game.Manager == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "game manager not ready"})
			return
		}

		limit := 10
		if l := c.Query("limit"); l != "" {
			if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 100 {
				limit = n
			}
		}

		entries, err := game.Manager.Leaderboard(limit)
		if err != nil {
			log.Printf("[API] Leaderboard query failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch leaderboard"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
	}
}

// GetServerStatus reports live session count for ops dashboards.
func GetServerStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		count := 0
		if game.Manager != nil {
			count = game.Manager.GetActiveSessionCount()
		}
		c.JSON(http.StatusOK, gin.H{"active_sessions": count})
	}
}
