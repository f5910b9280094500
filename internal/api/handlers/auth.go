package handlers

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/jmoiron/sqlx"
	"github.com/tiltbar/backend/internal/config"
	"golang.org/x/crypto/bcrypt"
)

var validUsername = regexp.MustCompile(`^[a-zA-Z0-9_]{3,24}$`)

// Register creates a player account.
func Register(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username    string `json:"username" binding:"required"`
			Password    string `json:"password" binding:"required"`
			DisplayName string `json:"display_name,omitempty"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
			return
		}

		username := strings.ToLower(strings.TrimSpace(req.Username))
		if !validUsername.MatchString(username) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username must be 3-24 characters (letters, numbers, underscore)"})
			return
		}
		if len(req.Password) < 8 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters"})
			return
		}

		displayName := strings.TrimSpace(req.DisplayName)
		if displayName == "" {
			displayName = username
		}
		if len(displayName) > 50 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "display_name too long"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("Failed to hash password: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		var playerID int
		err = db.QueryRowx(`INSERT INTO players (username, display_name, password_hash, created_at, is_active) VALUES ($1, $2, $3, NOW(), true) RETURNING id`,
			username, displayName, string(hash)).Scan(&playerID)
		if err != nil {
			// Unique violation is the common failure here
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
			return
		}

		log.Printf("[AUTH] Registered player %d (%s)", playerID, username)

		token, exp, err := issueToken(cfg, playerID, username)
		if err != nil {
			log.Printf("Failed to sign token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"token":      token,
			"expires_at": exp.Format(time.RFC3339),
			"player":     gin.H{"id": playerID, "username": username, "display_name": displayName},
		})
	}
}

// Login verifies credentials and issues a JWT.
func Login(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
			return
		}

		username := strings.ToLower(strings.TrimSpace(req.Username))

		var player struct {
			ID           int    `db:"id"`
			Username     string `db:"username"`
			DisplayName  string `db:"display_name"`
			PasswordHash string `db:"password_hash"`
			IsActive     bool   `db:"is_active"`
		}
		err := db.Get(&player, `SELECT id, username, display_name, password_hash, is_active FROM players WHERE username=$1`, username)
		if err != nil {
			// Burn a comparison anyway so missing users cost the same as bad passwords
			bcrypt.CompareHashAndPassword([]byte("$2a$10$000000000000000000000uGZLKJxQ0jUnXWLwkEuLrFI1XDQm9PO6"), []byte(req.Password))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(player.PasswordHash), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if !player.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "account disabled"})
			return
		}

		if _, err := db.Exec(`UPDATE players SET last_active=NOW() WHERE id=$1`, player.ID); err != nil {
			log.Printf("[DB] Failed to update last_active for player %d: %v", player.ID, err)
		}

		token, exp, err := issueToken(cfg, player.ID, player.Username)
		if err != nil {
			log.Printf("Failed to sign token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":      token,
			"expires_at": exp.Format(time.RFC3339),
			"player":     gin.H{"id": player.ID, "username": player.Username, "display_name": player.DisplayName},
		})
	}
}

// issueToken signs a 24h HS256 JWT for the player.
func issueToken(cfg *config.Config, playerID int, username string) (string, time.Time, error) {
	exp := time.Now().Add(24 * time.Hour)
	claims := jwt.MapClaims{
		"player_id": playerID,
		"username":  username,
		"exp":       exp.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// AuthMiddleware validates bearer JWT and sets player_id in context
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		token := strings.TrimPrefix(auth, "Bearer ")

		parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !parsed.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		playerIDf, ok := claims["player_id"].(float64)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set("player_id", int(playerIDf))
		c.Next()
	}
}

// GetMe returns the authenticated player's profile and stats
func GetMe(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		pidI, ok := c.Get("player_id")
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		pid := pidI.(int)

		var player struct {
			ID          int          `db:"id"`
			Username    string       `db:"username"`
			DisplayName string       `db:"display_name"`
			GamesPlayed int          `db:"games_played"`
			BestScore   int          `db:"best_score"`
			CreatedAt   time.Time    `db:"created_at"`
			LastActive  sql.NullTime `db:"last_active"`
		}
		if err := db.Get(&player, `SELECT id, username, display_name, games_played, best_score, created_at, last_active FROM players WHERE id=$1`, pid); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "player not found"})
			return
		}

		profile := gin.H{
			"id":           player.ID,
			"username":     player.Username,
			"display_name": player.DisplayName,
			"games_played": player.GamesPlayed,
			"best_score":   player.BestScore,
			"created_at":   player.CreatedAt.Format(time.RFC3339),
		}
		if player.LastActive.Valid {
			profile["last_active"] = player.LastActive.Time.Format(time.RFC3339)
		}
		c.JSON(http.StatusOK, profile)
	}
}

// UpdateDisplayName changes the authenticated player's display name
func UpdateDisplayName(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		pidI, ok := c.Get("player_id")
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		pid := pidI.(int)

		var req struct {
			DisplayName string `json:"display_name" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "display_name required"})
			return
		}

		name := strings.TrimSpace(req.DisplayName)
		if name == "" || len(name) > 50 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid display_name"})
			return
		}
		var validName = regexp.MustCompile(`^[\p{L}\p{N}\p{P}\p{S}\p{Zs}]+$`)
		if !validName.MatchString(name) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "display_name contains invalid characters"})
			return
		}

		if _, err := db.Exec(`UPDATE players SET display_name=$1 WHERE id=$2`, name, pid); err != nil {
			log.Printf("[DB] Failed to update display_name for player %d: %v", pid, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update display name"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"display_name": name})
	}
}
