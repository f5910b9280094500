package game

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/tiltbar/backend/internal/config"
	"github.com/tiltbar/backend/internal/models"
	"github.com/tiltbar/backend/internal/physics"
)

// GameManager tracks all live sessions and owns their persistence.
type GameManager struct {
	sessions        map[string]*GameSession // keyed by session ID
	tokenToSession  map[string]string       // session token -> session ID
	playerToSession map[int]string          // DB player ID -> session ID
	rdb             *redis.Client
	db              *sqlx.DB
	config          *config.Config
	mu              sync.RWMutex
}

// Manager is the global game manager instance.
var Manager *GameManager

// Redis keys.
const (
	sessionKeyPrefix    = "session:"
	sessionKeySuffix    = ":state"
	activityZSetKey     = "sessions:activity"
	leaderboardCacheKey = "leaderboard:top"
)

// InitializeManager initializes the global game manager with Redis, DB and
// config, and starts the background jobs.
func InitializeManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	Manager = NewGameManager(db, rdb, cfg)
	go Manager.StartSessionReaper()
	go Manager.StartLeaderboardRefresher()
}

// NewGameManager creates a new game manager.
func NewGameManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) *GameManager {
	return &GameManager{
		sessions:        make(map[string]*GameSession),
		tokenToSession:  make(map[string]string),
		playerToSession: make(map[int]string),
		rdb:             rdb,
		db:              db,
		config:          cfg,
	}
}

// generateToken generates a secure random token.
func generateToken(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func generateSessionID() string {
	return "run_" + generateToken(8)
}

// directorConfig builds the playfield tuning from the app config.
func (gm *GameManager) directorConfig() DirectorConfig {
	cfg := DefaultDirectorConfig()
	if gm.config == nil {
		return cfg
	}
	if gm.config.PlayfieldWidth > 0 && gm.config.PlayfieldHeight > 0 {
		cfg.Bounds = physics.NewVec2(gm.config.PlayfieldWidth, gm.config.PlayfieldHeight)
	}
	if gm.config.GravityY != 0 {
		cfg.GravityY = gm.config.GravityY
	}
	if gm.config.AirResistance > 0 {
		cfg.AirResistance = gm.config.AirResistance
	}
	if gm.config.BallRadius > 0 {
		cfg.BallRadius = gm.config.BallRadius
	}
	return cfg
}

// CreateSession starts a new run for a player. A player can only have one
// live session at a time.
func (gm *GameManager) CreateSession(dbPlayerID int, phoneNumber, displayName string) (*GameSession, error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if existingID, ok := gm.playerToSession[dbPlayerID]; ok && dbPlayerID > 0 {
		if existing, ok := gm.sessions[existingID]; ok {
			existing.mu.RLock()
			live := existing.Status == StatusWaiting || existing.Status == StatusInProgress
			existing.mu.RUnlock()
			if live {
				return nil, errors.New("player already has an active session")
			}
		}
	}

	sessionID := generateSessionID()
	sessionToken := generateToken(16)
	playerCode := "p_" + generateToken(4)
	playerToken := generateToken(16)

	s := NewGameSession(sessionID, sessionToken, playerCode, phoneNumber, playerToken, dbPlayerID, displayName, gm.directorConfig())

	// Persist a game_sessions row if we have a DB player id
	if gm.db != nil && dbPlayerID > 0 {
		var rowID int
		err := gm.db.QueryRowx(`INSERT INTO game_sessions (session_token, player_id, status, created_at, expires_at) VALUES ($1, $2, $3, NOW(), $4) RETURNING id`,
			sessionToken, dbPlayerID, string(StatusWaiting), s.ExpiresAt).Scan(&rowID)
		if err != nil {
			log.Printf("[DB] Failed to create game_session: %v", err)
		} else {
			s.SessionID = rowID
		}
	}

	gm.sessions[sessionID] = s
	gm.tokenToSession[sessionToken] = sessionID
	if dbPlayerID > 0 {
		gm.playerToSession[dbPlayerID] = sessionID
	}

	log.Printf("[MANAGER] Session created: %s for player %s (db_id=%d)", sessionID, playerCode, dbPlayerID)

	gm.saveSessionToRedis(s)
	return s, nil
}

// GetSession retrieves a session by ID.
func (gm *GameManager) GetSession(sessionID string) (*GameSession, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	s, ok := gm.sessions[sessionID]
	if !ok {
		return nil, errors.New("session not found")
	}
	return s, nil
}

// GetSessionByToken retrieves a session by its token. Only in-memory
// sessions are playable; a live simulation cannot be resumed from a Redis
// snapshot.
func (gm *GameManager) GetSessionByToken(token string) (*GameSession, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	id, ok := gm.tokenToSession[token]
	if !ok {
		return nil, errors.New("session not found")
	}
	s, ok := gm.sessions[id]
	if !ok {
		return nil, errors.New("session not found")
	}
	return s, nil
}

// GetSessionForPlayer retrieves the tracked session for a DB player id.
func (gm *GameManager) GetSessionForPlayer(dbPlayerID int) (*GameSession, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	id, ok := gm.playerToSession[dbPlayerID]
	if !ok {
		return nil, errors.New("player has no session")
	}
	s, ok := gm.sessions[id]
	if !ok {
		return nil, errors.New("session not found")
	}
	return s, nil
}

// MarkSessionStarted updates the session row to IN_PROGRESS and sets
// started_at if it wasn't set.
func (gm *GameManager) MarkSessionStarted(sessionID int, startedAt time.Time) error {
	if gm == nil || gm.db == nil || sessionID == 0 {
		return nil
	}
	_, err := gm.db.Exec(`UPDATE game_sessions SET status=$1, started_at = COALESCE(started_at, $2) WHERE id=$3`,
		string(StatusInProgress), startedAt, sessionID)
	if err != nil {
		log.Printf("[DB] Failed to mark session %d as IN_PROGRESS: %v", sessionID, err)
	}
	return err
}

// EndSession drops a finished session from the manager and Redis.
func (gm *GameManager) EndSession(sessionID string) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	s, ok := gm.sessions[sessionID]
	if !ok {
		return errors.New("session not found")
	}

	delete(gm.tokenToSession, s.Token)
	if s.Player != nil && s.Player.DBPlayerID > 0 {
		delete(gm.playerToSession, s.Player.DBPlayerID)
	}
	delete(gm.sessions, sessionID)

	if gm.rdb != nil {
		ctx := context.Background()
		gm.rdb.Del(ctx, sessionKeyPrefix+s.Token+sessionKeySuffix)
		gm.rdb.ZRem(ctx, activityZSetKey, sessionID)
	}
	return nil
}

// GetActiveSessionCount returns the number of tracked sessions.
func (gm *GameManager) GetActiveSessionCount() int {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return len(gm.sessions)
}

// saveSessionToRedis persists a session summary and records its activity
// timestamp for the reaper.
func (gm *GameManager) saveSessionToRedis(s *GameSession) error {
	if gm.rdb == nil {
		return nil
	}

	ctx := context.Background()
	key := sessionKeyPrefix + s.Token + sessionKeySuffix

	s.mu.RLock()
	// Copy the player by value: the marshal below runs after the lock is
	// released, while the session keeps mutating the live struct.
	player := *s.Player
	summary := map[string]interface{}{
		"id":            s.ID,
		"token":         s.Token,
		"player":        player,
		"score":         s.Score,
		"lives":         s.Lives,
		"level":         s.LevelNumber,
		"status":        s.Status,
		"created_at":    s.CreatedAt,
		"started_at":    s.StartedAt,
		"completed_at":  s.CompletedAt,
		"last_activity": s.LastActivity,
		"session_id":    s.SessionID,
	}
	lastActivity := s.LastActivity
	id := s.ID
	s.mu.RUnlock()

	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	if err := gm.rdb.SetEx(ctx, key, data, time.Hour).Err(); err != nil {
		return err
	}
	return gm.rdb.ZAdd(ctx, activityZSetKey, redis.Z{
		Score:  float64(lastActivity.Unix()),
		Member: id,
	}).Err()
}

// TouchSession refreshes the reaper's view of a session's activity.
func (gm *GameManager) TouchSession(s *GameSession) {
	if gm.rdb == nil || s == nil {
		return
	}
	s.mu.RLock()
	lastActivity := s.LastActivity
	id := s.ID
	s.mu.RUnlock()
	gm.rdb.ZAdd(context.Background(), activityZSetKey, redis.Z{
		Score:  float64(lastActivity.Unix()),
		Member: id,
	})
}

// SaveFinalSession persists the final result: updates the game_sessions
// row, inserts a scores row and refreshes the player's aggregate stats.
func (gm *GameManager) SaveFinalSession(s *GameSession) {
	if gm == nil || s == nil {
		return
	}

	s.mu.RLock()
	sessionID := s.ID
	dbSessionID := s.SessionID
	status := s.Status
	score := s.Score
	level := s.LevelNumber
	dbPlayerID := 0
	if s.Player != nil {
		dbPlayerID = s.Player.DBPlayerID
	}
	s.mu.RUnlock()

	log.Printf("[DB] SaveFinalSession called for session=%s status=%s score=%d level=%d", sessionID, status, score, level)

	if gm.db != nil && dbSessionID > 0 {
		_, err := gm.db.Exec(`UPDATE game_sessions SET status=$1, final_score=$2, final_level=$3, completed_at=NOW() WHERE id=$4`,
			string(status), score, level, dbSessionID)
		if err != nil {
			log.Printf("[DB] Failed to update game_sessions for session %d: %v", dbSessionID, err)
		}

		if dbPlayerID > 0 && status == StatusCompleted {
			if _, err := gm.db.Exec(`INSERT INTO scores (session_id, player_id, score, level_reached, created_at) VALUES ($1,$2,$3,$4,NOW())`,
				dbSessionID, dbPlayerID, score, level); err != nil {
				log.Printf("[DB] Failed to insert score for session %d: %v", dbSessionID, err)
			}
			if _, err := gm.db.Exec(`UPDATE players SET games_played = games_played + 1, best_score = GREATEST(best_score, $1) WHERE id = $2`,
				score, dbPlayerID); err != nil {
				log.Printf("[DB] Failed to update player stats for player %d: %v", dbPlayerID, err)
			}
		}
	}

	gm.saveSessionToRedis(s)

	// Drop the leaderboard cache so the next read picks up the new score
	if gm.rdb != nil && status == StatusCompleted {
		gm.rdb.Del(context.Background(), leaderboardCacheKey)
	}
}

// Leaderboard returns the top scores, served from the Redis cache when
// warm.
func (gm *GameManager) Leaderboard(limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	ctx := context.Background()
	if gm.rdb != nil {
		if cached, err := gm.rdb.Get(ctx, leaderboardCacheKey).Result(); err == nil {
			var entries []models.LeaderboardEntry
			if err := json.Unmarshal([]byte(cached), &entries); err == nil {
				if len(entries) > limit {
					entries = entries[:limit]
				}
				return entries, nil
			}
		}
	}

	entries, err := gm.queryLeaderboard(limit)
	if err != nil {
		return nil, err
	}

	if gm.rdb != nil {
		if data, err := json.Marshal(entries); err == nil {
			refresh := 60
			if gm.config != nil && gm.config.LeaderboardRefreshSeconds > 0 {
				refresh = gm.config.LeaderboardRefreshSeconds
			}
			gm.rdb.SetEx(ctx, leaderboardCacheKey, data, time.Duration(refresh)*time.Second)
		}
	}
	return entries, nil
}

func (gm *GameManager) queryLeaderboard(limit int) ([]models.LeaderboardEntry, error) {
	if gm.db == nil {
		return []models.LeaderboardEntry{}, nil
	}

	entries := []models.LeaderboardEntry{}
	err := gm.db.Select(&entries, `
		SELECT p.display_name AS display_name, s.score AS score, s.level_reached AS level_reached, s.created_at AS created_at
		FROM scores s
		JOIN players p ON p.id = s.player_id
		ORDER BY s.score DESC, s.created_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// ExpireIdleSessions expires every in-progress session idle since the
// cutoff, plus waiting sessions past their expiry time. Returns how many
// were expired.
func (gm *GameManager) ExpireIdleSessions(cutoff time.Time) int {
	gm.mu.RLock()
	now := time.Now()
	var doomed []*GameSession
	for _, s := range gm.sessions {
		if s.IsIdleSince(cutoff) {
			doomed = append(doomed, s)
			continue
		}
		s.mu.RLock()
		waitingExpired := s.Status == StatusWaiting && now.After(s.ExpiresAt)
		s.mu.RUnlock()
		if waitingExpired {
			doomed = append(doomed, s)
		}
	}
	gm.mu.RUnlock()

	for _, s := range doomed {
		s.Expire()
		gm.publishSessionEvent("session_expired", s)
		gm.EndSession(s.ID)
	}

	if len(doomed) > 0 {
		log.Printf("[REAPER] Expired %d idle sessions", len(doomed))
	}
	return len(doomed)
}

// publishSessionEvent broadcasts a lifecycle event on the Redis channel so
// other processes can react.
func (gm *GameManager) publishSessionEvent(eventType string, s *GameSession) {
	if gm.rdb == nil {
		return
	}

	s.mu.RLock()
	payload := map[string]interface{}{
		"type":          eventType,
		"session_id":    s.ID,
		"session_token": s.Token,
		"score":         s.Score,
		"level":         s.LevelNumber,
	}
	s.mu.RUnlock()

	b, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[MANAGER] Failed to marshal %s event: %v", eventType, err)
		return
	}
	if err := gm.rdb.Publish(context.Background(), "game_events", b).Err(); err != nil {
		log.Printf("[MANAGER] publish %s failed: %v", eventType, err)
	}
}
