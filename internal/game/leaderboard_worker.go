package game

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// StartLeaderboardRefresher keeps the Redis leaderboard cache warm so
// reads never hit Postgres on the request path.
func (gm *GameManager) StartLeaderboardRefresher() {
	if gm.db == nil || gm.rdb == nil {
		log.Println("[LEADERBOARD] DB or Redis missing; refresher not started")
		return
	}

	refresh := 60
	if gm.config != nil && gm.config.LeaderboardRefreshSeconds > 0 {
		refresh = gm.config.LeaderboardRefreshSeconds
	}

	log.Println("[LEADERBOARD] Refresher started")
	ticker := time.NewTicker(time.Duration(refresh) * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		entries, err := gm.queryLeaderboard(100)
		if err != nil {
			log.Printf("[LEADERBOARD] Refresh query failed: %v", err)
			continue
		}
		data, err := json.Marshal(entries)
		if err != nil {
			log.Printf("[LEADERBOARD] Failed to marshal entries: %v", err)
			continue
		}
		// TTL doubles the refresh interval so a slow query never leaves
		// readers with nothing
		ttl := time.Duration(refresh*2) * time.Second
		if err := gm.rdb.SetEx(context.Background(), leaderboardCacheKey, data, ttl).Err(); err != nil {
			log.Printf("[LEADERBOARD] Failed to store cache: %v", err)
		}
	}
}
