package game

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// StartSessionReaper runs the background job that expires abandoned runs.
// It combines two views: the in-memory session table and the Redis activity
// sorted set, so stale zset members left by a crashed process get cleaned
// up too.
func (gm *GameManager) StartSessionReaper() {
	poll := 15
	idle := 120
	if gm.config != nil {
		if gm.config.ReaperPollSeconds > 0 {
			poll = gm.config.ReaperPollSeconds
		}
		if gm.config.IdleTimeoutSeconds > 0 {
			idle = gm.config.IdleTimeoutSeconds
		}
	}

	log.Println("[REAPER] Session reaper started")
	ticker := time.NewTicker(time.Duration(poll) * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-time.Duration(idle) * time.Second)
		gm.ExpireIdleSessions(cutoff)
		gm.cleanStaleActivityMembers(cutoff)
	}
}

// cleanStaleActivityMembers removes zset entries whose sessions are no
// longer tracked by any process.
func (gm *GameManager) cleanStaleActivityMembers(cutoff time.Time) {
	if gm.rdb == nil {
		return
	}

	ctx := context.Background()
	members, err := gm.rdb.ZRangeByScore(ctx, activityZSetKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", cutoff.Unix()),
	}).Result()
	if err != nil {
		log.Printf("[REAPER] Failed to fetch stale activity members: %v", err)
		return
	}

	for _, id := range members {
		gm.mu.RLock()
		_, tracked := gm.sessions[id]
		gm.mu.RUnlock()
		if tracked {
			continue // ExpireIdleSessions handles live ones
		}
		if removed, _ := gm.rdb.ZRem(ctx, activityZSetKey, id).Result(); removed > 0 {
			log.Printf("[REAPER] Dropped orphaned activity entry %s", id)
		}
	}
}
