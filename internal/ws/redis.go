package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
	"github.com/tiltbar/backend/internal/config"
)

var rdbClient *redis.Client
var wsConfig *config.Config

func SetRedisClient(r *redis.Client, cfg *config.Config) {
	rdbClient = r
	wsConfig = cfg
}

// StartGameEventSubscriber subscribes to the game_events channel and relays
// manager-published events to the session rooms. The reaper publishes through
// Redis so expiry notifications reach clients even when the expiring session
// was created by another instance.
func StartGameEventSubscriber(ctx context.Context) {
	if rdbClient == nil {
		log.Println("[WS] Redis client not set; game event subscriber not started")
		return
	}

	pubsub := rdbClient.Subscribe(ctx, "game_events")
	ch := pubsub.Channel()
	go func() {
		log.Println("[WS] game_events subscriber started")
		for msg := range ch {
			var payload map[string]interface{}
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				log.Printf("[WS] invalid event payload: %v", err)
				continue
			}

			typeStr, _ := payload["type"].(string)
			sessionID, _ := payload["session_id"].(string)
			if sessionID == "" {
				log.Printf("[WS] event %s missing session_id; dropping", typeStr)
				continue
			}

			switch typeStr {
			case "session_expired":
				out := map[string]interface{}{
					"type":    "session_expired",
					"message": "Session expired due to inactivity",
					"score":   payload["score"],
					"level":   payload["level"],
				}
				GameHub.mu.RLock()
				if room, exists := GameHub.rooms[sessionID]; !exists {
					log.Printf("[WS] no room for session %s; expiry will not be broadcast", sessionID)
				} else {
					log.Printf("[WS] broadcasting session_expired for session %s (room_size=%d)", sessionID, len(room))
				}
				GameHub.mu.RUnlock()
				GameHub.BroadcastToSession(sessionID, out)

			default:
				log.Printf("[WS] unknown event type: %s", typeStr)
			}
		}
	}()
}
