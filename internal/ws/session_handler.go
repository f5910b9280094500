package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/tiltbar/backend/internal/game"
)

// BarInputData is the client's bar control: normalized 0..1 targets for the
// two ends.
type BarInputData struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// GameHub is the single hub for all sessions.
var GameHub *Hub

func init() {
	GameHub = NewHub()
	go runGameHub(GameHub)
}

// HandleWebSocket handles WebSocket connections for game sessions.
func HandleWebSocket(c *gin.Context) {
	sessionToken := c.Param("token")
	if sessionToken == "" {
		sessionToken = c.Query("token")
	}
	playerToken := c.Query("pt")

	if sessionToken == "" || playerToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token and pt required"})
		return
	}

	s, err := game.Manager.GetSessionByToken(sessionToken)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	if s.Player == nil || s.Player.PlayerToken != playerToken {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid player token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	client := &Client{
		conn:         conn,
		playerID:     s.Player.ID,
		sessionID:    s.ID,
		sessionToken: sessionToken,
		send:         make(chan []byte, 256),
	}

	GameHub.register <- client

	go client.writePump()
	go client.readPump()
}

// runGameHub runs the hub loop: connection bookkeeping plus wiring each
// session's event stream to its room.
func runGameHub(h *Hub) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()

			if oldClient, exists := h.clients[client.playerID]; exists {
				log.Printf("[WS] Player %s reconnecting - closing old connection", client.playerID)
				if err := oldClient.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replaced by new connection"), time.Now().Add(5*time.Second)); err != nil {
					log.Printf("Error writing close control to old client %s: %v", oldClient.playerID, err)
				}
				oldClient.conn.Close()
				select {
				case <-oldClient.send:
				default:
					close(oldClient.send)
				}
				delete(h.clients, client.playerID)
				if room, exists := h.rooms[oldClient.sessionID]; exists {
					delete(room, client.playerID)
				}
			}

			h.clients[client.playerID] = client
			if _, exists := h.rooms[client.sessionID]; !exists {
				h.rooms[client.sessionID] = make(map[string]*Client)
			}
			h.rooms[client.sessionID][client.playerID] = client
			h.mu.Unlock()

			log.Printf("[WS] Player %s connected to session %s", client.playerID, client.sessionID)

			s, err := game.Manager.GetSessionByToken(client.sessionToken)
			if err != nil {
				log.Printf("[WS] Session not found for token %s: %v", client.sessionToken, err)
				continue
			}

			s.SetPlayerConnected(true)

			// Route the session's event stream into this room. The emitter
			// survives reconnects because the room is keyed by session.
			sessionID := client.sessionID
			s.SetEmitter(func(event string, payload map[string]interface{}) {
				payload["type"] = event
				h.BroadcastToSession(sessionID, payload)
			})

			if s.Status == game.StatusWaiting {
				h.SendToPlayer(client.playerID, map[string]interface{}{
					"type":    "ready",
					"message": "Session ready. Send start to begin.",
				})
			} else {
				snapshot := s.Snapshot()
				snapshot["type"] = "state"
				h.SendToPlayer(client.playerID, snapshot)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[client.playerID]; ok && cur == client {
				delete(h.clients, client.playerID)
				if room, exists := h.rooms[client.sessionID]; exists {
					delete(room, client.playerID)
					if len(room) == 0 {
						delete(h.rooms, client.sessionID)
					}
				}

				log.Printf("[WS] Player %s disconnected from session %s", client.playerID, client.sessionID)

				if s, err := game.Manager.GetSessionByToken(client.sessionToken); err == nil {
					s.SetPlayerConnected(false)
				}

				select {
				case <-client.send:
				default:
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// readPump reads client messages for a session.
func (c *Client) readPump() {
	defer func() {
		GameHub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error (unexpected) for player %s: %v", c.playerID, err)
			} else {
				log.Printf("WebSocket read error for player %s: %v", c.playerID, err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		c.handleMessage(msg)
	}
}

// handleMessage processes incoming session messages.
func (c *Client) handleMessage(msg WSMessage) {
	s, err := game.Manager.GetSessionByToken(c.sessionToken)
	if err != nil {
		c.sendError("Session not found")
		return
	}

	switch msg.Type {
	case "start":
		c.handleStart(s)

	case "bar_input":
		var data BarInputData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid bar input")
			return
		}
		s.SetBarInput(data.Left, data.Right)
		if game.Manager != nil {
			game.Manager.TouchSession(s)
		}

	case "get_state":
		snapshot := s.Snapshot()
		snapshot["type"] = "state"
		d, _ := json.Marshal(snapshot)
		c.send <- d

	case "concede":
		c.handleConcede(s)

	default:
		c.sendError("Unknown message type")
	}
}

// handleStart launches the simulation loop.
func (c *Client) handleStart(s *game.GameSession) {
	if s.Status != game.StatusWaiting {
		c.sendError("Session already started")
		return
	}

	s.Start()

	if s.SessionID > 0 && game.Manager != nil && s.StartedAt != nil {
		if err := game.Manager.MarkSessionStarted(s.SessionID, *s.StartedAt); err != nil {
			log.Printf("[DB] MarkSessionStarted failed for session %d: %v", s.SessionID, err)
		}
	}

	GameHub.BroadcastToSession(c.sessionID, map[string]interface{}{
		"type":    "session_started",
		"message": "Game on!",
	})
}

// handleConcede ends the run at the current score.
func (c *Client) handleConcede(s *game.GameSession) {
	if s.Status != game.StatusInProgress && s.Status != game.StatusWaiting {
		c.sendError("Session is not in progress")
		return
	}

	s.Concede()

	snapshot := s.Snapshot()
	GameHub.BroadcastToSession(c.sessionID, map[string]interface{}{
		"type":    "game_over",
		"message": "Player conceded",
		"score":   snapshot["score"],
		"level":   snapshot["level"],
	})
}
