package game

import (
	"context"
	"log"
	"sync"
	"time"
)

// SessionPlayer is the single player attached to a game session.
type SessionPlayer struct {
	ID             string     `json:"id"`
	PhoneNumber    string     `json:"phone_number,omitempty"`
	DBPlayerID     int        `json:"db_player_id,omitempty"`
	DisplayName    string     `json:"display_name,omitempty"`
	PlayerToken    string     `json:"-"`
	Connected      bool       `json:"connected"`
	DisconnectedAt *time.Time `json:"-"`
}

// EmitFunc delivers one named event with its payload to the connected
// client. Called from the simulation goroutine; implementations must not
// block.
type EmitFunc func(event string, payload map[string]interface{})

// Session tuning.
const (
	StartingLives = 3

	// BarRiseSpeed is how fast a bar end chases its input target, in
	// playfield units per second.
	BarRiseSpeed = 220.0

	goalScoreBase = 100
	powerUpBonus  = 250

	tickInterval = time.Second / 60
)

// GameSession is one player's run: the authoritative simulation loop, score,
// lives and level progression. All exported methods are safe for concurrent
// use.
type GameSession struct {
	ID           string         `json:"id"`
	Token        string         `json:"token"`
	Player       *SessionPlayer `json:"player"`
	Score        int            `json:"score"`
	Lives        int            `json:"lives"`
	LevelNumber  int            `json:"level_number"`
	Status       SessionStatus  `json:"status"`
	ExpiresAt    time.Time      `json:"expires_at"`
	CreatedAt    time.Time      `json:"created_at"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	LastActivity time.Time      `json:"last_activity"`
	SessionID    int            `json:"session_id,omitempty"`

	director    *Director
	leftTarget  float64 // normalized 0..1
	rightTarget float64
	emit        EmitFunc
	cancel      context.CancelFunc
	lastTick    time.Time
	pending     []pendingEvent // queued under mu, flushed after unlock
	mu          sync.RWMutex
}

type pendingEvent struct {
	name    string
	payload map[string]interface{}
}

// NewGameSession creates a session in the waiting state. The simulation does
// not run until Start.
func NewGameSession(id, token string, playerID, playerPhone, playerToken string, dbPlayerID int, displayName string, cfg DirectorConfig) *GameSession {
	expiryMinutes := 10
	if Manager != nil && Manager.config != nil {
		expiryMinutes = Manager.config.SessionExpiryMinutes
	}

	s := &GameSession{
		ID:    id,
		Token: token,
		Player: &SessionPlayer{
			ID: playerID, PhoneNumber: playerPhone, DBPlayerID: dbPlayerID,
			DisplayName: displayName, PlayerToken: playerToken,
		},
		Lives:        StartingLives,
		LevelNumber:  1,
		Status:       StatusWaiting,
		ExpiresAt:    time.Now().Add(time.Duration(expiryMinutes) * time.Minute),
		CreatedAt:    time.Now(),
		LastActivity: time.Now(),
		director:     NewDirector(1, cfg),
	}

	// The hook fires inside the director tick, which always runs under the
	// session lock, so it queues instead of emitting directly.
	s.director.SetCollisionAudioHook(func(bodyID, kind string, volume float64) {
		s.queueLocked("sound", map[string]interface{}{
			"body_id": bodyID,
			"kind":    kind,
			"volume":  volume,
		})
	})

	return s
}

// SetEmitter installs the event sink for this session.
func (s *GameSession) SetEmitter(emit EmitFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emit = emit
}

func (s *GameSession) emitEvent(event string, payload map[string]interface{}) {
	s.mu.RLock()
	emit := s.emit
	s.mu.RUnlock()
	if emit != nil {
		emit(event, payload)
	}
}

// queueLocked appends an event to the flush queue. Caller holds the lock.
func (s *GameSession) queueLocked(event string, payload map[string]interface{}) {
	s.pending = append(s.pending, pendingEvent{name: event, payload: payload})
}

// Start launches the 60Hz simulation loop. Calling it on a running or
// finished session is a no-op.
func (s *GameSession) Start() {
	s.mu.Lock()
	if s.Status != StatusWaiting {
		s.mu.Unlock()
		log.Printf("[SESSION] %s already started, skipping", s.ID)
		return
	}
	now := time.Now()
	s.Status = StatusInProgress
	s.StartedAt = &now
	s.LastActivity = now
	s.lastTick = now
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	log.Printf("[SESSION] %s started for player %s", s.ID, s.Player.ID)
	go s.run(ctx)
}

func (s *GameSession) run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.step(now)
		}
	}
}

// step runs one authoritative frame: move the bar toward its input targets,
// tick the director and apply whatever happened to the ball.
func (s *GameSession) step(now time.Time) {
	s.mu.Lock()

	if s.Status != StatusInProgress {
		s.mu.Unlock()
		return
	}

	dt := now.Sub(s.lastTick)
	s.lastTick = now
	if dt <= 0 || dt > time.Second {
		dt = tickInterval
	}
	dtMs := float64(dt) / float64(time.Millisecond)

	s.moveBarLocked(dt)
	out := s.director.Tick(now, dtMs)

	var finished bool
	switch {
	case out.GoalHole != nil:
		s.Score += goalScoreBase * s.LevelNumber
		s.LastActivity = now
		s.queueLocked("goal_scored", map[string]interface{}{
			"hole_id": out.GoalHole.ID,
			"score":   s.Score,
		})
		if s.director.Level().RemainingGoals() == 0 {
			s.LevelNumber++
			s.leftTarget, s.rightTarget = 0, 0
			s.director.AdvanceLevel(s.LevelNumber)
			log.Printf("[SESSION] %s cleared level, now on %d (score %d)", s.ID, s.LevelNumber, s.Score)
			s.queueLocked("level_up", map[string]interface{}{
				"level": s.LevelNumber,
				"score": s.Score,
			})
		}
	case out.TrapHole != nil, out.FellOff:
		finished = s.loseLifeLocked(now)
	}

	if out.Ejected != nil {
		s.Score += powerUpBonus
		s.queueLocked("saucer_eject", map[string]interface{}{
			"hole_id": out.Ejected.HoleID,
			"score":   s.Score,
		})
	}

	for _, evt := range out.Events {
		s.queueLocked(string(evt.Kind), map[string]interface{}{"hole_id": evt.HoleID})
	}

	flush := s.pending
	s.pending = nil
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	for _, evt := range flush {
		s.emitEvent(evt.name, evt.payload)
	}
	s.emitEvent("state", snapshot)

	if finished {
		if Manager != nil {
			Manager.SaveFinalSession(s)
		}
		s.emitEvent("game_over", map[string]interface{}{
			"score": snapshot["score"],
			"level": snapshot["level"],
		})
	}
}

// loseLifeLocked takes a life and respawns, or finishes the run. Returns
// true when the game just ended. Caller holds the lock.
func (s *GameSession) loseLifeLocked(now time.Time) bool {
	s.Lives--
	s.LastActivity = now
	log.Printf("[SESSION] %s ball lost, %d lives left", s.ID, s.Lives)

	if s.Lives > 0 {
		s.leftTarget, s.rightTarget = 0, 0
		s.director.RespawnBall()
		s.queueLocked("life_lost", map[string]interface{}{"lives": s.Lives})
		return false
	}

	s.Status = StatusCompleted
	s.CompletedAt = &now
	if s.cancel != nil {
		s.cancel()
	}
	log.Printf("[SESSION] %s game over, final score %d on level %d", s.ID, s.Score, s.LevelNumber)
	return true
}

// moveBarLocked chases the normalized input targets at the rise speed.
// Caller holds the lock.
func (s *GameSession) moveBarLocked(dt time.Duration) {
	bar := s.director.Bar()
	if bar == nil {
		return
	}
	span := bar.MaxHeight - bar.MinHeight
	targetLeft := bar.MinHeight + s.leftTarget*span
	targetRight := bar.MinHeight + s.rightTarget*span

	maxStep := BarRiseSpeed * dt.Seconds()
	bar.SetHeights(
		approach(bar.LeftHeight, targetLeft, maxStep),
		approach(bar.RightHeight, targetRight, maxStep),
	)
}

func approach(current, target, maxStep float64) float64 {
	diff := target - current
	if diff > maxStep {
		return current + maxStep
	}
	if diff < -maxStep {
		return current - maxStep
	}
	return target
}

// SetBarInput sets the normalized (0..1) height targets for the two bar
// ends. Values outside the range are clamped.
func (s *GameSession) SetBarInput(left, right float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leftTarget = clamp01(left)
	s.rightTarget = clamp01(right)
	s.LastActivity = time.Now()
}

func clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Concede ends the run immediately at the current score.
func (s *GameSession) Concede() {
	s.mu.Lock()
	if s.Status != StatusInProgress && s.Status != StatusWaiting {
		s.mu.Unlock()
		return
	}
	now := time.Now()
	s.Status = StatusCompleted
	s.CompletedAt = &now
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	log.Printf("[SESSION] %s conceded at score %d", s.ID, s.Score)
	if Manager != nil {
		Manager.SaveFinalSession(s)
	}
}

// Expire marks an abandoned session expired and stops its loop.
func (s *GameSession) Expire() {
	s.mu.Lock()
	if s.Status == StatusCompleted || s.Status == StatusExpired {
		s.mu.Unlock()
		return
	}
	now := time.Now()
	s.Status = StatusExpired
	s.CompletedAt = &now
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	log.Printf("[SESSION] %s expired", s.ID)
	if Manager != nil {
		Manager.SaveFinalSession(s)
	}
}

// SetPlayerConnected updates the connection flag.
func (s *GameSession) SetPlayerConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Player.Connected = connected
	if connected {
		s.Player.DisconnectedAt = nil
	} else {
		now := time.Now()
		s.Player.DisconnectedAt = &now
	}
}

// IsIdleSince reports whether the session has seen no activity since the
// cutoff.
func (s *GameSession) IsIdleSince(cutoff time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status == StatusInProgress && s.LastActivity.Before(cutoff)
}

// Snapshot returns the full client-facing state.
func (s *GameSession) Snapshot() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *GameSession) snapshotLocked() map[string]interface{} {
	ball := s.director.Ball()
	bar := s.director.Bar()
	lvl := s.director.Level()

	var barState map[string]interface{}
	if bar != nil {
		barState = map[string]interface{}{
			"left_height":  bar.LeftHeight,
			"right_height": bar.RightHeight,
			"rotation":     bar.Rotation(),
		}
	}

	return map[string]interface{}{
		"session_id": s.ID,
		"token":      s.Token,
		"status":     s.Status,
		"score":      s.Score,
		"lives":      s.Lives,
		"level":      s.LevelNumber,
		"ball": map[string]interface{}{
			"position": ball.Position,
			"velocity": ball.Velocity,
			"radius":   ball.Radius,
			"rolling":  ball.RollingOnBar,
		},
		"bar":    barState,
		"holes":  lvl.HoleStates(),
		"bounds": lvl.Bounds,
	}
}
