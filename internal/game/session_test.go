package game

import (
	"math"
	"testing"
	"time"
)

func newTestSession() *GameSession {
	cfg := DefaultDirectorConfig()
	cfg.Seed = 42
	return NewGameSession("run_test", "tok_test", "p_test", "", "pt_test", 0, "Tester", cfg)
}

func TestNewSessionStartsWaiting(t *testing.T) {
	s := newTestSession()
	if s.Status != StatusWaiting {
		t.Errorf("status = %s, want %s", s.Status, StatusWaiting)
	}
	if s.Lives != StartingLives {
		t.Errorf("lives = %d, want %d", s.Lives, StartingLives)
	}
	if s.LevelNumber != 1 {
		t.Errorf("level = %d, want 1", s.LevelNumber)
	}
	if s.Player.PlayerToken != "pt_test" {
		t.Errorf("player token = %q", s.Player.PlayerToken)
	}
}

func TestBarInputClamped(t *testing.T) {
	s := newTestSession()

	s.SetBarInput(-0.5, 1.7)
	if s.leftTarget != 0 || s.rightTarget != 1 {
		t.Errorf("targets = (%v, %v), want clamped (0, 1)", s.leftTarget, s.rightTarget)
	}

	s.SetBarInput(math.NaN(), 0.5)
	if s.leftTarget != 0 {
		t.Errorf("NaN input produced target %v, want 0", s.leftTarget)
	}
	if s.rightTarget != 0.5 {
		t.Errorf("right target = %v, want 0.5", s.rightTarget)
	}
}

func TestBarChasesTargetAtRiseSpeed(t *testing.T) {
	s := newTestSession()
	bar := s.director.Bar()

	s.SetBarInput(1, 0.5)
	s.mu.Lock()
	s.moveBarLocked(100 * time.Millisecond)
	s.mu.Unlock()

	// 100ms at 220 u/s moves each end 22 units toward its target.
	if math.Abs(bar.LeftHeight-22) > 1e-9 {
		t.Errorf("left height = %v after 100ms, want 22", bar.LeftHeight)
	}
	if math.Abs(bar.RightHeight-22) > 1e-9 {
		t.Errorf("right height = %v after 100ms, want 22", bar.RightHeight)
	}

	// A long tick lands exactly on the target, never past it.
	s.mu.Lock()
	s.moveBarLocked(10 * time.Second)
	s.mu.Unlock()
	if bar.LeftHeight != bar.MaxHeight {
		t.Errorf("left height = %v, want max %v", bar.LeftHeight, bar.MaxHeight)
	}
	wantRight := bar.MinHeight + 0.5*(bar.MaxHeight-bar.MinHeight)
	if bar.RightHeight != wantRight {
		t.Errorf("right height = %v, want %v", bar.RightHeight, wantRight)
	}
}

func TestApproachClampsStep(t *testing.T) {
	if got := approach(0, 100, 10); got != 10 {
		t.Errorf("approach up = %v, want 10", got)
	}
	if got := approach(100, 0, 10); got != 90 {
		t.Errorf("approach down = %v, want 90", got)
	}
	if got := approach(95, 100, 10); got != 100 {
		t.Errorf("approach landing = %v, want 100", got)
	}
}

func TestLoseLifeRespawnsUntilGameOver(t *testing.T) {
	s := newTestSession()
	s.mu.Lock()
	s.Status = StatusInProgress
	s.mu.Unlock()

	now := time.Now()

	s.mu.Lock()
	finished := s.loseLifeLocked(now)
	s.mu.Unlock()
	if finished {
		t.Fatal("first life loss ended the game")
	}
	if s.Lives != StartingLives-1 {
		t.Errorf("lives = %d, want %d", s.Lives, StartingLives-1)
	}

	s.mu.Lock()
	s.loseLifeLocked(now)
	finished = s.loseLifeLocked(now)
	s.mu.Unlock()
	if !finished {
		t.Fatal("final life loss did not end the game")
	}
	if s.Status != StatusCompleted {
		t.Errorf("status = %s, want %s", s.Status, StatusCompleted)
	}
	if s.CompletedAt == nil {
		t.Error("completed_at not set")
	}
}

func TestStepEmitsEventsAfterUnlock(t *testing.T) {
	s := newTestSession()

	var events []string
	s.SetEmitter(func(event string, payload map[string]interface{}) {
		events = append(events, event)
	})

	now := time.Now()
	s.mu.Lock()
	s.Status = StatusInProgress
	s.lastTick = now
	s.mu.Unlock()

	s.step(now.Add(tickInterval))

	if len(events) == 0 {
		t.Fatal("step emitted nothing")
	}
	if events[len(events)-1] != "state" {
		t.Errorf("last event = %q, want the state frame", events[len(events)-1])
	}
}

func TestSnapshotCarriesRenderState(t *testing.T) {
	s := newTestSession()
	snap := s.Snapshot()

	for _, key := range []string{"session_id", "token", "status", "score", "lives", "level", "ball", "bar", "holes", "bounds"} {
		if _, ok := snap[key]; !ok {
			t.Errorf("snapshot missing %q", key)
		}
	}
	if snap["lives"] != StartingLives {
		t.Errorf("snapshot lives = %v, want %d", snap["lives"], StartingLives)
	}

	ball, ok := snap["ball"].(map[string]interface{})
	if !ok {
		t.Fatal("snapshot ball is not a map")
	}
	if _, ok := ball["position"]; !ok {
		t.Error("ball snapshot missing position")
	}
}

func TestSnapshotHolesAreDetachedCopies(t *testing.T) {
	s := newTestSession()
	snap := s.Snapshot()

	holes, ok := snap["holes"].([]HoleState)
	if !ok {
		t.Fatalf("snapshot holes have type %T, want []HoleState", snap["holes"])
	}
	if len(holes) == 0 {
		t.Fatal("snapshot carries no holes")
	}

	// The snapshot is marshaled on other goroutines after the lock is
	// released; moving the live hole must not move the copy.
	before := holes[0].Position
	s.director.Level().Holes[0].Position.X += 50
	if holes[0].Position != before {
		t.Error("snapshot hole moved with the live hole")
	}
}

func TestConcedeEndsSession(t *testing.T) {
	s := newTestSession()
	s.Concede()
	if s.Status != StatusCompleted {
		t.Errorf("status = %s after concede, want %s", s.Status, StatusCompleted)
	}

	// A finished session cannot be restarted.
	s.Start()
	if s.Status != StatusCompleted {
		t.Errorf("status = %s after start on finished session, want %s", s.Status, StatusCompleted)
	}
}

func TestExpireOnlyTouchesLiveSessions(t *testing.T) {
	s := newTestSession()
	s.Expire()
	if s.Status != StatusExpired {
		t.Errorf("status = %s, want %s", s.Status, StatusExpired)
	}

	done := newTestSession()
	done.Concede()
	done.Expire()
	if done.Status != StatusCompleted {
		t.Errorf("completed session re-marked as %s by expire", done.Status)
	}
}

func TestIsIdleSince(t *testing.T) {
	s := newTestSession()
	cutoff := time.Now().Add(time.Minute)

	// Waiting sessions are never idle-reaped by activity.
	if s.IsIdleSince(cutoff) {
		t.Error("waiting session reported idle")
	}

	s.mu.Lock()
	s.Status = StatusInProgress
	s.LastActivity = time.Now().Add(-2 * time.Minute)
	s.mu.Unlock()
	if !s.IsIdleSince(time.Now().Add(-time.Minute)) {
		t.Error("stale in-progress session not reported idle")
	}
	s.SetBarInput(0.5, 0.5)
	if s.IsIdleSince(time.Now().Add(-time.Minute)) {
		t.Error("freshly active session reported idle")
	}
}
