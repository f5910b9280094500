package game

import (
	"testing"
	"time"

	"github.com/tiltbar/backend/internal/physics"
)

func newMoverLevel(holes ...*Hole) *Level {
	return &Level{
		Number: 1,
		Bounds: physics.NewVec2(800, 600),
		Holes:  holes,
		rng:    NewRand(1),
	}
}

func TestSegmentDurationInverseToDistance(t *testing.T) {
	// 200 units -> 1000ms from the scale constant.
	if d := segmentDurationFor(200); d != time.Second {
		t.Errorf("duration for 200 units = %v, want 1s", d)
	}
	// Tiny hops clamp to the slow end, huge hops to the fast end.
	if d := segmentDurationFor(10); d != moverMaxDuration {
		t.Errorf("duration for 10 units = %v, want max %v", d, moverMaxDuration)
	}
	if d := segmentDurationFor(1000); d != moverMinDuration {
		t.Errorf("duration for 1000 units = %v, want min %v", d, moverMinDuration)
	}
	if d := segmentDurationFor(0); d != moverMaxDuration {
		t.Errorf("duration for zero distance = %v, want max %v", d, moverMaxDuration)
	}
}

func TestMoverSwapsReversedBounds(t *testing.T) {
	m := NewMoverState(true, 300, 100, 100)
	if m.Min != 100 || m.Max != 300 {
		t.Errorf("bounds = [%v, %v], want [100, 300]", m.Min, m.Max)
	}
}

func TestMoverStartsAtSpawnCoordinate(t *testing.T) {
	// A hole spawned mid-span must oscillate from where it was placed, not
	// jump to the min bound on its first tick.
	h := &Hole{ID: 1, Position: physics.NewVec2(400, 300), Radius: 14, Behavior: BehaviorMoving}
	h.Mover = NewMoverState(true, 300, 500, 400)
	lvl := newMoverLevel(h)

	if h.Mover.Progress != 0.5 {
		t.Fatalf("initial progress = %v, want 0.5 for a mid-span spawn", h.Mover.Progress)
	}

	// 200-unit span is a 1s segment; a quarter segment moves 50 units.
	h.Mover.advance(h, lvl, time.Now(), 250*time.Millisecond)
	if h.Position.X != 450 {
		t.Errorf("hole x = %v after a quarter segment, want 450", h.Position.X)
	}
}

func TestMoverReversesAtBound(t *testing.T) {
	h := &Hole{ID: 1, Position: physics.NewVec2(100, 300), Radius: 14, Behavior: BehaviorMoving}
	h.Mover = NewMoverState(true, 100, 300, 100)
	lvl := newMoverLevel(h)

	now := time.Now()
	// One segment is 1s for a 200-unit span; a 2s tick overshoots the far
	// bound and must clamp there.
	h.Mover.advance(h, lvl, now, 2*time.Second)

	if h.Position.X != 300 {
		t.Errorf("hole x = %v, want clamped at 300", h.Position.X)
	}
	if h.Mover.Phase != MoverStopping {
		t.Errorf("phase = %s, want %s", h.Mover.Phase, MoverStopping)
	}
	if h.Mover.Direction != -1 {
		t.Errorf("direction = %v, want reversed to -1", h.Mover.Direction)
	}
	if !h.Mover.ResumeAt.Equal(now.Add(MoverPause)) {
		t.Errorf("resume at %v, want %v", h.Mover.ResumeAt, now.Add(MoverPause))
	}
}

func TestMoverHoldsDuringPause(t *testing.T) {
	h := &Hole{ID: 1, Position: physics.NewVec2(300, 300), Radius: 14, Behavior: BehaviorMoving}
	h.Mover = NewMoverState(true, 100, 300, 300)
	lvl := newMoverLevel(h)

	now := time.Now()
	h.Mover.enterStopping(now)

	h.Mover.advance(h, lvl, now.Add(MoverPause/2), MoverPause/2)
	if h.Position.X != 300 {
		t.Errorf("hole moved to x=%v during pause", h.Position.X)
	}
	if h.Mover.Phase != MoverStopping {
		t.Errorf("phase = %s during pause, want %s", h.Mover.Phase, MoverStopping)
	}

	// After the pause the hole resumes in the reversed direction.
	h.Mover.advance(h, lvl, now.Add(MoverPause+500*time.Millisecond), 500*time.Millisecond)
	if h.Mover.Phase != MoverMoving {
		t.Errorf("phase = %s after pause, want %s", h.Mover.Phase, MoverMoving)
	}
	if h.Position.X >= 300 {
		t.Errorf("hole x = %v after resume, want moving back below 300", h.Position.X)
	}
}

func TestMoverStopsInsteadOfOverlapping(t *testing.T) {
	mover := &Hole{ID: 1, Position: physics.NewVec2(100, 300), Radius: 14, Behavior: BehaviorMoving}
	mover.Mover = NewMoverState(true, 100, 300, 100)
	blocker := &Hole{ID: 2, Position: physics.NewVec2(150, 300), Radius: 14}
	lvl := newMoverLevel(mover, blocker)

	now := time.Now()
	// A quarter segment would land the mover dead on the blocker.
	mover.Mover.advance(mover, lvl, now, 250*time.Millisecond)

	if mover.Position.X != 100 {
		t.Errorf("hole x = %v, want unchanged at 100", mover.Position.X)
	}
	if mover.Mover.Phase != MoverStopping {
		t.Errorf("phase = %s, want %s after predicted overlap", mover.Mover.Phase, MoverStopping)
	}
	if mover.Mover.Direction != -1 {
		t.Errorf("direction = %v, want reversed away from the blocker", mover.Mover.Direction)
	}
}

func TestMoverIgnoresInactiveBlockers(t *testing.T) {
	mover := &Hole{ID: 1, Position: physics.NewVec2(100, 300), Radius: 14, Behavior: BehaviorMoving}
	mover.Mover = NewMoverState(true, 100, 300, 100)
	// A completed hole no longer blocks movement.
	blocker := &Hole{ID: 2, Position: physics.NewVec2(150, 300), Radius: 14, Completed: true}
	lvl := newMoverLevel(mover, blocker)

	mover.Mover.advance(mover, lvl, time.Now(), 250*time.Millisecond)
	if mover.Position.X != 150 {
		t.Errorf("hole x = %v, want 150 (inactive blocker ignored)", mover.Position.X)
	}
	if mover.Mover.Phase != MoverMoving {
		t.Errorf("phase = %s, want still %s", mover.Mover.Phase, MoverMoving)
	}
}
