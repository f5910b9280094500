package game

import (
	"testing"
	"time"

	"github.com/tiltbar/backend/internal/physics"
)

const testTickMs = 1000.0 / 60.0

func newTestDirector(t *testing.T, holes ...*Hole) *Director {
	t.Helper()
	cfg := DefaultDirectorConfig()
	cfg.Seed = 42
	d := NewDirector(1, cfg)
	// Replace the generated layout so each test controls the geometry.
	d.level = &Level{Number: 1, Bounds: cfg.Bounds, Holes: holes, rng: NewRand(42)}
	return d
}

func TestDirectorBallSpawnsOnBar(t *testing.T) {
	cfg := DefaultDirectorConfig()
	cfg.Seed = 7
	d := NewDirector(1, cfg)

	bar := d.Bar()
	if bar == nil {
		t.Fatal("no bar installed")
	}
	ball := d.Ball()
	left := bar.LeftEnd()
	if ball.Position.X != left.X+40 {
		t.Errorf("ball x = %v, want %v", ball.Position.X, left.X+40)
	}
	if ball.Position.Y >= left.Y {
		t.Errorf("ball y = %v, want above the bar surface at %v", ball.Position.Y, left.Y)
	}
}

func TestDirectorDetectsGoal(t *testing.T) {
	goal := &Hole{ID: 0, Position: vec(200, 100), Radius: goalRadius, IsGoal: true}
	d := newTestDirector(t, goal)
	d.ball.Teleport(vec(200, 100))

	out := d.Tick(time.Now(), testTickMs)
	if out.GoalHole != goal {
		t.Fatalf("outcome goal = %+v, want the goal hole", out.GoalHole)
	}
	if !goal.Completed {
		t.Error("goal hole not completed after detection")
	}
	if d.Level().RemainingGoals() != 0 {
		t.Errorf("remaining goals = %d, want 0", d.Level().RemainingGoals())
	}
}

func TestDirectorDetectsTrap(t *testing.T) {
	trap := &Hole{ID: 1, Position: vec(200, 200), Radius: holeRadius}
	d := newTestDirector(t, trap)
	d.ball.Teleport(vec(200, 200))

	out := d.Tick(time.Now(), testTickMs)
	if out.TrapHole != trap {
		t.Fatalf("outcome trap = %+v, want the trap hole", out.TrapHole)
	}
	if out.GoalHole != nil || out.FellOff {
		t.Errorf("trap tick also reported goal=%v felloff=%v", out.GoalHole, out.FellOff)
	}
}

func TestDirectorDetectsFallOff(t *testing.T) {
	d := newTestDirector(t)
	d.ball.Teleport(vec(100, d.cfg.Bounds.Y-5))

	out := d.Tick(time.Now(), testTickMs)
	if !out.FellOff {
		t.Errorf("ball at y=%v not reported fallen off", d.ball.Position.Y)
	}
}

func TestDirectorSaucerCaptureAndEject(t *testing.T) {
	power := &Hole{ID: 3, Position: vec(300, 300), Radius: holeRadius, IsPowerUp: true}
	d := newTestDirector(t, power)
	d.ball.Teleport(vec(300, 300))

	now := time.Now()
	out := d.Tick(now, testTickMs)
	if out.TrapHole != nil {
		t.Fatal("power-up fall-in reported as trap")
	}
	if power.Saucer == nil {
		t.Fatal("power-up hole did not start capturing")
	}
	if len(out.Events) != 1 || out.Events[0].Kind != EventSaucerCapture {
		t.Fatalf("capture tick events = %v, want one capture", out.Events)
	}

	// While held the ball is steered into the hole instead of integrating.
	for i := 0; i < 30; i++ {
		now = now.Add(tickInterval)
		d.Tick(now, testTickMs)
	}
	if d.ball.Position.DistanceTo(power.Position) > power.Radius {
		t.Errorf("held ball drifted to %+v, want near hole center %+v", d.ball.Position, power.Position)
	}

	// Run the episode out to the eject.
	var ejected *SaucerEject
	for i := 0; i < 600; i++ {
		now = now.Add(tickInterval)
		out = d.Tick(now, testTickMs)
		if out.Ejected != nil {
			ejected = out.Ejected
			break
		}
	}
	if ejected == nil {
		t.Fatal("saucer never ejected")
	}
	if ejected.BallID != BallID || ejected.HoleID != power.ID {
		t.Errorf("eject = %+v, want ball %q from hole %d", ejected, BallID, power.ID)
	}
	if d.Level().HoleByID(power.ID) != nil {
		t.Error("power-up hole survived its eject")
	}
	// The kick throws the ball up and to the left.
	if d.ball.Velocity.X >= 0 || d.ball.Velocity.Y >= 0 {
		t.Errorf("post-eject velocity %+v, want negative x and y", d.ball.Velocity)
	}
}

func TestDirectorAdvanceLevelResets(t *testing.T) {
	cfg := DefaultDirectorConfig()
	cfg.Seed = 42
	d := NewDirector(1, cfg)

	d.SetBarHeights(120, 200)
	d.ball.Teleport(vec(50, 50))

	d.AdvanceLevel(2)

	if d.Level().Number != 2 {
		t.Errorf("level number = %d, want 2", d.Level().Number)
	}
	bar := d.Bar()
	if bar.LeftHeight != bar.MinHeight || bar.RightHeight != bar.MinHeight {
		t.Errorf("bar heights = (%v, %v), want both at min %v", bar.LeftHeight, bar.RightHeight, bar.MinHeight)
	}
	if !d.ball.Position.IsEqualTo(d.spawnPosition()) {
		t.Errorf("ball at %+v after level advance, want spawn %+v", d.ball.Position, d.spawnPosition())
	}
	if d.ball.Velocity.X != 0 && d.ball.Velocity.Y != 0 {
		t.Errorf("respawned ball carries velocity %+v", d.ball.Velocity)
	}
}

func TestRespawnBallLowersRaisedBar(t *testing.T) {
	d := newTestDirector(t)
	d.SetBarHeights(120, 40)
	d.ball.Teleport(vec(400, 100))

	d.RespawnBall()

	bar := d.Bar()
	if bar.LeftHeight != bar.MinHeight || bar.RightHeight != bar.MinHeight {
		t.Errorf("bar heights = (%v, %v) after respawn, want both at min %v", bar.LeftHeight, bar.RightHeight, bar.MinHeight)
	}
	// The spawn point must be computed against the lowered bar: a raised
	// left end would place the ball that much higher, hanging mid-air.
	left := bar.LeftEnd()
	want := physics.NewVec2(left.X+40, left.Y-bar.SurfaceOffset(d.cfg.BallRadius))
	if !d.ball.Position.IsEqualTo(want) {
		t.Errorf("ball at %+v after respawn, want resting at %+v", d.ball.Position, want)
	}
}

func TestDirectorConfigDefaultsFill(t *testing.T) {
	d := NewDirector(1, DirectorConfig{Seed: 1})
	def := DefaultDirectorConfig()
	if !d.cfg.Bounds.IsEqualTo(def.Bounds) {
		t.Errorf("bounds = %+v, want default %+v", d.cfg.Bounds, def.Bounds)
	}
	if d.cfg.BallRadius != def.BallRadius {
		t.Errorf("ball radius = %v, want default %v", d.cfg.BallRadius, def.BallRadius)
	}
	if d.Bar() == nil {
		t.Error("default-filled director has no bar")
	}
}

func TestDirectorAudioHookForwarded(t *testing.T) {
	d := newTestDirector(t)
	var got []string
	d.SetCollisionAudioHook(func(bodyID, kind string, speed float64) {
		got = append(got, kind)
	})

	// Slam the ball into the floor region to force a wall contact.
	d.ball.Teleport(vec(100, d.cfg.Bounds.Y-d.ball.Radius-1))
	d.ball.SetImpliedVelocity(physics.NewVec2(0, 400*testTickMs/1000))

	for i := 0; i < 10; i++ {
		d.Tick(time.Now(), testTickMs)
	}
	if len(got) == 0 {
		t.Error("audio hook never fired on floor impact")
	}
}
