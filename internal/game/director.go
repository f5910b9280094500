package game

import (
	"time"

	"github.com/tiltbar/backend/internal/physics"
)

// BallID is the body id of the single player ball.
const BallID = "ball"

// saucerSinkOffset scales how far below the hole center the held ball is
// pulled as the sink animation deepens, in hole radii.
const saucerSinkOffset = 0.4

// DirectorConfig collects the tunables for one playfield. Zero values are
// replaced by the defaults from DefaultDirectorConfig.
type DirectorConfig struct {
	Bounds          physics.Vec2
	GravityY        float64
	AirResistance   float64
	BallRadius      float64
	BallMass        float64
	BallRestitution float64
	BallFriction    float64
	BarWidth        float64
	BarThickness    float64
	BarMinHeight    float64
	BarMaxHeight    float64
	BarFriction     float64
	Seed            int64
}

// DefaultDirectorConfig returns the stock playfield tuning.
func DefaultDirectorConfig() DirectorConfig {
	return DirectorConfig{
		Bounds:          physics.NewVec2(800, 600),
		GravityY:        physics.DefaultGravityY,
		AirResistance:   physics.DefaultAirResistance,
		BallRadius:      8,
		BallMass:        1,
		BallRestitution: 0.5,
		BallFriction:    0.1,
		BarWidth:        760,
		BarThickness:    10,
		BarMinHeight:    0,
		BarMaxHeight:    260,
		BarFriction:     0.05,
		Seed:            0,
	}
}

// Outcome reports what one tick did to the ball, beyond pure motion. At most
// one of GoalHole, TrapHole and FellOff is set.
type Outcome struct {
	GoalHole *Hole
	TrapHole *Hole
	FellOff  bool
	Ejected  *SaucerEject
	Events   []Event
}

// Director glues the physics engine to the hole lifecycle for one level. It
// owns the ball body, drives hole state machines before each physics step
// and classifies where the ball ended up after it. Not safe for concurrent
// use; the session serializes access.
type Director struct {
	cfg    DirectorConfig
	engine *physics.Engine
	level  *Level
	rng    *Rand
	ball   *physics.Body
}

// NewDirector builds a playfield at the given level number. The same seed
// reproduces the same hole layout and the same saucer kicks.
func NewDirector(levelNumber int, cfg DirectorConfig) *Director {
	def := DefaultDirectorConfig()
	if cfg.Bounds.X <= 0 || cfg.Bounds.Y <= 0 {
		cfg.Bounds = def.Bounds
	}
	if cfg.BallRadius <= 0 {
		cfg = fillDirectorDefaults(cfg, def)
	}

	var rng *Rand
	if cfg.Seed != 0 {
		rng = NewRand(cfg.Seed)
	} else {
		rng = NewTimeRand()
	}

	d := &Director{
		cfg: cfg,
		rng: rng,
	}

	d.engine = physics.NewEngine(cfg.Bounds.X, cfg.Bounds.Y)
	d.engine.SetGravity(0, cfg.GravityY)
	d.engine.SetAirResistance(cfg.AirResistance)

	barCenter := physics.NewVec2(cfg.Bounds.X/2, cfg.Bounds.Y-80)
	bar := physics.NewBar(barCenter, cfg.BarWidth, cfg.BarThickness, cfg.BarMinHeight, cfg.BarMaxHeight)
	bar.Friction = cfg.BarFriction
	d.engine.SetBar(bar)

	d.ball = d.engine.CreateBody(BallID, d.spawnPosition(), cfg.BallRadius, cfg.BallMass, cfg.BallRestitution, cfg.BallFriction, false)

	d.engine.SetHeldFunc(d.isBodyHeld)
	d.engine.SetHeldTargetFunc(d.heldTarget)

	d.level = NewLevel(levelNumber, cfg.Bounds, rng)
	return d
}

func fillDirectorDefaults(cfg, def DirectorConfig) DirectorConfig {
	cfg.GravityY = def.GravityY
	cfg.AirResistance = def.AirResistance
	cfg.BallRadius = def.BallRadius
	cfg.BallMass = def.BallMass
	cfg.BallRestitution = def.BallRestitution
	cfg.BallFriction = def.BallFriction
	cfg.BarWidth = def.BarWidth
	cfg.BarThickness = def.BarThickness
	cfg.BarMinHeight = def.BarMinHeight
	cfg.BarMaxHeight = def.BarMaxHeight
	cfg.BarFriction = def.BarFriction
	return cfg
}

// spawnPosition puts the ball resting on the left end of the bar.
func (d *Director) spawnPosition() physics.Vec2 {
	bar := d.engine.Bar()
	if bar == nil {
		return physics.NewVec2(d.cfg.Bounds.X/2, d.cfg.Bounds.Y/2)
	}
	left := bar.LeftEnd()
	return physics.NewVec2(left.X+40, left.Y-bar.SurfaceOffset(d.cfg.BallRadius))
}

// Tick advances hole state machines, steps the physics engine once and
// classifies the result. dtMs is the frame delta in milliseconds.
func (d *Director) Tick(now time.Time, dtMs float64) Outcome {
	var out Outcome

	d.level.AdvanceMovingHoles(now)
	d.level.AdvanceAnimatedHoles(now)

	if eject := d.level.AdvanceSaucerStates(now); eject != nil {
		d.applyEject(eject, dtMs)
		out.Ejected = eject
	}

	d.engine.Step(dtMs)

	held := d.isBodyHeld(BallID)
	if !held {
		switch {
		case d.level.CheckGoalReached(d.ball.Position, d.ball.Radius):
			goal := d.level.GoalHoleAt(d.ball.Position, d.ball.Radius)
			d.level.CompleteGoal(goal.ID)
			out.GoalHole = goal
		case d.level.CheckBoundaryFallOff(d.ball.Position, d.engine.Bounds()):
			out.FellOff = true
		default:
			if h := d.level.CheckHoleFallIn(d.ball.Position, d.ball.Radius); h != nil {
				if h.IsPowerUp {
					d.level.StartSaucerCapture(h.ID, BallID, now)
				} else {
					out.TrapHole = h
				}
			}
		}
	}

	out.Events = d.level.DrainEvents()
	return out
}

// applyEject converts the saucer kick (units per second) into a per-tick
// implied velocity and throws the ball clear of the vanished hole.
func (d *Director) applyEject(eject *SaucerEject, dtMs float64) {
	if dtMs <= 0 {
		dtMs = 1000.0 / 60.0
	}
	dt := dtMs / 1000.0
	d.ball.SetImpliedVelocity(eject.Direction.Times(eject.Force * dt))
}

func (d *Director) isBodyHeld(bodyID string) bool {
	return d.saucerHoleFor(bodyID) != nil
}

func (d *Director) heldTarget(bodyID string) (physics.Vec2, bool) {
	h := d.saucerHoleFor(bodyID)
	if h == nil {
		return physics.Vec2{}, false
	}
	sink := h.Saucer.SinkDepth * h.Radius * saucerSinkOffset
	return physics.NewVec2(h.Position.X, h.Position.Y+sink), true
}

func (d *Director) saucerHoleFor(bodyID string) *Hole {
	for _, h := range d.level.Holes {
		if h.Saucer != nil && h.Saucer.BallID == bodyID {
			return h
		}
	}
	return nil
}

// AdvanceLevel regenerates the hole layout for the given level number and
// respawns the ball. The engine, bar and ball body carry over.
func (d *Director) AdvanceLevel(levelNumber int) {
	d.level = NewLevel(levelNumber, d.cfg.Bounds, d.rng)
	d.RespawnBall()
}

// SetBarHeights clamps and applies the two end heights.
func (d *Director) SetBarHeights(left, right float64) {
	if bar := d.engine.Bar(); bar != nil {
		bar.SetHeights(left, right)
	}
}

// RespawnBall lowers the bar to its minimum and puts the ball back at the
// spawn point with zero velocity. The bar settles first: the spawn point
// sits on the bar surface, so computing it against a still-raised end would
// drop the ball mid-air.
func (d *Director) RespawnBall() {
	if bar := d.engine.Bar(); bar != nil {
		bar.SetHeights(bar.MinHeight, bar.MinHeight)
	}
	d.ball.Teleport(d.spawnPosition())
}

// SetCollisionAudioHook forwards the hook to the physics engine.
func (d *Director) SetCollisionAudioHook(hook physics.AudioHook) {
	d.engine.SetCollisionAudioHook(hook)
}

// Ball returns the player ball body.
func (d *Director) Ball() *physics.Body { return d.ball }

// Bar returns the tilting bar.
func (d *Director) Bar() *physics.Bar { return d.engine.Bar() }

// Level returns the current hole layout.
func (d *Director) Level() *Level { return d.level }

// Engine returns the underlying physics engine.
func (d *Director) Engine() *physics.Engine { return d.engine }
