package physics

import (
	"math"
	"time"
)

// HeldFunc reports whether the body with the given id is currently possessed
// (its normal integration suspended). HeldTargetFunc supplies the position a
// possessed body is steered toward; the second return is false when no target
// exists. Both are supplied by the level director; the engine only asks.
type HeldFunc func(id string) bool
type HeldTargetFunc func(id string) (Vec2, bool)

// AudioHook observes collision impacts. Purely observational: it can never
// affect the simulation, and it is rate-limited per (body, kind) pair.
type AudioHook func(bodyID, kind string, speed float64)

type audioKey struct {
	bodyID string
	kind   string
}

// Engine is the fixed-timestep Verlet simulation core. It is not safe for
// concurrent use: the owning session goroutine is the only writer, and
// external readers consume snapshots taken after a tick completes.
type Engine struct {
	bodies      []*Body
	byID        map[string]*Body
	constraints []Constraint
	manifolds   []Manifold

	gravity       Vec2
	airResistance float64
	bounds        Vec2
	bar           *Bar

	heldFn       HeldFunc
	heldTargetFn HeldTargetFunc

	audioHook AudioHook
	audioLast map[audioKey]time.Time

	dt float64 // current tick duration in seconds
}

// NewEngine creates an engine with default gravity, air resistance and the
// given simulation bounds.
func NewEngine(width, height float64) *Engine {
	return &Engine{
		byID:          make(map[string]*Body),
		gravity:       Vec2{X: 0, Y: DefaultGravityY},
		airResistance: DefaultAirResistance,
		bounds:        Vec2{X: width, Y: height},
		audioLast:     make(map[audioKey]time.Time),
		dt:            1.0 / 60.0,
	}
}

// CreateBody builds a body and adds it to the store.
func (e *Engine) CreateBody(id string, position Vec2, radius, mass, restitution, friction float64, static bool) *Body {
	b := NewBody(id, position, radius, mass, restitution, friction, static)
	e.AddBody(b)
	return b
}

// AddBody registers a body. Re-adding an existing id replaces the old body.
func (e *Engine) AddBody(b *Body) {
	if b == nil || b.ID == "" {
		return
	}
	if _, exists := e.byID[b.ID]; exists {
		e.RemoveBody(b.ID)
	}
	e.bodies = append(e.bodies, b)
	e.byID[b.ID] = b
}

// RemoveBody removes a body by id. Unknown ids are a no-op.
func (e *Engine) RemoveBody(id string) {
	b, ok := e.byID[id]
	if !ok {
		return
	}
	delete(e.byID, id)
	for i, other := range e.bodies {
		if other == b {
			e.bodies = append(e.bodies[:i], e.bodies[i+1:]...)
			break
		}
	}
}

// GetBody returns the body with the given id, or nil.
func (e *Engine) GetBody(id string) *Body {
	return e.byID[id]
}

// Bodies returns the live body slice. Callers must not mutate it.
func (e *Engine) Bodies() []*Body {
	return e.bodies
}

// AddConstraint appends a constraint to the solve list.
func (e *Engine) AddConstraint(c Constraint) {
	e.constraints = append(e.constraints, c)
}

// ClearConstraints drops every constraint.
func (e *Engine) ClearConstraints() {
	e.constraints = e.constraints[:0]
}

// Manifolds returns the collisions detected during the most recent tick.
func (e *Engine) Manifolds() []Manifold {
	return e.manifolds
}

// SetGravity replaces the gravity vector. Non-finite components are zeroed.
func (e *Engine) SetGravity(x, y float64) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		x = 0
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		y = 0
	}
	e.gravity = Vec2{X: x, Y: y}
}

// SetAirResistance clamps the damping multiplier into (0, 1].
func (e *Engine) SetAirResistance(r float64) {
	e.airResistance = clamp(r, 0.001, 1)
}

// SetBounds clamps the simulation bounds to be at least 1x1.
func (e *Engine) SetBounds(width, height float64) {
	if math.IsNaN(width) || width < 1 {
		width = 1
	}
	if math.IsNaN(height) || height < 1 {
		height = 1
	}
	e.bounds = Vec2{X: width, Y: height}
}

// Bounds returns the current simulation bounds.
func (e *Engine) Bounds() Vec2 {
	return e.bounds
}

// SetBar installs the tilting-bar geometry used for bar-contact resolution.
func (e *Engine) SetBar(b *Bar) {
	e.bar = b
}

// Bar returns the installed bar, or nil.
func (e *Engine) Bar() *Bar {
	return e.bar
}

// SetHeldFunc installs the possession predicate. Passing nil restores the
// default (nothing held).
func (e *Engine) SetHeldFunc(fn HeldFunc) {
	e.heldFn = fn
}

// SetHeldTargetFunc installs the possession target supplier.
func (e *Engine) SetHeldTargetFunc(fn HeldTargetFunc) {
	e.heldTargetFn = fn
}

// SetCollisionAudioHook installs the audio observer. The hook fires at most
// once per rate-limit window per (body, collision kind) pair.
func (e *Engine) SetCollisionAudioHook(fn AudioHook) {
	e.audioHook = fn
}

func (e *Engine) isHeld(id string) bool {
	return e.heldFn != nil && e.heldFn(id)
}

func (e *Engine) heldTarget(id string) (Vec2, bool) {
	if e.heldTargetFn == nil {
		return Vec2{}, false
	}
	return e.heldTargetFn(id)
}

func (e *Engine) emitAudio(bodyID, kind string, speed float64) {
	if e.audioHook == nil {
		return
	}
	key := audioKey{bodyID: bodyID, kind: kind}
	now := time.Now()
	if last, ok := e.audioLast[key]; ok && now.Sub(last) < AudioRateLimitWindow {
		return
	}
	e.audioLast[key] = now
	e.audioHook(bodyID, kind, speed)
}

// Step advances the simulation by one fixed slice of dtMs milliseconds. The
// caller owns the accumulator; Step assumes dtMs is already the fixed
// interval. Malformed input degrades to the nominal 60 Hz slice — the step
// never fails and never panics.
func (e *Engine) Step(dtMs float64) {
	if math.IsNaN(dtMs) || dtMs <= 0 {
		dtMs = 1000.0 / 60.0
	}
	dt := dtMs / 1000.0
	e.dt = dt

	// Transient state from the previous tick is discarded wholesale.
	e.manifolds = e.manifolds[:0]
	for _, b := range e.bodies {
		b.RollingOnBar = false
	}

	e.integrate(dt)
	e.solveConstraints()
	e.detectAndResolveBodies()
	for _, b := range e.bodies {
		e.resolveBarContact(b, dt)
	}
	for _, b := range e.bodies {
		e.clampToBounds(b)
	}

	// Reconstruct the cached per-second velocity for external readers.
	for _, b := range e.bodies {
		b.Velocity = b.Position.Minus(b.PreviousPosition).Times(1 / dt)
	}
}

// integrate advances every non-static body. Held bodies are steered toward
// their possession target instead of integrating; their previous position is
// snapped to the current one so the integrator infers no velocity while held.
func (e *Engine) integrate(dt float64) {
	for _, b := range e.bodies {
		if b.Static {
			continue
		}

		if e.isHeld(b.ID) {
			if target, ok := e.heldTarget(b.ID); ok {
				b.Position = b.Position.Lerp(target, HeldSmoothing)
			}
			b.PreviousPosition = b.Position
			continue
		}

		// Verlet: implied velocity damped by air resistance, gravity applied
		// undamped.
		vel := b.Position.Minus(b.PreviousPosition)
		next := b.Position.
			Plus(vel.Times(e.airResistance)).
			Plus(e.gravity.Times(dt * dt))
		b.PreviousPosition = b.Position
		b.Position = next
	}
}
