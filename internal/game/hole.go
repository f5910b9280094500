package game

import (
	"math"

	"github.com/tiltbar/backend/internal/physics"
)

// Hole behavior kinds. A power-up hole additionally enters saucer mode when
// it captures the ball; the saucer episode supersedes the base behavior and
// ends with the hole's removal.
type HoleBehavior string

const (
	BehaviorStatic  HoleBehavior = "static"
	BehaviorMoving  HoleBehavior = "moving"
	BehaviorCycling HoleBehavior = "cycling"
)

// Hole is one playfield hole. Exactly one of Mover/Cycle is set for the
// moving/cycling behaviors; Saucer is set only while a power-up hole holds
// the ball.
type Hole struct {
	ID        int          `json:"id"`
	Position  physics.Vec2 `json:"position"`
	Radius    float64      `json:"radius"`
	IsGoal    bool         `json:"is_goal"`
	IsPowerUp bool         `json:"is_power_up"`
	Completed bool         `json:"completed"`
	Behavior  HoleBehavior `json:"behavior"`

	Mover  *MoverState  `json:"mover,omitempty"`
	Cycle  *CycleState  `json:"cycle,omitempty"`
	Saucer *SaucerState `json:"saucer,omitempty"`
}

// HoleState is a point-in-time copy of one hole for snapshots. It carries
// values only, so marshaling it on another goroutine never races the
// simulation loop mutating the live hole.
type HoleState struct {
	ID        int          `json:"id"`
	Position  physics.Vec2 `json:"position"`
	Radius    float64      `json:"radius"`
	IsGoal    bool         `json:"is_goal"`
	IsPowerUp bool         `json:"is_power_up"`
	Completed bool         `json:"completed"`
	Behavior  HoleBehavior `json:"behavior"`
	Active    bool         `json:"active"`
	Scale     float64      `json:"scale"`
	SinkDepth float64      `json:"sink_depth,omitempty"`
}

// State copies the hole's render-relevant fields.
func (h *Hole) State() HoleState {
	st := HoleState{
		ID:        h.ID,
		Position:  h.Position,
		Radius:    h.Radius,
		IsGoal:    h.IsGoal,
		IsPowerUp: h.IsPowerUp,
		Completed: h.Completed,
		Behavior:  h.Behavior,
		Active:    h.Active(),
		Scale:     h.Scale(),
	}
	if h.Saucer != nil {
		st.SinkDepth = h.Saucer.SinkDepth
	}
	return st
}

// Active reports whether the hole currently takes part in goal/fall-in
// collision testing. A completed goal is permanently excluded; a capturing
// saucer and a cycler outside its idle phase are excluded for the duration.
func (h *Hole) Active() bool {
	if h.Completed {
		return false
	}
	if h.Saucer != nil {
		return false
	}
	if h.Cycle != nil && h.Cycle.Phase != CycleIdle {
		return false
	}
	return true
}

// Scale returns the render scale of the hole, 1 except while a cycler is
// animating.
func (h *Hole) Scale() float64 {
	if h.Cycle != nil {
		return h.Cycle.Scale
	}
	return 1
}

// swallows reports whether a ball at the given position falls into this
// hole: the ball center must be well inside the rim.
func (h *Hole) swallows(ballPos physics.Vec2, ballRadius float64) bool {
	threshold := h.Radius - ballRadius*0.25
	if threshold <= 0 {
		return false
	}
	return h.Position.DistanceTo(ballPos) < threshold
}

// easeOutBack overshoots past 1 before settling, giving cycling holes their
// pop-in feel.
func easeOutBack(t float64) float64 {
	const s = 1.70158
	t -= 1
	return 1 + (s+1)*t*t*t + s*t*t
}

// easeInQuad accelerates from zero, used for the cycling hole's exit.
func easeInQuad(t float64) float64 {
	return t * t
}

// smoothstep is the standard 3t²-2t³ ramp on [0,1].
func smoothstep(t float64) float64 {
	t = math.Max(0, math.Min(1, t))
	return t * t * (3 - 2*t)
}
