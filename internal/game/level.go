package game

import (
	"time"

	"github.com/tiltbar/backend/internal/physics"
)

// EventKind tags externally observable hole-lifecycle signals (sound effect
// triggers, captures).
type EventKind string

const (
	EventHoleAppear    EventKind = "hole_appear"
	EventHoleDisappear EventKind = "hole_disappear"
	EventSaucerCapture EventKind = "saucer_capture"
	EventSaucerEject   EventKind = "saucer_eject"
)

// Event is one queued lifecycle signal.
type Event struct {
	Kind   EventKind `json:"kind"`
	HoleID int       `json:"hole_id"`
}

// Level layout tuning.
const (
	// HoleBuffer is the extra clearance a moving hole keeps from every other
	// active hole on top of the radii sum.
	HoleBuffer = 6.0

	// FallOffThreshold is the distance from the floor below which the ball
	// counts as fallen off the playfield.
	FallOffThreshold = 20.0

	holeRadius       = 14.0
	goalRadius       = 16.0
	edgeMargin       = 40.0
	placementRetries = 40
)

// Level owns the hole list for one playfield and the per-hole state machines.
// It is driven synchronously from the session tick; nothing in here blocks or
// schedules callbacks — all waiting is elapsed-wall-clock comparison.
type Level struct {
	Number int          `json:"number"`
	Holes  []*Hole      `json:"holes"`
	Bounds physics.Vec2 `json:"bounds"`

	rng      *Rand
	lastMove time.Time
	events   []Event
	nextID   int
}

// NewLevel generates a random layout: one goal hole near the top, a field of
// plain holes (some moving, some cycling as the level number grows) and a
// power-up hole from level two on.
func NewLevel(number int, bounds physics.Vec2, rng *Rand) *Level {
	lvl := &Level{
		Number: number,
		Bounds: bounds,
		rng:    rng,
	}

	// Goal hole near the top edge.
	goal := lvl.placeHole(goalRadius, edgeMargin, 90)
	goal.IsGoal = true

	plain := 4 + number
	if plain > 12 {
		plain = 12
	}
	movers := number / 2
	if movers > 3 {
		movers = 3
	}
	cyclers := 0
	if number >= 2 {
		cyclers = 1 + number/3
		if cyclers > 3 {
			cyclers = 3
		}
	}

	for i := 0; i < plain; i++ {
		h := lvl.placeHole(holeRadius, 130, bounds.Y-150)
		switch {
		case i < movers:
			h.Behavior = BehaviorMoving
			span := rng.Range(60, 140)
			min := h.Position.X - span
			max := h.Position.X + span
			if min < edgeMargin {
				min = edgeMargin
			}
			if max > bounds.X-edgeMargin {
				max = bounds.X - edgeMargin
			}
			h.Mover = NewMoverState(true, min, max, h.Position.X)
		case i < movers+cyclers:
			h.Behavior = BehaviorCycling
			h.Cycle = NewCycleState(time.Now(), rng)
		}
	}

	if number >= 2 {
		p := lvl.placeHole(holeRadius, 130, bounds.Y-150)
		p.IsPowerUp = true
	}

	return lvl
}

// placeHole finds a random spot inside the vertical band [yMin, yMax] that
// does not crowd an existing hole, appends the hole and returns it. After the
// retry budget it takes whatever position was last drawn; overlapping holes
// are ugly but harmless, and the mover collision check keeps them apart at
// runtime.
func (lvl *Level) placeHole(radius, yMin, yMax float64) *Hole {
	var pos physics.Vec2
	for i := 0; i < placementRetries; i++ {
		pos = physics.NewVec2(
			lvl.rng.Range(edgeMargin, lvl.Bounds.X-edgeMargin),
			lvl.rng.Range(yMin, yMax),
		)
		if !lvl.positionCrowded(pos, radius) {
			break
		}
	}
	h := &Hole{
		ID:       lvl.nextID,
		Position: pos,
		Radius:   radius,
		Behavior: BehaviorStatic,
	}
	lvl.nextID++
	lvl.Holes = append(lvl.Holes, h)
	return h
}

func (lvl *Level) positionCrowded(pos physics.Vec2, radius float64) bool {
	for _, other := range lvl.Holes {
		if pos.DistanceTo(other.Position) < radius+other.Radius+HoleBuffer*3 {
			return true
		}
	}
	return false
}

// HoleByID returns the hole with the given id, or nil.
func (lvl *Level) HoleByID(id int) *Hole {
	for _, h := range lvl.Holes {
		if h.ID == id {
			return h
		}
	}
	return nil
}

// holeWouldCollide reports whether moving h to candidate would bring it
// within the buffer distance of any other active hole.
func (lvl *Level) holeWouldCollide(h *Hole, candidate physics.Vec2) bool {
	for _, other := range lvl.Holes {
		if other == h || !other.Active() {
			continue
		}
		minSep := h.Radius + other.Radius + HoleBuffer
		if candidate.DistanceTo(other.Position) < minSep {
			return true
		}
	}
	return false
}

// CheckGoalReached reports whether the ball has fallen into an active,
// uncompleted goal hole.
func (lvl *Level) CheckGoalReached(ballPos physics.Vec2, ballRadius float64) bool {
	return lvl.GoalHoleAt(ballPos, ballRadius) != nil
}

// GoalHoleAt returns the goal hole swallowing the ball, or nil.
func (lvl *Level) GoalHoleAt(ballPos physics.Vec2, ballRadius float64) *Hole {
	for _, h := range lvl.Holes {
		if h.IsGoal && h.Active() && h.swallows(ballPos, ballRadius) {
			return h
		}
	}
	return nil
}

// CheckHoleFallIn returns the non-goal hole the ball has fallen into, or nil.
// Holes mid-saucer, non-idle cyclers and completed holes never match; Active
// covers all three.
func (lvl *Level) CheckHoleFallIn(ballPos physics.Vec2, ballRadius float64) *Hole {
	for _, h := range lvl.Holes {
		if h.IsGoal || !h.Active() {
			continue
		}
		if h.swallows(ballPos, ballRadius) {
			return h
		}
	}
	return nil
}

// CheckBoundaryFallOff reports whether the ball has dropped to the floor
// zone below the bar.
func (lvl *Level) CheckBoundaryFallOff(ballPos physics.Vec2, bounds physics.Vec2) bool {
	return ballPos.Y >= bounds.Y-FallOffThreshold
}

// CompleteGoal permanently retires a goal hole from collision testing.
func (lvl *Level) CompleteGoal(holeID int) {
	if h := lvl.HoleByID(holeID); h != nil && h.IsGoal {
		h.Completed = true
	}
}

// RemainingGoals counts goal holes not yet completed.
func (lvl *Level) RemainingGoals() int {
	n := 0
	for _, h := range lvl.Holes {
		if h.IsGoal && !h.Completed {
			n++
		}
	}
	return n
}

// StartSaucerCapture begins a saucer episode on a power-up hole. Unknown
// holes and holes already capturing are no-ops.
func (lvl *Level) StartSaucerCapture(holeID int, ballID string, now time.Time) {
	h := lvl.HoleByID(holeID)
	if h == nil || !h.IsPowerUp || h.Saucer != nil {
		return
	}
	h.Saucer = NewSaucerState(ballID, now, lvl.rng)
	lvl.events = append(lvl.events, Event{Kind: EventSaucerCapture, HoleID: holeID})
}

// AdvanceSaucerStates drives every capturing saucer one step. When an eject
// completes, the hole is removed from the level (power-up holes are
// one-shot) and the kick result is returned for the director to apply.
func (lvl *Level) AdvanceSaucerStates(now time.Time) *SaucerEject {
	for i, h := range lvl.Holes {
		if h.Saucer == nil {
			continue
		}
		if eject := h.Saucer.advance(h.ID, now); eject != nil {
			lvl.Holes = append(lvl.Holes[:i], lvl.Holes[i+1:]...)
			lvl.events = append(lvl.events, Event{Kind: EventSaucerEject, HoleID: h.ID})
			return eject
		}
	}
	return nil
}

// AdvanceAnimatedHoles drives every cycling hole's phase loop.
func (lvl *Level) AdvanceAnimatedHoles(now time.Time) {
	for _, h := range lvl.Holes {
		if h.Cycle == nil || h.Saucer != nil {
			continue
		}
		if kind := h.Cycle.advance(now, lvl.rng); kind != "" {
			lvl.events = append(lvl.events, Event{Kind: kind, HoleID: h.ID})
		}
	}
}

// AdvanceMovingHoles drives every oscillating hole. The tick dt is derived
// from the previous call's wall-clock time.
func (lvl *Level) AdvanceMovingHoles(now time.Time) {
	if lvl.lastMove.IsZero() {
		lvl.lastMove = now
		return
	}
	dt := now.Sub(lvl.lastMove)
	lvl.lastMove = now
	if dt <= 0 {
		return
	}

	for _, h := range lvl.Holes {
		if h.Mover == nil || h.Saucer != nil {
			continue
		}
		h.Mover.advance(h, lvl, now, dt)
	}
}

// HoleStates copies every hole into a value slice for snapshots.
func (lvl *Level) HoleStates() []HoleState {
	states := make([]HoleState, len(lvl.Holes))
	for i, h := range lvl.Holes {
		states[i] = h.State()
	}
	return states
}

// DrainEvents returns and clears the queued lifecycle events.
func (lvl *Level) DrainEvents() []Event {
	evts := lvl.events
	lvl.events = nil
	return evts
}
