package game

import (
	"time"

	"github.com/tiltbar/backend/internal/physics"
)

// MoverPhase is the moving hole's state.
type MoverPhase string

const (
	MoverMoving   MoverPhase = "moving"
	MoverStopping MoverPhase = "stopping"
)

// Mover tuning. Segment duration is inversely related to travel distance:
// short hops are slow, long hops are fast, which keeps the apparent pace of
// the playfield consistent.
const (
	MoverPause         = 400 * time.Millisecond
	moverDurationScale = 200_000.0 // ms·units
	moverMinDuration   = 800 * time.Millisecond
	moverMaxDuration   = 6 * time.Second
)

// MoverState drives a hole oscillating along one axis between two bounds.
type MoverState struct {
	Horizontal      bool          `json:"horizontal"`
	Min             float64       `json:"min"`
	Max             float64       `json:"max"`
	Direction       float64       `json:"direction"` // +1 or -1
	Phase           MoverPhase    `json:"phase"`
	Progress        float64       `json:"progress"` // 0..1 along Min->Max
	SegmentDuration time.Duration `json:"segment_duration"`
	ResumeAt        time.Time     `json:"-"`
}

// NewMoverState builds oscillation state for the given axis bounds. start is
// the hole's spawn coordinate on the travel axis; the oscillation begins from
// there rather than snapping to the min bound on the first tick.
func NewMoverState(horizontal bool, min, max, start float64) *MoverState {
	if max < min {
		min, max = max, min
	}
	progress := 0.0
	if max > min {
		progress = (start - min) / (max - min)
		if progress < 0 {
			progress = 0
		} else if progress > 1 {
			progress = 1
		}
	}
	return &MoverState{
		Horizontal:      horizontal,
		Min:             min,
		Max:             max,
		Direction:       1,
		Phase:           MoverMoving,
		Progress:        progress,
		SegmentDuration: segmentDurationFor(max - min),
	}
}

// segmentDurationFor derives the traversal time from the travel distance.
func segmentDurationFor(distance float64) time.Duration {
	if distance <= 0 {
		return moverMaxDuration
	}
	d := time.Duration(moverDurationScale/distance) * time.Millisecond
	if d < moverMinDuration {
		return moverMinDuration
	}
	if d > moverMaxDuration {
		return moverMaxDuration
	}
	return d
}

// positionAt maps a progress value onto the hole position.
func (m *MoverState) positionAt(base physics.Vec2, progress float64) physics.Vec2 {
	coord := m.Min + (m.Max-m.Min)*progress
	if m.Horizontal {
		base.X = coord
	} else {
		base.Y = coord
	}
	return base
}

// enterStopping reverses direction and pauses the hole briefly.
func (m *MoverState) enterStopping(now time.Time) {
	m.Phase = MoverStopping
	m.Direction = -m.Direction
	m.ResumeAt = now.Add(MoverPause)
}

// advance moves the hole one tick. Before committing a new position the
// candidate is tested against every other active hole; holes are generated
// randomly and their paths are never pre-validated against each other, so a
// predicted overlap flips the hole into stopping instead of moving it.
func (m *MoverState) advance(h *Hole, lvl *Level, now time.Time, dt time.Duration) {
	if m.Phase == MoverStopping {
		if now.Before(m.ResumeAt) {
			return
		}
		m.Phase = MoverMoving
	}

	step := dt.Seconds() / m.SegmentDuration.Seconds() * m.Direction
	next := m.Progress + step
	clamped := next
	if clamped < 0 {
		clamped = 0
	} else if clamped > 1 {
		clamped = 1
	}

	candidate := m.positionAt(h.Position, clamped)
	if lvl.holeWouldCollide(h, candidate) {
		m.enterStopping(now)
		return
	}

	h.Position = candidate
	m.Progress = clamped
	if next <= 0 || next >= 1 {
		m.enterStopping(now)
	}
}
