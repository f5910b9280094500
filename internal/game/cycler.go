package game

import "time"

// CyclePhase is the animated-cycling hole's phase.
type CyclePhase string

const (
	CycleAnimatingIn  CyclePhase = "animating_in"
	CycleIdle         CyclePhase = "idle"
	CycleAnimatingOut CyclePhase = "animating_out"
	CycleHidden       CyclePhase = "hidden"
)

// Cycling hole tuning. Idle and hidden durations are re-randomized at the top
// of every cycle so the breathing of the playfield never becomes predictable.
const (
	cycleInDuration  = 350 * time.Millisecond
	cycleOutDuration = 250 * time.Millisecond
	cycleIdleMin     = 2 * time.Second
	cycleIdleMax     = 6 * time.Second
	cycleHiddenMin   = 1 * time.Second
	cycleHiddenMax   = 4 * time.Second
)

// CycleState drives the four-phase appear/disappear loop of a cycling hole.
type CycleState struct {
	Phase          CyclePhase    `json:"phase"`
	PhaseStart     time.Time     `json:"-"`
	IdleDuration   time.Duration `json:"-"`
	HiddenDuration time.Duration `json:"-"`
	Scale          float64       `json:"scale"` // 0..1 (briefly >1 on overshoot)
}

// NewCycleState starts a cycler in its hidden phase with randomized timing.
func NewCycleState(now time.Time, rng *Rand) *CycleState {
	return &CycleState{
		Phase:          CycleHidden,
		PhaseStart:     now,
		IdleDuration:   rng.DurationRange(cycleIdleMin, cycleIdleMax),
		HiddenDuration: rng.DurationRange(cycleHiddenMin, cycleHiddenMax),
		Scale:          0,
	}
}

// advance walks the phase loop. Transitions are purely time-driven. The
// returned event kind is empty unless the hole just started appearing or
// disappearing (the audible transitions).
func (c *CycleState) advance(now time.Time, rng *Rand) EventKind {
	elapsed := now.Sub(c.PhaseStart)

	switch c.Phase {
	case CycleAnimatingIn:
		if elapsed >= cycleInDuration {
			c.Phase = CycleIdle
			c.PhaseStart = now
			c.Scale = 1
			return ""
		}
		// Overshoot on entry for the pop-in feel.
		c.Scale = easeOutBack(float64(elapsed) / float64(cycleInDuration))

	case CycleIdle:
		c.Scale = 1
		if elapsed >= c.IdleDuration {
			c.Phase = CycleAnimatingOut
			c.PhaseStart = now
			return EventHoleDisappear
		}

	case CycleAnimatingOut:
		if elapsed >= cycleOutDuration {
			c.Phase = CycleHidden
			c.PhaseStart = now
			c.Scale = 0
			return ""
		}
		// Accelerate out.
		c.Scale = 1 - easeInQuad(float64(elapsed)/float64(cycleOutDuration))

	case CycleHidden:
		c.Scale = 0
		if elapsed >= c.HiddenDuration {
			c.Phase = CycleAnimatingIn
			c.PhaseStart = now
			// New cycle: re-roll both rest durations.
			c.IdleDuration = rng.DurationRange(cycleIdleMin, cycleIdleMax)
			c.HiddenDuration = rng.DurationRange(cycleHiddenMin, cycleHiddenMax)
			return EventHoleAppear
		}
	}
	return ""
}
