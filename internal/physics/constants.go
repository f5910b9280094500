package physics

import "time"

// Simulation tuning constants. The stability factor deliberately bleeds
// energy from every impact; the simulation favors tick-to-tick stability
// over physically exact restitution.
const (
	// StabilityFactor scales every restitution response.
	StabilityFactor = 0.8

	// BarBounceThreshold is the per-tick velocity along the bar normal below
	// which contact is treated as an impact rather than rolling. Negative
	// means moving into the bar.
	BarBounceThreshold = -0.5

	// RollingResistance damps tangential speed while the ball rides the bar,
	// proportional to the current tangential speed.
	RollingResistance = 0.02

	// HeldSmoothing is the per-tick interpolation factor toward the held
	// target while a body is possessed.
	HeldSmoothing = 0.1

	// AudioRateLimitWindow is the minimum interval between audio hook calls
	// for the same (body, collision kind) pair.
	AudioRateLimitWindow = 150 * time.Millisecond

	// DefaultAirResistance multiplies the implied velocity each tick.
	DefaultAirResistance = 0.995

	// DefaultGravityY is the downward acceleration in units/s².
	DefaultGravityY = 900.0
)
