package physics

// Body is a simulated circular rigid body. Position and PreviousPosition
// together carry the Verlet state; Velocity is a cache reconstructed at the
// end of every tick for external readers and is never integrated directly.
type Body struct {
	ID               string  `json:"id"`
	Position         Vec2    `json:"position"`
	PreviousPosition Vec2    `json:"previous_position"`
	Velocity         Vec2    `json:"velocity"`
	Radius           float64 `json:"radius"`
	Mass             float64 `json:"mass"`
	InverseMass      float64 `json:"inverse_mass"`
	Restitution      float64 `json:"restitution"`
	Friction         float64 `json:"friction"`
	Static           bool    `json:"static"`

	// RollingOnBar is transient contact state, cleared and recomputed every
	// tick. It is never persisted.
	RollingOnBar bool `json:"rolling_on_bar"`
}

// NewBody creates a body at rest. Static bodies always get inverse mass 0;
// dynamic bodies with a non-positive mass are given unit mass.
func NewBody(id string, position Vec2, radius, mass, restitution, friction float64, static bool) *Body {
	if mass <= 0 {
		mass = 1
	}
	b := &Body{
		ID:               id,
		Position:         position,
		PreviousPosition: position,
		Radius:           radius,
		Mass:             mass,
		Restitution:      clamp(restitution, 0, 1),
		Friction:         clamp(friction, 0, 1),
		Static:           static,
	}
	if static {
		b.InverseMass = 0
	} else {
		b.InverseMass = 1 / mass
	}
	return b
}

// ImpliedVelocity returns the per-tick Verlet displacement (position minus
// previous position).
func (b *Body) ImpliedVelocity() Vec2 {
	return b.Position.Minus(b.PreviousPosition)
}

// SetImpliedVelocity rewrites the previous position so the next integration
// sees exactly the given per-tick displacement.
func (b *Body) SetImpliedVelocity(v Vec2) {
	b.PreviousPosition = b.Position.Minus(v)
}

// Teleport moves the body without introducing any implied velocity. Used when
// a ball is respawned on life loss or level change.
func (b *Body) Teleport(position Vec2) {
	b.Position = position
	b.PreviousPosition = position
	b.Velocity = Vec2{}
}
