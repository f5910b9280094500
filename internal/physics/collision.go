package physics

// Collision kinds reported through manifolds and the audio hook.
const (
	CollisionBody = "body"
	CollisionBar  = "bar"
	CollisionWall = "wall"
)

// Manifold describes one detected collision. Manifolds are transient: the
// engine rebuilds the list from scratch every tick and nothing may hold one
// across ticks.
type Manifold struct {
	A           *Body   `json:"-"`
	B           *Body   `json:"-"` // nil for bar and wall contacts
	Kind        string  `json:"kind"`
	Normal      Vec2    `json:"normal"` // unit vector from A toward B
	Penetration float64 `json:"penetration"`
	Contact     Vec2    `json:"contact"`
}

// detectAndResolveBodies runs the circle-circle pass over every body pair.
func (e *Engine) detectAndResolveBodies() {
	for i := 0; i < len(e.bodies); i++ {
		for j := i + 1; j < len(e.bodies); j++ {
			e.resolveBodyPair(e.bodies[i], e.bodies[j])
		}
	}
}

func (e *Engine) resolveBodyPair(a, b *Body) {
	if a.Static && b.Static {
		return
	}

	// Squared-distance broad check before the exact test.
	delta := b.Position.Minus(a.Position)
	radiusSum := a.Radius + b.Radius
	distSq := delta.MagnitudeSquared()
	if distSq >= radiusSum*radiusSum {
		return
	}

	dist := delta.Magnitude()
	penetration := radiusSum - dist

	// Exactly coincident centers: fall back to a fixed normal instead of
	// dividing by zero.
	normal := Vec2{X: 1, Y: 0}
	if dist > 0 {
		normal = delta.Times(1 / dist)
	}
	contact := a.Position.Plus(normal.Times(a.Radius))

	// Capture implied velocities before the positional correction so the
	// correction displacement does not masquerade as motion.
	va := a.ImpliedVelocity()
	vb := b.ImpliedVelocity()

	// Separate positions proportional to inverse mass.
	totalInv := a.InverseMass + b.InverseMass
	if totalInv > 0 {
		correction := normal.Times(penetration / totalInv)
		a.Position = a.Position.Minus(correction.Times(a.InverseMass))
		b.Position = b.Position.Plus(correction.Times(b.InverseMass))
	}

	// Simplified impulse: damp the relative velocity along the normal by the
	// lesser restitution scaled by the stability factor. Lossy on purpose.
	velAlongNormal := vb.Minus(va).Dot(normal)
	if velAlongNormal < 0 && totalInv > 0 {
		restitution := a.Restitution
		if b.Restitution < restitution {
			restitution = b.Restitution
		}
		j := -(1 + restitution*StabilityFactor) * velAlongNormal / totalInv
		impulse := normal.Times(j)
		a.SetImpliedVelocity(va.Minus(impulse.Times(a.InverseMass)))
		b.SetImpliedVelocity(vb.Plus(impulse.Times(b.InverseMass)))
	}

	e.manifolds = append(e.manifolds, Manifold{
		A:           a,
		B:           b,
		Kind:        CollisionBody,
		Normal:      normal,
		Penetration: penetration,
		Contact:     contact,
	})
	e.emitAudio(a.ID, CollisionBody, vb.Minus(va).Magnitude()/e.dt)
}

// resolveBarContact handles ball-versus-bar interaction, switching between an
// impact response and a rolling-contact response based on the velocity along
// the bar normal.
func (e *Engine) resolveBarContact(b *Body, dt float64) {
	if e.bar == nil || b.Static || e.isHeld(b.ID) {
		return
	}

	closest := e.bar.ClosestPoint(b.Position)
	offset := e.bar.SurfaceOffset(b.Radius)
	delta := b.Position.Minus(closest)
	if delta.MagnitudeSquared() >= offset*offset {
		return
	}

	normal := e.bar.Normal()
	surface := closest.Plus(normal.Times(offset))
	vel := b.ImpliedVelocity()
	velAlongNormal := vel.Dot(normal)

	if velAlongNormal < BarBounceThreshold {
		// Bounce: reflect about the normal, restitution on the normal
		// component only, bar friction on the tangential component only.
		normalVel := normal.Times(velAlongNormal)
		tangentVel := vel.Minus(normalVel)
		bounced := tangentVel.Times(1 - e.bar.Friction).
			Plus(normalVel.Times(-b.Restitution * StabilityFactor))

		b.Position = surface
		b.SetImpliedVelocity(bounced)

		e.manifolds = append(e.manifolds, Manifold{
			A:           b,
			Kind:        CollisionBar,
			Normal:      normal,
			Penetration: offset - delta.Magnitude(),
			Contact:     closest,
		})
		e.emitAudio(b.ID, CollisionBar, -velAlongNormal/e.dt)
		return
	}

	// Roll: the ball stays pinned to the surface. Gravity accelerates it
	// along the tangent; rolling resistance and friction bleed speed off
	// proportional to how fast it is already rolling. The normal component
	// of the velocity is discarded outright so the ball can neither sink
	// into the bar nor float off it.
	tangent := e.bar.Tangent()
	tangentSpeed := vel.Dot(tangent)
	tangentSpeed += e.gravity.Dot(tangent) * dt * dt
	tangentSpeed -= tangentSpeed * (RollingResistance + b.Friction*e.bar.Friction)

	b.Position = surface
	b.SetImpliedVelocity(tangent.Times(tangentSpeed))
	b.RollingOnBar = true
}

// clampToBounds keeps a body inside the left, right and floor boundaries,
// reflecting and damping velocity on the clamped axis only. Held bodies are
// exempt: the possession target may legitimately sit outside the play area.
func (e *Engine) clampToBounds(b *Body) {
	if b.Static || e.isHeld(b.ID) {
		return
	}

	vel := b.ImpliedVelocity()
	hit := false
	var speed float64

	if b.Position.X < b.Radius {
		b.Position.X = b.Radius
		speed = -vel.X
		vel.X = -vel.X * b.Restitution
		hit = true
	} else if b.Position.X > e.bounds.X-b.Radius {
		b.Position.X = e.bounds.X - b.Radius
		speed = vel.X
		vel.X = -vel.X * b.Restitution
		hit = true
	}

	if b.Position.Y > e.bounds.Y-b.Radius {
		b.Position.Y = e.bounds.Y - b.Radius
		if vel.Y > speed {
			speed = vel.Y
		}
		vel.Y = -vel.Y * b.Restitution
		hit = true
	}

	if hit {
		b.SetImpliedVelocity(vel)
		e.emitAudio(b.ID, CollisionWall, speed/e.dt)
	}
}
