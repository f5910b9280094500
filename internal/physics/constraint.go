package physics

import "math"

// ConstraintKind selects the constraint variant.
type ConstraintKind int

const (
	ConstraintDistance ConstraintKind = iota
	ConstraintPosition
	ConstraintAngle
)

// Constraint links one or two bodies to a target. The engine holds no
// ownership beyond the list it is given; callers add and remove them ad hoc.
type Constraint struct {
	Kind      ConstraintKind
	A         *Body
	B         *Body
	Distance  float64 // target separation for ConstraintDistance
	Target    Vec2    // target position for ConstraintPosition
	Angle     float64 // target A->B angle in radians for ConstraintAngle
	Stiffness float64 // 0..1 fraction of the error corrected per pass
}

// NewDistanceConstraint keeps two bodies a fixed distance apart.
func NewDistanceConstraint(a, b *Body, distance, stiffness float64) Constraint {
	return Constraint{
		Kind:      ConstraintDistance,
		A:         a,
		B:         b,
		Distance:  distance,
		Stiffness: clamp(stiffness, 0, 1),
	}
}

// NewPositionConstraint pulls a body toward a fixed point.
func NewPositionConstraint(a *Body, target Vec2, stiffness float64) Constraint {
	return Constraint{
		Kind:      ConstraintPosition,
		A:         a,
		Target:    target,
		Stiffness: clamp(stiffness, 0, 1),
	}
}

// NewAngleConstraint rotates B around A toward a target bearing.
func NewAngleConstraint(a, b *Body, angle, stiffness float64) Constraint {
	return Constraint{
		Kind:      ConstraintAngle,
		A:         a,
		B:         b,
		Angle:     angle,
		Stiffness: clamp(stiffness, 0, 1),
	}
}

// solveConstraints runs exactly one relaxation pass over every constraint.
// A single pass does not converge to a fixed point; it trades accuracy for
// predictable per-tick cost, and the per-frame call rate hides the residual
// error. Malformed constraints (missing body references) are skipped.
func (e *Engine) solveConstraints() {
	for i := range e.constraints {
		c := &e.constraints[i]
		switch c.Kind {
		case ConstraintDistance:
			solveDistance(c)
		case ConstraintPosition:
			solvePosition(c)
		case ConstraintAngle:
			solveAngle(c)
		}
	}
}

func solveDistance(c *Constraint) {
	if c.A == nil || c.B == nil {
		return
	}
	delta := c.B.Position.Minus(c.A.Position)
	dist := delta.Magnitude()
	if dist == 0 {
		return
	}
	totalInv := c.A.InverseMass + c.B.InverseMass
	if totalInv == 0 {
		return
	}
	diff := (dist - c.Distance) / dist * c.Stiffness
	correction := delta.Times(diff / totalInv)
	c.A.Position = c.A.Position.Plus(correction.Times(c.A.InverseMass))
	c.B.Position = c.B.Position.Minus(correction.Times(c.B.InverseMass))
}

func solvePosition(c *Constraint) {
	if c.A == nil || c.A.Static {
		return
	}
	c.A.Position = c.A.Position.Lerp(c.Target, c.Stiffness)
}

func solveAngle(c *Constraint) {
	if c.A == nil || c.B == nil || c.B.Static {
		return
	}
	delta := c.B.Position.Minus(c.A.Position)
	dist := delta.Magnitude()
	if dist == 0 {
		return
	}
	current := math.Atan2(delta.Y, delta.X)
	diff := normalizeAngle(c.Angle - current)
	rotated := current + diff*c.Stiffness
	c.B.Position = c.A.Position.Plus(Vec2{
		X: math.Cos(rotated) * dist,
		Y: math.Sin(rotated) * dist,
	})
}

func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
