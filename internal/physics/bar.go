package physics

import "math"

// Bar is the tilting line-segment actuator the ball rides on. The two ends
// are raised and lowered independently; everything else (endpoints, rotation,
// surface normal) is derived from the two heights, never integrated, so the
// tilt cannot drift.
type Bar struct {
	Center    Vec2    `json:"center"` // pivot; y is the zero-height baseline
	Width     float64 `json:"width"`
	Thickness float64 `json:"thickness"` // full thickness; collision uses half

	LeftHeight  float64 `json:"left_height"`
	RightHeight float64 `json:"right_height"`
	MinHeight   float64 `json:"min_height"`
	MaxHeight   float64 `json:"max_height"`

	// Friction is the surface friction of the bar material, 0..1.
	Friction float64 `json:"friction"`
}

// NewBar creates a bar with both ends at the minimum height.
func NewBar(center Vec2, width, thickness, minHeight, maxHeight float64) *Bar {
	if maxHeight < minHeight {
		minHeight, maxHeight = maxHeight, minHeight
	}
	return &Bar{
		Center:      center,
		Width:       width,
		Thickness:   thickness,
		LeftHeight:  minHeight,
		RightHeight: minHeight,
		MinHeight:   minHeight,
		MaxHeight:   maxHeight,
		Friction:    0.05,
	}
}

// SetHeights clamps both side heights into [MinHeight, MaxHeight]. Invalid
// numeric input clamps to the minimum rather than being rejected.
func (b *Bar) SetHeights(left, right float64) {
	b.LeftHeight = clamp(left, b.MinHeight, b.MaxHeight)
	b.RightHeight = clamp(right, b.MinHeight, b.MaxHeight)
}

// LeftEnd returns the left endpoint of the center segment.
func (b *Bar) LeftEnd() Vec2 {
	return Vec2{X: b.Center.X - b.Width/2, Y: b.Center.Y - b.LeftHeight}
}

// RightEnd returns the right endpoint of the center segment.
func (b *Bar) RightEnd() Vec2 {
	return Vec2{X: b.Center.X + b.Width/2, Y: b.Center.Y - b.RightHeight}
}

// Rotation is the segment angle, a pure function of the height difference.
func (b *Bar) Rotation() float64 {
	return math.Atan2(b.LeftHeight-b.RightHeight, b.Width)
}

// Tangent returns the unit direction from the left end to the right end.
// A zero-length segment falls back to the horizontal direction.
func (b *Bar) Tangent() Vec2 {
	d := b.RightEnd().Minus(b.LeftEnd())
	if d.IsZero() {
		return Vec2{X: 1, Y: 0}
	}
	return d.Normalize()
}

// Normal returns the unit surface normal, always oriented away from the bar
// toward the play area (negative y in screen space). A degenerate segment
// falls back to straight up.
func (b *Bar) Normal() Vec2 {
	d := b.RightEnd().Minus(b.LeftEnd())
	if d.IsZero() {
		return Vec2{X: 0, Y: -1}
	}
	n := d.Normalize().RightNormal()
	if n.Y > 0 {
		n = n.Invert()
	}
	return n
}

// ClosestPoint returns the point on the center segment nearest to p.
func (b *Bar) ClosestPoint(p Vec2) Vec2 {
	a := b.LeftEnd()
	seg := b.RightEnd().Minus(a)
	lenSq := seg.MagnitudeSquared()
	if lenSq == 0 {
		return a
	}
	t := clamp(p.Minus(a).Dot(seg)/lenSq, 0, 1)
	return a.Plus(seg.Times(t))
}

// SurfaceOffset is the distance from the center segment at which a body of
// the given radius rests on the bar.
func (b *Bar) SurfaceOffset(radius float64) float64 {
	return b.Thickness/2 + radius
}
