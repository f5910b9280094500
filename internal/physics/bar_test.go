package physics

import (
	"math"
	"testing"
)

func newTestBar() *Bar {
	// Horizontal bar near the bottom of an 800x600 playfield.
	return NewBar(NewVec2(400, 500), 400, 10, 0, 200)
}

func TestBarHeightsClamped(t *testing.T) {
	bar := newTestBar()
	bar.SetHeights(-50, 900)
	if bar.LeftHeight != 0 {
		t.Errorf("left height = %v, want 0", bar.LeftHeight)
	}
	if bar.RightHeight != 200 {
		t.Errorf("right height = %v, want 200", bar.RightHeight)
	}
	bar.SetHeights(math.NaN(), 100)
	if math.IsNaN(bar.LeftHeight) {
		t.Error("NaN height not clamped")
	}
}

func TestBarRotationIsPureFunctionOfHeights(t *testing.T) {
	bar := newTestBar()
	bar.SetHeights(40, 120)

	want := math.Atan2(40-120, 400)
	if bar.Rotation() != want {
		t.Errorf("rotation = %v, want %v", bar.Rotation(), want)
	}

	// Recomputing from the heights alone must reproduce it exactly — there is
	// no hidden integrator state to drift.
	fresh := newTestBar()
	fresh.SetHeights(40, 120)
	if fresh.Rotation() != bar.Rotation() {
		t.Error("rotation not reproducible from heights alone")
	}
}

func TestBarNormalPointsUp(t *testing.T) {
	bar := newTestBar()
	for _, heights := range [][2]float64{{0, 0}, {200, 0}, {0, 200}, {50, 130}} {
		bar.SetHeights(heights[0], heights[1])
		n := bar.Normal()
		if n.Y >= 0 {
			t.Errorf("heights %v: normal %+v does not point up", heights, n)
		}
		if math.Abs(n.Magnitude()-1) > 1e-9 {
			t.Errorf("heights %v: normal %+v not unit length", heights, n)
		}
	}
}

func TestDegenerateBarFallsBackToFixedNormal(t *testing.T) {
	bar := NewBar(NewVec2(400, 500), 0, 10, 0, 200)
	n := bar.Normal()
	if n.X != 0 || n.Y != -1 {
		t.Errorf("zero-length bar normal = %+v, want (0,-1)", n)
	}
	// Closest point on a degenerate segment must not divide by zero.
	p := bar.ClosestPoint(NewVec2(123, 456))
	if math.IsNaN(p.X) || math.IsNaN(p.Y) {
		t.Errorf("closest point on degenerate bar is NaN: %+v", p)
	}
}

func TestClosestPointClampsToSegment(t *testing.T) {
	bar := newTestBar()
	bar.SetHeights(0, 0)

	left := bar.ClosestPoint(NewVec2(-1000, 500))
	if !left.IsEqualTo(bar.LeftEnd()) {
		t.Errorf("closest to far-left = %+v, want left end %+v", left, bar.LeftEnd())
	}
	mid := bar.ClosestPoint(NewVec2(400, 100))
	if mid.X != 400 || mid.Y != 500 {
		t.Errorf("closest to midpoint = %+v, want (400,500)", mid)
	}
}

func TestFlatBarBounceRestitution(t *testing.T) {
	e := NewEngine(800, 600)
	e.SetGravity(0, 0) // isolate the reflection arithmetic
	e.SetAirResistance(1)
	bar := newTestBar()
	bar.SetHeights(100, 100)
	e.SetBar(bar)

	// Ball directly above the flat bar, moving straight down at 300 units/s.
	b := e.CreateBody("ball", NewVec2(400, 380), 8, 1, 0.8, 0.1, false)
	dt := tickMs / 1000.0
	b.SetImpliedVelocity(NewVec2(0, 300*dt))

	// Step until contact resolves.
	bounced := false
	for i := 0; i < 30; i++ {
		e.Step(tickMs)
		if b.Velocity.Y < 0 {
			bounced = true
			break
		}
	}
	if !bounced {
		t.Fatal("ball never bounced off the bar")
	}

	// Reflection × restitution × stability factor: -300 * 0.8 * 0.8 = -192.
	want := -300 * 0.8 * StabilityFactor
	if math.Abs(b.Velocity.Y-want) > 5 {
		t.Errorf("post-bounce vy = %v, want ~%v", b.Velocity.Y, want)
	}
	if math.Abs(b.Velocity.X) > 1e-6 {
		t.Errorf("flat-bar bounce should stay vertical, vx = %v", b.Velocity.X)
	}
}

func TestSlowContactRollsInsteadOfBouncing(t *testing.T) {
	e := NewEngine(800, 600)
	e.SetGravity(0, 900)
	e.SetAirResistance(1)
	bar := newTestBar()
	bar.SetHeights(150, 50) // tilted down to the right
	e.SetBar(bar)

	// Ball resting just above the bar surface with no velocity.
	start := bar.ClosestPoint(NewVec2(400, 0)).Plus(bar.Normal().Times(bar.SurfaceOffset(8)))
	b := e.CreateBody("ball", start, 8, 1, 0.8, 0.1, false)

	e.Step(tickMs)
	if !b.RollingOnBar {
		t.Fatal("gentle contact should enter the rolling sub-mode")
	}

	// Rolling on a bar tilted down-right accelerates the ball rightward.
	for i := 0; i < 30; i++ {
		e.Step(tickMs)
	}
	if b.Velocity.X <= 0 {
		t.Errorf("ball should roll rightward down the tilt, vx = %v", b.Velocity.X)
	}
}

func TestRollingDiscardsNormalVelocity(t *testing.T) {
	e := NewEngine(800, 600)
	e.SetGravity(0, 900)
	e.SetAirResistance(1)
	bar := newTestBar()
	bar.SetHeights(100, 100)
	e.SetBar(bar)

	surfaceY := 400 - bar.SurfaceOffset(8) // center y 500, height 100
	b := e.CreateBody("ball", NewVec2(400, surfaceY), 8, 1, 0.8, 0.1, false)

	for i := 0; i < 60; i++ {
		e.Step(tickMs)
	}

	// Pinned to the surface: gravity must not push the ball through the bar.
	if b.Position.Y > surfaceY+1e-6 {
		t.Errorf("rolling ball sank into the bar: y = %v, surface %v", b.Position.Y, surfaceY)
	}
}
