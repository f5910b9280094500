package game

import (
	"testing"
	"time"
)

func TestCyclerStartsHidden(t *testing.T) {
	now := time.Now()
	c := NewCycleState(now, NewRand(1))
	if c.Phase != CycleHidden {
		t.Fatalf("new cycler phase = %s, want %s", c.Phase, CycleHidden)
	}
	if c.Scale != 0 {
		t.Errorf("new cycler scale = %v, want 0", c.Scale)
	}
	if c.IdleDuration < cycleIdleMin || c.IdleDuration >= cycleIdleMax {
		t.Errorf("idle duration %v outside [%v, %v)", c.IdleDuration, cycleIdleMin, cycleIdleMax)
	}
	if c.HiddenDuration < cycleHiddenMin || c.HiddenDuration >= cycleHiddenMax {
		t.Errorf("hidden duration %v outside [%v, %v)", c.HiddenDuration, cycleHiddenMin, cycleHiddenMax)
	}
}

func TestCyclerWalksFullLoop(t *testing.T) {
	rng := NewRand(2)
	t0 := time.Now()
	c := NewCycleState(t0, rng)

	// Still hidden before the hidden duration elapses.
	if kind := c.advance(t0.Add(c.HiddenDuration/2), rng); kind != "" {
		t.Fatalf("early advance emitted %q, want nothing", kind)
	}
	if c.Phase != CycleHidden {
		t.Fatalf("phase = %s after partial hidden wait", c.Phase)
	}

	// Hidden -> animating in, with the appear event.
	t1 := t0.Add(c.HiddenDuration)
	if kind := c.advance(t1, rng); kind != EventHoleAppear {
		t.Fatalf("hidden->in emitted %q, want %q", kind, EventHoleAppear)
	}
	if c.Phase != CycleAnimatingIn {
		t.Fatalf("phase = %s, want %s", c.Phase, CycleAnimatingIn)
	}

	// Mid-entry the ease-out-back overshoots past 1.
	c.advance(t1.Add(cycleInDuration/2), rng)
	if c.Scale <= 1 {
		t.Errorf("mid-entry scale = %v, want overshoot above 1", c.Scale)
	}

	// Entry complete: idle at full scale, no event.
	t2 := t1.Add(cycleInDuration)
	if kind := c.advance(t2, rng); kind != "" {
		t.Fatalf("in->idle emitted %q, want nothing", kind)
	}
	if c.Phase != CycleIdle || c.Scale != 1 {
		t.Fatalf("phase = %s scale = %v, want idle at scale 1", c.Phase, c.Scale)
	}

	// Idle -> animating out, with the disappear event.
	t3 := t2.Add(c.IdleDuration)
	if kind := c.advance(t3, rng); kind != EventHoleDisappear {
		t.Fatalf("idle->out emitted %q, want %q", kind, EventHoleDisappear)
	}

	// Mid-exit the quadratic ease has shrunk the hole.
	c.advance(t3.Add(cycleOutDuration/2), rng)
	if c.Scale != 0.75 {
		t.Errorf("mid-exit scale = %v, want 0.75", c.Scale)
	}

	// Exit complete: hidden again with fresh rest durations.
	t4 := t3.Add(cycleOutDuration)
	if kind := c.advance(t4, rng); kind != "" {
		t.Fatalf("out->hidden emitted %q, want nothing", kind)
	}
	if c.Phase != CycleHidden || c.Scale != 0 {
		t.Fatalf("phase = %s scale = %v, want hidden at scale 0", c.Phase, c.Scale)
	}
}

func TestCyclerHoleActiveOnlyWhileIdle(t *testing.T) {
	rng := NewRand(3)
	t0 := time.Now()
	h := &Hole{ID: 1, Radius: 14, Behavior: BehaviorCycling, Cycle: NewCycleState(t0, rng)}

	if h.Active() {
		t.Error("hidden cycler should not be active")
	}

	h.Cycle.advance(t0.Add(h.Cycle.HiddenDuration), rng)
	if h.Active() {
		t.Error("cycler animating in should not be active")
	}

	h.Cycle.Phase = CycleIdle
	if !h.Active() {
		t.Error("idle cycler should be active")
	}

	h.Cycle.Phase = CycleAnimatingOut
	if h.Active() {
		t.Error("cycler animating out should not be active")
	}
}
