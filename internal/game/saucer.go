package game

import (
	"math"
	"time"

	"github.com/tiltbar/backend/internal/physics"
)

// SaucerPhase is the capture episode's state. There is no terminal idle
// phase: removal of the hole is the only exit.
type SaucerPhase string

const (
	SaucerSinking  SaucerPhase = "sinking"
	SaucerWaiting  SaucerPhase = "waiting"
	SaucerEjecting SaucerPhase = "ejecting"
)

// Saucer tuning.
const (
	SaucerSinkDuration  = 600 * time.Millisecond
	SaucerEjectDuration = 200 * time.Millisecond
	saucerWaitMin       = 1 * time.Second
	saucerWaitMax       = 5 * time.Second
	saucerKickMinForce  = 200.0
	saucerKickMaxForce  = 350.0
	saucerKickBaseAngle = 135.0 // degrees above horizontal
	saucerKickSpread    = 15.0
)

// SaucerState tracks one ball-capture episode on a power-up hole. The kick
// direction, kick force and wait duration are all drawn once at capture time.
type SaucerState struct {
	Phase        SaucerPhase   `json:"phase"`
	BallID       string        `json:"ball_id"`
	PhaseStart   time.Time     `json:"-"`
	SinkDuration time.Duration `json:"-"`
	WaitDuration time.Duration `json:"-"`
	SinkDepth    float64       `json:"sink_depth"` // 0..1
	KickDir      physics.Vec2  `json:"kick_dir"`
	KickForce    float64       `json:"kick_force"`
}

// SaucerEject is handed upward when an eject completes so the director can
// release possession and apply the kick impulse.
type SaucerEject struct {
	HoleID    int
	BallID    string
	Direction physics.Vec2
	Force     float64
}

// NewSaucerState begins a capture of the given ball.
func NewSaucerState(ballID string, now time.Time, rng *Rand) *SaucerState {
	angle := rng.Range(saucerKickBaseAngle-saucerKickSpread, saucerKickBaseAngle+saucerKickSpread)
	return &SaucerState{
		Phase:        SaucerSinking,
		BallID:       ballID,
		PhaseStart:   now,
		SinkDuration: SaucerSinkDuration,
		WaitDuration: rng.DurationRange(saucerWaitMin, saucerWaitMax),
		KickDir:      physics.FromAngle(angle * math.Pi / 180),
		KickForce:    rng.Range(saucerKickMinForce, saucerKickMaxForce),
	}
}

// advance walks sinking -> waiting -> ejecting. It returns a non-nil eject
// exactly once, when the 200ms eject window elapses; the caller must then
// remove the hole.
func (s *SaucerState) advance(holeID int, now time.Time) *SaucerEject {
	elapsed := now.Sub(s.PhaseStart)

	switch s.Phase {
	case SaucerSinking:
		u := float64(elapsed) / float64(s.SinkDuration)
		if u >= 1 {
			s.SinkDepth = 1
			s.Phase = SaucerWaiting
			s.PhaseStart = now
			return nil
		}
		// Squared smoothstep: the sink starts gently and finishes hard.
		sm := smoothstep(u)
		s.SinkDepth = sm * sm

	case SaucerWaiting:
		if elapsed >= s.WaitDuration {
			s.Phase = SaucerEjecting
			s.PhaseStart = now
		}

	case SaucerEjecting:
		if elapsed >= SaucerEjectDuration {
			return &SaucerEject{
				HoleID:    holeID,
				BallID:    s.BallID,
				Direction: s.KickDir,
				Force:     s.KickForce,
			}
		}
	}
	return nil
}
