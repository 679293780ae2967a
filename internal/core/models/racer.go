package models

import (
	"math"

	"github.com/zeusync/tdr/internal/core/systems/physics"
)

// Racer is the per-car driving and lap state.
type Racer struct {
	// Angle is the heading in radians from +x, kept within (-Pi, Pi].
	Angle    float64
	Velocity physics.Vec2
	// Penalty is the time in seconds before steering input is accepted
	// again.
	Penalty float64

	// LastTile is the last on-track cell visited, in continuous cell
	// coordinates. It is meaningless until HasLastTile is set.
	LastTile    physics.Vec2
	HasLastTile bool

	LapCount       uint32
	SubMask        uint32
	StartFinishBit uint32
}

// NewRacer returns a racer facing angle and already rolling at velocity.
func NewRacer(angle float64, velocity physics.Vec2) Racer {
	return Racer{Angle: physics.WrapAngle(angle), Velocity: velocity}
}

// Facing returns the unit heading vector.
func (r *Racer) Facing() physics.Vec2 { return physics.FromAngle(r.Angle) }

// Turn adds da to the heading and wraps it.
func (r *Racer) Turn(da float64) { r.Angle = physics.WrapAngle(r.Angle + da) }

// DecayPenalty counts the penalty down by dt and reports whether the car is
// still stalled for this tick.
func (r *Racer) DecayPenalty(dt float64) bool {
	if r.Penalty <= 0 {
		return false
	}
	r.Penalty = math.Max(0, r.Penalty-dt)
	return true
}

// Speed returns the velocity magnitude.
func (r *Racer) Speed() float64 { return r.Velocity.Len() }

// SpriteRotation converts the heading to the rotation of a sprite drawn
// pointing up.
func SpriteRotation(angle float64) float64 { return angle - math.Pi/2 }
