package systems

import (
	"github.com/zeusync/tdr/internal/config"
	"github.com/zeusync/tdr/internal/core/guidance"
	"github.com/zeusync/tdr/internal/core/models"
	"github.com/zeusync/tdr/internal/core/systems/physics"
	"github.com/zeusync/tdr/internal/core/track"
)

// Kinematics slows every car down, moves it, and charges a time penalty
// for skipping across tiles.
type Kinematics struct{}

func (Kinematics) Name() string          { return "kinematics" }
func (Kinematics) Phase() ExecutionPhase { return PhaseKinematics }

func (Kinematics) Update(ctx *Context, w *models.World) error {
	t := ctx.tuning()
	for i := range w.Cars {
		car := &w.Cars[i]
		car.Racer.Velocity = Friction(car.Racer.Velocity, ctx.Field, car.Position(), t, ctx.DT)
		Integrate(car, ctx.DT)
		if ctx.Track != nil {
			TilePenalty(&car.Racer, ctx.Track, car.Position())
		}
	}
	return nil
}

// Friction applies the constant rolling drag, plus extra drag that grows
// as the field under pos darkens below the off-track threshold. A nil
// field adds no extra drag.
func Friction(v physics.Vec2, f *guidance.Field, pos physics.Vec2, t config.Tuning, dt float64) physics.Vec2 {
	v = v.Mul(1 - dt*t.Friction)
	if f == nil {
		return v
	}
	px := float64(f.Query(pos))
	if px < t.OffTrackThreshold {
		factor := t.OffTrackDrag + t.OffTrackDrag*(1-px/t.OffTrackThreshold)
		v = v.Mul(1 - dt*factor)
	}
	return v
}

// Integrate moves the car along its velocity for dt seconds.
func Integrate(car *models.Car, dt float64) {
	car.Transform = car.Transform.Translate(car.Racer.Velocity.Mul(dt))
}

// TilePenalty compares the car's cell with the last on-track cell it was
// seen in. Jumping more than one cell adds the distance to the penalty.
// Off-track samples are ignored. It returns the penalty added.
func TilePenalty(r *models.Racer, l track.Layer, pos physics.Vec2) float64 {
	cell, on := track.OnTrack(l, pos)
	if !on {
		return 0
	}
	added := 0.0
	if r.HasLastTile {
		if d := physics.Distance(cell, r.LastTile); d > 1 {
			r.Penalty += d
			added = d
		}
	}
	r.LastTile, r.HasLastTile = cell, true
	return added
}
