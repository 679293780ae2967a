package systems

import (
	"github.com/zeusync/tdr/internal/config"
	"github.com/zeusync/tdr/internal/core/guidance"
	"github.com/zeusync/tdr/internal/core/models"
	"github.com/zeusync/tdr/internal/core/systems/physics"
)

// HumanSteering applies player intents. A car serving a penalty ignores
// its input until the penalty has run out.
type HumanSteering struct{}

func (HumanSteering) Name() string          { return "human-steering" }
func (HumanSteering) Phase() ExecutionPhase { return PhaseSteering }

func (HumanSteering) Update(ctx *Context, w *models.World) error {
	t := ctx.tuning()
	for i := range w.Cars {
		car := &w.Cars[i]
		if !car.Player {
			continue
		}
		if car.Racer.DecayPenalty(ctx.DT) {
			continue
		}
		var in Intents
		if ctx.Input != nil {
			in = ctx.Input.Intents(models.CarHandle(i))
		}
		if in.Left {
			car.Racer.Turn(ctx.DT * t.TurnRate)
		}
		if in.Right {
			car.Racer.Turn(-ctx.DT * t.TurnRate)
		}
		if in.Accelerate {
			car.Racer.Velocity = car.Racer.Velocity.Add(car.Racer.Facing().Mul(ctx.DT * t.PlayerThrust))
		}
		car.SyncRotation()
	}
	return nil
}

// Whiskers are the five probe points an AI car samples the guidance field
// at.
type Whiskers struct {
	FarLeft, FarRight   physics.Vec2
	NearLeft, NearRight physics.Vec2
	Front               physics.Vec2
}

// CastWhiskers places the probes around pos for a car facing angle.
func CastWhiskers(pos physics.Vec2, angle float64, t config.Tuning) Whiskers {
	at := func(a, dist float64) physics.Vec2 {
		return pos.Add(physics.FromAngle(a).Mul(dist))
	}
	return Whiskers{
		FarLeft:   at(angle+t.WhiskerFarAngle, t.WhiskerFar),
		FarRight:  at(angle-t.WhiskerFarAngle, t.WhiskerFar),
		NearLeft:  at(angle+t.WhiskerNearAngle, t.WhiskerNear),
		NearRight: at(angle-t.WhiskerNearAngle, t.WhiskerNear),
		Front:     at(angle, t.WhiskerFront),
	}
}

// Points lists the probes for drawing.
func (w Whiskers) Points() [5]physics.Vec2 {
	return [5]physics.Vec2{w.FarLeft, w.FarRight, w.NearLeft, w.NearRight, w.Front}
}

// Reading holds the field intensity under each whisker.
type Reading struct {
	FarLeft, FarRight   int
	NearLeft, NearRight int
	Front               int
}

// Sense samples f under every whisker.
func Sense(f *guidance.Field, w Whiskers) Reading {
	return Reading{
		FarLeft:   f.Query(w.FarLeft),
		FarRight:  f.Query(w.FarRight),
		NearLeft:  f.Query(w.NearLeft),
		NearRight: f.Query(w.NearRight),
		Front:     f.Query(w.Front),
	}
}

// Bias returns +1 when the left side reads brighter by more than deadband
// on either whisker pair, -1 when the right side does, and 0 when neither
// or both rules fire.
func (r Reading) Bias(deadband int) int {
	bias := 0
	if r.FarLeft-deadband > r.FarRight || r.NearLeft-deadband > r.NearRight {
		bias++
	}
	if r.FarRight-deadband > r.FarLeft || r.NearRight-deadband > r.NearLeft {
		bias--
	}
	return bias
}

// AISteering drives every non-player car towards the bright centre of the
// guidance field. Without a field there is nothing to follow and the
// system does nothing, penalties included.
type AISteering struct{}

func (AISteering) Name() string          { return "ai-steering" }
func (AISteering) Phase() ExecutionPhase { return PhaseSteering }

func (AISteering) Update(ctx *Context, w *models.World) error {
	if ctx.Field == nil {
		return nil
	}
	t := ctx.tuning()
	for i := range w.Cars {
		car := &w.Cars[i]
		if car.Player {
			continue
		}
		if car.Racer.DecayPenalty(ctx.DT) {
			continue
		}

		pos := car.Position()
		whiskers := CastWhiskers(pos, car.Racer.Angle, t)
		reading := Sense(ctx.Field, whiskers)

		if ctx.verbose(2) {
			for _, p := range whiskers.Points() {
				ctx.Drawer.Circle(p, 2, ColorWhisker)
				ctx.Drawer.Line(pos, p, ColorWhisker)
			}
		}

		if bias := reading.Bias(t.SteerDeadband); bias != 0 {
			car.Racer.Turn(float64(bias) * ctx.DT * t.TurnRate)
		}
		if reading.Front > t.ThrottleMinimum {
			car.Racer.Velocity = car.Racer.Velocity.Add(car.Racer.Facing().Mul(ctx.DT * t.AIThrust))
		}
		car.SyncRotation()
	}
	return nil
}
