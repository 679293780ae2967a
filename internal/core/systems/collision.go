package systems

import (
	"fmt"

	"github.com/zeusync/tdr/internal/config"
	"github.com/zeusync/tdr/internal/core/models"
	"github.com/zeusync/tdr/internal/core/observability/log"
	"github.com/zeusync/tdr/internal/core/systems/physics"
)

// Collisions resolves overlaps between cars. Touching cars trade
// velocities and are nudged apart along the line between their centres.
type Collisions struct{}

func (Collisions) Name() string          { return "collisions" }
func (Collisions) Phase() ExecutionPhase { return PhaseCollision }

func (Collisions) Update(ctx *Context, w *models.World) error {
	t := ctx.tuning()
	for i := 0; i < len(w.Cars); i++ {
		for j := i + 1; j < len(w.Cars); j++ {
			if err := separate(ctx, &w.Cars[i], &w.Cars[j], t); err != nil {
				return err
			}
		}
	}
	return nil
}

func separate(ctx *Context, a, b *models.Car, t config.Tuning) error {
	abox, bbox := a.Box(), b.Box()
	if !abox.IsTouching(bbox) {
		return nil
	}
	a.Racer.Velocity, b.Racer.Velocity = b.Racer.Velocity, a.Racer.Velocity

	dir, err := physics.Normalize(b.Position().Sub(a.Position()))
	if err != nil {
		return fmt.Errorf("%w: %q and %q at %v", ErrCoincidentBodies, a.Name, b.Name, a.Position())
	}
	nudge := dir.Mul(t.Nudge)
	back := nudge.Mul(-1)

	for steps := 0; abox.IsTouching(bbox); steps++ {
		if steps >= t.MaxSeparationSteps {
			ctx.logger().Warn("cars still touching after separation limit",
				log.String("system", "collisions"),
				log.String("a", a.Name),
				log.String("b", b.Name),
				log.Int("steps", steps),
			)
			return nil
		}
		a.Transform = a.Transform.Translate(back)
		b.Transform = b.Transform.Translate(nudge)
		abox, bbox = a.Box(), b.Box()
	}
	return nil
}

// FixedCollisions bounces cars off static scenery. A car corner inside an
// obstacle reflects the car off the nearest obstacle edge; an obstacle
// corner inside the car, as when the car is engulfed, just reverses it.
// Either way the car is then pushed along its new velocity until clear.
type FixedCollisions struct{}

func (FixedCollisions) Name() string          { return "fixed-collisions" }
func (FixedCollisions) Phase() ExecutionPhase { return PhaseFixedCollision }

func (FixedCollisions) Update(ctx *Context, w *models.World) error {
	t := ctx.tuning()
	for i := range w.Cars {
		car := &w.Cars[i]
		for j := range w.Colliders {
			if err := bounce(ctx, car, &w.Colliders[j], t); err != nil {
				return err
			}
		}
	}
	return nil
}

func bounce(ctx *Context, car *models.Car, obstacle *models.Collider, t config.Tuning) error {
	carBox, obsBox := car.Box(), obstacle.Box()

	if pt, ok := carBox.FirstVertexInside(obsBox); ok {
		edge := obsBox.ClosestEdgeToPoint(pt)
		car.Racer.Velocity = physics.ReflectAgainstLine(car.Racer.Velocity, edge)
	} else if _, ok := obsBox.FirstVertexInside(carBox); ok {
		car.Racer.Velocity = car.Racer.Velocity.Mul(-1)
	} else {
		return nil
	}

	dir, err := physics.Normalize(car.Racer.Velocity)
	if err != nil {
		// a stationary car is pushed straight away from the obstacle
		dir, err = physics.Normalize(car.Position().Sub(obstacle.Transform.Translation))
		if err != nil {
			return fmt.Errorf("%w: car %q inside %q at %v", ErrCoincidentBodies, car.Name, obstacle.Name, car.Position())
		}
	}
	step := dir.Mul(t.PushStep)

	for steps := 0; carBox.IsTouching(obsBox); steps++ {
		if steps >= t.MaxPushSteps {
			ctx.logger().Warn("car still inside scenery after push limit",
				log.String("system", "fixed-collisions"),
				log.String("car", car.Name),
				log.String("obstacle", obstacle.Name),
				log.Int("steps", steps),
			)
			return nil
		}
		car.Transform = car.Transform.Translate(step)
		carBox = car.Box()
	}
	return nil
}
