package systems

import (
	"github.com/zeusync/tdr/internal/core/events/bus"
	"github.com/zeusync/tdr/internal/core/models"
	"github.com/zeusync/tdr/internal/core/observability/log"
)

// Laps counts laps from checkpoint contacts and reports completed laps and
// the winner on the bus.
type Laps struct {
	finished bool
}

func (*Laps) Name() string          { return "laps" }
func (*Laps) Phase() ExecutionPhase { return PhaseLaps }

// Reset re-arms the race finish for a new level.
func (l *Laps) Reset() { l.finished = false }

// Finished reports whether a car has completed the race.
func (l *Laps) Finished() bool { return l.finished }

func (l *Laps) Update(ctx *Context, w *models.World) error {
	full := w.FullMask()
	if full == 0 {
		return nil
	}
	target := ctx.laps()
	for i := range w.Cars {
		car := &w.Cars[i]
		box := car.Box()
		for j := range w.Checkpoints {
			cp := &w.Checkpoints[j]
			if !box.IsTouching(cp.Box()) {
				continue
			}
			if !AdvanceLap(&car.Racer, cp.Bit, full) {
				continue
			}
			ctx.logger().Info("lap completed",
				log.String("car", car.Name),
				log.Uint32("lap", car.Racer.LapCount),
				log.Uint64("tick", ctx.Tick),
			)
			ctx.publish(bus.EventLap, bus.Lap{
				CarID:  uint64(car.ID),
				Car:    car.Name,
				Player: car.Player,
				Lap:    car.Racer.LapCount,
				Tick:   ctx.Tick,
			})
			if !l.finished && car.Racer.LapCount >= target {
				l.finished = true
				ctx.publish(bus.EventRaceFinished, bus.RaceFinished{
					CarID:  uint64(car.ID),
					Car:    car.Name,
					Player: car.Player,
					Laps:   car.Racer.LapCount,
					Tick:   ctx.Tick,
				})
			}
		}
	}
	return nil
}

// AdvanceLap records contact with the checkpoint bit. The first checkpoint
// a car touches becomes its start/finish line. A lap completes when the car
// is back on that line having touched every checkpoint; accumulation then
// restarts from the line. It reports whether a lap completed.
func AdvanceLap(r *models.Racer, bit, full uint32) bool {
	if r.StartFinishBit == 0 {
		r.StartFinishBit = bit
	}
	r.SubMask |= bit
	if r.SubMask == full && bit == r.StartFinishBit {
		r.LapCount++
		r.SubMask = bit
		return true
	}
	return false
}
