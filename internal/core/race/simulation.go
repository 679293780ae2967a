package race

import (
	"fmt"
	"math"

	"github.com/zeusync/tdr/internal/core/events/bus"
	"github.com/zeusync/tdr/internal/core/observability/log"
	"github.com/zeusync/tdr/internal/core/systems"
)

// Context is what every system sees during a tick.
type Context = systems.Context

// Simulation steps the systems over the session's world.
type Simulation struct {
	session *Session
	manager *systems.Manager
	laps    *systems.Laps
	log     log.Log

	drawer systems.Drawer
	input  systems.InputSource

	tick uint64
	sub  bus.Subscription
}

type Option func(*Simulation)

// WithDrawer routes debug overlays to d.
func WithDrawer(d systems.Drawer) Option { return func(s *Simulation) { s.drawer = d } }

// WithInput sets the player input source.
func WithInput(in systems.InputSource) Option { return func(s *Simulation) { s.input = in } }

// WithLogger overrides the session logger.
func WithLogger(l log.Log) Option { return func(s *Simulation) { s.log = l } }

// NewSimulation builds the standard pipeline over session.
func NewSimulation(session *Session, opts ...Option) (*Simulation, error) {
	sim := &Simulation{session: session, log: session.log}
	for _, opt := range opts {
		opt(sim)
	}

	pipeline := systems.Default()
	for _, s := range pipeline {
		if l, ok := s.(*systems.Laps); ok {
			sim.laps = l
		}
	}
	m, err := systems.NewManager(pipeline...)
	if err != nil {
		return nil, err
	}
	sim.manager = m

	sub, err := session.Bus().Subscribe(bus.EventTrackLoaded, func(bus.Event) error {
		sim.laps.Reset()
		sim.tick = 0
		return nil
	})
	if err != nil {
		return nil, err
	}
	sim.sub = sub
	return sim, nil
}

// Step advances the world by dt seconds. Any error aborts the rest of the
// tick.
func (sim *Simulation) Step(dt float64) error {
	if !(dt >= 0) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidStep, dt)
	}
	w := sim.session.World()
	if w == nil {
		return ErrNotLoaded
	}
	sim.tick++
	ctx := &Context{
		DT:     dt,
		Tick:   sim.tick,
		Field:  sim.session.Field(),
		Track:  sim.session.Track(),
		Config: sim.session.Preferences(),
		Log:    sim.log,
		Drawer: sim.drawer,
		Input:  sim.input,
		Bus:    sim.session.Bus(),
	}
	if err := sim.manager.Update(ctx, w); err != nil {
		sim.log.Error("tick aborted", log.Uint64("tick", sim.tick), log.Error(err))
		return err
	}
	return nil
}

// Tick returns the number of ticks run since the level loaded.
func (sim *Simulation) Tick() uint64 { return sim.tick }

// Finished reports whether a car has completed the race.
func (sim *Simulation) Finished() bool { return sim.laps.Finished() }

// Metrics returns the per-system metrics.
func (sim *Simulation) Metrics(name string) (systems.Metrics, bool) {
	return sim.manager.GetSystemMetrics(name)
}

// Close detaches the simulation from the session bus.
func (sim *Simulation) Close() error {
	return sim.session.Bus().Unsubscribe(sim.sub)
}

// CarState is the public view of one car.
type CarState struct {
	ID     uint64  `json:"id"`
	Name   string  `json:"name"`
	Player bool    `json:"player"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Angle  float64 `json:"angle"`
	Speed  float64 `json:"speed"`
	Lap    uint32  `json:"lap"`
}

// Snapshot is the state a renderer or spectator needs for one frame.
type Snapshot struct {
	Level string     `json:"level"`
	Tick  uint64     `json:"tick"`
	Cars  []CarState `json:"cars"`
}

// Snapshot copies the current car states.
func (sim *Simulation) Snapshot() Snapshot {
	snap := Snapshot{Level: sim.session.Level(), Tick: sim.tick}
	w := sim.session.World()
	if w == nil {
		return snap
	}
	snap.Cars = make([]CarState, len(w.Cars))
	for i := range w.Cars {
		c := &w.Cars[i]
		pos := c.Position()
		snap.Cars[i] = CarState{
			ID:     uint64(c.ID),
			Name:   c.Name,
			Player: c.Player,
			X:      pos[0],
			Y:      pos[1],
			Angle:  c.Racer.Angle,
			Speed:  c.Racer.Speed(),
			Lap:    c.Racer.LapCount,
		}
	}
	return snap
}
