// Package race ties a loaded level to the simulation systems and drives
// them one tick at a time.
package race

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/tdr/internal/config"
	"github.com/zeusync/tdr/internal/core/events/bus"
	"github.com/zeusync/tdr/internal/core/guidance"
	"github.com/zeusync/tdr/internal/core/models"
	"github.com/zeusync/tdr/internal/core/observability/log"
	"github.com/zeusync/tdr/internal/core/systems/physics"
	"github.com/zeusync/tdr/internal/core/track"
)

// CarSize is the sprite size of every stock car.
var CarSize = physics.V(70, 121)

// Spawn places a car at level start.
type Spawn struct {
	Name     string
	Player   bool
	Position physics.Vec2
	Angle    float64
	Velocity physics.Vec2
	// Asset picks the collision shape from the shape table. Empty means
	// "car".
	Asset string
	// Size defaults to CarSize.
	Size physics.Vec2
}

// DefaultSpawns is the starting grid used when a level brings none: the
// player behind three AI cars, everyone already rolling.
func DefaultSpawns() []Spawn {
	roll := physics.V(0, 20)
	return []Spawn{
		{Name: "player", Player: true, Position: physics.V(-1000, 0), Angle: 0, Velocity: roll},
		{Name: "blue", Position: physics.V(0, 0), Angle: math.Pi / 12, Velocity: roll},
		{Name: "yellow", Position: physics.V(-333.3, 0), Angle: math.Pi / 12, Velocity: roll},
		{Name: "green", Position: physics.V(-666.6, 0), Angle: math.Pi / 12, Velocity: roll},
	}
}

// Provider supplies everything a level needs.
type Provider interface {
	track.ObjectSource
	Name() string
	Track() (track.Layer, error)
	// Spawns may return nil to use DefaultSpawns.
	Spawns() []Spawn
}

// Session owns the state of the currently loaded level. Load and Unload
// must not run concurrently with Simulation.Step; the guidance field itself
// is swapped atomically so readers outside the tick never see a torn
// field.
type Session struct {
	ID string

	prefs *config.Preferences
	cache *guidance.Cache
	bus   bus.EventBus
	log   log.Log

	mu    sync.RWMutex
	world *models.World
	layer track.Layer
	level string
	field atomic.Pointer[guidance.Field]
}

// NewSession creates an empty session. A nil cache disables field reuse.
func NewSession(prefs *config.Preferences, cache *guidance.Cache, b bus.EventBus, logger log.Log) *Session {
	if prefs == nil {
		d := config.Default()
		prefs = &d
	}
	if b == nil {
		b = bus.New()
	}
	if logger == nil {
		logger = log.Nop()
	}
	id := uuid.NewString()
	return &Session{
		ID:    id,
		prefs: prefs,
		cache: cache,
		bus:   b,
		log:   logger.With(log.String("session", id)),
	}
}

// Load replaces the current level with the one p describes. The guidance
// field is built while the objects are read; nothing changes unless every
// step succeeds.
func (s *Session) Load(ctx context.Context, p Provider) error {
	layer, err := p.Track()
	if err != nil {
		return fmt.Errorf("load %q: %w", p.Name(), err)
	}
	if layer == nil {
		return fmt.Errorf("load %q: %w", p.Name(), ErrNoTrack)
	}

	var (
		field  *guidance.Field
		cached bool
		defs   []track.ObjectDef
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		var err error
		if s.cache != nil {
			field, cached, err = s.cache.Get(layer)
		} else {
			field, err = guidance.Build(layer)
		}
		if err != nil {
			return fmt.Errorf("guidance field: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		var err error
		defs, err = p.Objects()
		if err != nil {
			return fmt.Errorf("objects: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load %q: %w", p.Name(), err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	w := s.populate(layer, defs, p.Spawns())

	s.mu.Lock()
	s.world, s.layer, s.level = w, layer, p.Name()
	s.field.Store(field)
	s.mu.Unlock()

	width, height := layer.Size()
	s.log.Info("level loaded",
		log.String("level", p.Name()),
		log.Int("cars", len(w.Cars)),
		log.Int("colliders", len(w.Colliders)),
		log.Int("checkpoints", len(w.Checkpoints)),
		log.Bool("cachedField", cached),
	)
	if err := s.bus.Publish(bus.NewEvent(bus.EventTrackLoaded, "session", bus.TrackLoaded{
		Session:     s.ID,
		Level:       p.Name(),
		Width:       width,
		Height:      height,
		Cars:        len(w.Cars),
		Colliders:   len(w.Colliders),
		Checkpoints: len(w.Checkpoints),
		CachedField: cached,
	}, nil)); err != nil {
		s.log.Warn("track loaded handler failed", log.Error(err))
	}
	return nil
}

func (s *Session) populate(layer track.Layer, defs []track.ObjectDef, spawns []Spawn) *models.World {
	imported := track.Importer{Shapes: s.prefs.Shapes, Log: s.log}.Import(layer, defs)
	w := models.NewWorld()

	for _, p := range imported.Scenery {
		if _, err := w.AddCollider(p.Name, p.Tag, p.Transform, p.Shape); err != nil {
			s.log.Error("skipping scenery", log.String("name", p.Name), log.Error(err))
		}
	}
	for _, p := range imported.Checkpoints {
		if _, err := w.AddCheckpoint(p.Name, p.Transform, p.Shape); err != nil {
			s.log.Error("skipping checkpoint", log.String("name", p.Name), log.Error(err))
		}
	}

	if len(spawns) == 0 {
		spawns = DefaultSpawns()
	}
	for i, sp := range spawns {
		if err := s.spawn(w, sp); err != nil {
			s.log.Error("skipping spawn", log.Int("index", i), log.String("name", sp.Name), log.Error(err))
		}
	}
	return w
}

func (s *Session) spawn(w *models.World, sp Spawn) error {
	if !finite(sp.Angle, sp.Position[0], sp.Position[1], sp.Velocity[0], sp.Velocity[1], sp.Size[0], sp.Size[1]) {
		return ErrInvalidSpawn
	}
	size := sp.Size
	if size == (physics.Vec2{}) {
		size = CarSize
	}
	asset := sp.Asset
	if asset == "" {
		asset = "car"
	}
	shape, err := s.prefs.Shapes.Shape(asset, size)
	if err != nil {
		return err
	}
	_, err = w.AddCar(sp.Name, sp.Player, sp.Position, shape, models.NewRacer(sp.Angle, sp.Velocity))
	return err
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Unload discards every piece of per-level state.
func (s *Session) Unload() {
	s.mu.Lock()
	level := s.level
	s.world, s.layer, s.level = nil, nil, ""
	s.field.Store(nil)
	s.mu.Unlock()

	if level == "" {
		return
	}
	s.log.Info("level unloaded", log.String("level", level))
	_ = s.bus.Publish(bus.NewEvent(bus.EventTrackUnloaded, "session", level, nil))
}

// World returns the loaded world, or nil.
func (s *Session) World() *models.World {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.world
}

// Track returns the loaded tile layer, or nil.
func (s *Session) Track() track.Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layer
}

// Level returns the loaded level name.
func (s *Session) Level() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.level
}

// Field returns the current guidance field, or nil before a track loads.
func (s *Session) Field() *guidance.Field { return s.field.Load() }

// Bus returns the event bus the session publishes on.
func (s *Session) Bus() bus.EventBus { return s.bus }

// Preferences returns the session preferences.
func (s *Session) Preferences() *config.Preferences { return s.prefs }
