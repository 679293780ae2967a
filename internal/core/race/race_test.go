package race

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/tdr/internal/config"
	"github.com/zeusync/tdr/internal/core/events/bus"
	"github.com/zeusync/tdr/internal/core/guidance"
	"github.com/zeusync/tdr/internal/core/observability/log"
	"github.com/zeusync/tdr/internal/core/systems/physics"
	"github.com/zeusync/tdr/internal/core/track"
)

type testLevel struct {
	name   string
	grid   *track.Grid
	objs   []track.ObjectDef
	spawns []Spawn
	objErr error
}

func (l testLevel) Name() string                        { return l.name }
func (l testLevel) Track() (track.Layer, error)         { return l.grid, nil }
func (l testLevel) Objects() ([]track.ObjectDef, error) { return l.objs, l.objErr }
func (l testLevel) Spawns() []Spawn                     { return l.spawns }

// loopLevel is a 15x11 grid of 128 unit cells with a three cell wide loop
// around a 7x3 infield. The bottom straight runs along world y = -384.
func loopLevel(t *testing.T) testLevel {
	t.Helper()
	g, err := track.NewGrid(15, 11, 128, 128)
	require.NoError(t, err)
	for y := 1; y <= 9; y++ {
		for x := 1; x <= 13; x++ {
			if x >= 4 && x <= 10 && y >= 4 && y <= 6 {
				continue
			}
			require.NoError(t, g.Set(x, y, true))
		}
	}
	return testLevel{
		name: "loop",
		grid: g,
		objs: []track.ObjectDef{
			{Name: "oak", Kind: track.KindScenery, Asset: "tree_large", X: 900, Y: 700, Width: 100, Height: 100},
			{Name: "start", Kind: track.KindCheckpoint, X: 950, Y: 896, Width: 20, Height: 384},
			{Name: "back", Kind: track.KindCheckpoint, X: 950, Y: 128, Width: 20, Height: 384},
			{Name: "broken", Kind: track.KindScenery, Width: 10, Height: 10},
		},
		spawns: []Spawn{
			{Name: "player", Player: true, Position: physics.V(-600, -384)},
			{Name: "ai", Position: physics.V(-300, -384), Velocity: physics.V(20, 0)},
		},
	}
}

func newSession(t *testing.T, cache *guidance.Cache) (*Session, bus.EventBus) {
	t.Helper()
	p := config.Default()
	b := bus.New()
	return NewSession(&p, cache, b, log.Nop()), b
}

func TestLoadPopulatesWorld(t *testing.T) {
	s, b := newSession(t, guidance.NewCache(2))
	var loaded []bus.TrackLoaded
	_, _ = b.Subscribe(bus.EventTrackLoaded, func(e bus.Event) error {
		loaded = append(loaded, e.Data().(bus.TrackLoaded))
		return nil
	})

	require.NoError(t, s.Load(context.Background(), loopLevel(t)))

	w := s.World()
	require.NotNil(t, w)
	assert.Len(t, w.Cars, 2)
	assert.Len(t, w.Colliders, 1, "the object without an asset is skipped")
	assert.Len(t, w.Checkpoints, 2)
	assert.Equal(t, uint32(3), w.FullMask())
	assert.Equal(t, "loop", s.Level())
	assert.NotEmpty(t, s.ID)

	fw, fh := s.Field().Size()
	assert.Equal(t, 15*guidance.FieldScale, fw)
	assert.Equal(t, 11*guidance.FieldScale, fh)

	// cars use the rounded car box
	assert.Equal(t, 8, w.Cars[0].Shape.Len())

	require.Len(t, loaded, 1)
	assert.False(t, loaded[0].CachedField)
	assert.Equal(t, 2, loaded[0].Checkpoints)

	require.NoError(t, s.Load(context.Background(), loopLevel(t)))
	require.Len(t, loaded, 2)
	assert.True(t, loaded[1].CachedField)
}

func TestLoadDefaultSpawns(t *testing.T) {
	s, _ := newSession(t, nil)
	lvl := loopLevel(t)
	lvl.spawns = nil
	require.NoError(t, s.Load(context.Background(), lvl))

	w := s.World()
	require.Len(t, w.Cars, 4)
	h, ok := w.Player()
	require.True(t, ok)
	assert.Equal(t, physics.V(-1000, 0), w.Cars[h].Position())
	assert.Zero(t, w.Cars[h].Racer.Angle)
	for _, c := range w.Cars {
		assert.Equal(t, physics.V(0, 20), c.Racer.Velocity)
		if !c.Player {
			assert.InDelta(t, math.Pi/12, c.Racer.Angle, 1e-12)
		}
	}
}

func TestLoadFailureKeepsPreviousLevel(t *testing.T) {
	s, _ := newSession(t, nil)
	require.NoError(t, s.Load(context.Background(), loopLevel(t)))
	before := s.World()

	broken := loopLevel(t)
	broken.name = "broken"
	broken.objErr = errors.New("disk on fire")
	err := s.Load(context.Background(), broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
	assert.Same(t, before, s.World())
	assert.Equal(t, "loop", s.Level())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Load(ctx, loopLevel(t)), context.Canceled)
}

func TestUnload(t *testing.T) {
	s, b := newSession(t, nil)
	var unloaded int
	_, _ = b.Subscribe(bus.EventTrackUnloaded, func(bus.Event) error { unloaded++; return nil })

	sim, err := NewSimulation(s)
	require.NoError(t, err)
	assert.ErrorIs(t, sim.Step(0.01), ErrNotLoaded)

	require.NoError(t, s.Load(context.Background(), loopLevel(t)))
	require.NoError(t, sim.Step(0.01))

	s.Unload()
	s.Unload()
	assert.Nil(t, s.World())
	assert.Nil(t, s.Field())
	assert.Nil(t, s.Track())
	assert.Equal(t, 1, unloaded)
	assert.ErrorIs(t, sim.Step(0.01), ErrNotLoaded)
	assert.Empty(t, sim.Snapshot().Cars)
}

func TestStepRejectsBadDelta(t *testing.T) {
	s, _ := newSession(t, nil)
	require.NoError(t, s.Load(context.Background(), loopLevel(t)))
	sim, err := NewSimulation(s)
	require.NoError(t, err)

	for _, dt := range []float64{-0.1, math.NaN(), math.Inf(1)} {
		assert.ErrorIs(t, sim.Step(dt), ErrInvalidStep)
	}
	assert.Zero(t, sim.Tick())
}

func TestRaceOnLoopTrack(t *testing.T) {
	s, _ := newSession(t, guidance.NewCache(1))
	require.NoError(t, s.Load(context.Background(), loopLevel(t)))

	sim, err := NewSimulation(s)
	require.NoError(t, err)
	defer func() { _ = sim.Close() }()

	start := s.World().Cars[1].Position()
	for i := 0; i < 240; i++ {
		require.NoError(t, sim.Step(1.0/60))
	}
	assert.Equal(t, uint64(240), sim.Tick())

	snap := sim.Snapshot()
	require.Len(t, snap.Cars, 2)
	ai := snap.Cars[1]
	assert.Equal(t, "ai", ai.Name)
	assert.False(t, math.IsNaN(ai.X) || math.IsNaN(ai.Y))
	assert.Greater(t, physics.Distance(start, physics.V(ai.X, ai.Y)), 100.0, "the AI drives off along the straight")

	// the player has no input and coasts to a stop where it started
	assert.InDelta(t, -600, snap.Cars[0].X, 1e-9)

	m, ok := sim.Metrics("kinematics")
	require.True(t, ok)
	assert.Equal(t, uint64(240), m.ExecutionCount)
	assert.False(t, sim.Finished())
}

func TestReloadResetsTicks(t *testing.T) {
	s, _ := newSession(t, nil)
	sim, err := NewSimulation(s)
	require.NoError(t, err)

	require.NoError(t, s.Load(context.Background(), loopLevel(t)))
	require.NoError(t, sim.Step(0.01))
	require.NoError(t, sim.Step(0.01))
	assert.Equal(t, uint64(2), sim.Tick())

	require.NoError(t, s.Load(context.Background(), loopLevel(t)))
	assert.Zero(t, sim.Tick())
}

func TestLoadSkipsNonFiniteSpawns(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	p := config.Default()
	s := NewSession(&p, nil, nil, log.FromZap(zap.New(core), log.LevelDebug))

	lvl := loopLevel(t)
	lvl.spawns = []Spawn{
		{Name: "spinning", Angle: math.Inf(1), Position: physics.V(-300, -384)},
		{Name: "lost", Position: physics.V(math.NaN(), -384)},
		{Name: "runaway", Position: physics.V(0, -384), Velocity: physics.V(math.Inf(-1), 0)},
		{Name: "wound", Angle: 1e300, Position: physics.V(300, -384)},
		{Name: "player", Player: true, Position: physics.V(-600, -384)},
	}

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background(), lvl) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Load did not return")
	}

	w := s.World()
	require.Len(t, w.Cars, 2)
	assert.Equal(t, "wound", w.Cars[0].Name)
	a := w.Cars[0].Racer.Angle
	assert.True(t, a > -math.Pi && a <= math.Pi, "angle %v", a)
	assert.Equal(t, "player", w.Cars[1].Name)

	skipped := logs.FilterMessage("skipping spawn").All()
	require.Len(t, skipped, 3)
	for _, e := range skipped {
		assert.Equal(t, ErrInvalidSpawn.Error(), e.ContextMap()["error"])
	}
}
