package models

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/tdr/internal/core/systems/physics"
)

func TestAddCheckpointAssignsBits(t *testing.T) {
	w := NewWorld()
	box := physics.MustFromSize(physics.V(10, 100))

	for i := 0; i < 3; i++ {
		bit, err := w.AddCheckpoint(fmt.Sprintf("cp%d", i), physics.Identity(), box)
		require.NoError(t, err)
		assert.Equal(t, uint32(1)<<i, bit)
	}
	assert.Equal(t, uint32(7), w.FullMask())
}

func TestAddCheckpointLimit(t *testing.T) {
	w := NewWorld()
	box := physics.MustFromSize(physics.V(10, 10))
	for i := 0; i < 32; i++ {
		_, err := w.AddCheckpoint("cp", physics.Identity(), box)
		require.NoError(t, err)
	}
	assert.Equal(t, uint32(math.MaxUint32), w.FullMask())

	_, err := w.AddCheckpoint("one-too-many", physics.Identity(), box)
	assert.ErrorIs(t, err, ErrTooManyCheckpoints)
	assert.Len(t, w.Checkpoints, 32)
}

func TestAddRejectsInvalidShapes(t *testing.T) {
	w := NewWorld()
	_, err := w.AddCar("ghost", false, physics.V(0, 0), physics.Polygon{}, Racer{})
	assert.ErrorIs(t, err, ErrInvalidShape)
	_, err = w.AddCollider("ghost", "tree", physics.Identity(), physics.Polygon{})
	assert.ErrorIs(t, err, ErrInvalidShape)
	_, err = w.AddCheckpoint("ghost", physics.Identity(), physics.Polygon{})
	assert.ErrorIs(t, err, ErrInvalidShape)
}

func TestAddCarSyncsRotation(t *testing.T) {
	w := NewWorld()
	shape := physics.MustFromSizeRounded(physics.V(70, 121), 60)

	ai, err := w.AddCar("ai", false, physics.V(0, 0), shape, NewRacer(math.Pi/12, physics.V(0, 20)))
	require.NoError(t, err)
	p, err := w.AddCar("player", true, physics.V(-1000, 0), shape, NewRacer(0, physics.V(0, 20)))
	require.NoError(t, err)

	car, err := w.Car(ai)
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/12-math.Pi/2, car.Transform.Rotation, 1e-12)
	assert.NotEqual(t, car.ID, w.Cars[p].ID)

	h, ok := w.Player()
	require.True(t, ok)
	assert.Equal(t, p, h)

	_, err = w.Car(5)
	assert.ErrorIs(t, err, ErrUnknownCar)

	// a car facing +x has its sprite turned a quarter clockwise, so the long
	// side of the box lies along x
	box := w.Cars[p].Box()
	assert.True(t, box.ContainsPoint(physics.V(-1000+60, 0)))
	assert.False(t, box.ContainsPoint(physics.V(-1000, 60)))

	w.Reset()
	assert.Empty(t, w.Cars)
}

func TestRacerPenaltyDecay(t *testing.T) {
	r := Racer{Penalty: 0.25}
	assert.True(t, r.DecayPenalty(0.1))
	assert.InDelta(t, 0.15, r.Penalty, 1e-12)
	assert.True(t, r.DecayPenalty(1))
	assert.Zero(t, r.Penalty)
	assert.False(t, r.DecayPenalty(1))
}

func TestRacerTurnWraps(t *testing.T) {
	r := NewRacer(math.Pi-0.01, physics.V(0, 0))
	r.Turn(0.02)
	assert.InDelta(t, -math.Pi+0.01, r.Angle, 1e-12)
}
