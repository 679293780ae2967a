// Package models holds the per-level entity arenas the simulation systems
// iterate over.
package models

import (
	"fmt"

	"github.com/zeusync/tdr/internal/core/systems/physics"
)

type EntityID uint64

// CarHandle indexes World.Cars.
type CarHandle int

// ColliderHandle indexes World.Colliders.
type ColliderHandle int

// Car is a moving body driven by a human or by the AI.
type Car struct {
	ID        EntityID
	Name      string
	Player    bool
	Transform physics.Transform
	Shape     physics.Polygon
	Racer     Racer
}

// Box returns the car's collision polygon in world space.
func (c *Car) Box() physics.Polygon { return c.Shape.Transform(c.Transform) }

// Position returns the car's world position.
func (c *Car) Position() physics.Vec2 { return c.Transform.Translation }

// SyncRotation points the transform along the racer heading.
func (c *Car) SyncRotation() { c.Transform.Rotation = SpriteRotation(c.Racer.Angle) }

// Collider is static scenery.
type Collider struct {
	ID        EntityID
	Name      string
	Tag       string
	Transform physics.Transform
	Shape     physics.Polygon
}

// Box returns the collider polygon in world space.
func (c *Collider) Box() physics.Polygon { return c.Shape.Transform(c.Transform) }

// Checkpoint is a lap sensor. Bit is 1<<n for the n-th authored checkpoint.
type Checkpoint struct {
	ID        EntityID
	Name      string
	Transform physics.Transform
	Shape     physics.Polygon
	Bit       uint32
}

// Box returns the sensor polygon in world space.
func (c *Checkpoint) Box() physics.Polygon { return c.Shape.Transform(c.Transform) }

// World owns every entity of the loaded level. The host reads transforms
// and lap counts from it directly; systems mutate it once per tick.
type World struct {
	Cars        []Car
	Colliders   []Collider
	Checkpoints []Checkpoint

	nextID EntityID
}

// NewWorld returns an empty world.
func NewWorld() *World { return &World{} }

func (w *World) id() EntityID {
	w.nextID++
	return w.nextID
}

// AddCar appends a car and returns its handle. The transform rotation is
// derived from the racer heading.
func (w *World) AddCar(name string, player bool, pos physics.Vec2, shape physics.Polygon, racer Racer) (CarHandle, error) {
	if !shape.Valid() {
		return -1, fmt.Errorf("car %q: %w", name, ErrInvalidShape)
	}
	c := Car{
		ID:        w.id(),
		Name:      name,
		Player:    player,
		Transform: physics.NewTransform(pos, 0),
		Shape:     shape,
		Racer:     racer,
	}
	c.SyncRotation()
	w.Cars = append(w.Cars, c)
	return CarHandle(len(w.Cars) - 1), nil
}

// AddCollider appends a piece of static scenery.
func (w *World) AddCollider(name, tag string, tf physics.Transform, shape physics.Polygon) (ColliderHandle, error) {
	if !shape.Valid() {
		return -1, fmt.Errorf("collider %q: %w", name, ErrInvalidShape)
	}
	w.Colliders = append(w.Colliders, Collider{ID: w.id(), Name: name, Tag: tag, Transform: tf, Shape: shape})
	return ColliderHandle(len(w.Colliders) - 1), nil
}

// AddCheckpoint appends a checkpoint and assigns it the next free bit.
func (w *World) AddCheckpoint(name string, tf physics.Transform, shape physics.Polygon) (uint32, error) {
	n := len(w.Checkpoints)
	if n >= 32 {
		return 0, fmt.Errorf("checkpoint %q: %w", name, ErrTooManyCheckpoints)
	}
	if !shape.Valid() {
		return 0, fmt.Errorf("checkpoint %q: %w", name, ErrInvalidShape)
	}
	bit := uint32(1) << n
	w.Checkpoints = append(w.Checkpoints, Checkpoint{ID: w.id(), Name: name, Transform: tf, Shape: shape, Bit: bit})
	return bit, nil
}

// FullMask is the OR of every checkpoint bit.
func (w *World) FullMask() uint32 {
	var m uint32
	for i := range w.Checkpoints {
		m |= w.Checkpoints[i].Bit
	}
	return m
}

// Car returns the car behind h.
func (w *World) Car(h CarHandle) (*Car, error) {
	if h < 0 || int(h) >= len(w.Cars) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCar, h)
	}
	return &w.Cars[h], nil
}

// Player returns the first player-controlled car.
func (w *World) Player() (CarHandle, bool) {
	for i := range w.Cars {
		if w.Cars[i].Player {
			return CarHandle(i), true
		}
	}
	return -1, false
}

// Reset drops every entity.
func (w *World) Reset() {
	w.Cars = nil
	w.Colliders = nil
	w.Checkpoints = nil
}
