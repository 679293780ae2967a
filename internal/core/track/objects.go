package track

import (
	"fmt"
	"math"

	"github.com/zeusync/tdr/internal/core/observability/log"
	"github.com/zeusync/tdr/internal/core/systems/physics"
)

// ObjectKind separates solid scenery from checkpoint sensors.
type ObjectKind string

const (
	KindScenery    ObjectKind = "scenery"
	KindCheckpoint ObjectKind = "checkpoint"
)

// ObjectDef is an object as authored in the map editor. Coordinates are map
// pixels with the origin at the top-left and y pointing down. Scenery is a
// tile object anchored at its bottom-left corner; checkpoints are plain
// rectangles anchored at their top-left corner. Rotation is in degrees,
// clockwise, about the anchor.
type ObjectDef struct {
	Name     string     `yaml:"name"`
	Kind     ObjectKind `yaml:"kind"`
	Asset    string     `yaml:"asset"`
	X        float64    `yaml:"x"`
	Y        float64    `yaml:"y"`
	Width    float64    `yaml:"width"`
	Height   float64    `yaml:"height"`
	Rotation float64    `yaml:"rotation"`
}

// ObjectSource supplies the authored objects of a level in authoring order.
type ObjectSource interface {
	Objects() ([]ObjectDef, error)
}

// Placement is an object converted to world space.
type Placement struct {
	Name      string
	Tag       string
	Transform physics.Transform
	Shape     physics.Polygon
}

// Imported holds the placements produced from one object list. Checkpoints
// keep authoring order.
type Imported struct {
	Scenery     []Placement
	Checkpoints []Placement
	Skipped     int
}

// Importer converts authored objects into placements.
type Importer struct {
	Shapes ShapeTable
	Log    log.Log
}

// Import places every object relative to the layer. Objects that cannot be
// placed are logged and skipped; one bad object never fails the level.
func (imp Importer) Import(l Layer, defs []ObjectDef) Imported {
	var out Imported
	mapSize := MapSize(l)
	for i, def := range defs {
		p, err := imp.place(mapSize, def)
		if err != nil {
			out.Skipped++
			if imp.Log != nil {
				imp.Log.Error("skipping map object",
					log.Int("index", i),
					log.String("name", def.Name),
					log.String("asset", def.Asset),
					log.Error(err),
				)
			}
			continue
		}
		if def.Kind == KindCheckpoint {
			out.Checkpoints = append(out.Checkpoints, p)
		} else {
			out.Scenery = append(out.Scenery, p)
		}
	}
	return out
}

func (imp Importer) place(mapSize physics.Vec2, def ObjectDef) (Placement, error) {
	if !finite(def.X, def.Y, def.Rotation) {
		return Placement{}, ErrObjectPlace
	}
	if !(def.Width > 0 && def.Height > 0) {
		return Placement{}, fmt.Errorf("%w: %vx%v", ErrObjectSize, def.Width, def.Height)
	}
	size := physics.V(def.Width, def.Height)

	switch def.Kind {
	case KindCheckpoint:
		shape, err := physics.FromSize(size)
		if err != nil {
			return Placement{}, err
		}
		// the centre sits half a size right of and below the anchor
		tf := anchored(mapSize, def, physics.V(def.Width/2, def.Height/2))
		return Placement{Name: def.Name, Tag: string(KindCheckpoint), Transform: tf, Shape: shape}, nil

	case KindScenery, "":
		if def.Asset == "" {
			return Placement{}, ErrMissingAsset
		}
		shape, err := imp.Shapes.Shape(def.Asset, size)
		if err != nil {
			return Placement{}, err
		}
		tf := anchored(mapSize, def, physics.V(def.Width/2, -def.Height/2))
		return Placement{Name: def.Name, Tag: def.Asset, Transform: tf, Shape: shape}, nil
	}
	return Placement{}, fmt.Errorf("%w: %q", ErrUnknownKind, def.Kind)
}

// anchored finds the world transform of an object whose centre lies at
// offset from its anchor, both in map space before rotation.
func anchored(mapSize physics.Vec2, def ObjectDef, offset physics.Vec2) physics.Transform {
	theta := def.Rotation * math.Pi / 180
	s, c := math.Sincos(theta)
	cx := def.X + offset[0]*c - offset[1]*s
	cy := def.Y + offset[0]*s + offset[1]*c
	pos := physics.V(cx-mapSize[0]/2, mapSize[1]/2-cy)
	return physics.NewTransform(pos, physics.WrapAngle(-theta))
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
