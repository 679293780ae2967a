package track

import (
	"strings"

	"github.com/zeusync/tdr/internal/core/systems/physics"
)

// ShapeRule maps assets whose name contains Tag onto a collision shape.
// Scale shrinks or grows the sprite size; Percent is the corner rounding,
// 0 meaning a plain rectangle.
type ShapeRule struct {
	Tag     string  `mapstructure:"tag" yaml:"tag"`
	Scale   float64 `mapstructure:"scale" yaml:"scale"`
	Percent float64 `mapstructure:"percent" yaml:"percent"`
}

// ShapeTable is an ordered rule list; the first matching rule wins.
type ShapeTable []ShapeRule

// DefaultShapes gives trees a small rounded trunk box and rounds tyre walls
// and cars heavily. Anything else collides with its full rectangle.
func DefaultShapes() ShapeTable {
	return ShapeTable{
		{Tag: "tree", Scale: 0.5, Percent: 40},
		{Tag: "tires", Scale: 1, Percent: 60},
		{Tag: "car", Scale: 1, Percent: 60},
	}
}

// Rule returns the first rule whose tag is a substring of asset.
func (t ShapeTable) Rule(asset string) (ShapeRule, bool) {
	for _, r := range t {
		if r.Tag != "" && strings.Contains(asset, r.Tag) {
			return r, true
		}
	}
	return ShapeRule{}, false
}

// Shape builds the untransformed collision polygon for an asset drawn at
// size.
func (t ShapeTable) Shape(asset string, size physics.Vec2) (physics.Polygon, error) {
	r, ok := t.Rule(asset)
	if !ok {
		return physics.FromSize(size)
	}
	scale := r.Scale
	if scale == 0 {
		scale = 1
	}
	size = size.Mul(scale)
	if r.Percent == 0 {
		return physics.FromSize(size)
	}
	return physics.FromSizeRounded(size, r.Percent)
}
