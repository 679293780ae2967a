// Package track describes the tile layer a race is driven on and converts
// map-authored objects into world placements.
package track

import (
	"fmt"
	"math"

	"github.com/zeusync/tdr/internal/core/systems/physics"
)

// Layer is the on-track tile layer of a level. Cell (0, 0) is the top-left
// cell of the map.
type Layer interface {
	Size() (w, h int)
	CellSize() (w, h float64)
	HasTile(x, y int) bool
}

// Grid is an in-memory Layer.
type Grid struct {
	w, h         int
	cellW, cellH float64
	tiles        []bool
}

// NewGrid returns an empty w x h grid.
func NewGrid(w, h int, cellW, cellH float64) (*Grid, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidGrid, w, h)
	}
	if !(cellW > 0 && cellH > 0) {
		return nil, fmt.Errorf("%w: %vx%v", ErrInvalidCellSize, cellW, cellH)
	}
	return &Grid{w: w, h: h, cellW: cellW, cellH: cellH, tiles: make([]bool, w*h)}, nil
}

// Set marks a cell as on-track or clears it.
func (g *Grid) Set(x, y int, on bool) error {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return fmt.Errorf("%w: (%d, %d)", ErrCellOutOfRange, x, y)
	}
	g.tiles[y*g.w+x] = on
	return nil
}

func (g *Grid) Size() (int, int)             { return g.w, g.h }
func (g *Grid) CellSize() (float64, float64) { return g.cellW, g.cellH }

func (g *Grid) HasTile(x, y int) bool {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return false
	}
	return g.tiles[y*g.w+x]
}

// Tiles counts the on-track cells.
func (g *Grid) Tiles() int {
	n := 0
	for _, t := range g.tiles {
		if t {
			n++
		}
	}
	return n
}

// MapSize returns the layer extent in map pixels.
func MapSize(l Layer) physics.Vec2 {
	w, h := l.Size()
	cw, ch := l.CellSize()
	return physics.V(float64(w)*cw, float64(h)*ch)
}

// WorldToCell converts a world position to continuous cell coordinates.
// The world origin sits at the centre of the map and world +y points up.
func WorldToCell(l Layer, pos physics.Vec2) physics.Vec2 {
	w, h := l.Size()
	cw, ch := l.CellSize()
	return physics.V(pos[0]/cw+float64(w)/2, -pos[1]/ch+float64(h)/2)
}

// CellToWorld returns the world position of the centre of cell (x, y).
func CellToWorld(l Layer, x, y int) physics.Vec2 {
	w, h := l.Size()
	cw, ch := l.CellSize()
	return physics.V((float64(x)+0.5-float64(w)/2)*cw, -(float64(y)+0.5-float64(h)/2)*ch)
}

// OnTrack reports whether pos lies on a track tile, returning its
// continuous cell coordinates either way.
func OnTrack(l Layer, pos physics.Vec2) (physics.Vec2, bool) {
	c := WorldToCell(l, pos)
	w, h := l.Size()
	x, y := math.Floor(c[0]), math.Floor(c[1])
	if !(x >= 0 && y >= 0 && x < float64(w) && y < float64(h)) {
		return c, false
	}
	return c, l.HasTile(int(x), int(y))
}
