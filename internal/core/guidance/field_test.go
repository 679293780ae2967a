package guidance

import (
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/tdr/internal/core/systems/physics"
)

type gridMask struct {
	w, h  int
	cells []bool
}

func (g gridMask) Size() (int, int) { return g.w, g.h }
func (g gridMask) HasTile(x, y int) bool {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return false
	}
	return g.cells[y*g.w+x]
}

// ringMask is an 11x11 grid with a loop three tiles wide around a 3x3 hole.
func ringMask() gridMask {
	g := gridMask{w: 11, h: 11, cells: make([]bool, 121)}
	for y := 1; y <= 9; y++ {
		for x := 1; x <= 9; x++ {
			if x >= 4 && x <= 6 && y >= 4 && y <= 6 {
				continue
			}
			g.cells[y*11+x] = true
		}
	}
	return g
}

// tileCenter converts a tile cell to the world position of its centre.
func tileCenter(f *Field, x, y float64) physics.Vec2 {
	w, h := f.Size()
	return physics.V(x*FieldScale+FieldScale/2-float64(w)/2, float64(h)/2-(y*FieldScale+FieldScale/2))
}

func TestBuildDimensions(t *testing.T) {
	f, err := Build(ringMask())
	require.NoError(t, err)
	w, h := f.Size()
	assert.Equal(t, 11*FieldScale, w)
	assert.Equal(t, 11*FieldScale, h)
}

func TestBuildEmptyMask(t *testing.T) {
	_, err := Build(gridMask{})
	assert.ErrorIs(t, err, ErrEmptyMask)
}

func TestFieldBrightestOnCenterline(t *testing.T) {
	f, err := Build(ringMask())
	require.NoError(t, err)

	center := f.Query(tileCenter(f, 5, 8))
	edge := f.Query(tileCenter(f, 5, 6.5)) // boundary between hole and track
	hole := f.Query(tileCenter(f, 5, 5))
	outside := f.Query(tileCenter(f, 5, 10.4))

	assert.Greater(t, center, edge)
	assert.Greater(t, edge, hole)
	assert.Greater(t, center, 180)
	assert.Less(t, hole, 120)
	assert.Less(t, outside, edge)

	// the loop is symmetric, so opposite sides of it read alike
	assert.InDelta(t, center, f.Query(tileCenter(f, 5, 2)), 3)
	assert.InDelta(t, center, f.Query(tileCenter(f, 2, 5)), 3)
}

func TestQueryOutOfBoundsIsZero(t *testing.T) {
	f, err := Build(ringMask())
	require.NoError(t, err)
	w, h := f.Size()
	hw, hh := float64(w)/2, float64(h)/2

	for _, p := range []physics.Vec2{
		physics.V(-hw-1, 0),
		physics.V(hw, 0),
		physics.V(0, hh),
		physics.V(0, -hh-0.5),
		physics.V(1e12, -1e12),
		physics.V(math.NaN(), 0),
		physics.V(0, math.Inf(-1)),
	} {
		assert.Equal(t, 0, f.Query(p), "query at %v", p)
	}

	var nilField *Field
	assert.Equal(t, 0, nilField.Query(physics.V(0, 0)))
}

func TestQueryFlipsVerticalAxis(t *testing.T) {
	// 2x2 field: top row bright, bottom row dark
	f, err := NewField(2, 2, []uint8{200, 200, 10, 10})
	require.NoError(t, err)

	assert.Equal(t, 200, f.Query(physics.V(-0.5, 0.5)))
	assert.Equal(t, 10, f.Query(physics.V(0.5, -0.5)))
	assert.Equal(t, 0, f.At(2, 0))

	_, err = NewField(2, 2, []uint8{1})
	assert.ErrorIs(t, err, ErrFieldBounds)
}

func TestCacheReusesFields(t *testing.T) {
	c := NewCache(1)
	small := gridMask{w: 2, h: 2, cells: []bool{true, true, false, true}}
	other := gridMask{w: 2, h: 2, cells: []bool{true, false, false, true}}

	f1, hit, err := c.Get(small)
	require.NoError(t, err)
	assert.False(t, hit)

	f2, hit, err := c.Get(small)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Same(t, f1, f2)

	assert.NotEqual(t, Fingerprint(small), Fingerprint(other))
	_, hit, err = c.Get(other)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, c.Len())

	_, hit, _ = c.Get(small)
	assert.False(t, hit, "evicted by the limit")
}

type countingMask struct {
	gridMask
	reads atomic.Int64
}

func (c *countingMask) HasTile(x, y int) bool {
	c.reads.Add(1)
	return c.gridMask.HasTile(x, y)
}

func TestCacheSharesConcurrentBuilds(t *testing.T) {
	c := NewCache(2)
	m := &countingMask{gridMask: ringMask()}
	cells := int64(11 * 11)

	var wg sync.WaitGroup
	fields := make([]*Field, 8)
	for i := range fields {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f, _, err := c.Get(m)
			assert.NoError(t, err)
			fields[i] = f
		}(i)
	}
	wg.Wait()

	for _, f := range fields {
		require.NotNil(t, f)
		assert.Same(t, fields[0], f)
	}
	assert.Equal(t, 1, c.Len())
	// every caller fingerprints the mask, only one of them rasterizes it
	assert.Equal(t, 9*cells, m.reads.Load())
}
