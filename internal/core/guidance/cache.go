package guidance

import (
	"encoding/binary"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"
)

// Cache memoizes built fields by a fingerprint of their mask, so switching
// back to a track that was already raced skips the image pipeline.
type Cache struct {
	group singleflight.Group

	mu     sync.Mutex
	fields map[uint64]*Field
	limit  int
	order  []uint64
}

// NewCache keeps at most limit fields; limit <= 0 means one.
func NewCache(limit int) *Cache {
	if limit <= 0 {
		limit = 1
	}
	return &Cache{fields: make(map[uint64]*Field), limit: limit}
}

// Fingerprint hashes the mask dimensions and tile bits.
func Fingerprint(m Mask) uint64 {
	w, h := m.Size()
	d := xxhash.New()
	var dims [16]byte
	binary.LittleEndian.PutUint64(dims[:8], uint64(w))
	binary.LittleEndian.PutUint64(dims[8:], uint64(h))
	_, _ = d.Write(dims[:])

	row := make([]byte, (w+7)/8)
	for y := 0; y < h; y++ {
		clear(row)
		for x := 0; x < w; x++ {
			if m.HasTile(x, y) {
				row[x/8] |= 1 << (x % 8)
			}
		}
		_, _ = d.Write(row)
	}
	return d.Sum64()
}

// Get returns the field for m, building it on a miss. Concurrent misses on
// the same mask share one build. The boolean reports a cache hit.
func (c *Cache) Get(m Mask) (*Field, bool, error) {
	key := Fingerprint(m)

	c.mu.Lock()
	if f, ok := c.fields[key]; ok {
		c.mu.Unlock()
		return f, true, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(strconv.FormatUint(key, 16), func() (any, error) {
		c.mu.Lock()
		f, ok := c.fields[key]
		c.mu.Unlock()
		if ok {
			return f, nil
		}

		f, err := Build(m)
		if err != nil {
			return nil, err
		}
		c.store(key, f)
		return f, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*Field), false, nil
}

func (c *Cache) store(key uint64, f *Field) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.fields[key]; !ok {
		c.order = append(c.order, key)
		for len(c.order) > c.limit {
			delete(c.fields, c.order[0])
			c.order = c.order[1:]
		}
	}
	c.fields[key] = f
}

// Len returns the number of cached fields.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.fields)
}
