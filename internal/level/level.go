// Package level reads race levels from YAML. A level carries the tile grid
// as rows of text, the scenery and checkpoint objects in map pixel
// coordinates, and optionally the starting grid.
package level

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/tdr/internal/core/race"
	"github.com/zeusync/tdr/internal/core/systems/physics"
	"github.com/zeusync/tdr/internal/core/track"
)

const (
	TileOn  = '#'
	TileOff = '.'

	DefaultCellSize = 128
)

//go:embed levels/*.yaml
var builtin embed.FS

// File is the on-disk layout of a level.
type File struct {
	Name    string            `yaml:"name"`
	Cell    CellSize          `yaml:"cell"`
	Track   []string          `yaml:"track"`
	Objects []track.ObjectDef `yaml:"objects"`
	Spawns  []SpawnDef        `yaml:"spawns"`
}

type CellSize struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// SpawnDef is a starting position in world coordinates.
type SpawnDef struct {
	Name   string  `yaml:"name"`
	Player bool    `yaml:"player"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Angle  float64 `yaml:"angle"`
	VX     float64 `yaml:"vx"`
	VY     float64 `yaml:"vy"`
	Asset  string  `yaml:"asset"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Level is a decoded level. It satisfies race.Provider.
type Level struct {
	name    string
	grid    *track.Grid
	objects []track.ObjectDef
	spawns  []race.Spawn
}

var _ race.Provider = (*Level)(nil)

// Decode reads a level from r.
func Decode(r io.Reader) (*Level, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return f.Build()
}

// Build validates the file and turns it into a Level.
func (f *File) Build() (*Level, error) {
	if len(f.Track) == 0 {
		return nil, fmt.Errorf("%w: no track rows", ErrMalformed)
	}
	cw, ch := f.Cell.Width, f.Cell.Height
	if cw == 0 && ch == 0 {
		cw, ch = DefaultCellSize, DefaultCellSize
	}

	w := len(f.Track[0])
	g, err := track.NewGrid(w, len(f.Track), cw, ch)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	for y, row := range f.Track {
		if len(row) != w {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrMalformed, y, len(row), w)
		}
		for x := 0; x < len(row); x++ {
			switch row[x] {
			case TileOn:
				_ = g.Set(x, y, true)
			case TileOff:
			default:
				return nil, fmt.Errorf("%w: row %d: unexpected %q", ErrMalformed, y, row[x])
			}
		}
	}

	l := &Level{name: f.Name, grid: g, objects: f.Objects}
	for _, s := range f.Spawns {
		l.spawns = append(l.spawns, race.Spawn{
			Name:     s.Name,
			Player:   s.Player,
			Position: physics.V(s.X, s.Y),
			Angle:    s.Angle,
			Velocity: physics.V(s.VX, s.VY),
			Asset:    s.Asset,
			Size:     physics.V(s.Width, s.Height),
		})
	}
	return l, nil
}

func (l *Level) Name() string                        { return l.name }
func (l *Level) Track() (track.Layer, error)         { return l.grid, nil }
func (l *Level) Objects() ([]track.ObjectDef, error) { return l.objects, nil }
func (l *Level) Spawns() []race.Spawn                { return l.spawns }

// FileName is the conventional file name for level n.
func FileName(n int) string { return fmt.Sprintf("level%d.yaml", n) }

// Builtin returns one of the levels shipped with the binary.
func Builtin(n int) (*Level, error) {
	data, err := builtin.ReadFile("levels/" + FileName(n))
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLevel, n)
	}
	return named(bytes.NewReader(data), n)
}

// Open reads a level file from disk.
func Open(path string) (*Level, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	l, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if l.name == "" {
		l.name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return l, nil
}

// Find looks for level n in dir first and falls back to the builtin set.
func Find(dir string, n int) (*Level, error) {
	if dir != "" {
		l, err := Open(filepath.Join(dir, FileName(n)))
		switch {
		case err == nil:
			return l, nil
		case !errors.Is(err, fs.ErrNotExist):
			return nil, err
		}
	}
	return Builtin(n)
}

func named(r io.Reader, n int) (*Level, error) {
	l, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("level %d: %w", n, err)
	}
	if l.name == "" {
		l.name = fmt.Sprintf("level%d", n)
	}
	return l, nil
}
