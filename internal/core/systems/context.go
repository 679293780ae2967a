package systems

import (
	"image/color"

	"github.com/zeusync/tdr/internal/config"
	"github.com/zeusync/tdr/internal/core/events/bus"
	"github.com/zeusync/tdr/internal/core/guidance"
	"github.com/zeusync/tdr/internal/core/models"
	"github.com/zeusync/tdr/internal/core/observability/log"
	"github.com/zeusync/tdr/internal/core/systems/physics"
	"github.com/zeusync/tdr/internal/core/track"
)

// Context carries everything a system may read during one tick. Optional
// members may be nil; systems that need them skip their work.
type Context struct {
	DT   float64
	Tick uint64

	Field  *guidance.Field
	Track  track.Layer
	Config *config.Preferences

	Log    log.Log
	Drawer Drawer
	Input  InputSource
	Bus    bus.EventBus
}

func (c *Context) tuning() config.Tuning {
	if c.Config == nil {
		return config.DefaultTuning()
	}
	return c.Config.Tuning
}

func (c *Context) logger() log.Log {
	if c.Log == nil {
		return log.Nop()
	}
	return c.Log
}

func (c *Context) verbose(n int) bool {
	return c.Drawer != nil && c.Config.Verbose(n)
}

func (c *Context) laps() uint32 {
	if c.Config == nil || c.Config.Laps < 1 {
		return 5
	}
	return uint32(c.Config.Laps)
}

func (c *Context) publish(typ string, data any) {
	if c.Bus == nil {
		return
	}
	if err := c.Bus.Publish(bus.NewEvent(typ, "systems", data, nil)); err != nil {
		c.logger().Warn("event handler failed", log.String("event", typ), log.Error(err))
	}
}

// Intents are the binary driving inputs of one car for one tick.
type Intents struct {
	Left       bool
	Right      bool
	Accelerate bool
}

// InputSource reports the intents of player cars.
type InputSource interface {
	Intents(h models.CarHandle) Intents
}

// InputFunc adapts a function to InputSource.
type InputFunc func(h models.CarHandle) Intents

func (f InputFunc) Intents(h models.CarHandle) Intents { return f(h) }

// Drawer receives debug overlay primitives in world coordinates.
type Drawer interface {
	Line(a, b physics.Vec2, c color.Color)
	Circle(center physics.Vec2, radius float64, c color.Color)
}

var (
	ColorCarBox     = color.RGBA{B: 255, A: 255}
	ColorSceneryBox = color.RGBA{R: 255, G: 140, A: 255}
	ColorCheckpoint = color.RGBA{G: 200, A: 255}
	ColorWhisker    = color.RGBA{B: 255, A: 255}
)

func drawPolygon(d Drawer, p physics.Polygon, c color.Color) {
	for _, e := range p.Edges() {
		d.Line(e.A, e.B, c)
	}
}
