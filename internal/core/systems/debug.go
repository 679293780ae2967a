package systems

import "github.com/zeusync/tdr/internal/core/models"

// DebugOverlay draws collision boxes and checkpoints when the debug level
// is at least 1.
type DebugOverlay struct{}

func (DebugOverlay) Name() string          { return "debug-overlay" }
func (DebugOverlay) Phase() ExecutionPhase { return PhaseDebug }

func (DebugOverlay) Update(ctx *Context, w *models.World) error {
	if !ctx.verbose(1) {
		return nil
	}
	for i := range w.Cars {
		drawPolygon(ctx.Drawer, w.Cars[i].Box(), ColorCarBox)
	}
	for i := range w.Colliders {
		drawPolygon(ctx.Drawer, w.Colliders[i].Box(), ColorSceneryBox)
	}
	for i := range w.Checkpoints {
		drawPolygon(ctx.Drawer, w.Checkpoints[i].Box(), ColorCheckpoint)
	}
	return nil
}
