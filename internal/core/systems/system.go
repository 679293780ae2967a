package systems

import (
	"fmt"
	"sort"
	"time"

	"github.com/zeusync/tdr/internal/core/models"
)

// System is one stage of the per-tick pipeline.
type System interface {
	Name() string
	Phase() ExecutionPhase
	Update(ctx *Context, w *models.World) error
}

// ExecutionPhase orders systems within a tick. The order is part of the
// physics: collisions resolve against integrated positions, and laps are
// counted against resolved ones.
type ExecutionPhase uint8

const (
	PhaseSteering ExecutionPhase = iota
	PhaseKinematics
	PhaseCollision
	PhaseFixedCollision
	PhaseLaps
	PhaseDebug
)

func (p ExecutionPhase) String() string {
	switch p {
	case PhaseSteering:
		return "steering"
	case PhaseKinematics:
		return "kinematics"
	case PhaseCollision:
		return "collision"
	case PhaseFixedCollision:
		return "fixed-collision"
	case PhaseLaps:
		return "laps"
	case PhaseDebug:
		return "debug"
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// Metrics provides runtime metrics for a system.
type Metrics struct {
	ExecutionCount     uint64
	TotalExecutionTime time.Duration
	MaxExecutionTime   time.Duration
	LastExecutionTime  time.Duration
	ErrorCount         uint64
	LastError          error
}

// AverageExecutionTime is the mean time per update.
func (m Metrics) AverageExecutionTime() time.Duration {
	if m.ExecutionCount == 0 {
		return 0
	}
	return m.TotalExecutionTime / time.Duration(m.ExecutionCount)
}

type entry struct {
	system  System
	metrics Metrics
}

// Manager runs registered systems in phase order. Systems sharing a phase
// run in registration order.
type Manager struct {
	entries []*entry
}

func NewManager(systems ...System) (*Manager, error) {
	m := &Manager{}
	for _, s := range systems {
		if err := m.Register(s); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Register adds a system.
func (m *Manager) Register(s System) error {
	for _, e := range m.entries {
		if e.system.Name() == s.Name() {
			return fmt.Errorf("%w: %s", ErrDuplicateSystem, s.Name())
		}
	}
	m.entries = append(m.entries, &entry{system: s})
	sort.SliceStable(m.entries, func(i, j int) bool {
		return m.entries[i].system.Phase() < m.entries[j].system.Phase()
	})
	return nil
}

// Update runs one tick. The first failing system stops the tick and its
// error is returned.
func (m *Manager) Update(ctx *Context, w *models.World) error {
	if w == nil {
		return ErrNilWorld
	}
	for _, e := range m.entries {
		start := time.Now()
		err := e.system.Update(ctx, w)
		e.record(time.Since(start), err)
		if err != nil {
			return fmt.Errorf("%s: %w", e.system.Name(), err)
		}
	}
	return nil
}

// ExecutionOrder lists system names in the order Update runs them.
func (m *Manager) ExecutionOrder() []string {
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.system.Name()
	}
	return out
}

// GetSystemMetrics returns the metrics of the named system.
func (m *Manager) GetSystemMetrics(name string) (Metrics, bool) {
	for _, e := range m.entries {
		if e.system.Name() == name {
			return e.metrics, true
		}
	}
	return Metrics{}, false
}

func (e *entry) record(d time.Duration, err error) {
	e.metrics.ExecutionCount++
	e.metrics.TotalExecutionTime += d
	e.metrics.LastExecutionTime = d
	if d > e.metrics.MaxExecutionTime {
		e.metrics.MaxExecutionTime = d
	}
	if err != nil {
		e.metrics.ErrorCount++
		e.metrics.LastError = err
	}
}

// Default returns the full pipeline in its fixed order.
func Default() []System {
	return []System{
		HumanSteering{},
		AISteering{},
		Kinematics{},
		Collisions{},
		FixedCollisions{},
		&Laps{},
		DebugOverlay{},
	}
}
