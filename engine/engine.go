// Package engine owns the simulation state and drives it generation by
// generation: species rules, energy dynamics, quantum phase evolution, world
// events and the analytics pass.
package engine

import (
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/pthm-cable/quantumlife/analytics"
	"github.com/pthm-cable/quantumlife/config"
	"github.com/pthm-cable/quantumlife/events"
	"github.com/pthm-cable/quantumlife/grid"
	"github.com/pthm-cable/quantumlife/rules"
)

// Options configures a new Engine.
type Options struct {
	Config *config.Config
	Seed   int64

	// OnGeneration, if set, is called with the stats of every completed
	// generation before Step returns. The engine is still mid-step during
	// the callback; calling Step from it fails with ErrConcurrentStep.
	OnGeneration func(analytics.GenerationStats)
}

// Engine holds the double-buffered grid, the rule table, the event system
// and the injected random source. All mutation goes through its methods.
type Engine struct {
	cfg   *config.Config
	table *rules.Table
	edge  grid.EdgePolicy

	// cur is the committed state; next is the scratch buffer built during a
	// step and swapped in on success.
	cur  *grid.Grid
	next *grid.Grid

	events    *events.System
	analytics *analytics.Engine
	rng       *rand.Rand

	generation int
	frozen     []bool
	tunnels    []tunnel

	stepping     atomic.Bool
	onGeneration func(analytics.GenerationStats)
}

// New builds an engine from the given options. Fails with ErrInvalidGrid on
// non-positive dimensions.
func New(opts Options) (*Engine, error) {
	cfg := opts.Config
	if cfg == nil {
		c, err := config.Load("")
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	if cfg.Grid.Width <= 0 || cfg.Grid.Height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidGrid, cfg.Grid.Width, cfg.Grid.Height)
	}

	edge, err := grid.ParseEdgePolicy(cfg.Grid.EdgePolicy)
	if err != nil {
		return nil, err
	}
	table, err := rules.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	evs, err := events.New(cfg.Grid.Width, cfg.Grid.Height, edge, cfg)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:          cfg,
		table:        table,
		edge:         edge,
		cur:          grid.New(cfg.Grid.Width, cfg.Grid.Height),
		next:         grid.New(cfg.Grid.Width, cfg.Grid.Height),
		events:       evs,
		analytics:    analytics.New(cfg),
		rng:          rand.New(rand.NewSource(opts.Seed)),
		frozen:       make([]bool, cfg.Grid.Width*cfg.Grid.Height),
		onGeneration: opts.OnGeneration,
	}, nil
}

// Width returns the grid width.
func (e *Engine) Width() int { return e.cur.Width() }

// Height returns the grid height.
func (e *Engine) Height() int { return e.cur.Height() }

// Generation returns the number of completed generations.
func (e *Engine) Generation() int { return e.generation }

// SetCell places a species with the given energy at (row, col). Setting
// Empty resets the cell entirely; Quantum cells get a randomized phase.
// Energy is clamped into the configured [0, max] range.
func (e *Engine) SetCell(row, col int, sp grid.Species, energy float64) error {
	if !e.cur.InBounds(row, col) {
		return fmt.Errorf("%w: (%d, %d)", ErrOutOfBounds, row, col)
	}
	if sp == grid.Empty {
		e.cur.Set(row, col, grid.Cell{})
		return nil
	}
	c := grid.Cell{
		Species: sp,
		Energy:  math.Max(0, math.Min(e.table.MaxEnergy, energy)),
	}
	if sp == grid.Quantum {
		c.Phase = e.rng.Float64() * 2 * math.Pi
	}
	e.cur.Set(row, col, c)
	return nil
}

// GetCell returns the cell at (row, col).
func (e *Engine) GetCell(row, col int) (grid.Cell, error) {
	if !e.cur.InBounds(row, col) {
		return grid.Cell{}, fmt.Errorf("%w: (%d, %d)", ErrOutOfBounds, row, col)
	}
	return e.cur.At(row, col), nil
}

// TriggerEvent registers a world event. The effect lands during the next
// Step, which keeps Step the sole grid mutator. Fails with ErrInvalidEvent
// on non-positive radius/duration or an out-of-bounds origin.
func (e *Engine) TriggerEvent(kind events.Kind, row, col, radius int, strength float64, duration int) error {
	if radius <= 0 {
		return fmt.Errorf("%w: radius %d", ErrInvalidEvent, radius)
	}
	if duration <= 0 {
		return fmt.Errorf("%w: duration %d", ErrInvalidEvent, duration)
	}
	if !e.cur.InBounds(row, col) {
		return fmt.Errorf("%w: origin (%d, %d)", ErrInvalidEvent, row, col)
	}
	e.events.Add(kind, row, col, radius, strength, duration)
	return nil
}

// ActiveEvents returns the number of live world events.
func (e *Engine) ActiveEvents() int { return e.events.ActiveCount() }

// Snapshot returns an independent copy of the current grid for rendering or
// pattern-placement collaborators. The engine's own grid is never handed out.
func (e *Engine) Snapshot() *grid.Grid { return e.cur.Clone() }

// History returns the retained generation stats, oldest first.
func (e *Engine) History() []analytics.GenerationStats { return e.analytics.History() }

// Patterns returns advisory dynamics labels derived from recent history.
func (e *Engine) Patterns() []string { return e.analytics.DetectPatterns() }

// Clear resets the grid, the generation counter, active events and history.
func (e *Engine) Clear() {
	e.cur.Clear()
	e.next.Clear()
	e.events.Clear()
	e.analytics.Clear()
	e.generation = 0
}
