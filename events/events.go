// Package events maintains the set of active world events and applies their
// grid perturbations each generation.
package events

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pthm-cable/quantumlife/config"
	"github.com/pthm-cable/quantumlife/grid"
)

// Kind identifies a world event. The numeric order is also the application
// order when events overlap, so results stay reproducible.
type Kind uint8

const (
	Meteor Kind = iota
	EnergyWave
	MutationBurst
	QuantumStorm
	Migration
	CosmicRadiation
	TemporalRift
	EcosystemBloom

	numKinds = 8
)

// String returns the snake_case kind name.
func (k Kind) String() string {
	switch k {
	case Meteor:
		return "meteor"
	case EnergyWave:
		return "energy_wave"
	case MutationBurst:
		return "mutation_burst"
	case QuantumStorm:
		return "quantum_storm"
	case Migration:
		return "migration"
	case CosmicRadiation:
		return "cosmic_radiation"
	case TemporalRift:
		return "temporal_rift"
	case EcosystemBloom:
		return "ecosystem_bloom"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind resolves an event kind name as used in configuration files.
func ParseKind(name string) (Kind, error) {
	for k := Kind(0); k < numKinds; k++ {
		if k.String() == name {
			return k, nil
		}
	}
	return Meteor, fmt.Errorf("unknown event kind %q", name)
}

// Metric selects the distance function bounding an event's disc.
type Metric uint8

const (
	Euclidean Metric = iota
	Chebyshev
)

// ParseMetric resolves a metric name as used in configuration files.
func ParseMetric(name string) (Metric, error) {
	switch name {
	case "euclidean":
		return Euclidean, nil
	case "chebyshev":
		return Chebyshev, nil
	default:
		return Euclidean, fmt.Errorf("unknown event metric %q", name)
	}
}

// Within reports whether the offset (dr, dc) lies inside radius under the
// metric.
func (m Metric) Within(dr, dc, radius int) bool {
	if m == Chebyshev {
		if dr < 0 {
			dr = -dr
		}
		if dc < 0 {
			dc = -dc
		}
		return max(dr, dc) <= radius
	}
	return dr*dr+dc*dc <= radius*radius
}

// storedCell is a rift snapshot entry.
type storedCell struct {
	row, col int
	cell     grid.Cell
}

// Event is one active world perturbation. Events are owned exclusively by
// the System.
type Event struct {
	Kind      Kind
	Row, Col  int
	Radius    int
	Remaining int
	Strength  float64

	applied bool         // one-shot kinds: effect already delivered
	stored  []storedCell // TemporalRift snapshot
}

// spawnParams holds the scheduler's per-kind parameter ranges, taken from the
// manually curated event table.
type spawnParams struct {
	radiusMin, radiusMax int
	duration             int
	strength             float64
}

var kindSpawnParams = [numKinds]spawnParams{
	Meteor:          {3, 8, 1, 0},
	EnergyWave:      {8, 15, 120, 0.05},
	MutationBurst:   {4, 10, 90, 0.05},
	QuantumStorm:    {6, 12, 150, 1},
	Migration:       {5, 12, 1, 0.5},
	CosmicRadiation: {10, 20, 300, 0.02},
	TemporalRift:    {3, 6, 180, 0},
	EcosystemBloom:  {6, 15, 100, 0.05},
}

// System maintains active events for one simulation. It never owns the grid;
// the engine hands it the in-progress next grid during each step.
type System struct {
	w, h   int
	policy grid.EdgePolicy
	metric Metric

	scheduler bool
	chances   [numKinds]float64

	maxEnergy   float64
	seedEnergy  float64 // energy of bloom-seeded cells
	bloomChance float64 // per-tick seed probability at the bloom center

	active []*Event
}

// New builds an event system from configuration.
func New(width, height int, policy grid.EdgePolicy, cfg *config.Config) (*System, error) {
	metric, err := ParseMetric(cfg.Events.Metric)
	if err != nil {
		return nil, err
	}
	s := &System{
		w:           width,
		h:           height,
		policy:      policy,
		metric:      metric,
		scheduler:   cfg.Events.Scheduler,
		maxEnergy:   cfg.Energy.MaxEnergy,
		seedEnergy:  cfg.Energy.BirthEnergy * cfg.Events.BloomEnergyFactor,
		bloomChance: cfg.Events.BloomSeedChance,
	}
	for _, pc := range cfg.Events.Probabilities {
		k, err := ParseKind(pc.Kind)
		if err != nil {
			return nil, fmt.Errorf("events.probabilities: %w", err)
		}
		if pc.Chance < 0 || pc.Chance > 1 {
			return nil, fmt.Errorf("events.probabilities %s: chance %v outside [0, 1]", k, pc.Chance)
		}
		s.chances[k] = pc.Chance
	}
	return s, nil
}

// Add registers an event. Parameter validation is the engine's concern; Add
// only records.
func (s *System) Add(kind Kind, row, col, radius int, strength float64, duration int) {
	s.active = append(s.active, &Event{
		Kind:      kind,
		Row:       row,
		Col:       col,
		Radius:    radius,
		Remaining: duration,
		Strength:  strength,
	})
}

// ActiveCount returns the number of live events.
func (s *System) ActiveCount() int { return len(s.active) }

// Clear drops all active events.
func (s *System) Clear() { s.active = nil }

// Schedule rolls the per-kind spawn probabilities and creates any triggered
// events at a random origin with parameters from the kind table.
func (s *System) Schedule(rng *rand.Rand) {
	if !s.scheduler {
		return
	}
	for k := Kind(0); k < numKinds; k++ {
		if s.chances[k] <= 0 || rng.Float64() >= s.chances[k] {
			continue
		}
		p := kindSpawnParams[k]
		radius := p.radiusMin + rng.Intn(p.radiusMax-p.radiusMin+1)
		row := rng.Intn(s.h)
		col := rng.Intn(s.w)
		s.Add(k, row, col, radius, p.strength, p.duration)
	}
}

// FillFrozen marks positions covered by an active TemporalRift. buf must have
// width*height entries; it is cleared first.
func (s *System) FillFrozen(buf []bool) {
	for i := range buf {
		buf[i] = false
	}
	for _, e := range s.active {
		if e.Kind != TemporalRift {
			continue
		}
		s.forEachInDisc(e, func(row, col, _, _ int) {
			buf[row*s.w+col] = true
		})
	}
}

// MutationBoostAt returns the extra mutation probability at a position from
// active MutationBurst (global) and CosmicRadiation (disc-scoped) events.
func (s *System) MutationBoostAt(row, col int) float64 {
	boost := 0.0
	for _, e := range s.active {
		switch e.Kind {
		case MutationBurst:
			boost += e.Strength
		case CosmicRadiation:
			dr, dc := s.offset(e, row, col)
			if s.metric.Within(dr, dc, e.Radius) {
				boost += e.Strength
			}
		}
	}
	return boost
}

// Apply delivers every active event's per-tick effect to the next grid, then
// ages events and removes the expired ones. Events are applied in kind order
// so overlapping effects are reproducible.
func (s *System) Apply(next *grid.Grid, rng *rand.Rand) {
	for k := Kind(0); k < numKinds; k++ {
		for _, e := range s.active {
			if e.Kind == k {
				s.applyOne(e, next, rng)
			}
		}
	}

	kept := s.active[:0]
	for _, e := range s.active {
		e.Remaining--
		if e.Remaining > 0 {
			kept = append(kept, e)
			continue
		}
		if e.Kind == TemporalRift {
			// The rift collapses: the region snaps back to how it looked
			// when the rift opened.
			for _, sc := range e.stored {
				next.Set(sc.row, sc.col, sc.cell)
			}
		}
	}
	s.active = kept
}

func (s *System) applyOne(e *Event, next *grid.Grid, rng *rand.Rand) {
	switch e.Kind {
	case Meteor:
		if e.applied {
			return
		}
		e.applied = true
		s.forEachInDisc(e, func(row, col, _, _ int) {
			next.Set(row, col, grid.Cell{})
		})

	case EnergyWave:
		s.forEachInDisc(e, func(row, col, _, _ int) {
			c := next.At(row, col)
			if c.Species == grid.Empty {
				return
			}
			c.Energy = math.Min(s.maxEnergy, c.Energy+e.Strength)
			next.Set(row, col, c)
		})

	case MutationBurst, CosmicRadiation:
		// Consumed by the stepper through MutationBoostAt.

	case QuantumStorm:
		s.forEachInDisc(e, func(row, col, _, _ int) {
			c := next.At(row, col)
			if c.Species == grid.Empty || c.Species == grid.Quantum {
				return
			}
			c.Species = grid.Quantum
			c.Phase = rng.Float64() * 2 * math.Pi
			next.Set(row, col, c)
		})

	case Migration:
		if e.applied {
			return
		}
		e.applied = true
		s.applyMigration(e, next, rng)

	case TemporalRift:
		if e.stored == nil {
			s.forEachInDisc(e, func(row, col, _, _ int) {
				e.stored = append(e.stored, storedCell{row, col, next.At(row, col)})
			})
		}

	case EcosystemBloom:
		s.forEachInDisc(e, func(row, col, dr, dc int) {
			if next.At(row, col).Species != grid.Empty {
				return
			}
			dist := math.Sqrt(float64(dr*dr + dc*dc))
			p := s.bloomChance * (1 - dist/float64(e.Radius+1))
			if rng.Float64() >= p {
				return
			}
			sp := grid.LiveSpecies[rng.Intn(len(grid.LiveSpecies))]
			c := grid.Cell{Species: sp, Energy: s.seedEnergy}
			if sp == grid.Quantum {
				c.Phase = rng.Float64() * 2 * math.Pi
			}
			next.Set(row, col, c)
		})
	}
}

// applyMigration relocates a fraction of one species from the event disc to
// empty cells in a randomly chosen destination disc of the same radius.
func (s *System) applyMigration(e *Event, next *grid.Grid, rng *rand.Rand) {
	var present []grid.Species
	for _, sp := range grid.LiveSpecies {
		found := false
		s.forEachInDisc(e, func(row, col, _, _ int) {
			if next.At(row, col).Species == sp {
				found = true
			}
		})
		if found {
			present = append(present, sp)
		}
	}
	if len(present) == 0 {
		return
	}
	species := present[rng.Intn(len(present))]

	dest := &Event{
		Kind:   e.Kind,
		Row:    rng.Intn(s.h),
		Col:    rng.Intn(s.w),
		Radius: e.Radius,
	}
	var empties [][2]int
	s.forEachInDisc(dest, func(row, col, _, _ int) {
		if next.At(row, col).Species == grid.Empty {
			empties = append(empties, [2]int{row, col})
		}
	})
	if len(empties) == 0 {
		return
	}
	rng.Shuffle(len(empties), func(i, j int) { empties[i], empties[j] = empties[j], empties[i] })

	fraction := math.Max(0, math.Min(1, e.Strength))
	moved := 0
	s.forEachInDisc(e, func(row, col, _, _ int) {
		if moved >= len(empties) {
			return
		}
		c := next.At(row, col)
		if c.Species != species || rng.Float64() >= fraction {
			return
		}
		target := empties[moved]
		moved++
		next.Set(target[0], target[1], c)
		next.Set(row, col, grid.Cell{})
	})
}

// offset returns the row/col offset from the event origin to (row, col),
// shortest-path under the wrap policy.
func (s *System) offset(e *Event, row, col int) (int, int) {
	dr := row - e.Row
	dc := col - e.Col
	if s.policy == grid.Wrap {
		if dr > s.h/2 {
			dr -= s.h
		} else if dr < -s.h/2 {
			dr += s.h
		}
		if dc > s.w/2 {
			dc -= s.w
		} else if dc < -s.w/2 {
			dc += s.w
		}
	}
	return dr, dc
}

// forEachInDisc visits every in-grid cell within the event's radius under the
// configured metric, passing the position and its offset from the origin.
func (s *System) forEachInDisc(e *Event, fn func(row, col, dr, dc int)) {
	for dr := -e.Radius; dr <= e.Radius; dr++ {
		for dc := -e.Radius; dc <= e.Radius; dc++ {
			if !s.metric.Within(dr, dc, e.Radius) {
				continue
			}
			row, col := e.Row+dr, e.Col+dc
			if s.policy == grid.Wrap {
				row = ((row % s.h) + s.h) % s.h
				col = ((col % s.w) + s.w) % s.w
			} else if row < 0 || row >= s.h || col < 0 || col >= s.w {
				continue
			}
			fn(row, col, dr, dc)
		}
	}
}
