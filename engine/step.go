package engine

import (
	"fmt"

	"github.com/pthm-cable/quantumlife/analytics"
	"github.com/pthm-cable/quantumlife/grid"
)

// Step advances the simulation one generation and returns its stats. The
// previous grid is the sole input: the stepper evaluates every cell into the
// scratch buffer, applies event effects, commits by swapping buffers, then
// runs the analytics pass. Not reentrant; a Step started while another is in
// flight fails with ErrConcurrentStep and leaves the grid untouched.
func (e *Engine) Step() (analytics.GenerationStats, error) {
	if e.cur.Width() == 0 || e.cur.Height() == 0 {
		return analytics.GenerationStats{}, fmt.Errorf("%w: zero-size grid", ErrInvalidGrid)
	}
	if !e.stepping.CompareAndSwap(false, true) {
		return analytics.GenerationStats{}, ErrConcurrentStep
	}
	defer e.stepping.Store(false)

	e.events.FillFrozen(e.frozen)
	e.tunnels = e.tunnels[:0]
	e.next.Clear()

	for row := 0; row < e.cur.Height(); row++ {
		for col := 0; col < e.cur.Width(); col++ {
			old := e.cur.At(row, col)
			if e.frozen[row*e.cur.Width()+col] {
				// Inside a temporal rift: no survival, birth or mutation.
				e.next.Set(row, col, old)
				continue
			}
			counts := e.cur.CountNeighbors(row, col, e.edge)
			if old.Species == grid.Empty {
				e.next.Set(row, col, e.evalBirth(counts))
				continue
			}
			if old.Species == grid.Quantum && e.tryTunnel(row, col, old) {
				// Tunneling vacates the origin and preempts survival.
				continue
			}
			e.next.Set(row, col, e.evalSurvival(row, col, old, counts))
		}
	}

	e.commitTunnels()
	e.events.Apply(e.next, e.rng)
	e.events.Schedule(e.rng)

	e.cur, e.next = e.next, e.cur
	e.generation++

	stats := e.analytics.Observe(e.next, e.cur, e.generation, e.events.ActiveCount())
	if e.onGeneration != nil {
		e.onGeneration(stats)
	}
	return stats, nil
}

// evalBirth decides whether an empty cell is born into. Every species whose
// neighbor count falls inside its birth range is a candidate; the highest
// count wins, ties resolved by the fixed species priority order.
func (e *Engine) evalBirth(counts grid.NeighborCounts) grid.Cell {
	winner := grid.Empty
	best := -1
	for _, sp := range grid.LiveSpecies {
		r := e.table.Rule(sp)
		n := counts.Of(sp)
		if n < r.BirthMin || n > r.BirthMax {
			continue
		}
		if n > best {
			best = n
			winner = sp
		}
	}
	if winner == grid.Empty {
		return grid.Cell{}
	}

	c := grid.Cell{Species: winner, Energy: e.table.BirthEnergy}
	if winner == grid.Quantum {
		c.Phase = e.randomPhase()
	}
	c.Energy = updateEnergy(c, counts, e.table)
	return c
}

// evalSurvival applies the survival rule, energy update, quantum phase
// advance and the mutation roll to an occupied cell.
func (e *Engine) evalSurvival(row, col int, old grid.Cell, counts grid.NeighborCounts) grid.Cell {
	r := e.table.Rule(old.Species)
	lo, hi := r.SurviveMin, r.SurviveMax
	if old.Species == grid.Quantum {
		shift := survivalPhaseShift(old.Phase, e.cfg.Quantum.SurvivalPhaseShift)
		lo += shift
		hi += shift
	}

	n := e.table.SurvivalCount(old.Species, counts)
	if n < lo || n > hi {
		return grid.Cell{} // death: energy, phase and age reset
	}

	c := old
	c.Age++
	c.Energy = updateEnergy(c, counts, e.table)
	if c.Energy <= e.table.StarvationThreshold {
		return grid.Cell{} // starved
	}
	if c.Species == grid.Quantum {
		c.Phase = advancePhase(c.Phase, e.cfg.Quantum.PhaseStep)
	}

	return e.maybeMutate(row, col, c)
}

// maybeMutate rolls the spontaneous mutation check for a surviving cell. The
// effective probability is the configured rate scaled by the cell's age plus
// any boost from active events at this position.
func (e *Engine) maybeMutate(row, col int, c grid.Cell) grid.Cell {
	ageFactor := float64(c.Age) / e.cfg.Mutation.AgeScale
	p := e.cfg.Mutation.Rate*ageFactor + e.events.MutationBoostAt(row, col)
	if p <= 0 || e.rng.Float64() >= p {
		return c
	}
	target, ok := e.table.PickMutationTarget(e.rng.Float64())
	if !ok || target == c.Species {
		return c
	}
	c.Species = target
	if target == grid.Quantum {
		c.Phase = e.randomPhase()
	} else {
		c.Phase = 0
	}
	return c
}
