package engine

import (
	"math"

	"github.com/pthm-cable/quantumlife/grid"
	"github.com/pthm-cable/quantumlife/rules"
)

// updateEnergy computes a cell's next energy value: the current energy minus
// the species decay rate, plus the interaction bonus contributed by each live
// neighbor, clamped into [0, MaxEnergy]. Pure and deterministic; randomness
// only ever reaches energy through event effects.
func updateEnergy(c grid.Cell, counts grid.NeighborCounts, t *rules.Table) float64 {
	energy := c.Energy - t.Rule(c.Species).DecayRate
	for _, sp := range grid.LiveSpecies {
		if n := counts.Of(sp); n > 0 {
			energy += t.Interaction(c.Species, sp) * float64(n)
		}
	}
	return math.Max(0, math.Min(t.MaxEnergy, energy))
}
