package engine

import (
	"math"

	"github.com/pthm-cable/quantumlife/grid"
)

// tunnel is a pending quantum relocation recorded during the cell pass and
// committed afterwards, so a tunneled cell cannot be overwritten by the
// ordinary evaluation of its target position.
type tunnel struct {
	row, col int
	cell     grid.Cell
}

// advancePhase steps an oscillator phase, wrapped into [0, 2π).
func advancePhase(phase, step float64) float64 {
	return math.Mod(phase+step, 2*math.Pi)
}

// phaseFactor maps sin(phase) into [0, 1].
func phaseFactor(phase float64) float64 {
	return (math.Sin(phase) + 1) / 2
}

// survivalPhaseShift is the phase-dependent shift of the Quantum survival
// window, up to maxShift at the sine peak.
func survivalPhaseShift(phase float64, maxShift int) int {
	return int(math.Round(phaseFactor(phase) * float64(maxShift)))
}

// randomPhase draws a fresh phase in [0, 2π).
func (e *Engine) randomPhase() float64 {
	return e.rng.Float64() * 2 * math.Pi
}

// tryTunnel rolls the tunneling check for a Quantum cell. On success the
// occupancy moves to a random empty cell within the tunnel radius, keeping a
// configured fraction of its energy and drawing a new phase; the origin
// stays vacant. Returns false when the roll fails or no target is free, in
// which case the cell falls through to ordinary survival evaluation.
func (e *Engine) tryTunnel(row, col int, c grid.Cell) bool {
	p := e.cfg.Quantum.TunnelChance * phaseFactor(c.Phase)
	if p <= 0 || e.rng.Float64() >= p {
		return false
	}

	radius := e.cfg.Quantum.TunnelRadius
	for attempt := 0; attempt < 8; attempt++ {
		dr := e.rng.Intn(2*radius+1) - radius
		dc := e.rng.Intn(2*radius+1) - radius
		if dr == 0 && dc == 0 {
			continue
		}
		tr, tc := row+dr, col+dc
		if e.edge == grid.Wrap {
			tr = ((tr % e.cur.Height()) + e.cur.Height()) % e.cur.Height()
			tc = ((tc % e.cur.Width()) + e.cur.Width()) % e.cur.Width()
		} else if !e.cur.InBounds(tr, tc) {
			continue
		}
		if e.cur.At(tr, tc).Species != grid.Empty {
			continue
		}
		moved := c
		moved.Energy = c.Energy * e.cfg.Quantum.TunnelEnergyKeep
		moved.Phase = e.randomPhase()
		e.tunnels = append(e.tunnels, tunnel{row: tr, col: tc, cell: moved})
		return true
	}
	return false
}

// commitTunnels lands pending tunnels into the next grid. A target that was
// filled by a birth or an earlier tunnel blocks the relocation; the cell is
// lost, matching the vacate-then-materialize semantics.
func (e *Engine) commitTunnels() {
	for _, t := range e.tunnels {
		if e.next.At(t.row, t.col).Species == grid.Empty {
			e.next.Set(t.row, t.col, t.cell)
		}
	}
}
