package engine

import (
	"errors"
	"testing"

	"github.com/pthm-cable/quantumlife/analytics"
	"github.com/pthm-cable/quantumlife/config"
	"github.com/pthm-cable/quantumlife/events"
	"github.com/pthm-cable/quantumlife/grid"
	"github.com/pthm-cable/quantumlife/rules"
)

func speciesRule(t *testing.T, cfg *config.Config, name string) *config.SpeciesRuleConfig {
	t.Helper()
	for i := range cfg.Rules.Species {
		if cfg.Rules.Species[i].Name == name {
			return &cfg.Rules.Species[i]
		}
	}
	t.Fatalf("no rule config for species %q", name)
	return nil
}

func TestStepEmptyGridStaysEmpty(t *testing.T) {
	eng := newTestEngine(t, quietConfig(t))

	for i := 0; i < 5; i++ {
		stats, err := eng.Step()
		if err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
		if stats.TotalPopulation != 0 || stats.Births != 0 || stats.Deaths != 0 {
			t.Fatalf("step %d stats = %+v, want all-zero populations", i, stats)
		}
	}
	if eng.Snapshot().CountLive() != 0 {
		t.Error("empty grid grew cells with no events or births possible")
	}
}

// A lone row of three cells oscillates with period 2 when the species uses
// the classic 2-3 survive / 3 birth thresholds, which blue does by default.
func TestStepBlinkerOscillates(t *testing.T) {
	cfg := quietConfig(t)
	cfg.Grid.Width = 16
	cfg.Grid.Height = 16
	eng := newTestEngine(t, cfg)

	for _, col := range []int{6, 7, 8} {
		if err := eng.SetCell(7, col, grid.Blue, 1); err != nil {
			t.Fatalf("SetCell: %v", err)
		}
	}
	horizontal := eng.Snapshot()

	var vertical *grid.Grid
	for i := 1; i <= 10; i++ {
		stats, err := eng.Step()
		if err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
		if stats.TotalPopulation != 3 || stats.Blue != 3 {
			t.Fatalf("step %d: population = %+v, want 3 blue", i, stats)
		}
		if stats.Births != 2 || stats.Deaths != 2 {
			t.Fatalf("step %d: births/deaths = %d/%d, want 2/2", i, stats.Births, stats.Deaths)
		}

		snap := eng.Snapshot()
		if i == 1 {
			vertical = snap
			for _, row := range []int{6, 7, 8} {
				if snap.At(row, 7).Species != grid.Blue {
					t.Fatalf("step 1: expected vertical blinker, cell (%d, 7) = %v", row, snap.At(row, 7).Species)
				}
			}
			continue
		}
		want := horizontal
		if i%2 == 1 {
			want = vertical
		}
		if !sameSpeciesLayout(snap, want) {
			t.Fatalf("step %d: blinker lost its period-2 cycle", i)
		}
	}
}

func sameSpeciesLayout(a, b *grid.Grid) bool {
	for row := 0; row < a.Height(); row++ {
		for col := 0; col < a.Width(); col++ {
			if a.At(row, col).Species != b.At(row, col).Species {
				return false
			}
		}
	}
	return true
}

func TestUpdateEnergyClamped(t *testing.T) {
	cfg := quietConfig(t)
	table, err := rules.FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}

	// Red next to green gains 0.1 per neighbor; eight of them overflow max.
	var counts grid.NeighborCounts
	counts[grid.Green] = 8
	c := grid.Cell{Species: grid.Red, Energy: cfg.Energy.MaxEnergy}
	if got := updateEnergy(c, counts, table); got != cfg.Energy.MaxEnergy {
		t.Errorf("overflow energy = %v, want clamped to %v", got, cfg.Energy.MaxEnergy)
	}

	// Red next to blue loses 0.05 per neighbor; a near-dead cell floors at 0.
	counts = grid.NeighborCounts{}
	counts[grid.Blue] = 8
	c = grid.Cell{Species: grid.Red, Energy: 0.1}
	if got := updateEnergy(c, counts, table); got != 0 {
		t.Errorf("underflow energy = %v, want clamped to 0", got)
	}
}

func TestStepStarvation(t *testing.T) {
	cfg := quietConfig(t)
	speciesRule(t, cfg, "red").DecayRate = 0.5
	speciesRule(t, cfg, "red").SurviveMin = 0
	speciesRule(t, cfg, "red").SurviveMax = 8
	eng := newTestEngine(t, cfg)

	if err := eng.SetCell(4, 4, grid.Red, 1.0); err != nil {
		t.Fatalf("SetCell: %v", err)
	}

	// 1.0 -> 0.5 -> 0.0 <= starvation threshold.
	if _, err := eng.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if c, _ := eng.GetCell(4, 4); c.Species != grid.Red {
		t.Fatal("cell died before decaying past the starvation threshold")
	}
	stats, err := eng.Step()
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if c, _ := eng.GetCell(4, 4); c.Species != grid.Empty {
		t.Error("cell survived with energy at the starvation threshold")
	}
	if stats.Deaths != 1 {
		t.Errorf("deaths = %d, want the starved cell counted", stats.Deaths)
	}
}

func TestStepReentrancyRejected(t *testing.T) {
	cfg := quietConfig(t)
	var eng *Engine
	var inner error
	e, err := New(Options{
		Config: cfg,
		Seed:   1,
		OnGeneration: func(analytics.GenerationStats) {
			_, inner = eng.Step()
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	eng = e

	if _, err := eng.Step(); err != nil {
		t.Fatalf("outer Step: %v", err)
	}
	if !errors.Is(inner, ErrConcurrentStep) {
		t.Errorf("nested Step error = %v, want ErrConcurrentStep", inner)
	}
}

func TestStepMeteorCrater(t *testing.T) {
	cfg := quietConfig(t)
	cfg.Grid.Width = 20
	cfg.Grid.Height = 20
	r := speciesRule(t, cfg, "red")
	r.SurviveMin = 0
	r.SurviveMax = 8
	eng := newTestEngine(t, cfg)

	for row := 0; row < 20; row++ {
		for col := 0; col < 20; col++ {
			if err := eng.SetCell(row, col, grid.Red, 1); err != nil {
				t.Fatalf("SetCell: %v", err)
			}
		}
	}

	if err := eng.TriggerEvent(events.Meteor, 10, 10, 3, 1, 1); err != nil {
		t.Fatalf("TriggerEvent: %v", err)
	}
	// Nothing happens until the next step commits.
	if c, _ := eng.GetCell(10, 10); c.Species != grid.Red {
		t.Fatal("meteor mutated the grid outside of Step")
	}

	stats, err := eng.Step()
	if err != nil {
		t.Fatalf("Step: %v", err)
	}

	// Lattice points with dr^2+dc^2 <= 9 under the euclidean metric.
	const craterSize = 29
	if stats.Deaths != craterSize {
		t.Errorf("deaths = %d, want %d crater cells", stats.Deaths, craterSize)
	}
	if got := 400 - eng.Snapshot().CountLive(); got != craterSize {
		t.Errorf("empty cells = %d, want %d", got, craterSize)
	}
	for _, pos := range [][2]int{{10, 10}, {10, 13}, {7, 10}, {12, 12}} {
		if c, _ := eng.GetCell(pos[0], pos[1]); c.Species != grid.Empty {
			t.Errorf("cell (%d, %d) inside the crater survived", pos[0], pos[1])
		}
	}
	if c, _ := eng.GetCell(10, 14); c.Species != grid.Red {
		t.Error("cell just outside the crater was destroyed")
	}
	if eng.ActiveEvents() != 0 {
		t.Errorf("meteor still active after expiry, count = %d", eng.ActiveEvents())
	}
}

func TestStepTemporalRiftFreezes(t *testing.T) {
	cfg := quietConfig(t)
	eng := newTestEngine(t, cfg)

	// A lone blue cell has zero neighbors and would die immediately.
	if err := eng.SetCell(10, 10, grid.Blue, 1); err != nil {
		t.Fatalf("SetCell: %v", err)
	}
	if err := eng.TriggerEvent(events.TemporalRift, 10, 10, 2, 0, 3); err != nil {
		t.Fatalf("TriggerEvent: %v", err)
	}

	for i := 1; i <= 3; i++ {
		if _, err := eng.Step(); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
		if c, _ := eng.GetCell(10, 10); c.Species != grid.Blue {
			t.Fatalf("step %d: frozen cell died inside an active rift", i)
		}
	}

	// The rift has collapsed; the isolation rule applies again.
	if _, err := eng.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if c, _ := eng.GetCell(10, 10); c.Species != grid.Empty {
		t.Error("isolated cell survived after the rift expired")
	}
}
