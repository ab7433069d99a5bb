package rules

import (
	"strings"
	"testing"

	"github.com/pthm-cable/quantumlife/config"
	"github.com/pthm-cable/quantumlife/grid"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading default config: %v", err)
	}
	return cfg
}

func TestFromConfigDefaults(t *testing.T) {
	table, err := FromConfig(defaultConfig(t))
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}

	red := table.Rule(grid.Red)
	if red.SurviveMin != 2 || red.SurviveMax != 4 {
		t.Errorf("red survival range = [%d, %d], want [2, 4]", red.SurviveMin, red.SurviveMax)
	}
	green := table.Rule(grid.Green)
	if green.SurviveMin != 1 || green.SurviveMax != 3 {
		t.Errorf("green survival range = [%d, %d], want [1, 3]", green.SurviveMin, green.SurviveMax)
	}
}

func TestInteractionsSymmetric(t *testing.T) {
	table, err := FromConfig(defaultConfig(t))
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}

	for _, a := range grid.LiveSpecies {
		for _, b := range grid.LiveSpecies {
			if table.Interaction(a, b) != table.Interaction(b, a) {
				t.Errorf("interaction(%s, %s) != interaction(%s, %s)", a, b, b, a)
			}
		}
	}
	if got := table.Interaction(grid.Red, grid.Quantum); got != 0.2 {
		t.Errorf("interaction(red, quantum) = %v, want 0.2", got)
	}
	if got := table.Interaction(grid.Red, grid.Blue); got != -0.05 {
		t.Errorf("interaction(red, blue) = %v, want -0.05", got)
	}
	if got := table.Interaction(grid.Red, grid.Red); got != 0 {
		t.Errorf("interaction(red, red) = %v, want 0 (unconfigured pair)", got)
	}
}

func TestFromConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			"inverted survival range",
			func(c *config.Config) { c.Rules.Species[0].SurviveMin = 5 },
			"survive_min",
		},
		{
			"inverted birth range",
			func(c *config.Config) { c.Rules.Species[1].BirthMax = 0 },
			"birth_min",
		},
		{
			"negative decay",
			func(c *config.Config) { c.Rules.Species[2].DecayRate = -1 },
			"decay_rate",
		},
		{
			"unknown species",
			func(c *config.Config) { c.Rules.Species[0].Name = "teal" },
			"unknown species",
		},
		{
			"missing species",
			func(c *config.Config) { c.Rules.Species = c.Rules.Species[:3] },
			"missing entry",
		},
		{
			"bad interaction pair",
			func(c *config.Config) { c.Rules.Interactions[0].Between = []string{"red"} },
			"exactly two",
		},
		{
			"bad count mode",
			func(c *config.Config) { c.Rules.SurvivalCountMode = "median" },
			"survival_count_mode",
		},
		{
			"negative mutation weight",
			func(c *config.Config) { c.Mutation.Targets[0].Weight = -0.5 },
			"weight",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig(t)
			tt.mutate(cfg)
			_, err := FromConfig(cfg)
			if err == nil {
				t.Fatal("FromConfig succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestSurvivalCount(t *testing.T) {
	cfg := defaultConfig(t)
	table, err := FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}

	var counts grid.NeighborCounts
	counts[grid.Red] = 2
	counts[grid.Blue] = 3

	if got := table.SurvivalCount(grid.Red, counts); got != 5 {
		t.Errorf("total mode count = %d, want 5", got)
	}

	cfg.Rules.SurvivalCountMode = "same_species"
	table, err = FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if got := table.SurvivalCount(grid.Red, counts); got != 2 {
		t.Errorf("same_species mode count = %d, want 2", got)
	}
}

func TestPickMutationTarget(t *testing.T) {
	table, err := FromConfig(defaultConfig(t))
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}

	// Default weights: red/green/blue 0.3 each, quantum 0.1.
	tests := []struct {
		roll float64
		want grid.Species
	}{
		{0.0, grid.Red},
		{0.29, grid.Red},
		{0.31, grid.Green},
		{0.61, grid.Blue},
		{0.95, grid.Quantum},
		{0.9999, grid.Quantum},
	}
	for _, tt := range tests {
		got, ok := table.PickMutationTarget(tt.roll)
		if !ok {
			t.Fatalf("PickMutationTarget(%v) not ok", tt.roll)
		}
		if got != tt.want {
			t.Errorf("PickMutationTarget(%v) = %v, want %v", tt.roll, got, tt.want)
		}
	}
}
