// Package rules builds and validates the species rule table: survival and
// birth neighbor ranges, energy decay, the interaction-bonus matrix and
// mutation target weights.
package rules

import (
	"fmt"

	"github.com/pthm-cable/quantumlife/config"
	"github.com/pthm-cable/quantumlife/grid"
)

// CountMode selects how live neighbors are counted for survival checks.
type CountMode uint8

const (
	// CountTotal sums live neighbors across all species.
	CountTotal CountMode = iota
	// CountSameSpecies counts only neighbors of the cell's own species.
	CountSameSpecies
)

// ParseCountMode resolves a survival count mode name.
func ParseCountMode(name string) (CountMode, error) {
	switch name {
	case "total":
		return CountTotal, nil
	case "same_species":
		return CountSameSpecies, nil
	default:
		return CountTotal, fmt.Errorf("unknown survival_count_mode %q", name)
	}
}

// SpeciesRule holds the survival/birth neighbor ranges (inclusive) and the
// per-generation energy decay for one species.
type SpeciesRule struct {
	SurviveMin int
	SurviveMax int
	BirthMin   int
	BirthMax   int
	DecayRate  float64
}

// Table is the static rule configuration consumed by the generation stepper
// and the energy system.
type Table struct {
	rules        [grid.NumSpecies]SpeciesRule
	interactions [grid.NumSpecies][grid.NumSpecies]float64
	targets      [grid.NumSpecies]float64 // mutation target weights
	targetTotal  float64

	CountMode           CountMode
	MaxEnergy           float64
	BirthEnergy         float64
	StarvationThreshold float64
}

// FromConfig builds a validated rule table.
func FromConfig(cfg *config.Config) (*Table, error) {
	t := &Table{
		MaxEnergy:           cfg.Energy.MaxEnergy,
		BirthEnergy:         cfg.Energy.BirthEnergy,
		StarvationThreshold: cfg.Energy.StarvationThreshold,
	}

	mode, err := ParseCountMode(cfg.Rules.SurvivalCountMode)
	if err != nil {
		return nil, err
	}
	t.CountMode = mode

	seen := [grid.NumSpecies]bool{}
	for _, sc := range cfg.Rules.Species {
		sp, err := grid.ParseSpecies(sc.Name)
		if err != nil {
			return nil, fmt.Errorf("rules.species: %w", err)
		}
		if sp == grid.Empty {
			return nil, fmt.Errorf("rules.species: empty cannot carry a rule")
		}
		if seen[sp] {
			return nil, fmt.Errorf("rules.species: duplicate entry for %s", sp)
		}
		seen[sp] = true

		r := SpeciesRule{
			SurviveMin: sc.SurviveMin,
			SurviveMax: sc.SurviveMax,
			BirthMin:   sc.BirthMin,
			BirthMax:   sc.BirthMax,
			DecayRate:  sc.DecayRate,
		}
		if r.SurviveMin < 0 || r.BirthMin < 0 {
			return nil, fmt.Errorf("rules.species %s: ranges must be non-negative", sp)
		}
		if r.SurviveMin > r.SurviveMax {
			return nil, fmt.Errorf("rules.species %s: survive_min %d > survive_max %d", sp, r.SurviveMin, r.SurviveMax)
		}
		if r.BirthMin > r.BirthMax {
			return nil, fmt.Errorf("rules.species %s: birth_min %d > birth_max %d", sp, r.BirthMin, r.BirthMax)
		}
		if r.DecayRate < 0 {
			return nil, fmt.Errorf("rules.species %s: decay_rate must be non-negative", sp)
		}
		t.rules[sp] = r
	}
	for _, sp := range grid.LiveSpecies {
		if !seen[sp] {
			return nil, fmt.Errorf("rules.species: missing entry for %s", sp)
		}
	}

	for _, ic := range cfg.Rules.Interactions {
		if len(ic.Between) != 2 {
			return nil, fmt.Errorf("rules.interactions: between must name exactly two species, got %v", ic.Between)
		}
		a, err := grid.ParseSpecies(ic.Between[0])
		if err != nil {
			return nil, fmt.Errorf("rules.interactions: %w", err)
		}
		b, err := grid.ParseSpecies(ic.Between[1])
		if err != nil {
			return nil, fmt.Errorf("rules.interactions: %w", err)
		}
		if a == grid.Empty || b == grid.Empty {
			return nil, fmt.Errorf("rules.interactions: empty has no interactions")
		}
		t.interactions[a][b] = ic.Bonus
		t.interactions[b][a] = ic.Bonus
	}

	for _, tw := range cfg.Mutation.Targets {
		sp, err := grid.ParseSpecies(tw.Species)
		if err != nil {
			return nil, fmt.Errorf("mutation.targets: %w", err)
		}
		if sp == grid.Empty {
			return nil, fmt.Errorf("mutation.targets: empty is not a mutation target")
		}
		if tw.Weight < 0 {
			return nil, fmt.Errorf("mutation.targets %s: weight must be non-negative", sp)
		}
		t.targets[sp] = tw.Weight
		t.targetTotal += tw.Weight
	}

	return t, nil
}

// Rule returns the rule for a live species.
func (t *Table) Rule(s grid.Species) SpeciesRule { return t.rules[s] }

// Interaction returns the symmetric energy bonus for a species pair.
func (t *Table) Interaction(a, b grid.Species) float64 { return t.interactions[a][b] }

// SurvivalCount selects the neighbor count used for the survival check of a
// cell of species s.
func (t *Table) SurvivalCount(s grid.Species, counts grid.NeighborCounts) int {
	if t.CountMode == CountSameSpecies {
		return counts.Of(s)
	}
	return counts.TotalLive()
}

// PickMutationTarget samples a species from the configured target weights.
// roll must be uniform in [0, 1). Returns false if no weights are configured.
func (t *Table) PickMutationTarget(roll float64) (grid.Species, bool) {
	if t.targetTotal <= 0 {
		return grid.Empty, false
	}
	x := roll * t.targetTotal
	for _, sp := range grid.LiveSpecies {
		x -= t.targets[sp]
		if x < 0 {
			return sp, true
		}
	}
	return grid.LiveSpecies[len(grid.LiveSpecies)-1], true
}
