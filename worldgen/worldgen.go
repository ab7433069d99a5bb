// Package worldgen seeds an engine's grid with an initial population drawn
// from Perlin noise, producing organic patches instead of uniform static.
package worldgen

import (
	"fmt"
	"math/rand"

	"github.com/aquilax/go-perlin"

	"github.com/pthm-cable/quantumlife/config"
	"github.com/pthm-cable/quantumlife/engine"
	"github.com/pthm-cable/quantumlife/grid"
)

// Populate fills empty regions of the engine's grid. Cells where the noise
// field exceeds the density threshold are occupied; the species is sampled
// from the configured weights. Deterministic for a given seed.
func Populate(eng *engine.Engine, cfg *config.Config, seed int64) error {
	wg := cfg.Worldgen
	if wg.Density <= 0 {
		return nil
	}

	var species []grid.Species
	var weights []float64
	total := 0.0
	for _, sw := range wg.SpeciesWeights {
		sp, err := grid.ParseSpecies(sw.Species)
		if err != nil {
			return fmt.Errorf("worldgen.species_weights: %w", err)
		}
		if sp == grid.Empty || sw.Weight <= 0 {
			continue
		}
		species = append(species, sp)
		weights = append(weights, sw.Weight)
		total += sw.Weight
	}
	if len(species) == 0 {
		return fmt.Errorf("worldgen: no species weights configured")
	}

	noise := perlin.NewPerlin(wg.NoiseAlpha, wg.NoiseBeta, int32(wg.NoiseOctaves), seed)
	rng := rand.New(rand.NewSource(seed))
	threshold := 1 - wg.Density

	for row := 0; row < eng.Height(); row++ {
		for col := 0; col < eng.Width(); col++ {
			v := (noise.Noise2D(float64(col)*wg.NoiseScale, float64(row)*wg.NoiseScale) + 1) / 2
			// Jitter breaks up the hard noise contour lines.
			if v+rng.Float64()*0.2-0.1 <= threshold {
				continue
			}
			sp := pick(species, weights, total, rng.Float64())
			if err := eng.SetCell(row, col, sp, wg.InitialEnergy); err != nil {
				return err
			}
		}
	}
	return nil
}

func pick(species []grid.Species, weights []float64, total, roll float64) grid.Species {
	x := roll * total
	for i, w := range weights {
		x -= w
		if x < 0 {
			return species[i]
		}
	}
	return species[len(species)-1]
}
