// Package analytics derives population, entropy, diversity and fractal
// metrics from grid snapshots and keeps the bounded simulation history.
// It never mutates grid state.
package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/quantumlife/config"
	"github.com/pthm-cable/quantumlife/grid"
)

// Engine consumes old/new grid snapshots after each generation and produces
// GenerationStats, appended to a bounded history (oldest evicted).
type Engine struct {
	historyCap       int
	blockSize        int
	fractalScales    []int
	stabilityWindow  int
	stableMaxVar     float64
	chaoticMinVar    float64

	history []GenerationStats
}

// New builds an analytics engine from configuration.
func New(cfg *config.Config) *Engine {
	scales := make([]int, len(cfg.Analytics.FractalScales))
	copy(scales, cfg.Analytics.FractalScales)
	return &Engine{
		historyCap:      cfg.Analytics.HistoryCap,
		blockSize:       cfg.Analytics.EntropyBlockSize,
		fractalScales:   scales,
		stabilityWindow: cfg.Analytics.StabilityWindow,
		stableMaxVar:    cfg.Analytics.StableMaxVariance,
		chaoticMinVar:   cfg.Analytics.ChaoticMinVariance,
	}
}

// Observe compares the previous and current grid, computes the generation
// stats and appends them to history.
func (a *Engine) Observe(old, cur *grid.Grid, generation, activeEvents int) GenerationStats {
	s := GenerationStats{
		Generation:   generation,
		ActiveEvents: activeEvents,
		FractalDim:   FractalDimUndefined,
	}

	var pops [grid.NumSpecies]int
	for row := 0; row < cur.Height(); row++ {
		for col := 0; col < cur.Width(); col++ {
			oldSp := old.At(row, col).Species
			c := cur.At(row, col)
			pops[c.Species]++
			s.TotalEnergy += c.Energy
			if oldSp == grid.Empty && c.Species != grid.Empty {
				s.Births++
			} else if oldSp != grid.Empty && c.Species == grid.Empty {
				s.Deaths++
			}
		}
	}
	s.Red = pops[grid.Red]
	s.Green = pops[grid.Green]
	s.Blue = pops[grid.Blue]
	s.Quantum = pops[grid.Quantum]
	s.TotalPopulation = s.Red + s.Green + s.Blue + s.Quantum

	s.Diversity = diversityIndex(pops)
	s.Entropy = blockEntropy(cur, a.blockSize)
	s.FractalDim = fractalDimension(cur, a.fractalScales)
	s.Stability = a.classifyStability(s.TotalPopulation)

	a.history = append(a.history, s)
	if len(a.history) > a.historyCap {
		a.history = a.history[len(a.history)-a.historyCap:]
	}
	return s
}

// History returns an ordered copy of the retained stats, oldest first.
func (a *Engine) History() []GenerationStats {
	out := make([]GenerationStats, len(a.history))
	copy(out, a.history)
	return out
}

// Latest returns the most recent stats entry, if any.
func (a *Engine) Latest() (GenerationStats, bool) {
	if len(a.history) == 0 {
		return GenerationStats{}, false
	}
	return a.history[len(a.history)-1], true
}

// Clear drops the retained history.
func (a *Engine) Clear() { a.history = nil }

// diversityIndex returns a normalized Shannon index over species population
// fractions: 0 when the grid is empty or single-species, 1 when the live
// species are evenly represented.
func diversityIndex(pops [grid.NumSpecies]int) float64 {
	total := 0
	for _, sp := range grid.LiveSpecies {
		total += pops[sp]
	}
	if total == 0 {
		return 0
	}
	fractions := make([]float64, 0, len(grid.LiveSpecies))
	for _, sp := range grid.LiveSpecies {
		fractions = append(fractions, float64(pops[sp])/float64(total))
	}
	return stat.Entropy(fractions) / math.Log(float64(len(grid.LiveSpecies)))
}

// blockEntropy measures spatial disorder: the mean binary Shannon entropy of
// occupied-vs-empty within fixed-size sub-blocks. Uniform blocks (all empty
// or all occupied) contribute zero.
func blockEntropy(g *grid.Grid, blockSize int) float64 {
	var sum float64
	blocks := 0
	for row := 0; row < g.Height(); row += blockSize {
		for col := 0; col < g.Width(); col += blockSize {
			occupied, cells := 0, 0
			for dr := 0; dr < blockSize && row+dr < g.Height(); dr++ {
				for dc := 0; dc < blockSize && col+dc < g.Width(); dc++ {
					cells++
					if g.At(row+dr, col+dc).Species != grid.Empty {
						occupied++
					}
				}
			}
			blocks++
			p := float64(occupied) / float64(cells)
			if p > 0 && p < 1 {
				sum += -(p*math.Log2(p) + (1-p)*math.Log2(1-p))
			}
		}
	}
	if blocks == 0 {
		return 0
	}
	return sum / float64(blocks)
}

// fractalDimension estimates the box-counting dimension of the occupancy
// pattern: the slope of log(count) against log(1/scale) over the sampled
// scales. Returns FractalDimUndefined when fewer than two scales produce a
// non-zero box count.
func fractalDimension(g *grid.Grid, scales []int) float64 {
	var xs, ys []float64
	for _, scale := range scales {
		count := 0
		for row := 0; row < g.Height(); row += scale {
			for col := 0; col < g.Width(); col += scale {
				if boxOccupied(g, row, col, scale) {
					count++
				}
			}
		}
		if count > 0 {
			xs = append(xs, math.Log(1.0/float64(scale)))
			ys = append(ys, math.Log(float64(count)))
		}
	}
	if len(xs) < 2 {
		return FractalDimUndefined
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	return math.Max(0, math.Min(2, slope))
}

func boxOccupied(g *grid.Grid, row, col, scale int) bool {
	for dr := 0; dr < scale && row+dr < g.Height(); dr++ {
		for dc := 0; dc < scale && col+dc < g.Width(); dc++ {
			if g.At(row+dr, col+dc).Species != grid.Empty {
				return true
			}
		}
	}
	return false
}

// classifyStability derives the stable/transitional/chaotic label from the
// variance of total population over the last stabilityWindow generations,
// including the one being observed.
func (a *Engine) classifyStability(currentTotal int) Stability {
	need := a.stabilityWindow - 1
	if len(a.history) < need {
		return StabilityTransitional
	}
	vals := make([]float64, 0, a.stabilityWindow)
	for _, h := range a.history[len(a.history)-need:] {
		vals = append(vals, float64(h.TotalPopulation))
	}
	vals = append(vals, float64(currentTotal))
	variance := stat.Variance(vals, nil)
	switch {
	case variance <= a.stableMaxVar:
		return StabilityStable
	case variance >= a.chaoticMinVar:
		return StabilityChaotic
	default:
		return StabilityTransitional
	}
}

// MovingAverage returns the mean of the last window values, or 0 for an
// empty series.
func MovingAverage(vals []float64, window int) float64 {
	if len(vals) == 0 {
		return 0
	}
	if window > 0 && len(vals) > window {
		vals = vals[len(vals)-window:]
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// Trend returns the least-squares slope of the last window values against
// their index, or 0 when fewer than two values are available.
func Trend(vals []float64, window int) float64 {
	if window > 0 && len(vals) > window {
		vals = vals[len(vals)-window:]
	}
	if len(vals) < 2 {
		return 0
	}
	xs := make([]float64, len(vals))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, slope := stat.LinearRegression(xs, vals, nil, false)
	return slope
}
