package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/quantumlife/grid"
)

// Pattern labels returned by DetectPatterns.
const (
	PatternOscillation    = "population oscillation"
	PatternExpGrowth      = "exponential growth"
	PatternExtinctionRisk = "species extinction risk"
	PatternStability      = "population stability"
	PatternChaos          = "chaotic dynamics"
)

// DetectPatterns scans recent history for recognizable dynamics and returns
// advisory labels. Results are heuristics for display, not simulation inputs.
func (a *Engine) DetectPatterns() []string {
	var patterns []string
	if len(a.history) < 20 {
		return patterns
	}

	totals := make([]float64, 0, 20)
	for _, h := range a.history[len(a.history)-20:] {
		totals = append(totals, float64(h.TotalPopulation))
	}

	if detectOscillation(totals) {
		patterns = append(patterns, PatternOscillation)
	}
	if detectExponentialGrowth(totals) {
		patterns = append(patterns, PatternExpGrowth)
	}
	if a.detectExtinctionRisk() {
		patterns = append(patterns, PatternExtinctionRisk)
	}
	if detectStability(totals) {
		patterns = append(patterns, PatternStability)
	}
	if a.detectChaos() {
		patterns = append(patterns, PatternChaos)
	}
	return patterns
}

// detectOscillation looks for regularly spaced population peaks.
func detectOscillation(data []float64) bool {
	var peaks []int
	for i := 1; i < len(data)-1; i++ {
		if data[i] > data[i-1] && data[i] > data[i+1] {
			peaks = append(peaks, i)
		}
	}
	if len(peaks) < 3 {
		return false
	}
	intervals := make([]float64, 0, len(peaks)-1)
	for i := 0; i+1 < len(peaks); i++ {
		intervals = append(intervals, float64(peaks[i+1]-peaks[i]))
	}
	mean := MovingAverage(intervals, 0)
	var variance float64
	for _, iv := range intervals {
		d := iv - mean
		variance += d * d
	}
	variance /= float64(len(intervals))
	return variance < mean*0.1
}

// detectExponentialGrowth checks for sustained multiplicative growth.
func detectExponentialGrowth(data []float64) bool {
	var rates []float64
	for i := 1; i < len(data); i++ {
		if data[i-1] > 0 {
			rates = append(rates, data[i]/data[i-1])
		}
	}
	if len(rates) < 3 {
		return false
	}
	if MovingAverage(rates, 0) <= 1.1 {
		return false
	}
	for _, r := range rates[len(rates)-3:] {
		if r <= 1.05 {
			return false
		}
	}
	return true
}

// detectExtinctionRisk flags a species with a small, shrinking population.
func (a *Engine) detectExtinctionRisk() bool {
	for _, sp := range grid.LiveSpecies {
		series := a.speciesSeries(sp)
		if len(series) == 0 {
			continue
		}
		current := series[len(series)-1]
		if current > 0 && current < 5 && Trend(series, 10) < -0.1 {
			return true
		}
	}
	return false
}

// detectStability flags a low coefficient of variation in total population.
func detectStability(data []float64) bool {
	if len(data) < 10 {
		return false
	}
	mean := MovingAverage(data, 0)
	if mean <= 0 {
		return false
	}
	var variance float64
	for _, v := range data {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(data))
	cv := math.Sqrt(variance) / mean
	return cv < 0.05
}

// detectChaos flags high entropy variance together with a high fractal
// dimension.
func (a *Engine) detectChaos() bool {
	entropies := make([]float64, 0, 20)
	for _, h := range a.history[len(a.history)-20:] {
		entropies = append(entropies, h.Entropy)
	}
	latest := a.history[len(a.history)-1]
	return stat.Variance(entropies, nil) > 0.5 &&
		latest.FractalDim != FractalDimUndefined && latest.FractalDim > 1.5
}

func (a *Engine) speciesSeries(sp grid.Species) []float64 {
	series := make([]float64, 0, len(a.history))
	for _, h := range a.history {
		switch sp {
		case grid.Red:
			series = append(series, float64(h.Red))
		case grid.Green:
			series = append(series, float64(h.Green))
		case grid.Blue:
			series = append(series, float64(h.Blue))
		case grid.Quantum:
			series = append(series, float64(h.Quantum))
		}
	}
	return series
}
