package analytics

import "log/slog"

// FractalDimUndefined is the sentinel returned when the box-counting
// regression has fewer than two usable sample sizes. It is a defined result,
// not an error.
const FractalDimUndefined = -1.0

// Stability classifies recent population dynamics.
type Stability string

const (
	StabilityStable       Stability = "stable"
	StabilityTransitional Stability = "transitional"
	StabilityChaotic      Stability = "chaotic"
)

// GenerationStats is the per-generation summary appended to the simulation
// history.
type GenerationStats struct {
	Generation int `csv:"generation"`

	// Population at generation end
	Red             int `csv:"red"`
	Green           int `csv:"green"`
	Blue            int `csv:"blue"`
	Quantum         int `csv:"quantum"`
	TotalPopulation int `csv:"total_pop"`

	// Transitions since the previous generation
	Births int `csv:"births"`
	Deaths int `csv:"deaths"`

	TotalEnergy float64 `csv:"total_energy"`

	// Derived metrics
	Entropy    float64 `csv:"entropy"`     // spatial block entropy
	Diversity  float64 `csv:"diversity"`   // normalized species evenness
	FractalDim float64 `csv:"fractal_dim"` // box-counting estimate, or FractalDimUndefined

	Stability    Stability `csv:"stability"`
	ActiveEvents int       `csv:"active_events"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Int("red", s.Red),
		slog.Int("green", s.Green),
		slog.Int("blue", s.Blue),
		slog.Int("quantum", s.Quantum),
		slog.Int("total_pop", s.TotalPopulation),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Float64("total_energy", s.TotalEnergy),
		slog.Float64("entropy", s.Entropy),
		slog.Float64("diversity", s.Diversity),
		slog.Float64("fractal_dim", s.FractalDim),
		slog.String("stability", string(s.Stability)),
		slog.Int("active_events", s.ActiveEvents),
	)
}
