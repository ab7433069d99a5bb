// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Grid      GridConfig      `yaml:"grid"`
	Rules     RulesConfig     `yaml:"rules"`
	Energy    EnergyConfig    `yaml:"energy"`
	Mutation  MutationConfig  `yaml:"mutation"`
	Quantum   QuantumConfig   `yaml:"quantum"`
	Events    EventsConfig    `yaml:"events"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Worldgen  WorldgenConfig  `yaml:"worldgen"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// GridConfig holds grid dimensions and the edge policy, fixed for the
// lifetime of a simulation.
type GridConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	EdgePolicy string `yaml:"edge_policy"` // wrap | bounded
}

// RulesConfig holds the per-species rule set and the cross-species
// interaction matrix.
type RulesConfig struct {
	SurvivalCountMode string              `yaml:"survival_count_mode"` // total | same_species
	Species           []SpeciesRuleConfig `yaml:"species"`
	Interactions      []InteractionConfig `yaml:"interactions"`
}

// SpeciesRuleConfig defines survival/birth neighbor ranges and the energy
// decay rate for one species.
type SpeciesRuleConfig struct {
	Name       string  `yaml:"name"`
	SurviveMin int     `yaml:"survive_min"`
	SurviveMax int     `yaml:"survive_max"`
	BirthMin   int     `yaml:"birth_min"`
	BirthMax   int     `yaml:"birth_max"`
	DecayRate  float64 `yaml:"decay_rate"` // energy drain per generation
}

// InteractionConfig defines the symmetric energy bonus applied per adjacent
// neighbor for a species pair. Pairs not listed default to 0.
type InteractionConfig struct {
	Between []string `yaml:"between"` // exactly two species names (may be equal)
	Bonus   float64  `yaml:"bonus"`
}

// EnergyConfig holds the energy bounds shared by all species.
type EnergyConfig struct {
	MaxEnergy           float64 `yaml:"max_energy"`
	BirthEnergy         float64 `yaml:"birth_energy"`
	StarvationThreshold float64 `yaml:"starvation_threshold"` // survivor dies at or below this
}

// MutationConfig holds the spontaneous mutation parameters. The effective
// per-cell probability is rate scaled by cell age, plus any active event
// boost.
type MutationConfig struct {
	Rate     float64               `yaml:"rate"`
	AgeScale float64               `yaml:"age_scale"` // generations until full rate
	Targets  []SpeciesWeightConfig `yaml:"targets"`
}

// SpeciesWeightConfig pairs a species name with a sampling weight.
type SpeciesWeightConfig struct {
	Species string  `yaml:"species"`
	Weight  float64 `yaml:"weight"`
}

// QuantumConfig holds phase and tunneling parameters for the Quantum species.
type QuantumConfig struct {
	PhaseStep          float64 `yaml:"phase_step"`           // radians per generation
	TunnelChance       float64 `yaml:"tunnel_chance"`        // scaled by (sin(phase)+1)/2
	TunnelRadius       int     `yaml:"tunnel_radius"`        // Chebyshev radius for targets
	TunnelEnergyKeep   float64 `yaml:"tunnel_energy_keep"`   // fraction retained after a tunnel
	SurvivalPhaseShift int     `yaml:"survival_phase_shift"` // max shift of the survival window
}

// EventsConfig holds the world-event scheduler parameters.
type EventsConfig struct {
	Scheduler         bool                `yaml:"scheduler"`           // enable probabilistic spawning
	Metric            string              `yaml:"metric"`              // euclidean | chebyshev
	BloomSeedChance   float64             `yaml:"bloom_seed_chance"`   // per-tick seed probability at a bloom center
	BloomEnergyFactor float64             `yaml:"bloom_energy_factor"` // bloom seed energy as a fraction of birth energy
	Probabilities     []EventChanceConfig `yaml:"probabilities"`
}

// EventChanceConfig pairs an event kind with its per-generation spawn
// probability.
type EventChanceConfig struct {
	Kind   string  `yaml:"kind"`
	Chance float64 `yaml:"chance"`
}

// AnalyticsConfig holds the statistics pipeline parameters.
type AnalyticsConfig struct {
	HistoryCap         int     `yaml:"history_cap"`
	EntropyBlockSize   int     `yaml:"entropy_block_size"`
	FractalScales      []int   `yaml:"fractal_scales"`
	StabilityWindow    int     `yaml:"stability_window"`
	StableMaxVariance  float64 `yaml:"stable_max_variance"`
	ChaoticMinVariance float64 `yaml:"chaotic_min_variance"`
}

// WorldgenConfig holds initial population seeding parameters.
type WorldgenConfig struct {
	Density        float64               `yaml:"density"`     // target live fraction
	NoiseScale     float64               `yaml:"noise_scale"` // grid units to noise units
	NoiseAlpha     float64               `yaml:"noise_alpha"`
	NoiseBeta      float64               `yaml:"noise_beta"`
	NoiseOctaves   int                   `yaml:"noise_octaves"`
	InitialEnergy  float64               `yaml:"initial_energy"`
	SpeciesWeights []SpeciesWeightConfig `yaml:"species_weights"`
}

// TelemetryConfig holds stats logging parameters.
type TelemetryConfig struct {
	LogEvery int `yaml:"log_every"` // generations between stats log lines
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if
// path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks structural constraints that do not depend on species name
// resolution; the rules package performs the full rule-table validation.
func (c *Config) Validate() error {
	if c.Grid.Width <= 0 || c.Grid.Height <= 0 {
		return fmt.Errorf("grid dimensions must be positive, got %dx%d", c.Grid.Width, c.Grid.Height)
	}
	if c.Energy.MaxEnergy <= 0 {
		return fmt.Errorf("energy.max_energy must be positive, got %v", c.Energy.MaxEnergy)
	}
	if c.Energy.BirthEnergy < 0 || c.Energy.BirthEnergy > c.Energy.MaxEnergy {
		return fmt.Errorf("energy.birth_energy %v outside [0, %v]", c.Energy.BirthEnergy, c.Energy.MaxEnergy)
	}
	if c.Mutation.Rate < 0 || c.Mutation.Rate > 1 {
		return fmt.Errorf("mutation.rate %v outside [0, 1]", c.Mutation.Rate)
	}
	if c.Mutation.AgeScale <= 0 {
		return fmt.Errorf("mutation.age_scale must be positive, got %v", c.Mutation.AgeScale)
	}
	if c.Quantum.TunnelRadius < 1 {
		return fmt.Errorf("quantum.tunnel_radius must be at least 1, got %d", c.Quantum.TunnelRadius)
	}
	if c.Events.BloomSeedChance < 0 || c.Events.BloomSeedChance > 1 {
		return fmt.Errorf("events.bloom_seed_chance %v outside [0, 1]", c.Events.BloomSeedChance)
	}
	if c.Events.BloomEnergyFactor < 0 || c.Events.BloomEnergyFactor > 1 {
		return fmt.Errorf("events.bloom_energy_factor %v outside [0, 1]", c.Events.BloomEnergyFactor)
	}
	if c.Analytics.HistoryCap < 1 {
		return fmt.Errorf("analytics.history_cap must be at least 1, got %d", c.Analytics.HistoryCap)
	}
	if c.Analytics.EntropyBlockSize < 1 {
		return fmt.Errorf("analytics.entropy_block_size must be at least 1, got %d", c.Analytics.EntropyBlockSize)
	}
	if c.Analytics.StabilityWindow < 2 {
		return fmt.Errorf("analytics.stability_window must be at least 2, got %d", c.Analytics.StabilityWindow)
	}
	for _, s := range c.Analytics.FractalScales {
		if s < 1 {
			return fmt.Errorf("analytics.fractal_scales entries must be positive, got %d", s)
		}
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
