// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/garden/traits"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World          WorldConfig          `yaml:"world"`
	SeedPopulation SpeciesCounts        `yaml:"seed_population"`
	Metabolism     MetabolismConfig     `yaml:"metabolism"`
	Species        SpeciesSet           `yaml:"species"`
	SeedTraits     SeedTraitsConfig     `yaml:"seed_traits"`
	Photosynthesis PhotosynthesisConfig `yaml:"photosynthesis"`
	Decomposition  DecompositionConfig  `yaml:"decomposition"`
	Mutation       MutationConfig       `yaml:"mutation"`
	Weather        WeatherConfig        `yaml:"weather"`
	Monitor        MonitorConfig        `yaml:"monitor"`
	Disaster       DisasterConfig       `yaml:"disaster"`
	Sustainability SustainabilityConfig `yaml:"sustainability"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds garden dimensions and identity.
type WorldConfig struct {
	Width         float64 `yaml:"width"`
	Height        float64 `yaml:"height"`
	GardenStateID string  `yaml:"garden_state_id"`
}

// SpeciesCounts holds one integer per species.
type SpeciesCounts struct {
	Plant     int `yaml:"plant"`
	Herbivore int `yaml:"herbivore"`
	Carnivore int `yaml:"carnivore"`
	Fungus    int `yaml:"fungus"`
}

// Get returns the count for a species.
func (c SpeciesCounts) Get(s traits.Species) int {
	switch s {
	case traits.SpeciesPlant:
		return c.Plant
	case traits.SpeciesHerbivore:
		return c.Herbivore
	case traits.SpeciesCarnivore:
		return c.Carnivore
	case traits.SpeciesFungus:
		return c.Fungus
	}
	return 0
}

// MetabolismConfig holds the shared energy economy constants.
type MetabolismConfig struct {
	BaseCost                 float64 `yaml:"base_cost"`                  // Per-tick upkeep before scaling
	MoveCost                 float64 `yaml:"move_cost"`                  // Energy per unit distance per metabolism efficiency
	ComfortMinTemp           float64 `yaml:"comfort_min_temp"`           // Below this, upkeep rises
	ComfortMaxTemp           float64 `yaml:"comfort_max_temp"`           // Above this, upkeep rises
	TempPenaltySlope         float64 `yaml:"temp_penalty_slope"`         // Multiplier increase per degree outside comfort
	MaxTempMultiplier        float64 `yaml:"max_temp_multiplier"`        // Cap on temperature multiplier
	InteractionDistance      float64 `yaml:"interaction_distance"`       // Eat/hunt/decompose reach
	FeedHealthGain           float64 `yaml:"feed_health_gain"`           // Health bonus for a successful feed
	StarvationThreshold      float64 `yaml:"starvation_threshold"`       // Pre-feed energy below this counts as starving
	StarvationRecoveryHealth float64 `yaml:"starvation_recovery_health"` // Health bonus when feeding while starving
	HealthRegen              float64 `yaml:"health_regen"`               // Per-tick regeneration when well fed
	HealthRegenMinEnergy     float64 `yaml:"health_regen_min_energy"`    // Energy needed to regenerate
}

// SpeciesConfig holds lifecycle and economy parameters for one species.
type SpeciesConfig struct {
	InitialEnergy         float64 `yaml:"initial_energy"`
	OffspringEnergy       float64 `yaml:"offspring_energy"`
	ReproductionThreshold float64 `yaml:"reproduction_threshold"`
	ReproductionCost      float64 `yaml:"reproduction_cost"`
	MaxAge                int64   `yaml:"max_age"`
	MaxReproductiveAge    int64   `yaml:"max_reproductive_age"`
	DispersalRadius       float64 `yaml:"dispersal_radius"`
	StarvationDamage      float64 `yaml:"starvation_damage"` // Health lost per tick at zero energy
	MetabolismScale       float64 `yaml:"metabolism_scale"`  // Fraction of base metabolism paid
	DensityK              float64 `yaml:"density_k"`         // Soft carrying capacity: p *= K / (N + K)
	HungerThreshold       float64 `yaml:"hunger_threshold"`  // Forage/hunt only below this energy
	BiteSize              float64 `yaml:"bite_size"`         // Max energy taken per feed
	CreepSpeed            float64 `yaml:"creep_speed"`       // Fungus movement per tick
}

// SpeciesSet holds per-species parameters.
type SpeciesSet struct {
	Plant     SpeciesConfig `yaml:"plant"`
	Herbivore SpeciesConfig `yaml:"herbivore"`
	Carnivore SpeciesConfig `yaml:"carnivore"`
	Fungus    SpeciesConfig `yaml:"fungus"`
}

// Get returns the parameters for a species.
func (s *SpeciesSet) Get(sp traits.Species) *SpeciesConfig {
	switch sp {
	case traits.SpeciesPlant:
		return &s.Plant
	case traits.SpeciesHerbivore:
		return &s.Herbivore
	case traits.SpeciesCarnivore:
		return &s.Carnivore
	case traits.SpeciesFungus:
		return &s.Fungus
	}
	return &s.Plant
}

// SeedTraitsConfig holds the founder traits used for world seeding.
type SeedTraitsConfig struct {
	Plant     traits.Plant     `yaml:"plant"`
	Herbivore traits.Herbivore `yaml:"herbivore"`
	Carnivore traits.Carnivore `yaml:"carnivore"`
	Fungus    traits.Fungus    `yaml:"fungus"`
}

// For returns the seed trait set for a species.
func (s SeedTraitsConfig) For(sp traits.Species) traits.Set {
	switch sp {
	case traits.SpeciesPlant:
		return s.Plant
	case traits.SpeciesHerbivore:
		return s.Herbivore
	case traits.SpeciesCarnivore:
		return s.Carnivore
	case traits.SpeciesFungus:
		return s.Fungus
	}
	return s.Plant
}

// PhotosynthesisConfig holds plant energy gain parameters.
type PhotosynthesisConfig struct {
	Gain            float64 `yaml:"gain"`             // Gain at rate 1, full sun, noon, optimal moisture
	MoistureOptimum float64 `yaml:"moisture_optimum"` // Moisture with peak gain
	NightFloor      float64 `yaml:"night_floor"`      // Day-phase factor at night
}

// DecompositionConfig holds fungus decomposition parameters.
type DecompositionConfig struct {
	Gain          float64 `yaml:"gain"`           // Energy per tick at rate 1
	MoistureFloor float64 `yaml:"moisture_floor"` // Lower bound of the moisture factor
	MoistureScale float64 `yaml:"moisture_scale"` // Moisture factor = max(floor, moisture * scale)
}

// MutationConfig holds inheritance parameters.
type MutationConfig struct {
	MaxPerturbation float64 `yaml:"max_perturbation"` // Symmetric relative perturbation bound
	ReportableDelta float64 `yaml:"reportable_delta"` // Relative change logged as MUTATION
}

// WeatherStateConfig describes one weather state.
type WeatherStateConfig struct {
	Temperature float64            `yaml:"temperature"` // Drift target
	Sunlight    float64            `yaml:"sunlight"`    // Drift target
	Moisture    float64            `yaml:"moisture"`    // Drift target
	MinDuration int64              `yaml:"min_duration"`
	MaxDuration int64              `yaml:"max_duration"`
	Transitions map[string]float64 `yaml:"transitions"` // Next-state weights (self ignored)
}

// WeatherConfig holds the weather state machine parameters.
type WeatherConfig struct {
	InitialState       string                        `yaml:"initial_state"`
	InitialDuration    int64                         `yaml:"initial_duration"`
	DayLengthTicks     int64                         `yaml:"day_length_ticks"`
	DriftSmoothing     float64                       `yaml:"drift_smoothing"`
	TemperatureNoise   float64                       `yaml:"temperature_noise"`
	SunlightNoise      float64                       `yaml:"sunlight_noise"`
	MoistureNoise      float64                       `yaml:"moisture_noise"`
	MinTemperature     float64                       `yaml:"min_temperature"`
	MaxTemperature     float64                       `yaml:"max_temperature"`
	InitialTemperature float64                       `yaml:"initial_temperature"`
	InitialSunlight    float64                       `yaml:"initial_sunlight"`
	InitialMoisture    float64                       `yaml:"initial_moisture"`
	States             map[string]WeatherStateConfig `yaml:"states"`
}

// MonitorConfig holds population event detection thresholds.
type MonitorConfig struct {
	ExplosionFactor        float64 `yaml:"explosion_factor"`         // Growth over the window minimum
	ExplosionMin           int     `yaml:"explosion_min"`            // Minimum size for an explosion
	WindowTicks            int     `yaml:"window_ticks"`             // Rolling history length
	CollapseTotal          int     `yaml:"collapse_total"`           // Total living below this collapses
	CollapseExtinctSpecies int     `yaml:"collapse_extinct_species"` // Extinct species count that collapses
}

// DisasterConfig holds random disaster parameters.
type DisasterConfig struct {
	Chance   float64 `yaml:"chance"` // Per-tick probability
	Severity float64 `yaml:"severity"`
	Radius   float64 `yaml:"radius"`
}

// SustainabilityConfig holds the lower population bounds for a healthy run.
type SustainabilityConfig struct {
	WindowTicks int           `yaml:"window_ticks"`
	MinTotal    int           `yaml:"min_total"`
	MinLiving   SpeciesCounts `yaml:"min_living"`
}

// WeatherTransition is a normalised next-state weight.
type WeatherTransition struct {
	State  string
	Weight float64
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	WeatherStates      []string                       // State names in canonical order
	WeatherTransitions map[string][]WeatherTransition // Normalised, self-free, sorted by name
}

// WeatherStateNames lists the closed set of weather states in canonical order.
var WeatherStateNames = []string{"CLEAR", "OVERCAST", "RAIN", "STORM", "FOG", "DROUGHT"}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
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

	cfg.computeDerived()

	return cfg, nil
}

// Clone returns a deep copy, with derived values recomputed.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Weather.States = make(map[string]WeatherStateConfig, len(c.Weather.States))
	for name, st := range c.Weather.States {
		tr := make(map[string]float64, len(st.Transitions))
		for k, v := range st.Transitions {
			tr[k] = v
		}
		st.Transitions = tr
		cp.Weather.States[name] = st
	}
	cp.computeDerived()
	return &cp
}

// computeDerived calculates values derived from loaded config.
// Out-of-range values are repaired rather than rejected.
func (c *Config) computeDerived() {
	if c.World.Width <= 0 {
		c.World.Width = 400
	}
	if c.World.Height <= 0 {
		c.World.Height = 400
	}
	if c.Weather.DayLengthTicks <= 0 {
		c.Weather.DayLengthTicks = 96
	}
	if c.Metabolism.ComfortMaxTemp < c.Metabolism.ComfortMinTemp {
		c.Metabolism.ComfortMinTemp, c.Metabolism.ComfortMaxTemp = c.Metabolism.ComfortMaxTemp, c.Metabolism.ComfortMinTemp
	}
	if c.Metabolism.MaxTempMultiplier < 1 {
		c.Metabolism.MaxTempMultiplier = 1
	}
	if c.Monitor.WindowTicks < 1 {
		c.Monitor.WindowTicks = 1
	}

	if c.Weather.States == nil {
		c.Weather.States = make(map[string]WeatherStateConfig)
	}
	if _, ok := c.Weather.States[c.Weather.InitialState]; !ok {
		c.Weather.InitialState = WeatherStateNames[0]
	}

	c.Derived.WeatherStates = append([]string(nil), WeatherStateNames...)
	c.Derived.WeatherTransitions = make(map[string][]WeatherTransition, len(WeatherStateNames))

	for _, name := range WeatherStateNames {
		st := c.Weather.States[name]
		if st.MinDuration < 1 {
			st.MinDuration = 1
		}
		if st.MaxDuration < st.MinDuration {
			st.MaxDuration = st.MinDuration
		}
		c.Weather.States[name] = st

		var total float64
		var out []WeatherTransition
		for next, w := range st.Transitions {
			if next == name || w <= 0 || !isWeatherState(next) {
				continue
			}
			out = append(out, WeatherTransition{State: next, Weight: w})
			total += w
		}
		// No usable weights: fall back to a uniform choice among the other states
		if total == 0 {
			out = out[:0]
			for _, next := range WeatherStateNames {
				if next != name {
					out = append(out, WeatherTransition{State: next, Weight: 1})
					total++
				}
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].State < out[j].State })
		for i := range out {
			out[i].Weight /= total
		}
		c.Derived.WeatherTransitions[name] = out
	}
}

func isWeatherState(name string) bool {
	for _, s := range WeatherStateNames {
		if s == name {
			return true
		}
	}
	return false
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
