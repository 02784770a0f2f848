package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// EnergyStats summarises a distribution of energy (or health) values.
type EnergyStats struct {
	Mean float64
	Std  float64
	P10  float64
	P50  float64
	P90  float64
}

// ComputeEnergyStats calculates mean, standard deviation and empirical
// percentiles. It returns zeros for an empty slice and does not modify values.
func ComputeEnergyStats(values []float64) EnergyStats {
	n := len(values)
	if n == 0 {
		return EnergyStats{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var s EnergyStats
	if n == 1 {
		s.Mean = sorted[0]
	} else {
		s.Mean, s.Std = stat.MeanStdDev(sorted, nil)
	}
	s.P10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	s.P50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	s.P90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return s
}

// TickStats is the per-tick record written to ticks.csv.
type TickStats struct {
	Tick        int64   `csv:"tick"`
	Weather     string  `csv:"weather"`
	Temperature float64 `csv:"temperature"`
	Sunlight    float64 `csv:"sunlight"`
	Moisture    float64 `csv:"moisture"`

	// Population counts at tick end
	Plants      int `csv:"plants"`
	Herbivores  int `csv:"herbivores"`
	Carnivores  int `csv:"carnivores"`
	Fungi       int `csv:"fungi"`
	TotalLiving int `csv:"total_living"`
	Carcasses   int `csv:"carcasses"`
	AllTimeDead int `csv:"all_time_dead"`

	// Events during tick
	Births    int `csv:"births"`
	Deaths    int `csv:"deaths"`
	Mutations int `csv:"mutations"`

	// Energy distribution (living entities)
	PlantEnergyMean     float64 `csv:"plant_energy_mean"`
	HerbivoreEnergyMean float64 `csv:"herbivore_energy_mean"`
	HerbivoreEnergyP10  float64 `csv:"herbivore_energy_p10"`
	HerbivoreEnergyP90  float64 `csv:"herbivore_energy_p90"`
	CarnivoreEnergyMean float64 `csv:"carnivore_energy_mean"`
	CarnivoreEnergyP10  float64 `csv:"carnivore_energy_p10"`
	CarnivoreEnergyP90  float64 `csv:"carnivore_energy_p90"`
	FungusEnergyMean    float64 `csv:"fungus_energy_mean"`
	HealthMean          float64 `csv:"health_mean"`
	HealthStd           float64 `csv:"health_std"`

	// Energy pools
	LivingEnergy  float64 `csv:"living_energy"`
	CarcassEnergy float64 `csv:"carcass_energy"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s TickStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("tick", s.Tick),
		slog.String("weather", s.Weather),
		slog.Float64("temperature", s.Temperature),
		slog.Int("plants", s.Plants),
		slog.Int("herbivores", s.Herbivores),
		slog.Int("carnivores", s.Carnivores),
		slog.Int("fungi", s.Fungi),
		slog.Int("carcasses", s.Carcasses),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Float64("living_energy", s.LivingEnergy),
		slog.Float64("carcass_energy", s.CarcassEnergy),
	)
}

// LogStats logs the tick stats using slog.
func (s TickStats) LogStats() {
	slog.Info("stats",
		"tick", s.Tick,
		"weather", s.Weather,
		"plants", s.Plants,
		"herbivores", s.Herbivores,
		"carnivores", s.Carnivores,
		"fungi", s.Fungi,
		"births", s.Births,
		"deaths", s.Deaths,
		"herb_energy_mean", s.HerbivoreEnergyMean,
		"carn_energy_mean", s.CarnivoreEnergyMean,
	)
}
