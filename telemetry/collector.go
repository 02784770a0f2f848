package telemetry

import (
	"sync"

	"github.com/pthm-cable/garden/components"
	"github.com/pthm-cable/garden/traits"
)

// Collector accumulates events for the current tick and produces TickStats.
// It is a Sink, so it can sit next to other sinks in a MultiSink.
type Collector struct {
	mu sync.Mutex

	// Event counters for current tick
	births    int
	deaths    int
	mutations int
	byCause   map[DeathCause]int

	allTimeDead int
}

// NewCollector creates a new stats collector.
func NewCollector() *Collector {
	return &Collector{byCause: make(map[DeathCause]int)}
}

// Emit counts ev.
func (c *Collector) Emit(ev SimulationEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch ev.Type {
	case EventBirth:
		c.births++
	case EventDeath:
		c.deaths++
		c.allTimeDead++
		c.byCause[DeathCause(ev.Cause)]++
	case EventMutation:
		c.mutations++
	}
	return nil
}

// Deaths returns deaths per cause recorded since the last flush.
func (c *Collector) Deaths() map[DeathCause]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[DeathCause]int, len(c.byCause))
	for k, v := range c.byCause {
		out[k] = v
	}
	return out
}

// Flush produces the TickStats for env's tick from the current entity set
// and resets the per-tick counters.
func (c *Collector) Flush(env components.Environment, entities []*components.Entity) TickStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := TickStats{
		Tick:        env.Tick,
		Weather:     string(env.Weather.Current),
		Temperature: env.Temperature,
		Sunlight:    env.Sunlight,
		Moisture:    env.Moisture,
		Births:      c.births,
		Deaths:      c.deaths,
		Mutations:   c.mutations,
		AllTimeDead: c.allTimeDead,
	}

	var energies [len(traits.All)][]float64
	var health []float64
	for _, e := range entities {
		if !e.IsAlive {
			if e.Energy > 0 {
				stats.Carcasses++
				stats.CarcassEnergy += e.Energy
			}
			continue
		}
		if e.Traits == nil {
			continue
		}
		sp := e.Species()
		energies[sp] = append(energies[sp], e.Energy)
		health = append(health, e.Health)
		stats.LivingEnergy += e.Energy
	}

	stats.Plants = len(energies[traits.SpeciesPlant])
	stats.Herbivores = len(energies[traits.SpeciesHerbivore])
	stats.Carnivores = len(energies[traits.SpeciesCarnivore])
	stats.Fungi = len(energies[traits.SpeciesFungus])
	stats.TotalLiving = len(health)

	plant := ComputeEnergyStats(energies[traits.SpeciesPlant])
	herb := ComputeEnergyStats(energies[traits.SpeciesHerbivore])
	carn := ComputeEnergyStats(energies[traits.SpeciesCarnivore])
	fungus := ComputeEnergyStats(energies[traits.SpeciesFungus])
	hs := ComputeEnergyStats(health)

	stats.PlantEnergyMean = plant.Mean
	stats.HerbivoreEnergyMean = herb.Mean
	stats.HerbivoreEnergyP10 = herb.P10
	stats.HerbivoreEnergyP90 = herb.P90
	stats.CarnivoreEnergyMean = carn.Mean
	stats.CarnivoreEnergyP10 = carn.P10
	stats.CarnivoreEnergyP90 = carn.P90
	stats.FungusEnergyMean = fungus.Mean
	stats.HealthMean = hs.Mean
	stats.HealthStd = hs.Std

	// Reset for next tick
	c.births = 0
	c.deaths = 0
	c.mutations = 0
	c.byCause = make(map[DeathCause]int)

	return stats
}
