// Package simulation runs the ecosystem tick: weather, aging, the four
// species phases in trophic order, offspring aggregation and population
// accounting.
package simulation

import (
	"log/slog"

	"github.com/pthm-cable/garden/components"
	"github.com/pthm-cable/garden/telemetry"
	"github.com/pthm-cable/garden/traits"
)

// SpeciesCount is the population record of one species.
type SpeciesCount struct {
	Living      int `json:"living"`
	Dead        int `json:"dead"`        // carcasses still holding energy
	AllTimeDead int `json:"allTimeDead"` // every death since the world began
}

// PopulationSummary is the per-tick population view handed to downstream consumers.
type PopulationSummary struct {
	Tick        int64                           `json:"tick"`
	Species     map[traits.Species]SpeciesCount `json:"species"`
	TotalLiving int                             `json:"totalLiving"`
	TotalDead   int                             `json:"totalDead"`
}

// Summarize counts entities by species. allTimeDead carries the running death totals.
func Summarize(tick int64, entities []*components.Entity, allTimeDead telemetry.Counts) PopulationSummary {
	s := PopulationSummary{Tick: tick, Species: make(map[traits.Species]SpeciesCount, len(traits.All))}
	var living, dead telemetry.Counts
	for _, e := range entities {
		if e.Traits == nil {
			continue
		}
		sp := e.Species()
		switch {
		case e.IsAlive:
			living[sp]++
		case e.Energy > 0:
			dead[sp]++
		}
	}
	for _, sp := range traits.All {
		s.Species[sp] = SpeciesCount{Living: living[sp], Dead: dead[sp], AllTimeDead: allTimeDead[sp]}
		s.TotalLiving += living[sp]
		s.TotalDead += dead[sp]
	}
	return s
}

// Living returns the living counts indexed by species.
func (s PopulationSummary) Living() telemetry.Counts {
	var c telemetry.Counts
	for sp, n := range s.Species {
		if int(sp) < len(c) {
			c[sp] = n.Living
		}
	}
	return c
}

// AllTimeDead returns the running death totals indexed by species.
func (s PopulationSummary) AllTimeDead() telemetry.Counts {
	var c telemetry.Counts
	for sp, n := range s.Species {
		if int(sp) < len(c) {
			c[sp] = n.AllTimeDead
		}
	}
	return c
}

// LogValue implements slog.LogValuer.
func (s PopulationSummary) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("tick", s.Tick),
		slog.Int("living", s.TotalLiving),
		slog.Int("dead", s.TotalDead),
	}
	for _, sp := range traits.All {
		attrs = append(attrs, slog.Int(sp.String(), s.Species[sp].Living))
	}
	return slog.GroupValue(attrs...)
}
