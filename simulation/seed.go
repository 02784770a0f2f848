package simulation

import (
	"math/rand"
	"time"

	"github.com/pthm-cable/garden/components"
	"github.com/pthm-cable/garden/config"
	"github.com/pthm-cable/garden/systems"
	"github.com/pthm-cable/garden/traits"
)

// NewEntity creates a founder of species sp at pos with the configured seed traits.
// It draws an id and a name from rng.
func NewEntity(cfg *config.Config, rng *rand.Rand, sp traits.Species, pos components.Position, tick int64, now time.Time) *components.Entity {
	sc := cfg.Species.Get(sp)
	return &components.Entity{
		ID:            systems.NewID(rng),
		GardenStateID: cfg.World.GardenStateID,
		BornAtTick:    tick,
		IsAlive:       true,
		Name:          systems.NewName(rng, sp),
		Position:      pos,
		Energy:        components.Clamp100(sc.InitialEnergy),
		Health:        100,
		Lineage:       components.OriginLineage,
		CreatedAt:     now,
		UpdatedAt:     now,
		Traits:        traits.Clamp(cfg.SeedTraits.For(sp)),
	}
}

// SeedWorld places the configured founder populations uniformly across the
// world, species in processing order.
func SeedWorld(cfg *config.Config, rng *rand.Rand, tick int64, now time.Time) []*components.Entity {
	var out []*components.Entity
	for _, sp := range traits.All {
		out = append(out, spawn(cfg, rng, sp, cfg.SeedPopulation.Get(sp), tick, now)...)
	}
	return out
}

func spawn(cfg *config.Config, rng *rand.Rand, sp traits.Species, n int, tick int64, now time.Time) []*components.Entity {
	out := make([]*components.Entity, 0, n)
	for i := 0; i < n; i++ {
		pos := components.Position{X: rng.Float64() * cfg.World.Width, Y: rng.Float64() * cfg.World.Height}
		out = append(out, NewEntity(cfg, rng, sp, pos, tick, now))
	}
	return out
}
