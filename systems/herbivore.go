package systems

import (
	"github.com/pthm-cable/garden/components"
	"github.com/pthm-cable/garden/telemetry"
	"github.com/pthm-cable/garden/traits"
)

func isLiveCarnivore(c *components.Entity) bool {
	return c.IsAlive && c.Species() == traits.SpeciesCarnivore
}

func isGrazable(c *components.Entity) bool {
	return c.IsAlive && c.Energy > 0 && c.Species() == traits.SpeciesPlant
}

// processHerbivore flees the nearest carnivore in range unless starving,
// otherwise grazes the nearest plant while hungry.
func processHerbivore(ctx *Context, e *components.Entity, tr traits.Herbivore, t Targets, res *Result) {
	sc := ctx.species(traits.SpeciesHerbivore)
	m := ctx.Cfg.Metabolism

	fled := false
	if e.Energy >= m.StarvationThreshold {
		if threat, _, ok := t.Threats.Nearest(e, tr.ThreatDetectionRadius, isLiveCarnivore); ok {
			payMovement(ctx, e, MoveAway(e, threat.Position, tr.MovementSpeed, ctx.Bounds()))
			fled = true
		}
	}

	if !fled && e.Energy < sc.HungerThreshold {
		if plant, d, ok := t.Food.Nearest(e, tr.PerceptionRadius, isGrazable); ok {
			if d <= m.InteractionDistance {
				graze(ctx, e, plant, sc.BiteSize, res)
			} else {
				payMovement(ctx, e, MoveToward(e, plant.Position, tr.MovementSpeed, ctx.Bounds()))
			}
		}
	}

	finish(ctx, e, res)
}

// graze takes a bite from plant. A plant grazed down to zero energy dies.
func graze(ctx *Context, e, plant *components.Entity, bite float64, res *Result) {
	if feed(ctx, e, plant, bite) <= 0 {
		return
	}
	res.Consumed = append(res.Consumed, plant.ID)
	if plant.Energy <= 0 {
		kill(ctx, plant, telemetry.CauseConsumed)
	}
}
