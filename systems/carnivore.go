package systems

import (
	"github.com/pthm-cable/garden/components"
	"github.com/pthm-cable/garden/telemetry"
	"github.com/pthm-cable/garden/traits"
)

func isLiveHerbivore(c *components.Entity) bool {
	return c.IsAlive && c.Species() == traits.SpeciesHerbivore
}

// processCarnivore hunts the nearest herbivore while hungry. A kill
// transfers at most one bite; the rest stays on the carcass.
func processCarnivore(ctx *Context, e *components.Entity, tr traits.Carnivore, t Targets, res *Result) {
	sc := ctx.species(traits.SpeciesCarnivore)

	if e.Energy < sc.HungerThreshold {
		if prey, d, ok := t.Food.Nearest(e, tr.PerceptionRadius, isLiveHerbivore); ok {
			if d <= ctx.Cfg.Metabolism.InteractionDistance {
				feed(ctx, e, prey, sc.BiteSize)
				res.Consumed = append(res.Consumed, prey.ID)
				kill(ctx, prey, telemetry.CausePredation)
			} else {
				payMovement(ctx, e, MoveToward(e, prey.Position, tr.MovementSpeed, ctx.Bounds()))
			}
		}
	}

	finish(ctx, e, res)
}
