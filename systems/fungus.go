package systems

import (
	"math"

	"github.com/pthm-cable/garden/components"
	"github.com/pthm-cable/garden/config"
	"github.com/pthm-cable/garden/traits"
)

func isCarcass(c *components.Entity) bool {
	return c.IsCarcass()
}

// DecompositionLimit is the most energy a fungus can draw from a carcass in one tick.
func DecompositionLimit(rate, moisture float64, d config.DecompositionConfig) float64 {
	return d.Gain * rate * math.Max(d.MoistureFloor, moisture*d.MoistureScale)
}

// processFungus decomposes the nearest carcass in reach, or creeps toward it.
func processFungus(ctx *Context, e *components.Entity, tr traits.Fungus, t Targets, res *Result) {
	sc := ctx.species(traits.SpeciesFungus)

	if corpse, d, ok := t.Food.Nearest(e, tr.PerceptionRadius, isCarcass); ok {
		if d <= ctx.Cfg.Metabolism.InteractionDistance {
			limit := DecompositionLimit(tr.DecompositionRate, ctx.Env.Moisture, ctx.Cfg.Decomposition)
			if feed(ctx, e, corpse, limit) > 0 {
				res.Decomposed = append(res.Decomposed, corpse.ID)
			}
		} else {
			payMovement(ctx, e, MoveToward(e, corpse.Position, sc.CreepSpeed, ctx.Bounds()))
		}
	}

	finish(ctx, e, res)
}
