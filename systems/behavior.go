package systems

import (
	"github.com/pthm-cable/garden/components"
	"github.com/pthm-cable/garden/traits"
)

// ProcessSpeciesBehavior advances one living entity by a tick: target
// acquisition, interaction or pursuit, upkeep, reproduction, death evaluation.
// Dead entities are left untouched. Out-of-domain traits are clamped first.
func ProcessSpeciesBehavior(ctx *Context, e *components.Entity, t Targets) Result {
	if e == nil || !e.IsAlive || e.Traits == nil {
		return Result{}
	}
	e.Traits = traits.Clamp(e.Traits)

	var res Result
	switch tr := e.Traits.(type) {
	case traits.Plant:
		processPlant(ctx, e, tr, &res)
	case traits.Herbivore:
		processHerbivore(ctx, e, tr, t, &res)
	case traits.Carnivore:
		processCarnivore(ctx, e, tr, t, &res)
	case traits.Fungus:
		processFungus(ctx, e, tr, t, &res)
	}
	return res
}
