package systems

import (
	"math"

	"github.com/pthm-cable/garden/components"
	"github.com/pthm-cable/garden/config"
	"github.com/pthm-cable/garden/telemetry"
	"github.com/pthm-cable/garden/traits"
)

// TemperatureMultiplier scales upkeep by how far temp lies outside the comfort band.
func TemperatureMultiplier(temp float64, m config.MetabolismConfig) float64 {
	var off float64
	switch {
	case temp < m.ComfortMinTemp:
		off = m.ComfortMinTemp - temp
	case temp > m.ComfortMaxTemp:
		off = temp - m.ComfortMaxTemp
	}
	return math.Min(1+off*m.TempPenaltySlope, m.MaxTempMultiplier)
}

// payMovement deducts the cost of covering moved units.
func payMovement(ctx *Context, e *components.Entity, moved float64) {
	if moved <= 0 {
		return
	}
	e.AddEnergy(-moved * ctx.Cfg.Metabolism.MoveCost * e.Traits.Rates().MetabolismEfficiency)
}

// metabolize deducts the per-tick upkeep.
func metabolize(ctx *Context, e *components.Entity) {
	m := ctx.Cfg.Metabolism
	cost := m.BaseCost * ctx.species(e.Species()).MetabolismScale * TemperatureMultiplier(ctx.Env.Temperature, m)
	e.AddEnergy(-cost)
}

// feed moves up to limit energy from source to consumer and applies the
// feeding health bonus. The transfer never exceeds the source's energy.
func feed(ctx *Context, consumer, source *components.Entity, limit float64) float64 {
	gain := math.Min(limit, source.Energy)
	if gain <= 0 {
		return 0
	}
	m := ctx.Cfg.Metabolism
	starving := consumer.Energy < m.StarvationThreshold

	source.Energy = math.Max(0, source.Energy-gain)
	consumer.AddEnergy(gain)

	if starving {
		consumer.AddHealth(m.StarvationRecoveryHealth)
	} else {
		consumer.AddHealth(m.FeedHealthGain)
	}
	return gain
}

// CanReproduce reports whether e meets the deterministic reproduction
// conditions. The Bernoulli trial is separate.
func CanReproduce(e *components.Entity, sc *config.SpeciesConfig) bool {
	return e.IsAlive && e.Energy >= sc.ReproductionThreshold && e.Age <= sc.MaxReproductiveAge
}

// ReproductionChance is the per-tick probability for an eligible parent,
// damped by the species' living count at tick start.
func ReproductionChance(rate float64, living int, sc *config.SpeciesConfig) float64 {
	if sc.DensityK <= 0 {
		return rate
	}
	return rate * sc.DensityK / (float64(living) + sc.DensityK)
}

// tryReproduce runs the reproduction step and returns the offspring, if any.
// rng draws happen in a fixed order: trial, mutation, dispersal, id, name.
func tryReproduce(ctx *Context, e *components.Entity) *components.Entity {
	sp := e.Species()
	sc := ctx.species(sp)
	if !CanReproduce(e, sc) {
		return nil
	}
	p := ReproductionChance(e.Traits.Rates().Reproduction, ctx.Population[sp], sc)
	if ctx.Rng.Float64() >= p {
		return nil
	}

	e.AddEnergy(-sc.ReproductionCost)

	childTraits, changes := traits.Mutate(e.Traits, ctx.Rng, traits.MutationParams{
		MaxPerturbation: ctx.Cfg.Mutation.MaxPerturbation,
		ReportableDelta: ctx.Cfg.Mutation.ReportableDelta,
	})
	pos := DispersalOffset(ctx.Rng, e.Position, sc.DispersalRadius, ctx.Bounds())
	now := ctx.now()
	child := &components.Entity{
		ID:            NewID(ctx.Rng),
		GardenStateID: e.GardenStateID,
		BornAtTick:    ctx.Tick(),
		IsAlive:       true,
		Name:          NewName(ctx.Rng, sp),
		Position:      pos,
		Energy:        components.Clamp100(sc.OffspringEnergy),
		Health:        100,
		Lineage:       e.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
		Traits:        childTraits,
	}

	tick := ctx.Tick()
	ctx.Report(telemetry.EventReproduction, func(ev telemetry.EventLogger) error {
		return ev.LogReproduction(tick, e, child)
	})
	ctx.Report(telemetry.EventBirth, func(ev telemetry.EventLogger) error {
		return ev.LogBirth(tick, child)
	})
	for _, c := range changes {
		ctx.Report(telemetry.EventMutation, func(ev telemetry.EventLogger) error {
			return ev.LogMutation(tick, child, c)
		})
	}
	return child
}

// evaluateDeath applies max-age death, then starvation, then regeneration.
// At zero energy health decays first; the entity dies on a later tick once
// health is already exhausted.
func evaluateDeath(ctx *Context, e *components.Entity) {
	sc := ctx.species(e.Species())
	m := ctx.Cfg.Metabolism

	if e.Age > sc.MaxAge {
		e.Energy = 0
		kill(ctx, e, telemetry.CauseOldAge)
		return
	}
	if e.Energy <= 0 {
		if e.Health <= 0 {
			kill(ctx, e, telemetry.CauseStarvation)
			return
		}
		e.AddHealth(-sc.StarvationDamage)
		return
	}
	if e.Energy >= m.HealthRegenMinEnergy {
		e.AddHealth(m.HealthRegen)
	}
}

// kill marks e dead and logs the death once.
func kill(ctx *Context, e *components.Entity, cause telemetry.DeathCause) {
	if !e.IsAlive {
		return
	}
	tick := ctx.Tick()
	e.Kill(tick)
	e.UpdatedAt = ctx.now()
	ctx.Report(telemetry.EventDeath, func(ev telemetry.EventLogger) error {
		return ev.LogDeath(tick, e, cause)
	})
}

// finish runs the steps shared by every species after its interaction:
// upkeep, reproduction, death evaluation and the update stamp.
func finish(ctx *Context, e *components.Entity, res *Result) {
	metabolize(ctx, e)
	if child := tryReproduce(ctx, e); child != nil {
		res.Offspring = append(res.Offspring, child)
	}
	evaluateDeath(ctx, e)
	e.UpdatedAt = ctx.now()
}
