package simulation

import (
	"math/rand"
	"time"

	"github.com/pthm-cable/garden/components"
	"github.com/pthm-cable/garden/config"
	"github.com/pthm-cable/garden/systems"
	"github.com/pthm-cable/garden/telemetry"
	"github.com/pthm-cable/garden/traits"
	"github.com/pthm-cable/garden/weather"
)

// TickInput is the world state a tick starts from. Entities are mutated in place.
type TickInput struct {
	Living      []*components.Entity
	Dead        []*components.Entity // carcasses still available to fungi
	Environment components.Environment
	Previous    PopulationSummary // supplies the all-time death totals
}

// Deps are the injected collaborators of a tick.
type Deps struct {
	Cfg    *config.Config
	Rng    *rand.Rand
	Events telemetry.EventLogger
	Log    telemetry.Logger
	Now    func() time.Time
	Perf   *telemetry.PerfCollector // optional
}

// TickResult is what a tick produced.
type TickResult struct {
	NewEntities []*components.Entity // offspring, first processed next tick
	Environment components.Environment
	Summary     PopulationSummary
	Transition  *weather.Transition // set when the weather changed this tick
	Consumed    []string
	Decomposed  []string
}

// RunTick advances the world by one tick. Every species observes the same
// environment snapshot and species are processed in trophic order, so a kill
// made by a carnivore is already a carcass when fungi run.
func RunTick(in TickInput, d Deps) TickResult {
	if d.Log == nil {
		d.Log = telemetry.NopLogger()
	}
	d.Perf.StartTick()
	defer d.Perf.EndTick()

	// 1. Environment
	d.Perf.StartPhase(telemetry.PhaseEnvironment)
	env := in.Environment
	tr, changed := weather.Advance(&env, d.Cfg, d.Rng)
	ctx := &systems.Context{
		Env:    env,
		Cfg:    d.Cfg,
		Rng:    d.Rng,
		Events: d.Events,
		Log:    d.Log,
		Now:    d.Now,
	}
	tick := env.Tick

	var res TickResult
	res.Environment = env
	if changed {
		res.Transition = &tr
		ctx.Report(telemetry.EventEnvironmentChange, func(ev telemetry.EventLogger) error {
			return ev.LogEnvironmentChange(tick, tr.From, tr.To, env)
		})
		text := weather.Narrative(tr.From, tr.To)
		ctx.Report(telemetry.EventAmbientNarrative, func(ev telemetry.EventLogger) error {
			return ev.LogAmbientNarrative(tick, text)
		})
		d.Log.Debug("weather changed", "tick", tick, "from", string(tr.From), "to", string(tr.To), "duration", tr.Duration)
	}

	// 2. Aging
	d.Perf.StartPhase(telemetry.PhaseAging)
	for _, e := range in.Living {
		if e.IsAlive {
			e.Age++
		}
	}

	// 3. Partition
	var groups [len(traits.All)][]*components.Entity
	for _, e := range in.Living {
		if !e.IsAlive || e.Traits == nil {
			continue
		}
		sp := e.Species()
		groups[sp] = append(groups[sp], e)
	}
	for _, sp := range traits.All {
		ctx.Population[sp] = len(groups[sp])
	}

	// 4. Species phases
	run := func(phase telemetry.Phase, group []*components.Entity, t systems.Targets) {
		d.Perf.StartPhase(phase)
		for _, e := range group {
			r := systems.ProcessSpeciesBehavior(ctx, e, t)
			res.NewEntities = append(res.NewEntities, r.Offspring...)
			res.Consumed = append(res.Consumed, r.Consumed...)
			res.Decomposed = append(res.Decomposed, r.Decomposed...)
		}
	}
	plants := groups[traits.SpeciesPlant]
	herbivores := groups[traits.SpeciesHerbivore]
	carnivores := groups[traits.SpeciesCarnivore]

	run(telemetry.PhasePlants, plants, systems.Targets{})
	run(telemetry.PhaseHerbivores, herbivores, systems.Targets{
		Food:    systems.NewIndex(plants, systems.DefaultCellSize),
		Threats: systems.NewIndex(carnivores, systems.DefaultCellSize),
	})
	run(telemetry.PhaseCarnivores, carnivores, systems.Targets{
		Food: systems.NewIndex(herbivores, systems.DefaultCellSize),
	})
	run(telemetry.PhaseFungi, groups[traits.SpeciesFungus], systems.Targets{
		Food: systems.NewIndex(carcasses(in.Living, in.Dead), systems.DefaultCellSize),
	})

	// 5-6. Offspring are already batched in res.NewEntities; account for the tick.
	d.Perf.StartPhase(telemetry.PhaseSummary)
	allTimeDead := in.Previous.AllTimeDead()
	for _, e := range in.Living {
		if e.Traits != nil && !e.IsAlive && e.DeathTick != nil && *e.DeathTick == tick {
			allTimeDead[e.Species()]++
		}
	}

	all := make([]*components.Entity, 0, len(in.Living)+len(in.Dead)+len(res.NewEntities))
	all = append(all, in.Living...)
	all = append(all, in.Dead...)
	all = append(all, res.NewEntities...)
	res.Summary = Summarize(tick, all, allTimeDead)

	reportExtinctions(ctx, d.Log, ctx.Population, res.Summary.Living())

	d.Log.Debug("tick complete", "summary", res.Summary, "offspring", len(res.NewEntities))
	return res
}

// reportExtinctions raises EXTINCTION for every species that had living
// members in before and has none in after.
func reportExtinctions(ctx *systems.Context, log telemetry.Logger, before, after telemetry.Counts) {
	tick := ctx.Tick()
	for _, sp := range traits.All {
		if before[sp] > 0 && after[sp] == 0 {
			ctx.Report(telemetry.EventExtinction, func(ev telemetry.EventLogger) error {
				return ev.LogExtinction(tick, sp)
			})
			log.Warn("species extinct", "tick", tick, "species", sp.String())
		}
	}
}

// carcasses collects dead entities with energy left from both sets.
func carcasses(living, dead []*components.Entity) []*components.Entity {
	var out []*components.Entity
	for _, e := range living {
		if e.IsCarcass() {
			out = append(out, e)
		}
	}
	for _, e := range dead {
		if e.IsCarcass() {
			out = append(out, e)
		}
	}
	return out
}
