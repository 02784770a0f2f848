package systems

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/garden/components"
	"github.com/pthm-cable/garden/config"
	"github.com/pthm-cable/garden/telemetry"
	"github.com/pthm-cable/garden/traits"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func testContext(t *testing.T, seed int64) (*Context, *telemetry.Recorder) {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)

	rec := telemetry.NewRecorder()
	clock := func() time.Time { return epoch }
	return &Context{
		Env: components.Environment{
			Temperature: 20,
			Sunlight:    0.8,
			Moisture:    0.5,
			Tick:        10,
			Weather:     components.WeatherState{Current: components.WeatherClear, PlannedDurationTicks: 20},
		},
		Cfg:    cfg,
		Rng:    rand.New(rand.NewSource(seed)),
		Events: telemetry.NewEmitter(rec, clock),
		Log:    telemetry.NopLogger(),
		Now:    clock,
	}, rec
}

func newEntity(id string, set traits.Set, energy, x, y float64) *components.Entity {
	return &components.Entity{
		ID:       id,
		Name:     id,
		IsAlive:  true,
		Energy:   energy,
		Health:   100,
		Lineage:  components.OriginLineage,
		Position: components.Position{X: x, Y: y},
		Traits:   set,
	}
}

func corpse(id string, set traits.Set, energy, x, y float64) *components.Entity {
	e := newEntity(id, set, energy, x, y)
	e.Kill(1)
	return e
}

func index(es ...*components.Entity) *Index {
	return NewIndex(es, DefaultCellSize)
}

func TestFungusDecomposition(t *testing.T) {
	ctx, _ := testContext(t, 1)
	ctx.Env.Moisture = 1

	tr := ctx.Cfg.SeedTraits.Fungus
	tr.DecompositionRate = 1
	fungus := newEntity("f", tr, 40, 100, 100)
	dead := corpse("c", ctx.Cfg.SeedTraits.Herbivore, 50, 102, 100)

	res := ProcessSpeciesBehavior(ctx, fungus, Targets{Food: index(dead)})

	assert.InDelta(t, 79.875, fungus.Energy, 1e-9)
	assert.InDelta(t, 10.0, dead.Energy, 1e-9)
	assert.False(t, dead.IsAlive)
	assert.Equal(t, []string{"c"}, res.Decomposed)
	assert.Empty(t, res.Offspring, "below the reproduction threshold")
	assert.Equal(t, epoch, fungus.UpdatedAt)
}

func TestFungus_DecompositionLimitAndCreep(t *testing.T) {
	tests := []struct {
		name       string
		moisture   float64
		corpse     float64
		distance   float64
		wantCorpse float64
		wantMoved  bool
	}{
		{"dry floor", 0.1, 50, 3, 50 - 20*0.8*0.5, false},
		{"wet", 0.9, 50, 3, 50 - 20*0.8*1.8, false},
		{"corpse smaller than bite", 1, 5, 3, 0, false},
		{"out of reach creeps", 1, 50, 20, 50, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := testContext(t, 2)
			ctx.Env.Moisture = tt.moisture
			fungus := newEntity("f", ctx.Cfg.SeedTraits.Fungus, 30, 100, 100)
			dead := corpse("c", ctx.Cfg.SeedTraits.Plant, tt.corpse, 100+tt.distance, 100)

			ProcessSpeciesBehavior(ctx, fungus, Targets{Food: index(dead)})

			assert.InDelta(t, tt.wantCorpse, dead.Energy, 1e-9)
			if tt.wantMoved {
				assert.InDelta(t, 100.5, fungus.Position.X, 1e-9, "creeps at half a unit per tick")
			} else {
				assert.Equal(t, 100.0, fungus.Position.X)
			}
		})
	}
}

func TestFungus_IgnoresLivingAndInertBodies(t *testing.T) {
	ctx, _ := testContext(t, 3)
	fungus := newEntity("f", ctx.Cfg.SeedTraits.Fungus, 30, 100, 100)
	living := newEntity("l", ctx.Cfg.SeedTraits.Herbivore, 50, 101, 100)
	inert := corpse("i", ctx.Cfg.SeedTraits.Herbivore, 0, 102, 100)

	res := ProcessSpeciesBehavior(ctx, fungus, Targets{Food: index(living, inert)})

	assert.Empty(t, res.Decomposed)
	assert.Equal(t, 50.0, living.Energy)
	assert.InDelta(t, 29.875, fungus.Energy, 1e-9)
}

func TestCarnivorePredation(t *testing.T) {
	tests := []struct {
		name         string
		prey         float64
		wantEnergy   float64
		wantResidual float64
	}{
		{"small prey fully consumed", 10, 59.75, 0},
		{"large prey leaves a carcass", 50, 79.75, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, rec := testContext(t, 4)
			hunter := newEntity("h", ctx.Cfg.SeedTraits.Carnivore, 50, 100, 100)
			prey := newEntity("p", ctx.Cfg.SeedTraits.Herbivore, tt.prey, 103, 100)

			res := ProcessSpeciesBehavior(ctx, hunter, Targets{Food: index(prey)})

			assert.InDelta(t, tt.wantEnergy, hunter.Energy, 1e-9)
			assert.False(t, prey.IsAlive)
			assert.Equal(t, 0.0, prey.Health)
			assert.InDelta(t, tt.wantResidual, prey.Energy, 1e-9)
			require.NotNil(t, prey.DeathTick)
			assert.Equal(t, int64(10), *prey.DeathTick)
			assert.Equal(t, []string{"p"}, res.Consumed)

			deaths := rec.OfType(telemetry.EventDeath)
			require.Len(t, deaths, 1)
			assert.Equal(t, "p", deaths[0].EntityID)
			assert.Equal(t, string(telemetry.CausePredation), deaths[0].Cause)
		})
	}
}

func TestCarnivore_SatedDoesNotHunt(t *testing.T) {
	ctx, _ := testContext(t, 5)
	hunter := newEntity("h", ctx.Cfg.SeedTraits.Carnivore, 75, 100, 100)
	prey := newEntity("p", ctx.Cfg.SeedTraits.Herbivore, 40, 102, 100)

	ProcessSpeciesBehavior(ctx, hunter, Targets{Food: index(prey)})

	assert.True(t, prey.IsAlive)
	assert.Equal(t, 40.0, prey.Energy)
}

func TestCarnivore_PursuesOutOfReach(t *testing.T) {
	ctx, _ := testContext(t, 6)
	hunter := newEntity("h", ctx.Cfg.SeedTraits.Carnivore, 40, 100, 100)
	prey := newEntity("p", ctx.Cfg.SeedTraits.Herbivore, 40, 150, 100)

	ProcessSpeciesBehavior(ctx, hunter, Targets{Food: index(prey)})

	speed := ctx.Cfg.SeedTraits.Carnivore.MovementSpeed
	assert.InDelta(t, 100+speed, hunter.Position.X, 1e-9)
	assert.InDelta(t, 40-speed*0.02-0.25, hunter.Energy, 1e-9)
	assert.True(t, prey.IsAlive)
}

func TestStarvingHerbivoreRecoversByFeeding(t *testing.T) {
	ctx, _ := testContext(t, 7)
	herb := newEntity("h", ctx.Cfg.SeedTraits.Herbivore, 5, 100, 100)
	herb.Health = 50
	plant := newEntity("p", ctx.Cfg.SeedTraits.Plant, 40, 103, 100)
	threat := newEntity("c", ctx.Cfg.SeedTraits.Carnivore, 60, 110, 100)

	res := ProcessSpeciesBehavior(ctx, herb, Targets{Food: index(plant), Threats: index(threat)})

	assert.InDelta(t, 14.75, herb.Energy, 1e-9)
	assert.Equal(t, 60.0, herb.Health)
	assert.Greater(t, herb.Energy, 5.0)
	assert.Greater(t, herb.Health, 50.0)
	assert.Equal(t, 30.0, plant.Energy)
	assert.Equal(t, []string{"p"}, res.Consumed)
	assert.Equal(t, 100.0, herb.Position.X, "starving herbivores do not flee")
}

func TestHerbivore_FleesThreat(t *testing.T) {
	ctx, _ := testContext(t, 8)
	herb := newEntity("h", ctx.Cfg.SeedTraits.Herbivore, 50, 100, 100)
	plant := newEntity("p", ctx.Cfg.SeedTraits.Plant, 40, 103, 100)
	threat := newEntity("c", ctx.Cfg.SeedTraits.Carnivore, 60, 110, 100)

	ProcessSpeciesBehavior(ctx, herb, Targets{Food: index(plant), Threats: index(threat)})

	speed := ctx.Cfg.SeedTraits.Herbivore.MovementSpeed
	assert.InDelta(t, 100-speed, herb.Position.X, 1e-9)
	assert.InDelta(t, 50-speed*0.02-0.25, herb.Energy, 1e-9)
	assert.Equal(t, 40.0, plant.Energy, "fleeing replaces grazing")
}

func TestHerbivore_GrazedPlantDies(t *testing.T) {
	ctx, rec := testContext(t, 9)
	herb := newEntity("h", ctx.Cfg.SeedTraits.Herbivore, 50, 100, 100)
	plant := newEntity("p", ctx.Cfg.SeedTraits.Plant, 4, 102, 100)

	ProcessSpeciesBehavior(ctx, herb, Targets{Food: index(plant)})

	assert.InDelta(t, 53.75, herb.Energy, 1e-9)
	assert.False(t, plant.IsAlive)
	assert.Equal(t, 0.0, plant.Energy)

	deaths := rec.OfType(telemetry.EventDeath)
	require.Len(t, deaths, 1)
	assert.Equal(t, string(telemetry.CauseConsumed), deaths[0].Cause)
}

func TestHerbivore_SatedDoesNotGraze(t *testing.T) {
	ctx, _ := testContext(t, 10)
	herb := newEntity("h", ctx.Cfg.SeedTraits.Herbivore, 90, 100, 100)
	plant := newEntity("p", ctx.Cfg.SeedTraits.Plant, 40, 102, 100)

	ProcessSpeciesBehavior(ctx, herb, Targets{Food: index(plant)})

	assert.Equal(t, 40.0, plant.Energy)
}

func TestPhotosynthesis(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	env := func(tick int64, sun, moist float64) components.Environment {
		return components.Environment{Tick: tick, Sunlight: sun, Moisture: moist}
	}

	assert.InDelta(t, 4.0, Photosynthesis(1, env(48, 1, 0.5), cfg), 1e-9, "noon, full sun, optimal moisture")
	assert.InDelta(t, 1.2, Photosynthesis(1, env(0, 1, 0.5), cfg), 1e-9, "night floor")
	assert.InDelta(t, Photosynthesis(1, env(48, 1, 0), cfg), Photosynthesis(1, env(48, 1, 1), cfg), 1e-9, "symmetric about the optimum")
	assert.Less(t, Photosynthesis(1, env(48, 1, 0.2), cfg), Photosynthesis(1, env(48, 1, 0.4), cfg))
	assert.Equal(t, 0.0, Photosynthesis(1, env(48, 0, 0.5), cfg))
	assert.InDelta(t, 2*Photosynthesis(0.5, env(30, 0.6, 0.3), cfg), Photosynthesis(1, env(30, 0.6, 0.3), cfg), 1e-9)
}

func TestTemperatureMultiplier(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	tests := []struct {
		temp float64
		want float64
	}{
		{20, 1},
		{10, 1},
		{30, 1},
		{0, 1.2},
		{40, 1.2},
		{-100, 2},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, TemperatureMultiplier(tt.temp, cfg.Metabolism), 1e-9, "temp %v", tt.temp)
	}
}

func withReproductionRate(set traits.Set, rate float64) traits.Set {
	switch t := set.(type) {
	case traits.Plant:
		t.ReproductionRate = rate
		return t
	case traits.Herbivore:
		t.ReproductionRate = rate
		return t
	case traits.Carnivore:
		t.ReproductionRate = rate
		return t
	case traits.Fungus:
		t.ReproductionRate = rate
		return t
	}
	return set
}

func TestReproduction(t *testing.T) {
	for _, sp := range traits.All {
		t.Run(sp.String(), func(t *testing.T) {
			ctx, rec := testContext(t, 12)
			sc := ctx.Cfg.Species.Get(sp)
			parent := newEntity("parent", withReproductionRate(ctx.Cfg.SeedTraits.For(sp), 1), 100, 200, 200)
			parent.GardenStateID = "g1"

			res := ProcessSpeciesBehavior(ctx, parent, Targets{})

			require.Len(t, res.Offspring, 1)
			child := res.Offspring[0]
			assert.Equal(t, sp, child.Species())
			assert.Equal(t, "parent", child.Lineage)
			assert.Equal(t, "g1", child.GardenStateID)
			assert.Equal(t, int64(10), child.BornAtTick)
			assert.Equal(t, sc.OffspringEnergy, child.Energy)
			assert.Equal(t, 100.0, child.Health)
			assert.True(t, child.IsAlive)
			assert.LessOrEqual(t, parent.Position.DistanceTo(child.Position), sc.DispersalRadius+1e-9)
			assert.Less(t, parent.Energy, 100-sc.ReproductionCost+1e-9)

			evs := rec.Events()
			require.GreaterOrEqual(t, len(evs), 2)
			assert.Equal(t, telemetry.EventReproduction, evs[0].Type)
			assert.Equal(t, telemetry.EventBirth, evs[1].Type)
			for _, ev := range evs[2:] {
				assert.Equal(t, telemetry.EventMutation, ev.Type)
				assert.Equal(t, child.ID, ev.EntityID)
			}
		})
	}
}

func TestNoReproductionPastMaxReproductiveAge(t *testing.T) {
	for _, sp := range traits.All {
		t.Run(sp.String(), func(t *testing.T) {
			for seed := int64(0); seed < 50; seed++ {
				ctx, rec := testContext(t, seed)
				sc := ctx.Cfg.Species.Get(sp)
				parent := newEntity("old", withReproductionRate(ctx.Cfg.SeedTraits.For(sp), 1), 100, 200, 200)
				parent.Age = sc.MaxReproductiveAge + 1

				res := ProcessSpeciesBehavior(ctx, parent, Targets{})

				assert.Empty(t, res.Offspring)
				assert.Empty(t, rec.OfType(telemetry.EventBirth))
			}
		})
	}
}

func TestReproductionChance_DensityDamping(t *testing.T) {
	sc := &config.SpeciesConfig{DensityK: 20}
	assert.InDelta(t, 0.5, ReproductionChance(0.5, 0, sc), 1e-12)
	assert.InDelta(t, 0.25, ReproductionChance(0.5, 20, sc), 1e-12)
	assert.InDelta(t, 0.5, ReproductionChance(0.5, 1000, &config.SpeciesConfig{}), 1e-12, "no damping without K")
}

func TestStarvation_HealthDecaysBeforeDeath(t *testing.T) {
	for _, sp := range traits.All {
		t.Run(sp.String(), func(t *testing.T) {
			ctx, rec := testContext(t, 13)
			ctx.Env.Sunlight = 0
			e := newEntity("s", ctx.Cfg.SeedTraits.For(sp), 0, 200, 200)
			e.Health = 30

			var healthZeroAt, diedAt int64
			for tick := int64(1); tick <= 20 && e.IsAlive; tick++ {
				ctx.Env.Tick = tick
				ProcessSpeciesBehavior(ctx, e, Targets{})
				if !e.IsAlive {
					diedAt = tick
				} else if e.Health == 0 && healthZeroAt == 0 {
					healthZeroAt = tick
				}
			}

			require.NotZero(t, diedAt, "starved to death")
			require.NotZero(t, healthZeroAt, "health hit zero while still alive")
			assert.Less(t, healthZeroAt, diedAt)

			deaths := rec.OfType(telemetry.EventDeath)
			require.Len(t, deaths, 1)
			assert.Equal(t, string(telemetry.CauseStarvation), deaths[0].Cause)
		})
	}
}

func TestMaxAgeDeath(t *testing.T) {
	for _, sp := range traits.All {
		t.Run(sp.String(), func(t *testing.T) {
			ctx, rec := testContext(t, 14)
			sc := ctx.Cfg.Species.Get(sp)
			e := newEntity("old", ctx.Cfg.SeedTraits.For(sp), 60, 200, 200)
			e.Age = sc.MaxAge + 1

			ProcessSpeciesBehavior(ctx, e, Targets{})

			assert.False(t, e.IsAlive)
			assert.Equal(t, 0.0, e.Energy)
			assert.Equal(t, 0.0, e.Health)

			deaths := rec.OfType(telemetry.EventDeath)
			require.Len(t, deaths, 1)
			assert.Equal(t, string(telemetry.CauseOldAge), deaths[0].Cause)
		})
	}
}

func TestProcess_DeadEntityUntouched(t *testing.T) {
	ctx, rec := testContext(t, 15)
	dead := corpse("d", ctx.Cfg.SeedTraits.Plant, 30, 10, 10)

	res := ProcessSpeciesBehavior(ctx, dead, Targets{})

	assert.Equal(t, Result{}, res)
	assert.Equal(t, 30.0, dead.Energy)
	assert.False(t, dead.IsAlive)
	assert.Zero(t, rec.Len())
}

func TestProcess_ClampsInvalidTraits(t *testing.T) {
	ctx, _ := testContext(t, 16)
	e := newEntity("x", traits.Herbivore{ReproductionRate: -1, MovementSpeed: 500, MetabolismEfficiency: 0, PerceptionRadius: 0, ThreatDetectionRadius: 9999}, 50, 10, 10)

	ProcessSpeciesBehavior(ctx, e, Targets{})

	tr := e.Traits.(traits.Herbivore)
	assert.Equal(t, traits.ReproductionDomain.Min, tr.ReproductionRate)
	assert.Equal(t, traits.MovementSpeedDomain.Max, tr.MovementSpeed)
	assert.Equal(t, traits.ThreatDetectionDomain.Max, tr.ThreatDetectionRadius)
}

func TestProcess_LoggerFailureDoesNotAlterTick(t *testing.T) {
	ctx, _ := testContext(t, 17)
	ctx.Events = telemetry.NewEmitter(telemetry.SinkFunc(func(telemetry.SimulationEvent) error { panic("sink down") }), nil)

	hunter := newEntity("h", ctx.Cfg.SeedTraits.Carnivore, 50, 100, 100)
	prey := newEntity("p", ctx.Cfg.SeedTraits.Herbivore, 10, 103, 100)

	assert.NotPanics(t, func() {
		ProcessSpeciesBehavior(ctx, hunter, Targets{Food: index(prey)})
	})
	assert.InDelta(t, 59.75, hunter.Energy, 1e-9)
	assert.False(t, prey.IsAlive)
}
