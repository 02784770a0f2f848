package weather

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/garden/components"
	"github.com/pthm-cable/garden/config"
)

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestInitial(t *testing.T) {
	cfg := loadConfig(t)
	env := Initial(cfg, rand.New(rand.NewSource(1)))

	assert.Equal(t, int64(0), env.Tick)
	assert.Equal(t, components.WeatherClear, env.Weather.Current)
	assert.Equal(t, cfg.Weather.InitialDuration, env.Weather.PlannedDurationTicks)
	assert.Equal(t, int64(0), env.Weather.TransitionProgressTicks)
	assert.Equal(t, cfg.Weather.InitialMoisture, env.Moisture)
}

func TestAdvance_ProgressStaysWithinBound(t *testing.T) {
	cfg := loadConfig(t)
	rng := rand.New(rand.NewSource(42))
	env := Initial(cfg, rng)

	transitions := 0
	for i := 0; i < 3000; i++ {
		before := env.Weather
		tr, changed := Advance(&env, cfg, rng)
		w := env.Weather

		require.GreaterOrEqual(t, w.TransitionProgressTicks, int64(0))
		require.LessOrEqual(t, w.TransitionProgressTicks, w.PlannedDurationTicks)

		reachedBound := before.TransitionProgressTicks+1 >= before.PlannedDurationTicks
		require.Equal(t, reachedBound, changed, "tick %d", env.Tick)

		if changed {
			transitions++
			assert.NotEqual(t, tr.From, tr.To, "never transitions to itself")
			assert.Equal(t, before.Current, w.Previous)
			assert.Equal(t, tr.To, w.Current)
			assert.Equal(t, env.Tick, w.EnteredAtTick)
			assert.Equal(t, int64(0), w.TransitionProgressTicks)

			st := cfg.Weather.States[string(w.Current)]
			assert.GreaterOrEqual(t, w.PlannedDurationTicks, st.MinDuration)
			assert.LessOrEqual(t, w.PlannedDurationTicks, st.MaxDuration)
		} else {
			assert.Equal(t, before.Current, w.Current)
		}

		assert.GreaterOrEqual(t, env.Sunlight, 0.0)
		assert.LessOrEqual(t, env.Sunlight, 1.0)
		assert.GreaterOrEqual(t, env.Moisture, 0.0)
		assert.LessOrEqual(t, env.Moisture, 1.0)
		assert.GreaterOrEqual(t, env.Temperature, cfg.Weather.MinTemperature)
		assert.LessOrEqual(t, env.Temperature, cfg.Weather.MaxTemperature)
	}
	assert.Greater(t, transitions, 10)
}

func TestAdvance_Deterministic(t *testing.T) {
	cfg := loadConfig(t)

	run := func() components.Environment {
		rng := rand.New(rand.NewSource(7))
		env := Initial(cfg, rng)
		for i := 0; i < 500; i++ {
			Advance(&env, cfg, rng)
		}
		return env
	}

	assert.Equal(t, run(), run())
}

func TestAdvance_RepairsBrokenState(t *testing.T) {
	cfg := loadConfig(t)
	rng := rand.New(rand.NewSource(3))
	env := components.Environment{Weather: components.WeatherState{
		Current:                 "HAIL",
		PlannedDurationTicks:    0,
		TransitionProgressTicks: 9,
	}}

	_, changed := Advance(&env, cfg, rng)

	assert.True(t, changed)
	assert.Equal(t, components.WeatherClear, env.Weather.Previous)
	assert.True(t, env.Weather.Current.Valid())
}

func TestAdvance_DriftsTowardTarget(t *testing.T) {
	cfg := loadConfig(t)
	cfg.Weather.MoistureNoise = 0
	cfg.Weather.SunlightNoise = 0
	cfg.Weather.TemperatureNoise = 0
	rng := rand.New(rand.NewSource(5))

	env := components.Environment{Moisture: 0.9, Sunlight: 0.2, Temperature: 10}
	Enter(&env, components.WeatherDrought, 1000)

	for i := 0; i < 100; i++ {
		Advance(&env, cfg, rng)
	}

	target := cfg.Weather.States["DROUGHT"]
	assert.InDelta(t, target.Moisture, env.Moisture, 0.01)
	assert.InDelta(t, target.Sunlight, env.Sunlight, 0.01)
	assert.InDelta(t, target.Temperature, env.Temperature, 0.1)
}

func TestNextState_FollowsWeights(t *testing.T) {
	cfg := loadConfig(t)
	rng := rand.New(rand.NewSource(11))

	counts := map[components.WeatherKind]int{}
	const n = 20000
	for i := 0; i < n; i++ {
		counts[NextState(cfg, components.WeatherStorm, rng)]++
	}

	assert.Zero(t, counts[components.WeatherStorm])
	// STORM -> RAIN 4, OVERCAST 2, CLEAR 1
	assert.InDelta(t, 4.0/7, float64(counts[components.WeatherRain])/n, 0.02)
	assert.InDelta(t, 2.0/7, float64(counts[components.WeatherOvercast])/n, 0.02)
	assert.InDelta(t, 1.0/7, float64(counts[components.WeatherClear])/n, 0.02)
}

func TestNarrative(t *testing.T) {
	for _, k := range components.WeatherKinds {
		assert.NotEmpty(t, Narrative(components.WeatherClear, k))
	}
	assert.Contains(t, Narrative(components.WeatherStorm, components.WeatherRain), "storm passes")
	assert.Contains(t, Narrative(components.WeatherClear, "HAIL"), "HAIL")
}
