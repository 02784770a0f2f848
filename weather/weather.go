// Package weather advances the environment's weather state machine and ambient scalars.
package weather

import (
	"math/rand"

	"github.com/pthm-cable/garden/components"
	"github.com/pthm-cable/garden/config"
)

// Initial builds the tick-0 environment from configuration.
func Initial(cfg *config.Config, rng *rand.Rand) components.Environment {
	wc := cfg.Weather
	kind := components.WeatherKind(wc.InitialState)
	if !kind.Valid() {
		kind = components.WeatherClear
	}
	dur := wc.InitialDuration
	if dur < 1 {
		dur = DrawDuration(cfg, kind, rng)
	}
	return components.Environment{
		Temperature: clamp(wc.InitialTemperature, wc.MinTemperature, wc.MaxTemperature),
		Sunlight:    clamp(wc.InitialSunlight, 0, 1),
		Moisture:    clamp(wc.InitialMoisture, 0, 1),
		Weather: components.WeatherState{
			Current:              kind,
			PlannedDurationTicks: dur,
		},
	}
}

// Transition describes a completed weather change.
type Transition struct {
	From, To components.WeatherKind
	Duration int64
}

// Advance moves env forward by one tick: it bumps the tick counter, advances
// the weather state machine and drifts the ambient scalars toward the current
// state's targets. It returns the transition when the state changed this tick.
func Advance(env *components.Environment, cfg *config.Config, rng *rand.Rand) (Transition, bool) {
	env.Tick++

	w := &env.Weather
	if !w.Current.Valid() {
		w.Current = components.WeatherClear
	}
	if w.PlannedDurationTicks < 1 {
		w.PlannedDurationTicks = 1
	}
	if w.TransitionProgressTicks > w.PlannedDurationTicks {
		w.TransitionProgressTicks = w.PlannedDurationTicks
	}

	w.TransitionProgressTicks++

	var tr Transition
	changed := false
	if w.TransitionProgressTicks >= w.PlannedDurationTicks {
		next := NextState(cfg, w.Current, rng)
		tr = Transition{From: w.Current, To: next, Duration: DrawDuration(cfg, next, rng)}
		Enter(env, tr.To, tr.Duration)
		changed = true
	}

	drift(env, cfg, rng)
	return tr, changed
}

// Enter switches env into kind for duration ticks starting at the current tick.
func Enter(env *components.Environment, kind components.WeatherKind, duration int64) {
	if duration < 1 {
		duration = 1
	}
	w := &env.Weather
	w.Previous = w.Current
	w.Current = kind
	w.EnteredAtTick = env.Tick
	w.PlannedDurationTicks = duration
	w.TransitionProgressTicks = 0
}

// NextState samples a successor of current from the normalised transition
// weights. The result is never current itself.
func NextState(cfg *config.Config, current components.WeatherKind, rng *rand.Rand) components.WeatherKind {
	trs := cfg.Derived.WeatherTransitions[string(current)]
	if len(trs) == 0 {
		// Unknown state: treat as CLEAR
		trs = cfg.Derived.WeatherTransitions[string(components.WeatherClear)]
	}
	if len(trs) == 0 {
		return components.WeatherClear
	}

	r := rng.Float64()
	var acc float64
	for _, tr := range trs {
		acc += tr.Weight
		if r < acc {
			return components.WeatherKind(tr.State)
		}
	}
	return components.WeatherKind(trs[len(trs)-1].State)
}

// DrawDuration samples a duration uniformly within the state's configured range.
func DrawDuration(cfg *config.Config, kind components.WeatherKind, rng *rand.Rand) int64 {
	st := cfg.Weather.States[string(kind)]
	lo, hi := st.MinDuration, st.MaxDuration
	if lo < 1 {
		lo = 1
	}
	if hi < lo {
		hi = lo
	}
	return lo + rng.Int63n(hi-lo+1)
}

// drift applies the smoothed random walk toward the current state's targets.
// Noise is drawn in a fixed order (temperature, sunlight, moisture).
func drift(env *components.Environment, cfg *config.Config, rng *rand.Rand) {
	wc := cfg.Weather
	target := wc.States[string(env.Weather.Current)]
	k := wc.DriftSmoothing

	env.Temperature += (target.Temperature-env.Temperature)*k + noise(rng, wc.TemperatureNoise)
	env.Sunlight += (target.Sunlight-env.Sunlight)*k + noise(rng, wc.SunlightNoise)
	env.Moisture += (target.Moisture-env.Moisture)*k + noise(rng, wc.MoistureNoise)

	env.Temperature = clamp(env.Temperature, wc.MinTemperature, wc.MaxTemperature)
	env.Sunlight = clamp(env.Sunlight, 0, 1)
	env.Moisture = clamp(env.Moisture, 0, 1)
}

func noise(rng *rand.Rand, amp float64) float64 {
	return (rng.Float64()*2 - 1) * amp
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
