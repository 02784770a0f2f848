package systems

import (
	"math"

	"github.com/pthm-cable/garden/components"
	"github.com/pthm-cable/garden/config"
	"github.com/pthm-cable/garden/traits"
	"github.com/pthm-cable/garden/weather"
)

// Photosynthesis returns a plant's energy gain for the given conditions.
// Gain grows with sunlight and daylight and peaks at the moisture optimum.
func Photosynthesis(rate float64, env components.Environment, cfg *config.Config) float64 {
	p := cfg.Photosynthesis
	daylight := weather.Daylight(env.Tick, cfg.Weather.DayLengthTicks)
	dayFactor := p.NightFloor + (1-p.NightFloor)*daylight
	moistFactor := math.Max(0, 1-math.Abs(env.Moisture-p.MoistureOptimum))
	return p.Gain * rate * clamp(env.Sunlight, 0, 1) * dayFactor * moistFactor
}

func processPlant(ctx *Context, e *components.Entity, tr traits.Plant, res *Result) {
	e.AddEnergy(Photosynthesis(tr.PhotosynthesisRate, ctx.Env, ctx.Cfg))
	finish(ctx, e, res)
}
