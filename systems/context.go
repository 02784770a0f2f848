package systems

import (
	"math/rand"
	"time"

	"github.com/pthm-cable/garden/components"
	"github.com/pthm-cable/garden/config"
	"github.com/pthm-cable/garden/telemetry"
	"github.com/pthm-cable/garden/traits"
)

// Context is the shared per-tick state every processor observes.
// Env is a snapshot taken after the weather has advanced; processors never modify it.
type Context struct {
	Env        components.Environment
	Cfg        *config.Config
	Rng        *rand.Rand
	Events     telemetry.EventLogger
	Log        telemetry.Logger
	Now        func() time.Time
	Population telemetry.Counts // living per species at tick start
}

// Tick returns the tick being processed.
func (ctx *Context) Tick() int64 {
	return ctx.Env.Tick
}

// Bounds returns the world rectangle.
func (ctx *Context) Bounds() Bounds {
	return Bounds{Width: ctx.Cfg.World.Width, Height: ctx.Cfg.World.Height}
}

func (ctx *Context) now() time.Time {
	if ctx.Now == nil {
		return time.Now()
	}
	return ctx.Now()
}

// Report invokes an event logger call without letting its failure reach the tick.
func (ctx *Context) Report(what telemetry.EventType, fn func(ev telemetry.EventLogger) error) {
	if ctx.Events == nil {
		return
	}
	log := ctx.Log
	if log == nil {
		log = telemetry.NopLogger()
	}
	telemetry.Guard(log, string(what), func() error { return fn(ctx.Events) })
}

func (ctx *Context) species(sp traits.Species) *config.SpeciesConfig {
	return ctx.Cfg.Species.Get(sp)
}

// Targets holds the candidate sets an entity may interact with.
// Food is plants for herbivores, herbivores for carnivores and carcasses for
// fungi. Threats is only consulted by herbivores.
type Targets struct {
	Food    *Index
	Threats *Index
}

// Result is what processing one entity produced.
type Result struct {
	Offspring  []*components.Entity
	Consumed   []string // plants grazed or prey killed
	Decomposed []string // carcasses fed upon
}
