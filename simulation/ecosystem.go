package simulation

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/pthm-cable/garden/components"
	"github.com/pthm-cable/garden/config"
	"github.com/pthm-cable/garden/systems"
	"github.com/pthm-cable/garden/telemetry"
	"github.com/pthm-cable/garden/traits"
	"github.com/pthm-cable/garden/weather"
)

var (
	// ErrUnknownAction is returned for an intervention the ecosystem does not support.
	ErrUnknownAction = errors.New("unknown intervention action")
	// ErrNoSuchWeather is returned when forcing a weather state outside the closed set.
	ErrNoSuchWeather = errors.New("no such weather state")
)

// Options configures an Ecosystem.
type Options struct {
	Seed          int64
	Sink          telemetry.Sink           // receives every simulation event; nil discards
	Log           telemetry.Logger         // nil discards
	Now           func() time.Time         // nil uses time.Now
	Perf          *telemetry.PerfCollector // optional
	LogStats      bool                     // log per-tick stats and alerts via slog
	StatsCallback func(telemetry.TickStats)
}

// Ecosystem owns a world and advances it tick by tick. It is not safe for
// concurrent use.
type Ecosystem struct {
	cfg    *config.Config
	rng    *rand.Rand
	events telemetry.EventLogger
	log    telemetry.Logger
	now    func() time.Time
	perf   *telemetry.PerfCollector

	entities []*components.Entity
	env      components.Environment
	summary  PopulationSummary

	monitor   *telemetry.PopulationMonitor
	collector *telemetry.Collector
	logStats  bool
	onStats   func(telemetry.TickStats)
}

// New creates an empty ecosystem. Call Seed to populate it.
func New(cfg *config.Config, opts Options) *Ecosystem {
	if opts.Log == nil {
		opts.Log = telemetry.NopLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	sink := opts.Sink
	if sink == nil {
		sink = telemetry.Discard
	}
	collector := telemetry.NewCollector()
	emitter := telemetry.NewEmitter(telemetry.MultiSink{collector, sink}, opts.Now)

	rng := rand.New(rand.NewSource(opts.Seed))
	eco := &Ecosystem{
		cfg:       cfg,
		rng:       rng,
		events:    telemetry.NewGuarded(emitter, opts.Log),
		log:       opts.Log,
		now:       opts.Now,
		perf:      opts.Perf,
		env:       weather.Initial(cfg, rng),
		monitor:   telemetry.NewPopulationMonitor(cfg.Monitor),
		collector: collector,
		logStats:  opts.LogStats,
		onStats:   opts.StatsCallback,
	}
	eco.summary = Summarize(eco.env.Tick, nil, telemetry.Counts{})
	return eco
}

// Seed adds the configured founder populations.
func (eco *Ecosystem) Seed() {
	eco.entities = append(eco.entities, SeedWorld(eco.cfg, eco.rng, eco.env.Tick, eco.now())...)
	eco.summary = Summarize(eco.env.Tick, eco.entities, eco.summary.AllTimeDead())
	eco.log.Info("world seeded", "summary", eco.summary)
}

// Load replaces the world with previously exported state.
func (eco *Ecosystem) Load(entities []*components.Entity, env components.Environment) {
	eco.entities = components.CloneAll(entities)
	eco.env = env
	eco.summary = Summarize(env.Tick, eco.entities, eco.summary.AllTimeDead())
}

// Step runs one tick and returns its result.
func (eco *Ecosystem) Step() TickResult {
	var living, dead []*components.Entity
	for _, e := range eco.entities {
		if e.IsAlive {
			living = append(living, e)
		} else {
			dead = append(dead, e)
		}
	}

	res := RunTick(TickInput{
		Living:      living,
		Dead:        dead,
		Environment: eco.env,
		Previous:    eco.summary,
	}, Deps{
		Cfg:    eco.cfg,
		Rng:    eco.rng,
		Events: eco.events,
		Log:    eco.log,
		Now:    eco.now,
		Perf:   eco.perf,
	})

	eco.env = res.Environment
	eco.entities = append(eco.entities, res.NewEntities...)
	eco.summary = res.Summary

	if c := eco.cfg.Disaster.Chance; c > 0 && eco.rng.Float64() < c {
		d := RandomDisaster(eco.rng, eco.cfg.World.Width, eco.cfg.World.Height, eco.cfg.Disaster.Radius, eco.cfg.Disaster.Severity)
		eco.applyDisaster(d)
	}

	for _, a := range eco.monitor.Check(eco.env.Tick, eco.summary.Living()) {
		if eco.logStats {
			a.LogAlert()
		}
		_ = a.Dispatch(eco.events)
	}

	stats := eco.collector.Flush(eco.env, eco.entities)
	if eco.logStats {
		stats.LogStats()
	}
	if eco.onStats != nil {
		eco.onStats(stats)
	}

	eco.prune()
	res.Summary = eco.summary
	return res
}

// Run advances n ticks and returns the final summary.
func (eco *Ecosystem) Run(n int) PopulationSummary {
	for i := 0; i < n; i++ {
		eco.Step()
	}
	return eco.summary
}

// prune drops inert corpses.
func (eco *Ecosystem) prune() {
	kept := eco.entities[:0]
	for _, e := range eco.entities {
		if e.IsAlive || e.Energy > 0 {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(eco.entities); i++ {
		eco.entities[i] = nil
	}
	eco.entities = kept
}

// Tick returns the current tick.
func (eco *Ecosystem) Tick() int64 { return eco.env.Tick }

// Config returns the configuration in use.
func (eco *Ecosystem) Config() *config.Config { return eco.cfg }

// Entities returns a deep copy of every living entity and residual-energy carcass.
func (eco *Ecosystem) Entities() []*components.Entity {
	return components.CloneAll(eco.entities)
}

// Living returns deep copies of the living entities.
func (eco *Ecosystem) Living() []*components.Entity {
	var out []*components.Entity
	for _, e := range eco.entities {
		if e.IsAlive {
			out = append(out, e.Clone())
		}
	}
	return out
}

// Environment returns the current environment.
func (eco *Ecosystem) Environment() components.Environment { return eco.env }

// Summary returns the latest population summary.
func (eco *Ecosystem) Summary() PopulationSummary { return eco.summary }

// Lighting derives the current lighting context.
func (eco *Ecosystem) Lighting() weather.LightingContext {
	return weather.CreateLightingContext(eco.env.Sunlight, eco.env.Tick, eco.env.Weather.Current)
}

func (eco *Ecosystem) context() *systems.Context {
	return &systems.Context{
		Env:        eco.env,
		Cfg:        eco.cfg,
		Rng:        eco.rng,
		Events:     eco.events,
		Log:        eco.log,
		Now:        eco.now,
		Population: eco.summary.Living(),
	}
}

func (eco *Ecosystem) applyDisaster(d Disaster) []*components.Entity {
	ctx := eco.context()
	before := Summarize(eco.env.Tick, eco.entities, telemetry.Counts{}).Living()
	victims := ApplyDisaster(ctx, d, eco.entities)
	if len(victims) > 0 {
		dead := eco.summary.AllTimeDead()
		for _, v := range victims {
			dead[v.Species()]++
		}
		eco.summary = Summarize(eco.env.Tick, eco.entities, dead)
		reportExtinctions(ctx, eco.log, before, eco.summary.Living())
	}
	eco.log.Info("disaster", "kind", d.Kind, "tick", eco.env.Tick, "victims", len(victims))
	return victims
}

// TriggerDisaster applies d at the current tick and returns the number of
// victims. Zero fields fall back to the configured disaster defaults.
func (eco *Ecosystem) TriggerDisaster(d Disaster) int {
	if d.Kind == "" {
		d.Kind = DisasterKinds[0]
	}
	if d.Radius <= 0 {
		d.Radius = eco.cfg.Disaster.Radius
	}
	if d.Severity <= 0 {
		d.Severity = eco.cfg.Disaster.Severity
	}
	return len(eco.applyDisaster(d))
}

// Spawn adds n founders of species sp at random positions and logs the intervention.
func (eco *Ecosystem) Spawn(sp traits.Species, n int) ([]*components.Entity, error) {
	if int(sp) >= len(traits.All) {
		return nil, fmt.Errorf("spawn: %w: %d", traits.ErrUnknownSpecies, uint8(sp))
	}
	if n <= 0 {
		return nil, nil
	}
	born := spawn(eco.cfg, eco.rng, sp, n, eco.env.Tick, eco.now())
	eco.entities = append(eco.entities, born...)
	eco.summary = Summarize(eco.env.Tick, eco.entities, eco.summary.AllTimeDead())

	ids := make([]string, len(born))
	for i, e := range born {
		ids[i] = e.ID
	}
	_ = eco.events.LogUserIntervention(eco.env.Tick, "spawn", map[string]any{
		"species": sp.String(),
		"count":   n,
		"ids":     ids,
	})
	return components.CloneAll(born), nil
}

// SetWeather forces the weather into kind with a freshly drawn duration.
func (eco *Ecosystem) SetWeather(kind components.WeatherKind) error {
	if !kind.Valid() {
		return fmt.Errorf("set weather %q: %w", kind, ErrNoSuchWeather)
	}
	from := eco.env.Weather.Current
	weather.Enter(&eco.env, kind, weather.DrawDuration(eco.cfg, kind, eco.rng))

	tick := eco.env.Tick
	_ = eco.events.LogUserIntervention(tick, "set_weather", map[string]any{
		"from": string(from),
		"to":   string(kind),
	})
	if from != kind {
		_ = eco.events.LogEnvironmentChange(tick, from, kind, eco.env)
		_ = eco.events.LogAmbientNarrative(tick, weather.Narrative(from, kind))
	}
	return nil
}

// Custom logs a free-form event.
func (eco *Ecosystem) Custom(name string, data map[string]any) {
	_ = eco.events.LogCustom(eco.env.Tick, name, data)
}

// Intervention is an externally requested change to the world.
type Intervention struct {
	Action  string         `json:"action"` // spawn, set_weather, custom
	Species string         `json:"species,omitempty"`
	Count   int            `json:"count,omitempty"`
	Weather string         `json:"weather,omitempty"`
	Name    string         `json:"name,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Apply performs an intervention.
func (eco *Ecosystem) Apply(iv Intervention) error {
	switch iv.Action {
	case "spawn":
		sp, err := traits.ParseSpecies(iv.Species)
		if err != nil {
			return fmt.Errorf("spawn: %w", err)
		}
		_, err = eco.Spawn(sp, iv.Count)
		return err
	case "set_weather":
		return eco.SetWeather(components.WeatherKind(iv.Weather))
	case "custom":
		eco.Custom(iv.Name, iv.Data)
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownAction, iv.Action)
}
