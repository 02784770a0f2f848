package telemetry

import (
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase is one timed section of a tick.
type Phase uint8

const (
	PhaseEnvironment Phase = iota
	PhaseAging
	PhasePlants
	PhaseHerbivores
	PhaseCarnivores
	PhaseFungi
	PhaseSummary
	numPhases
)

var phaseNames = [numPhases]string{"environment", "aging", "plants", "herbivores", "carnivores", "fungi", "summary"}

func (p Phase) String() string {
	if p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// Phases lists tick phases in execution order.
var Phases = [...]Phase{
	PhaseEnvironment, PhaseAging, PhasePlants, PhaseHerbivores,
	PhaseCarnivores, PhaseFungi, PhaseSummary,
}

// tickTiming is the wall-clock cost of one tick.
type tickTiming struct {
	total  time.Duration
	phases [numPhases]time.Duration
}

// PerfCollector keeps the last N tick timings in a ring. Timing is wall-clock
// only and never feeds back into simulation state. A nil collector is a no-op.
type PerfCollector struct {
	now  func() time.Time
	ring []tickTiming
	next int
	full bool

	cur        tickTiming
	tickStart  time.Time
	phaseStart time.Time
	running    bool
	phase      Phase
}

// NewPerfCollector creates a collector over the last window ticks.
func NewPerfCollector(window int) *PerfCollector {
	return newPerfCollector(window, time.Now)
}

func newPerfCollector(window int, now func() time.Time) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{now: now, ring: make([]tickTiming, window)}
}

// StartTick begins timing a new tick.
func (p *PerfCollector) StartTick() {
	if p == nil {
		return
	}
	p.tickStart = p.now()
	p.cur = tickTiming{}
	p.running = false
}

// StartPhase closes the running phase, if any, and opens phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	if p == nil || phase >= numPhases {
		return
	}
	t := p.now()
	p.closePhase(t)
	p.phase, p.phaseStart, p.running = phase, t, true
}

func (p *PerfCollector) closePhase(t time.Time) {
	if p.running {
		p.cur.phases[p.phase] += t.Sub(p.phaseStart)
	}
}

// EndTick closes the tick and stores its timing.
func (p *PerfCollector) EndTick() {
	if p == nil {
		return
	}
	t := p.now()
	p.closePhase(t)
	p.running = false
	p.cur.total = t.Sub(p.tickStart)

	p.ring[p.next] = p.cur
	p.next++
	if p.next == len(p.ring) {
		p.next, p.full = 0, true
	}
}

func (p *PerfCollector) samples() []tickTiming {
	if p.full {
		return p.ring
	}
	return p.ring[:p.next]
}

// PerfStats aggregates the collector's window.
type PerfStats struct {
	Ticks          int
	Mean           time.Duration
	P50            time.Duration
	P95            time.Duration
	Max            time.Duration
	TicksPerSecond float64
	PhaseMean      map[Phase]time.Duration
	PhaseShare     map[Phase]float64 // fraction of mean tick time, in [0, 1]
}

// Stats summarises the current window.
func (p *PerfCollector) Stats() PerfStats {
	out := PerfStats{PhaseMean: map[Phase]time.Duration{}, PhaseShare: map[Phase]float64{}}
	if p == nil {
		return out
	}
	ss := p.samples()
	if len(ss) == 0 {
		return out
	}

	totals := make([]float64, len(ss))
	var phaseSum [numPhases]time.Duration
	for i, s := range ss {
		totals[i] = float64(s.total)
		for ph, d := range s.phases {
			phaseSum[ph] += d
		}
	}
	mean := stat.Mean(totals, nil)
	slices.Sort(totals)

	out.Ticks = len(ss)
	out.Mean = time.Duration(mean)
	out.P50 = time.Duration(stat.Quantile(0.5, stat.Empirical, totals, nil))
	out.P95 = time.Duration(stat.Quantile(0.95, stat.Empirical, totals, nil))
	out.Max = time.Duration(totals[len(totals)-1])
	if mean > 0 {
		out.TicksPerSecond = float64(time.Second) / mean
	}
	for _, ph := range Phases {
		if phaseSum[ph] == 0 {
			continue
		}
		avg := phaseSum[ph] / time.Duration(len(ss))
		out.PhaseMean[ph] = avg
		if mean > 0 {
			out.PhaseShare[ph] = float64(avg) / mean
		}
	}
	return out
}

// LogStats logs the summary at Info.
func (s PerfStats) LogStats() {
	attrs := []any{
		"ticks", s.Ticks,
		"mean_us", s.Mean.Microseconds(),
		"p50_us", s.P50.Microseconds(),
		"p95_us", s.P95.Microseconds(),
		"max_us", s.Max.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}
	for _, ph := range Phases {
		if share, ok := s.PhaseShare[ph]; ok {
			attrs = append(attrs, ph.String()+"_pct", float64(int(share*1000))/10)
		}
	}
	slog.Info("perf", attrs...)
}
