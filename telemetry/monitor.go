package telemetry

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/garden/config"
	"github.com/pthm-cable/garden/traits"
)

// Counts holds one living count per species, indexed by traits.Species.
type Counts [len(traits.All)]int

// Total sums all species.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Extinct lists species with no living members.
func (c Counts) Extinct() []traits.Species {
	var out []traits.Species
	for _, sp := range traits.All {
		if c[sp] == 0 {
			out = append(out, sp)
		}
	}
	return out
}

// Alert is a population-level condition detected by PopulationMonitor.
type Alert struct {
	Type        EventType
	Tick        int64
	Species     traits.Species // explosions only
	From, To    int            // explosions only
	Living      int            // collapses only
	Extinct     []traits.Species
	Description string
}

// LogAlert logs the alert using slog.
func (a Alert) LogAlert() {
	slog.Info("alert",
		"type", string(a.Type),
		"tick", a.Tick,
		"description", a.Description,
	)
}

// Dispatch forwards the alert to the matching EventLogger operation.
func (a Alert) Dispatch(ev EventLogger) error {
	switch a.Type {
	case EventPopulationExplosion:
		return ev.LogPopulationExplosion(a.Tick, a.Species, a.From, a.To)
	case EventEcosystemCollapse:
		return ev.LogEcosystemCollapse(a.Tick, a.Living, a.Extinct)
	}
	return nil
}

// PopulationMonitor detects population explosions and ecosystem collapse
// from per-tick living counts.
type PopulationMonitor struct {
	cfg config.MonitorConfig

	// Rolling history (circular buffer)
	history     []Counts
	historyIdx  int
	historyFull bool

	lastExplosion [len(traits.All)]int64 // tick of last explosion alert, -1 if none
	collapsed     bool                   // latched until the condition clears
}

// NewPopulationMonitor creates a monitor using cfg's thresholds.
func NewPopulationMonitor(cfg config.MonitorConfig) *PopulationMonitor {
	if cfg.WindowTicks < 1 {
		cfg.WindowTicks = 1
	}
	pm := &PopulationMonitor{
		cfg:     cfg,
		history: make([]Counts, cfg.WindowTicks),
	}
	for i := range pm.lastExplosion {
		pm.lastExplosion[i] = -1
	}
	return pm
}

// Check analyzes the latest counts and returns any triggered alerts.
func (pm *PopulationMonitor) Check(tick int64, living Counts) []Alert {
	var alerts []Alert

	if pm.historyFull || pm.historyIdx > 0 {
		for _, sp := range traits.All {
			if a := pm.checkExplosion(tick, sp, living[sp]); a != nil {
				alerts = append(alerts, *a)
			}
		}
	}
	if a := pm.checkCollapse(tick, living); a != nil {
		alerts = append(alerts, *a)
	}

	pm.addToHistory(living)
	return alerts
}

func (pm *PopulationMonitor) addToHistory(c Counts) {
	pm.history[pm.historyIdx] = c
	pm.historyIdx = (pm.historyIdx + 1) % len(pm.history)
	if pm.historyIdx == 0 {
		pm.historyFull = true
	}
}

func (pm *PopulationMonitor) getHistory() []Counts {
	if pm.historyFull {
		return pm.history
	}
	return pm.history[:pm.historyIdx]
}

func (pm *PopulationMonitor) checkExplosion(tick int64, sp traits.Species, cur int) *Alert {
	if cur < pm.cfg.ExplosionMin {
		return nil
	}
	if last := pm.lastExplosion[sp]; last >= 0 && tick-last < int64(pm.cfg.WindowTicks) {
		return nil
	}

	history := pm.getHistory()
	lo := history[0][sp]
	for _, h := range history[1:] {
		if h[sp] < lo {
			lo = h[sp]
		}
	}
	base := lo
	if base < 1 {
		base = 1
	}
	if float64(cur) < pm.cfg.ExplosionFactor*float64(base) {
		return nil
	}

	pm.lastExplosion[sp] = tick
	return &Alert{
		Type:        EventPopulationExplosion,
		Tick:        tick,
		Species:     sp,
		From:        lo,
		To:          cur,
		Description: fmt.Sprintf("%s population grew from %d to %d", sp, lo, cur),
	}
}

func (pm *PopulationMonitor) checkCollapse(tick int64, living Counts) *Alert {
	total := living.Total()
	extinct := living.Extinct()
	collapsing := total < pm.cfg.CollapseTotal ||
		(pm.cfg.CollapseExtinctSpecies > 0 && len(extinct) >= pm.cfg.CollapseExtinctSpecies)

	if !collapsing {
		pm.collapsed = false
		return nil
	}
	if pm.collapsed {
		return nil
	}
	pm.collapsed = true
	return &Alert{
		Type:        EventEcosystemCollapse,
		Tick:        tick,
		Living:      total,
		Extinct:     extinct,
		Description: fmt.Sprintf("Ecosystem collapsed to %d living with %d species extinct", total, len(extinct)),
	}
}
