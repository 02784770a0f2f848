package simulation

import (
	"math/rand"

	"github.com/pthm-cable/garden/components"
	"github.com/pthm-cable/garden/systems"
	"github.com/pthm-cable/garden/telemetry"
)

// DisasterKinds are the kinds drawn for random disasters.
var DisasterKinds = []string{"wildfire", "flood", "blight", "frost"}

// Disaster is a localized event that kills living entities inside a circle.
type Disaster struct {
	Kind     string              `json:"kind"`
	Center   components.Position `json:"center"`
	Radius   float64             `json:"radius"`
	Severity float64             `json:"severity"` // per-entity kill probability in [0, 1]
}

// ApplyDisaster kills each living entity within the disaster's radius with
// probability Severity. Victims keep their energy as carcasses. DISASTER is
// logged before the individual deaths. It returns the victims.
func ApplyDisaster(ctx *systems.Context, d Disaster, entities []*components.Entity) []*components.Entity {
	sev := clamp01(d.Severity)
	var victims []*components.Entity
	for _, e := range entities {
		if !e.IsAlive || e.Traits == nil || e.Position.DistanceTo(d.Center) > d.Radius {
			continue
		}
		if ctx.Rng.Float64() < sev {
			victims = append(victims, e)
		}
	}

	tick := ctx.Tick()
	ctx.Report(telemetry.EventDisaster, func(ev telemetry.EventLogger) error {
		return ev.LogDisaster(tick, d.Kind, sev, len(victims))
	})
	for _, e := range victims {
		e.Kill(tick)
		if ctx.Now != nil {
			e.UpdatedAt = ctx.Now()
		}
		ctx.Report(telemetry.EventDeath, func(ev telemetry.EventLogger) error {
			return ev.LogDeath(tick, e, telemetry.CauseDisaster)
		})
	}
	return victims
}

// RandomDisaster draws a disaster kind and center.
func RandomDisaster(rng *rand.Rand, width, height, radius, severity float64) Disaster {
	return Disaster{
		Kind:     DisasterKinds[rng.Intn(len(DisasterKinds))],
		Center:   components.Position{X: rng.Float64() * width, Y: rng.Float64() * height},
		Radius:   radius,
		Severity: severity,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
