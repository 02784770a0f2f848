// Package telemetry provides simulation events, logging sinks, population
// monitoring and experiment output.
package telemetry

import (
	"strings"
	"time"

	"github.com/pthm-cable/garden/components"
	"github.com/pthm-cable/garden/traits"
)

// EventType identifies simulation events.
type EventType string

const (
	EventBirth               EventType = "BIRTH"
	EventDeath               EventType = "DEATH"
	EventReproduction        EventType = "REPRODUCTION"
	EventMutation            EventType = "MUTATION"
	EventExtinction          EventType = "EXTINCTION"
	EventPopulationExplosion EventType = "POPULATION_EXPLOSION"
	EventEcosystemCollapse   EventType = "ECOSYSTEM_COLLAPSE"
	EventDisaster            EventType = "DISASTER"
	EventUserIntervention    EventType = "USER_INTERVENTION"
	EventEnvironmentChange   EventType = "ENVIRONMENT_CHANGE"
	EventCustom              EventType = "CUSTOM"
	EventAmbientNarrative    EventType = "AMBIENT_NARRATIVE"
)

// DeathCause explains why an entity died.
type DeathCause string

const (
	CauseOldAge     DeathCause = "old_age"
	CauseStarvation DeathCause = "starvation"
	CausePredation  DeathCause = "predation"
	CauseConsumed   DeathCause = "consumed"
	CauseDisaster   DeathCause = "disaster"
)

// SimulationEvent is one append-only log entry. Fields beyond Type, Tick and
// Timestamp are populated according to Type.
type SimulationEvent struct {
	Type       EventType      `json:"eventType"`
	Tick       int64          `json:"tick"`
	Timestamp  time.Time      `json:"timestamp"`
	EntityID   string         `json:"entityId,omitempty"`
	EntityName string         `json:"entityName,omitempty"`
	Species    string         `json:"species,omitempty"`
	ParentID   string         `json:"parentId,omitempty"`
	Trait      string         `json:"trait,omitempty"`
	OldValue   float64        `json:"oldValue,omitempty"`
	NewValue   float64        `json:"newValue,omitempty"`
	Cause      string         `json:"cause,omitempty"`
	Severity   float64        `json:"severity,omitempty"`
	Message    string         `json:"message,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
}

// EventLogger receives every reportable occurrence inside a tick, in order.
// Implementations may be asynchronous; the simulation never waits on or
// retries a call, and a returned error is only reported.
type EventLogger interface {
	LogBirth(tick int64, child *components.Entity) error
	LogDeath(tick int64, e *components.Entity, cause DeathCause) error
	LogReproduction(tick int64, parent, offspring *components.Entity) error
	LogMutation(tick int64, e *components.Entity, c traits.Change) error
	LogExtinction(tick int64, sp traits.Species) error
	LogPopulationExplosion(tick int64, sp traits.Species, from, to int) error
	LogEcosystemCollapse(tick int64, living int, extinct []traits.Species) error
	LogDisaster(tick int64, kind string, severity float64, affected int) error
	LogUserIntervention(tick int64, action string, details map[string]any) error
	LogEnvironmentChange(tick int64, from, to components.WeatherKind, env components.Environment) error
	LogCustom(tick int64, name string, data map[string]any) error
	LogAmbientNarrative(tick int64, text string) error
}

// Emitter is the standard EventLogger: it turns each call into a
// SimulationEvent and hands it to a Sink.
type Emitter struct {
	sink Sink
	now  func() time.Time
}

// NewEmitter creates an emitter writing to sink. A nil clock uses time.Now.
func NewEmitter(sink Sink, now func() time.Time) *Emitter {
	if sink == nil {
		sink = Discard
	}
	if now == nil {
		now = time.Now
	}
	return &Emitter{sink: sink, now: now}
}

func (em *Emitter) emit(ev SimulationEvent) error {
	ev.Timestamp = em.now()
	return em.sink.Emit(ev)
}

func entityEvent(typ EventType, tick int64, e *components.Entity) SimulationEvent {
	return SimulationEvent{
		Type:       typ,
		Tick:       tick,
		EntityID:   e.ID,
		EntityName: e.Name,
		Species:    e.Species().String(),
	}
}

// LogBirth records a new offspring.
func (em *Emitter) LogBirth(tick int64, child *components.Entity) error {
	ev := entityEvent(EventBirth, tick, child)
	ev.ParentID = child.Lineage
	return em.emit(ev)
}

// LogDeath records an entity's death.
func (em *Emitter) LogDeath(tick int64, e *components.Entity, cause DeathCause) error {
	ev := entityEvent(EventDeath, tick, e)
	ev.Cause = string(cause)
	ev.NewValue = e.Energy // residual carcass energy
	return em.emit(ev)
}

// LogReproduction records a parent producing offspring.
func (em *Emitter) LogReproduction(tick int64, parent, offspring *components.Entity) error {
	ev := entityEvent(EventReproduction, tick, parent)
	ev.Data = map[string]any{"offspringId": offspring.ID}
	return em.emit(ev)
}

// LogMutation records a reportable trait change on e.
func (em *Emitter) LogMutation(tick int64, e *components.Entity, c traits.Change) error {
	ev := entityEvent(EventMutation, tick, e)
	ev.ParentID = e.Lineage
	ev.Trait = c.Trait
	ev.OldValue = c.Old
	ev.NewValue = c.New
	ev.Data = map[string]any{"relativeDelta": c.RelativeDelta}
	return em.emit(ev)
}

// LogExtinction records the last member of a species dying.
func (em *Emitter) LogExtinction(tick int64, sp traits.Species) error {
	return em.emit(SimulationEvent{
		Type:     EventExtinction,
		Tick:     tick,
		Species:  sp.String(),
		Severity: 1,
		Message:  "The last " + sp.String() + " is gone.",
	})
}

// LogPopulationExplosion records rapid growth of a species.
func (em *Emitter) LogPopulationExplosion(tick int64, sp traits.Species, from, to int) error {
	return em.emit(SimulationEvent{
		Type:     EventPopulationExplosion,
		Tick:     tick,
		Species:  sp.String(),
		OldValue: float64(from),
		NewValue: float64(to),
	})
}

// LogEcosystemCollapse records the ecosystem falling below viability.
func (em *Emitter) LogEcosystemCollapse(tick int64, living int, extinct []traits.Species) error {
	names := make([]string, len(extinct))
	for i, sp := range extinct {
		names[i] = sp.String()
	}
	return em.emit(SimulationEvent{
		Type:     EventEcosystemCollapse,
		Tick:     tick,
		NewValue: float64(living),
		Severity: 1,
		Message:  "extinct: " + strings.Join(names, ","),
		Data:     map[string]any{"living": living, "extinct": names},
	})
}

// LogDisaster records an external disaster.
func (em *Emitter) LogDisaster(tick int64, kind string, severity float64, affected int) error {
	return em.emit(SimulationEvent{
		Type:     EventDisaster,
		Tick:     tick,
		Cause:    kind,
		Severity: severity,
		Data:     map[string]any{"affected": affected},
	})
}

// LogUserIntervention records an operator action.
func (em *Emitter) LogUserIntervention(tick int64, action string, details map[string]any) error {
	return em.emit(SimulationEvent{
		Type:    EventUserIntervention,
		Tick:    tick,
		Message: action,
		Data:    details,
	})
}

// LogEnvironmentChange records a weather transition.
func (em *Emitter) LogEnvironmentChange(tick int64, from, to components.WeatherKind, env components.Environment) error {
	return em.emit(SimulationEvent{
		Type:    EventEnvironmentChange,
		Tick:    tick,
		Message: string(from) + " -> " + string(to),
		Data: map[string]any{
			"from":                 string(from),
			"to":                   string(to),
			"temperature":          env.Temperature,
			"sunlight":             env.Sunlight,
			"moisture":             env.Moisture,
			"plannedDurationTicks": env.Weather.PlannedDurationTicks,
		},
	})
}

// LogCustom records an arbitrary named event.
func (em *Emitter) LogCustom(tick int64, name string, data map[string]any) error {
	return em.emit(SimulationEvent{Type: EventCustom, Tick: tick, Message: name, Data: data})
}

// LogAmbientNarrative records a line of flavour text.
func (em *Emitter) LogAmbientNarrative(tick int64, text string) error {
	return em.emit(SimulationEvent{Type: EventAmbientNarrative, Tick: tick, Message: text})
}
