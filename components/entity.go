// Package components defines the entity and environment data the simulation mutates.
package components

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/pthm-cable/garden/traits"
)

// OriginLineage is the lineage of entities created by world seeding.
const OriginLineage = "origin"

// Position is a point in world coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo returns the Euclidean distance to o.
func (p Position) DistanceTo(o Position) float64 {
	return math.Hypot(o.X-p.X, o.Y-p.Y)
}

// Entity is a single organism. The species-specific part lives in Traits,
// which is one of traits.Plant, traits.Herbivore, traits.Carnivore or traits.Fungus.
type Entity struct {
	ID            string
	GardenStateID string
	BornAtTick    int64
	DeathTick     *int64
	IsAlive       bool
	Name          string
	Position      Position
	Energy        float64 // [0, 100]
	Health        float64 // [0, 100]
	Age           int64   // ticks
	Lineage       string  // parent ID or OriginLineage
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Traits        traits.Set
}

// Species returns the entity's species, derived from its traits.
func (e *Entity) Species() traits.Species {
	return e.Traits.Species()
}

// IsCarcass reports whether e is dead but still holds energy to decompose.
func (e *Entity) IsCarcass() bool {
	return !e.IsAlive && e.Energy > 0
}

// Kill marks the entity dead at tick. A dead entity is never revived.
func (e *Entity) Kill(tick int64) {
	if !e.IsAlive {
		return
	}
	e.IsAlive = false
	e.Health = 0
	t := tick
	e.DeathTick = &t
}

// AddEnergy changes energy by delta, clamped to [0, 100]. It returns the applied delta.
func (e *Entity) AddEnergy(delta float64) float64 {
	before := e.Energy
	e.Energy = Clamp100(e.Energy + delta)
	return e.Energy - before
}

// AddHealth changes health by delta, clamped to [0, 100].
func (e *Entity) AddHealth(delta float64) {
	e.Health = Clamp100(e.Health + delta)
}

// Clone returns a deep copy.
func (e *Entity) Clone() *Entity {
	cp := *e
	if e.DeathTick != nil {
		t := *e.DeathTick
		cp.DeathTick = &t
	}
	return &cp
}

// CloneAll deep-copies a slice of entities.
func CloneAll(es []*Entity) []*Entity {
	out := make([]*Entity, len(es))
	for i, e := range es {
		out[i] = e.Clone()
	}
	return out
}

// Clamp100 limits v to [0, 100].
func Clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// entityJSON is the wire shape of an Entity.
type entityJSON struct {
	ID            string          `json:"id"`
	GardenStateID string          `json:"gardenStateId"`
	BornAtTick    int64           `json:"bornAtTick"`
	DeathTick     *int64          `json:"deathTick,omitempty"`
	IsAlive       bool            `json:"isAlive"`
	Name          string          `json:"name"`
	Species       traits.Species  `json:"species"`
	Position      Position        `json:"position"`
	Energy        float64         `json:"energy"`
	Health        float64         `json:"health"`
	Age           int64           `json:"age"`
	Lineage       string          `json:"lineage"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Traits        json.RawMessage `json:"traits"`
}

// MarshalJSON writes the species discriminator next to the trait object.
func (e Entity) MarshalJSON() ([]byte, error) {
	if e.Traits == nil {
		return nil, fmt.Errorf("entity %s: missing traits", e.ID)
	}
	raw, err := json.Marshal(e.Traits)
	if err != nil {
		return nil, fmt.Errorf("marshaling traits: %w", err)
	}
	return json.Marshal(entityJSON{
		ID:            e.ID,
		GardenStateID: e.GardenStateID,
		BornAtTick:    e.BornAtTick,
		DeathTick:     e.DeathTick,
		IsAlive:       e.IsAlive,
		Name:          e.Name,
		Species:       e.Traits.Species(),
		Position:      e.Position,
		Energy:        e.Energy,
		Health:        e.Health,
		Age:           e.Age,
		Lineage:       e.Lineage,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
		Traits:        raw,
	})
}

// UnmarshalJSON decodes the trait object according to the species discriminator.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var w entityJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	var set traits.Set
	switch w.Species {
	case traits.SpeciesPlant:
		var t traits.Plant
		if err := json.Unmarshal(w.Traits, &t); err != nil {
			return fmt.Errorf("decoding plant traits: %w", err)
		}
		set = t
	case traits.SpeciesHerbivore:
		var t traits.Herbivore
		if err := json.Unmarshal(w.Traits, &t); err != nil {
			return fmt.Errorf("decoding herbivore traits: %w", err)
		}
		set = t
	case traits.SpeciesCarnivore:
		var t traits.Carnivore
		if err := json.Unmarshal(w.Traits, &t); err != nil {
			return fmt.Errorf("decoding carnivore traits: %w", err)
		}
		set = t
	case traits.SpeciesFungus:
		var t traits.Fungus
		if err := json.Unmarshal(w.Traits, &t); err != nil {
			return fmt.Errorf("decoding fungus traits: %w", err)
		}
		set = t
	default:
		return fmt.Errorf("%w: %d", traits.ErrUnknownSpecies, uint8(w.Species))
	}

	*e = Entity{
		ID:            w.ID,
		GardenStateID: w.GardenStateID,
		BornAtTick:    w.BornAtTick,
		DeathTick:     w.DeathTick,
		IsAlive:       w.IsAlive,
		Name:          w.Name,
		Position:      w.Position,
		Energy:        w.Energy,
		Health:        w.Health,
		Age:           w.Age,
		Lineage:       w.Lineage,
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
		Traits:        traits.Clamp(set),
	}
	return nil
}
