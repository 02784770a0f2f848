// Package traits defines species and their heritable characteristics.
package traits

import (
	"errors"
	"fmt"
)

// ErrUnknownSpecies is returned when parsing an unrecognised species name.
var ErrUnknownSpecies = errors.New("unknown species")

// Species identifies one of the four trophic roles.
type Species uint8

const (
	SpeciesPlant Species = iota
	SpeciesHerbivore
	SpeciesCarnivore
	SpeciesFungus
)

// All lists every species in processing order.
var All = [...]Species{SpeciesPlant, SpeciesHerbivore, SpeciesCarnivore, SpeciesFungus}

// String returns the lower-case species name.
func (s Species) String() string {
	switch s {
	case SpeciesPlant:
		return "plant"
	case SpeciesHerbivore:
		return "herbivore"
	case SpeciesCarnivore:
		return "carnivore"
	case SpeciesFungus:
		return "fungus"
	default:
		return fmt.Sprintf("species(%d)", uint8(s))
	}
}

// ParseSpecies converts a name back to a Species.
func ParseSpecies(name string) (Species, error) {
	for _, s := range All {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSpecies, name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Species) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Species) UnmarshalText(b []byte) error {
	v, err := ParseSpecies(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Set is the heritable trait bundle of one entity. It is implemented only by
// Plant, Herbivore, Carnivore and Fungus; callers switch over those four.
type Set interface {
	Species() Species
	Rates() Rates
	isSet()
}

// Rates exposes the traits every species shares.
type Rates struct {
	Reproduction         float64
	MetabolismEfficiency float64
}

// Plant traits.
type Plant struct {
	PhotosynthesisRate   float64 `json:"photosynthesisRate" yaml:"photosynthesis_rate"`
	ReproductionRate     float64 `json:"reproductionRate" yaml:"reproduction_rate"`
	MetabolismEfficiency float64 `json:"metabolismEfficiency" yaml:"metabolism_efficiency"`
}

// Herbivore traits.
type Herbivore struct {
	ReproductionRate      float64 `json:"reproductionRate" yaml:"reproduction_rate"`
	MovementSpeed         float64 `json:"movementSpeed" yaml:"movement_speed"`
	MetabolismEfficiency  float64 `json:"metabolismEfficiency" yaml:"metabolism_efficiency"`
	PerceptionRadius      float64 `json:"perceptionRadius" yaml:"perception_radius"`
	ThreatDetectionRadius float64 `json:"threatDetectionRadius" yaml:"threat_detection_radius"`
}

// Carnivore traits.
type Carnivore struct {
	ReproductionRate     float64 `json:"reproductionRate" yaml:"reproduction_rate"`
	MovementSpeed        float64 `json:"movementSpeed" yaml:"movement_speed"`
	MetabolismEfficiency float64 `json:"metabolismEfficiency" yaml:"metabolism_efficiency"`
	PerceptionRadius     float64 `json:"perceptionRadius" yaml:"perception_radius"`
}

// Fungus traits.
type Fungus struct {
	ReproductionRate     float64 `json:"reproductionRate" yaml:"reproduction_rate"`
	MetabolismEfficiency float64 `json:"metabolismEfficiency" yaml:"metabolism_efficiency"`
	DecompositionRate    float64 `json:"decompositionRate" yaml:"decomposition_rate"`
	PerceptionRadius     float64 `json:"perceptionRadius" yaml:"perception_radius"`
}

func (Plant) Species() Species     { return SpeciesPlant }
func (Herbivore) Species() Species { return SpeciesHerbivore }
func (Carnivore) Species() Species { return SpeciesCarnivore }
func (Fungus) Species() Species    { return SpeciesFungus }

func (t Plant) Rates() Rates     { return Rates{t.ReproductionRate, t.MetabolismEfficiency} }
func (t Herbivore) Rates() Rates { return Rates{t.ReproductionRate, t.MetabolismEfficiency} }
func (t Carnivore) Rates() Rates { return Rates{t.ReproductionRate, t.MetabolismEfficiency} }
func (t Fungus) Rates() Rates    { return Rates{t.ReproductionRate, t.MetabolismEfficiency} }

func (Plant) isSet()     {}
func (Herbivore) isSet() {}
func (Carnivore) isSet() {}
func (Fungus) isSet()    {}

// Domain is the inclusive valid range of a trait.
type Domain struct {
	Min, Max float64
}

// Clamp limits v to the domain.
func (d Domain) Clamp(v float64) float64 {
	if v < d.Min {
		return d.Min
	}
	if v > d.Max {
		return d.Max
	}
	return v
}

// Trait domains.
var (
	PhotosynthesisDomain  = Domain{0.05, 3}
	ReproductionDomain    = Domain{0.001, 1}
	MetabolismDomain      = Domain{0.1, 3}
	MovementSpeedDomain   = Domain{0.1, 10}
	PerceptionDomain      = Domain{1, 300}
	ThreatDetectionDomain = Domain{1, 300}
	DecompositionDomain   = Domain{0.05, 3}
)

// Clamp returns a copy of set with every trait limited to its domain.
// Invalid values are repaired rather than rejected.
func Clamp(set Set) Set {
	switch t := set.(type) {
	case Plant:
		t.PhotosynthesisRate = PhotosynthesisDomain.Clamp(t.PhotosynthesisRate)
		t.ReproductionRate = ReproductionDomain.Clamp(t.ReproductionRate)
		t.MetabolismEfficiency = MetabolismDomain.Clamp(t.MetabolismEfficiency)
		return t
	case Herbivore:
		t.ReproductionRate = ReproductionDomain.Clamp(t.ReproductionRate)
		t.MovementSpeed = MovementSpeedDomain.Clamp(t.MovementSpeed)
		t.MetabolismEfficiency = MetabolismDomain.Clamp(t.MetabolismEfficiency)
		t.PerceptionRadius = PerceptionDomain.Clamp(t.PerceptionRadius)
		t.ThreatDetectionRadius = ThreatDetectionDomain.Clamp(t.ThreatDetectionRadius)
		return t
	case Carnivore:
		t.ReproductionRate = ReproductionDomain.Clamp(t.ReproductionRate)
		t.MovementSpeed = MovementSpeedDomain.Clamp(t.MovementSpeed)
		t.MetabolismEfficiency = MetabolismDomain.Clamp(t.MetabolismEfficiency)
		t.PerceptionRadius = PerceptionDomain.Clamp(t.PerceptionRadius)
		return t
	case Fungus:
		t.ReproductionRate = ReproductionDomain.Clamp(t.ReproductionRate)
		t.MetabolismEfficiency = MetabolismDomain.Clamp(t.MetabolismEfficiency)
		t.DecompositionRate = DecompositionDomain.Clamp(t.DecompositionRate)
		t.PerceptionRadius = PerceptionDomain.Clamp(t.PerceptionRadius)
		return t
	}
	return set
}

// Value is a named trait value, used for display and logging.
type Value struct {
	Name  string
	Value float64
}

// Values lists the traits of a set in declaration order.
func Values(set Set) []Value {
	switch t := set.(type) {
	case Plant:
		return []Value{
			{"photosynthesisRate", t.PhotosynthesisRate},
			{"reproductionRate", t.ReproductionRate},
			{"metabolismEfficiency", t.MetabolismEfficiency},
		}
	case Herbivore:
		return []Value{
			{"reproductionRate", t.ReproductionRate},
			{"movementSpeed", t.MovementSpeed},
			{"metabolismEfficiency", t.MetabolismEfficiency},
			{"perceptionRadius", t.PerceptionRadius},
			{"threatDetectionRadius", t.ThreatDetectionRadius},
		}
	case Carnivore:
		return []Value{
			{"reproductionRate", t.ReproductionRate},
			{"movementSpeed", t.MovementSpeed},
			{"metabolismEfficiency", t.MetabolismEfficiency},
			{"perceptionRadius", t.PerceptionRadius},
		}
	case Fungus:
		return []Value{
			{"reproductionRate", t.ReproductionRate},
			{"metabolismEfficiency", t.MetabolismEfficiency},
			{"decompositionRate", t.DecompositionRate},
			{"perceptionRadius", t.PerceptionRadius},
		}
	}
	return nil
}

// Zero returns the zero trait set for a species.
func Zero(s Species) (Set, error) {
	switch s {
	case SpeciesPlant:
		return Plant{}, nil
	case SpeciesHerbivore:
		return Herbivore{}, nil
	case SpeciesCarnivore:
		return Carnivore{}, nil
	case SpeciesFungus:
		return Fungus{}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownSpecies, uint8(s))
}
