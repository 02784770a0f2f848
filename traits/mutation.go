package traits

import (
	"math"
	"math/rand"
)

// MutationParams controls inheritance.
type MutationParams struct {
	MaxPerturbation float64 // Each trait is scaled by 1+u, u uniform in [-Max, Max]
	ReportableDelta float64 // Relative change above which a mutation is reported
}

// DefaultMutationParams matches the shipped configuration.
var DefaultMutationParams = MutationParams{MaxPerturbation: 0.1, ReportableDelta: 0.01}

// Change records one trait whose inherited value differs noticeably from the parent's.
type Change struct {
	Trait         string  `json:"trait"`
	Old           float64 `json:"old"`
	New           float64 `json:"new"`
	RelativeDelta float64 `json:"relativeDelta"`
}

// Mutate clones parent traits with an independent symmetric perturbation per
// trait, clamps them to their domains and reports changes above the threshold.
// Traits are perturbed in declaration order so a seeded rng replays exactly.
func Mutate(parent Set, rng *rand.Rand, p MutationParams) (Set, []Change) {
	var changes []Change
	perturb := func(name string, v *float64, d Domain) {
		old := *v
		u := (rng.Float64()*2 - 1) * p.MaxPerturbation
		*v = d.Clamp(old * (1 + u))
		if c, ok := reportable(name, old, *v, p.ReportableDelta); ok {
			changes = append(changes, c)
		}
	}

	switch t := Clamp(parent).(type) {
	case Plant:
		perturb("photosynthesisRate", &t.PhotosynthesisRate, PhotosynthesisDomain)
		perturb("reproductionRate", &t.ReproductionRate, ReproductionDomain)
		perturb("metabolismEfficiency", &t.MetabolismEfficiency, MetabolismDomain)
		return t, changes
	case Herbivore:
		perturb("reproductionRate", &t.ReproductionRate, ReproductionDomain)
		perturb("movementSpeed", &t.MovementSpeed, MovementSpeedDomain)
		perturb("metabolismEfficiency", &t.MetabolismEfficiency, MetabolismDomain)
		perturb("perceptionRadius", &t.PerceptionRadius, PerceptionDomain)
		perturb("threatDetectionRadius", &t.ThreatDetectionRadius, ThreatDetectionDomain)
		return t, changes
	case Carnivore:
		perturb("reproductionRate", &t.ReproductionRate, ReproductionDomain)
		perturb("movementSpeed", &t.MovementSpeed, MovementSpeedDomain)
		perturb("metabolismEfficiency", &t.MetabolismEfficiency, MetabolismDomain)
		perturb("perceptionRadius", &t.PerceptionRadius, PerceptionDomain)
		return t, changes
	case Fungus:
		perturb("reproductionRate", &t.ReproductionRate, ReproductionDomain)
		perturb("metabolismEfficiency", &t.MetabolismEfficiency, MetabolismDomain)
		perturb("decompositionRate", &t.DecompositionRate, DecompositionDomain)
		perturb("perceptionRadius", &t.PerceptionRadius, PerceptionDomain)
		return t, changes
	}
	return parent, nil
}

// reportable decides whether old -> new is a loggable mutation.
func reportable(name string, old, new, threshold float64) (Change, bool) {
	if old == new {
		return Change{}, false
	}
	var rel float64
	if old == 0 {
		rel = math.Inf(1)
	} else {
		rel = math.Abs(new-old) / math.Abs(old)
	}
	if rel <= threshold {
		return Change{}, false
	}
	return Change{Trait: name, Old: old, New: new, RelativeDelta: rel}, true
}
