package main

import (
	"github.com/pthm-cable/garden/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name string  // Human-readable name
	Path string  // Config path for logging
	Min  float64 // Lower bound
	Max  float64 // Upper bound

	field func(*config.Config) *float64
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Shared economy
			{Name: "base_cost", Path: "metabolism.base_cost", Min: 0.05, Max: 0.6,
				field: func(c *config.Config) *float64 { return &c.Metabolism.BaseCost }},
			{Name: "photo_gain", Path: "photosynthesis.gain", Min: 1.0, Max: 8.0,
				field: func(c *config.Config) *float64 { return &c.Photosynthesis.Gain }},
			{Name: "decomp_gain", Path: "decomposition.gain", Min: 5.0, Max: 40.0,
				field: func(c *config.Config) *float64 { return &c.Decomposition.Gain }},
			// Plants
			{Name: "plant_repro_thresh", Path: "species.plant.reproduction_threshold", Min: 40, Max: 95,
				field: func(c *config.Config) *float64 { return &c.Species.Plant.ReproductionThreshold }},
			{Name: "plant_density_k", Path: "species.plant.density_k", Min: 20, Max: 400,
				field: func(c *config.Config) *float64 { return &c.Species.Plant.DensityK }},
			// Herbivores
			{Name: "herb_repro_thresh", Path: "species.herbivore.reproduction_threshold", Min: 50, Max: 95,
				field: func(c *config.Config) *float64 { return &c.Species.Herbivore.ReproductionThreshold }},
			{Name: "herb_density_k", Path: "species.herbivore.density_k", Min: 5, Max: 120,
				field: func(c *config.Config) *float64 { return &c.Species.Herbivore.DensityK }},
			{Name: "herb_bite", Path: "species.herbivore.bite_size", Min: 2, Max: 30,
				field: func(c *config.Config) *float64 { return &c.Species.Herbivore.BiteSize }},
			// Carnivores
			{Name: "carn_repro_thresh", Path: "species.carnivore.reproduction_threshold", Min: 50, Max: 95,
				field: func(c *config.Config) *float64 { return &c.Species.Carnivore.ReproductionThreshold }},
			{Name: "carn_density_k", Path: "species.carnivore.density_k", Min: 2, Max: 60,
				field: func(c *config.Config) *float64 { return &c.Species.Carnivore.DensityK }},
			{Name: "carn_hunger", Path: "species.carnivore.hunger_threshold", Min: 30, Max: 95,
				field: func(c *config.Config) *float64 { return &c.Species.Carnivore.HungerThreshold }},
			// Fungi
			{Name: "fungus_repro_thresh", Path: "species.fungus.reproduction_threshold", Min: 40, Max: 95,
				field: func(c *config.Config) *float64 { return &c.Species.Fungus.ReproductionThreshold }},
			{Name: "fungus_density_k", Path: "species.fungus.density_k", Min: 5, Max: 120,
				field: func(c *config.Config) *float64 { return &c.Species.Fungus.DensityK }},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		*pv.Specs[i].field(cfg) = v
	}
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = *spec.field(cfg)
	}
	return v
}
