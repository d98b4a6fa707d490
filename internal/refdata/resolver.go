package refdata

import (
	"gridstats/internal/compare/domain/series"
)

// Resolver resolves the statistic normalization divisor per entity:
// installed capacity in MW, or reservoir usable volume for volume-based
// statistics. Built once per run from the planning deck; independent of
// the series store lifecycle.
type Resolver struct {
	normalize bool
	capacity  map[series.Entity]float64
	volume    map[series.Entity]float64
}

// NewResolver builds a Resolver from a parsed deck and name mapping.
// When normalize is false the resolver holds empty tables and every
// divisor defaults to 1.
//
// Hydro plants contribute Σ(unit count × per-unit capacity) and reservoir
// volume max − min; thermal plants contribute Σ(per-unit capacity) across
// units sharing the plant id. A source name fanning out to N target
// entities divides capacity and volume evenly by N.
func NewResolver(deck *Deck, mapping *Mapping, normalize bool) *Resolver {
	r := &Resolver{
		normalize: normalize,
		capacity:  make(map[series.Entity]float64),
		volume:    make(map[series.Entity]float64),
	}
	if !normalize || deck == nil || mapping == nil {
		return r
	}

	for _, plant := range deck.Hydro {
		targets := mapping.Hydro[string(series.NormalizeEntity(plant.Name))]
		if len(targets) == 0 {
			continue
		}
		var total float64
		for _, unit := range plant.Units {
			total += float64(unit.Count) * unit.CapacityMW
		}
		factor := float64(len(targets))
		for _, target := range targets {
			entity := series.NormalizeEntity(target)
			r.capacity[entity] = total / factor
			r.volume[entity] = (plant.MaxVolume - plant.MinVolume) / factor
		}
	}

	unitsByPlant := make(map[int][]ThermalUnit)
	for _, unit := range deck.ThermalUnits {
		unitsByPlant[unit.PlantID] = append(unitsByPlant[unit.PlantID], unit)
	}
	for _, plant := range deck.Thermal {
		units := unitsByPlant[plant.PlantID]
		if len(units) == 0 {
			continue
		}
		targets := mapping.Thermal[string(series.NormalizeEntity(plant.Name))]
		if len(targets) == 0 {
			continue
		}
		var total float64
		for _, unit := range units {
			total += unit.CapacityMW
		}
		factor := float64(len(targets))
		for _, target := range targets {
			r.capacity[series.NormalizeEntity(target)] = total / factor
		}
	}
	return r
}

// Capacity returns the normalization divisor for an entity. Normalization
// disabled, an unknown entity, or a stored capacity of zero all resolve
// to 1: the entity is never dropped and nothing ever divides by zero.
func (r *Resolver) Capacity(entity series.Entity) float64 {
	if !r.normalize {
		return 1
	}
	c := r.capacity[entity]
	if c == 0 {
		return 1
	}
	return c
}

// ReservoirVolume returns the usable reservoir volume and whether a
// non-zero value is known. Volume-based statistics are skipped, not
// defaulted, when it is absent.
func (r *Resolver) ReservoirVolume(entity series.Entity) (float64, bool) {
	if !r.normalize {
		return 0, false
	}
	v := r.volume[entity]
	if v == 0 {
		return 0, false
	}
	return v, true
}

// Normalizing reports whether capacity normalization is enabled.
func (r *Resolver) Normalizing() bool { return r.normalize }
