package refdata

import (
	"encoding/json"
	"fmt"
	"os"
)

// Deck is the power-system planning deck the capacity resolver is backed
// by. It arrives as a file download from the data platform and is parsed
// once per run.
type Deck struct {
	Hydro        []HydroPlant   `json:"hydro"`
	ThermalUnits []ThermalUnit  `json:"thermal_units"`
	Thermal      []ThermalPlant `json:"thermal_plants"`
}

// HydroPlant describes a hydro plant's generating units and reservoir.
type HydroPlant struct {
	Name      string      `json:"name"`
	Units     []HydroUnit `json:"units"`
	MaxVolume float64     `json:"max_volume"`
	MinVolume float64     `json:"min_volume"`
}

// HydroUnit is a homogeneous group of generating units.
type HydroUnit struct {
	Count      int     `json:"count"`
	CapacityMW float64 `json:"capacity_mw"`
}

// ThermalPlant identifies a thermal plant; its units are listed separately
// and share the plant id.
type ThermalPlant struct {
	PlantID int    `json:"plant_id"`
	Name    string `json:"name"`
}

// ThermalUnit is one thermal generating unit.
type ThermalUnit struct {
	PlantID    int     `json:"plant_id"`
	CapacityMW float64 `json:"capacity_mw"`
}

// LoadDeck parses a planning deck file.
func LoadDeck(path string) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("refdata: read deck: %w", err)
	}
	var deck Deck
	if err := json.Unmarshal(data, &deck); err != nil {
		return nil, fmt.Errorf("refdata: parse deck: %w", err)
	}
	return &deck, nil
}

// Mapping joins plant names between the two data sources: each upstream
// source name fans out to one or more normalized target entity names.
// Hydro and thermal plants are mapped separately because remote series
// names embed the generation type.
type Mapping struct {
	Hydro   map[string][]string `json:"hydro"`
	Thermal map[string][]string `json:"thermal"`
}

// LoadMapping parses a plant name mapping file.
func LoadMapping(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("refdata: read mapping: %w", err)
	}
	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("refdata: parse mapping: %w", err)
	}
	return &m, nil
}
