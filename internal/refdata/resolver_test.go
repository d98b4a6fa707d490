package refdata

import (
	"os"
	"path/filepath"
	"testing"

	"gridstats/internal/compare/domain/series"
)

func testDeck() *Deck {
	return &Deck{
		Hydro: []HydroPlant{
			{
				Name:      "Plant A",
				Units:     []HydroUnit{{Count: 2, CapacityMW: 50}, {Count: 1, CapacityMW: 100}},
				MaxVolume: 500,
				MinVolume: 100,
			},
		},
		Thermal: []ThermalPlant{{PlantID: 7, Name: "Thermo X"}},
		ThermalUnits: []ThermalUnit{
			{PlantID: 7, CapacityMW: 30},
			{PlantID: 7, CapacityMW: 30},
		},
	}
}

func testMapping() *Mapping {
	return &Mapping{
		Hydro:   map[string][]string{"PLANT_A": {"Target One", "Target Two"}},
		Thermal: map[string][]string{"THERMO_X": {"TX"}},
	}
}

func TestResolverHydroCapacityAndFanOut(t *testing.T) {
	r := NewResolver(testDeck(), testMapping(), true)

	// 2x50 + 1x100 = 200 MW split across two targets.
	for _, target := range []string{"TARGET_ONE", "TARGET_TWO"} {
		if got := r.Capacity(series.Entity(target)); got != 100 {
			t.Fatalf("Capacity(%s) = %v, want 100", target, got)
		}
		volume, ok := r.ReservoirVolume(series.Entity(target))
		if !ok || volume != 200 {
			t.Fatalf("ReservoirVolume(%s) = %v ok=%v, want 200", target, volume, ok)
		}
	}
}

func TestResolverThermalCapacity(t *testing.T) {
	r := NewResolver(testDeck(), testMapping(), true)
	if got := r.Capacity("TX"); got != 60 {
		t.Fatalf("Capacity(TX) = %v, want 60", got)
	}
	if _, ok := r.ReservoirVolume("TX"); ok {
		t.Fatalf("thermal plant reported a reservoir volume")
	}
}

func TestResolverUnknownEntityDefaultsToOne(t *testing.T) {
	r := NewResolver(testDeck(), testMapping(), true)
	if got := r.Capacity("NOBODY"); got != 1 {
		t.Fatalf("Capacity(NOBODY) = %v, want 1", got)
	}
}

func TestResolverDisabledNormalization(t *testing.T) {
	r := NewResolver(testDeck(), testMapping(), false)
	if got := r.Capacity("TARGET_ONE"); got != 1 {
		t.Fatalf("Capacity with normalization off = %v, want 1", got)
	}
	if _, ok := r.ReservoirVolume("TARGET_ONE"); ok {
		t.Fatalf("volume reported with normalization off")
	}
	if r.Normalizing() {
		t.Fatalf("Normalizing() = true with normalization off")
	}
}

func TestResolverNilDeck(t *testing.T) {
	r := NewResolver(nil, testMapping(), true)
	if got := r.Capacity("TARGET_ONE"); got != 1 {
		t.Fatalf("Capacity with nil deck = %v, want 1", got)
	}
}

func TestLoadDeckAndMapping(t *testing.T) {
	dir := t.TempDir()
	deckPath := filepath.Join(dir, "deck.json")
	deckJSON := `{
		"hydro": [{"name": "Plant A", "units": [{"count": 2, "capacity_mw": 50}], "max_volume": 500, "min_volume": 100}],
		"thermal_plants": [{"plant_id": 7, "name": "Thermo X"}],
		"thermal_units": [{"plant_id": 7, "capacity_mw": 30}]
	}`
	if err := os.WriteFile(deckPath, []byte(deckJSON), 0o644); err != nil {
		t.Fatalf("write deck: %v", err)
	}
	deck, err := LoadDeck(deckPath)
	if err != nil {
		t.Fatalf("load deck: %v", err)
	}
	if len(deck.Hydro) != 1 || deck.Hydro[0].Units[0].CapacityMW != 50 {
		t.Fatalf("unexpected deck contents: %+v", deck)
	}

	mappingPath := filepath.Join(dir, "mapping.json")
	mappingJSON := `{"hydro": {"PLANT_A": ["Target One"]}, "thermal": {}}`
	if err := os.WriteFile(mappingPath, []byte(mappingJSON), 0o644); err != nil {
		t.Fatalf("write mapping: %v", err)
	}
	mapping, err := LoadMapping(mappingPath)
	if err != nil {
		t.Fatalf("load mapping: %v", err)
	}
	if len(mapping.Hydro["PLANT_A"]) != 1 {
		t.Fatalf("unexpected mapping contents: %+v", mapping)
	}

	if _, err := LoadDeck(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected error for missing deck file")
	}
}
