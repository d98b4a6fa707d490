package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := writeConfigFile(t, `
platform_url: https://data.example.com
username: runner
password: secret
provider: gridsim
start_date: "2026-01-01"
end_date: "2026-03-31"
mapping_file_id: file-123
deck_file_id: file-456
plants:
  - Plant A
  - Plant B
normalize: true
concurrency: 4
query_coupling: true
`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PlatformURL != "https://data.example.com" || cfg.Provider != "gridsim" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.Plants) != 2 || cfg.Plants[0] != "Plant A" {
		t.Fatalf("plants not parsed: %v", cfg.Plants)
	}
	if !cfg.Normalize || cfg.Concurrency != 4 || !cfg.QueryCoupling {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	// Untouched fields keep their defaults.
	if cfg.Timezone != "America/Sao_Paulo" || cfg.CoverageFloor != 24 {
		t.Fatalf("defaults lost: %+v", cfg)
	}

	start, end, loc, err := cfg.window()
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if loc.String() != "America/Sao_Paulo" {
		t.Fatalf("unexpected location %v", loc)
	}
	if start.Month() != 1 || end.Month() != 3 {
		t.Fatalf("unexpected window %v..%v", start, end)
	}
}

func TestLoadConfigRequiresCredentials(t *testing.T) {
	path := writeConfigFile(t, `
platform_url: https://data.example.com
start_date: "2026-01-01"
end_date: "2026-03-31"
mapping_file_id: file-123
`)
	if _, err := loadConfig(path); err == nil {
		t.Fatalf("expected error for missing credentials")
	}
}

func TestConfigWindowRejectsReversedRange(t *testing.T) {
	path := writeConfigFile(t, `
platform_url: https://data.example.com
username: runner
password: secret
start_date: "2026-03-31"
end_date: "2026-01-01"
mapping_file_id: file-123
`)
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if _, _, _, err := cfg.window(); err == nil {
		t.Fatalf("expected error for end before start")
	}
}

func TestSplitCSV(t *testing.T) {
	got := splitCSV(" Plant A , ,Plant B")
	if len(got) != 2 || got[0] != "Plant A" || got[1] != "Plant B" {
		t.Fatalf("splitCSV = %v", got)
	}
	if splitCSV("") != nil {
		t.Fatalf("empty input should yield nil")
	}
}
