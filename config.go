package main

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// config defines one reconciliation run. Environment variables provide
// defaults; a YAML file named by -config or GRIDSTATS_CONFIG overrides
// them.
type config struct {
	PlatformURL string `yaml:"platform_url"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	Provider    string `yaml:"provider"`

	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
	Timezone  string `yaml:"timezone"`

	// Plants restricts the run to the named source plants. Empty runs
	// everything in the mapping file.
	Plants []string `yaml:"plants"`

	Normalize      bool `yaml:"normalize"`
	ForceRecompute bool `yaml:"force_recompute"`
	Concurrency    int  `yaml:"concurrency"`
	CoverageFloor  int  `yaml:"coverage_floor"`

	QueryGeneration bool `yaml:"query_generation"`
	QueryCost       bool `yaml:"query_cost"`
	QueryCoupling   bool `yaml:"query_coupling"`

	StorageFolder string `yaml:"storage_folder"`
	DeckFileID    string `yaml:"deck_file_id"`
	MappingFileID string `yaml:"mapping_file_id"`

	WriteCSV  bool `yaml:"write_csv"`
	WriteXLSX bool `yaml:"write_xlsx"`
	WritePDF  bool `yaml:"write_pdf"`

	DatabaseURL string `yaml:"database_url"`
	MetricsAddr string `yaml:"metrics_addr"`
	Debug       bool   `yaml:"debug"`
}

const dateLayout = "2006-01-02"

func loadConfig(path string) (config, error) {
	cfg := config{
		PlatformURL:     getenvDefault("GRIDSTATS_PLATFORM_URL", ""),
		Username:        getenvDefault("GRIDSTATS_USERNAME", ""),
		Password:        getenvDefault("GRIDSTATS_PASSWORD", ""),
		Provider:        getenvDefault("GRIDSTATS_PROVIDER", "gridsim"),
		StartDate:       getenvDefault("GRIDSTATS_START_DATE", ""),
		EndDate:         getenvDefault("GRIDSTATS_END_DATE", ""),
		Timezone:        getenvDefault("GRIDSTATS_TIMEZONE", "America/Sao_Paulo"),
		Plants:          splitCSV(getenvDefault("GRIDSTATS_PLANTS", "")),
		Normalize:       getenvBoolDefault("GRIDSTATS_NORMALIZE", false),
		ForceRecompute:  getenvBoolDefault("GRIDSTATS_FORCE_RECOMPUTE", false),
		Concurrency:     getenvIntDefault("GRIDSTATS_CONCURRENCY", 10),
		CoverageFloor:   getenvIntDefault("GRIDSTATS_COVERAGE_FLOOR", 24),
		QueryGeneration: getenvBoolDefault("GRIDSTATS_QUERY_GENERATION", true),
		QueryCost:       getenvBoolDefault("GRIDSTATS_QUERY_COST", true),
		QueryCoupling:   getenvBoolDefault("GRIDSTATS_QUERY_COUPLING", false),
		StorageFolder:   getenvDefault("GRIDSTATS_STORAGE_FOLDER", filepath.FromSlash("var/gridstats")),
		DeckFileID:      getenvDefault("GRIDSTATS_DECK_FILE_ID", ""),
		MappingFileID:   getenvDefault("GRIDSTATS_MAPPING_FILE_ID", ""),
		WriteCSV:        getenvBoolDefault("GRIDSTATS_WRITE_CSV", true),
		WriteXLSX:       getenvBoolDefault("GRIDSTATS_WRITE_XLSX", false),
		WritePDF:        getenvBoolDefault("GRIDSTATS_WRITE_PDF", false),
		DatabaseURL:     getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		MetricsAddr:     getenvDefault("GRIDSTATS_METRICS_ADDR", ""),
		Debug:           getenvBoolDefault("GRIDSTATS_DEBUG", false),
	}

	if path == "" {
		path = os.Getenv("GRIDSTATS_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.PlatformURL == "" {
		return cfg, errors.New("config: platform_url required")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return cfg, errors.New("config: username and password required")
	}
	if cfg.StartDate == "" || cfg.EndDate == "" {
		return cfg, errors.New("config: start_date and end_date required")
	}
	if cfg.MappingFileID == "" {
		return cfg, errors.New("config: mapping_file_id required")
	}
	if cfg.StorageFolder == "" {
		return cfg, errors.New("config: storage_folder required")
	}
	return cfg, nil
}

// window parses the configured date range in the configured timezone.
func (c config) window() (start, end time.Time, loc *time.Location, err error) {
	loc, err = time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Time{}, time.Time{}, nil, err
	}
	start, err = time.ParseInLocation(dateLayout, c.StartDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, nil, err
	}
	end, err = time.ParseInLocation(dateLayout, c.EndDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, nil, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, nil, errors.New("config: end_date before start_date")
	}
	return start, end, loc, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
