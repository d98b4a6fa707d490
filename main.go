package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"gridstats/internal/compare/application"
	"gridstats/internal/compare/domain/series"
	comparepg "gridstats/internal/compare/infrastructure/postgres"
	"gridstats/internal/compare/interfaces"
	"gridstats/internal/observability/metrics"
	"gridstats/internal/platform"
	"gridstats/internal/refdata"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}
	start, end, loc, err := cfg.window()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	metrics.Init()
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Printf("event=metrics_listening addr=%s", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Printf("event=metrics_server_error error=%v", err)
			}
		}()
	}

	ctx := context.Background()

	client, err := platform.NewClient(cfg.PlatformURL, cfg.Username, cfg.Password)
	if err != nil {
		logger.Fatalf("platform client error: %v", err)
	}
	if err := client.Login(ctx); err != nil {
		logger.Fatalf("platform login error: %v", err)
	}

	refDir := filepath.Join(cfg.StorageFolder, "refdata")
	mappingPath, err := client.DownloadFile(ctx, cfg.MappingFileID, refDir)
	if err != nil {
		logger.Fatalf("mapping download error: %v", err)
	}
	mapping, err := refdata.LoadMapping(mappingPath)
	if err != nil {
		logger.Fatalf("mapping parse error: %v", err)
	}

	var deck *refdata.Deck
	if cfg.DeckFileID != "" {
		deckPath, err := client.DownloadFile(ctx, cfg.DeckFileID, refDir)
		if err != nil {
			logger.Fatalf("deck download error: %v", err)
		}
		deck, err = refdata.LoadDeck(deckPath)
		if err != nil {
			logger.Fatalf("deck parse error: %v", err)
		}
	}
	if cfg.Normalize && deck == nil {
		logger.Fatal("config: normalize requires deck_file_id")
	}
	resolver := refdata.NewResolver(deck, mapping, cfg.Normalize)

	pipeline := application.NewPipeline(client, mapping, resolver, cfg.Provider, loc, logger, cfg.Debug, application.Options{
		Start:            start,
		End:              end,
		Workers:          cfg.Concurrency,
		AllowList:        cfg.Plants,
		ForceRecompute:   cfg.ForceRecompute,
		CompareSnapshot:  filepath.Join(cfg.StorageFolder, "comparison_snapshot.json"),
		CouplingSnapshot: filepath.Join(cfg.StorageFolder, "coupling_snapshot.json"),
		QueryGeneration:  cfg.QueryGeneration,
		QueryCost:        cfg.QueryCost,
		CoverageFloor:    cfg.CoverageFloor,
	})

	var outputs []string
	var totals application.Result

	if cfg.QueryGeneration || cfg.QueryCost {
		result, err := pipeline.RunComparison(ctx)
		if err != nil {
			logger.Fatalf("comparison run error: %v", err)
		}
		logger.Printf("event=comparison_done tasks=%d failed=%d cached=%v computed=%d skipped=%d",
			result.Tasks, result.Failed, result.FromCache, result.Computed, result.Skipped)
		totals = result

		dir := filepath.Join(cfg.StorageFolder, "comparison")
		written, err := writeReports(cfg, dir, pipeline.CompareStore(), loc, true)
		if err != nil {
			logger.Fatalf("comparison report error: %v", err)
		}
		outputs = append(outputs, written...)

		if cfg.DatabaseURL != "" {
			saved, err := persistStatistics(ctx, cfg.DatabaseURL, pipeline.CompareStore())
			if err != nil {
				logger.Fatalf("statistics persist error: %v", err)
			}
			logger.Printf("event=statistics_persisted rows=%d", saved)
		}
	}

	if cfg.QueryCoupling {
		result, err := pipeline.RunCoupling(ctx)
		if err != nil {
			logger.Fatalf("coupling run error: %v", err)
		}
		logger.Printf("event=coupling_done tasks=%d failed=%d cached=%v computed=%d",
			result.Tasks, result.Failed, result.FromCache, result.Computed)
		totals.Tasks += result.Tasks
		totals.Failed += result.Failed

		dir := filepath.Join(cfg.StorageFolder, "coupling")
		written, err := writeReports(cfg, dir, pipeline.CouplingStore(), loc, false)
		if err != nil {
			logger.Fatalf("coupling report error: %v", err)
		}
		outputs = append(outputs, written...)
	}

	if cfg.WritePDF {
		store := pipeline.CompareStore()
		summary := interfaces.RunSummary{
			Start:       start,
			End:         end,
			Entities:    len(store.Entities()),
			Days:        coveredDays(store),
			Tasks:       totals.Tasks,
			FailedTasks: totals.Failed,
			FromCache:   totals.FromCache,
			Normalized:  cfg.Normalize,
			Outputs:     outputs,
		}
		path, err := interfaces.WriteRunSummaryPDF(cfg.StorageFolder, summary)
		if err != nil {
			logger.Fatalf("summary pdf error: %v", err)
		}
		metrics.IncReportWrite("pdf")
		logger.Printf("event=summary_written path=%s", path)
	}

	logger.Printf("event=run_complete outputs=%d", len(outputs))
}

// writeReports renders one store's raw series and statistics into dir per
// the configured output formats. msScale distinguishes the comparison
// store's millisecond timestamps from the coupling store's seconds.
func writeReports(cfg config, dir string, store *series.Store, loc *time.Location, msScale bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var outputs []string

	for _, entity := range store.Entities() {
		cols := series.ComparableMetrics()
		if entity == series.CostEntity {
			cols = series.ZoneMetrics()
		}
		if !msScale {
			cols = []series.Metric{series.MetricSimulatedGeneration, series.MetricSimulatedVolume}
		}
		pivot := interfaces.AssembleSeriesPivot(store, entity, cols)
		if len(pivot.Timestamps) == 0 {
			continue
		}
		if cfg.WriteCSV {
			path, err := interfaces.WriteSeriesCSV(dir, entity, pivot, loc, msScale)
			if err != nil {
				return outputs, err
			}
			metrics.IncReportWrite("csv")
			outputs = append(outputs, path)
		}
		if cfg.WriteXLSX {
			path, err := interfaces.WriteSeriesXLSX(dir, entity, pivot, loc, msScale)
			if err != nil {
				return outputs, err
			}
			metrics.IncReportWrite("xlsx")
			outputs = append(outputs, path)
		}
	}

	table := interfaces.AssembleStatistics(store)
	if len(table.Rows) == 0 {
		return outputs, nil
	}
	if cfg.WriteCSV {
		paths, err := interfaces.WriteStatisticsCSV(dir, table)
		if err != nil {
			return outputs, err
		}
		metrics.IncReportWrite("csv")
		outputs = append(outputs, paths...)
	}
	if cfg.WriteXLSX {
		paths, err := interfaces.WriteStatisticsXLSX(dir, table)
		if err != nil {
			return outputs, err
		}
		metrics.IncReportWrite("xlsx")
		outputs = append(outputs, paths...)
	}
	return outputs, nil
}

func persistStatistics(ctx context.Context, databaseURL string, store *series.Store) (int, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return 0, err
	}
	repo := comparepg.NewStatisticRepository(db)
	return repo.SaveStore(ctx, store)
}

func coveredDays(store *series.Store) int {
	seen := make(map[series.Day]struct{})
	for _, entity := range store.Entities() {
		for _, day := range store.Days(entity) {
			seen[day] = struct{}{}
		}
	}
	return len(seen)
}
