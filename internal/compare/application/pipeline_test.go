package application

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gridstats/internal/platform"
	"gridstats/internal/refdata"
)

func comparisonStub(t *testing.T) *stubSource {
	t.Helper()
	day := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	source := newStubSource()
	source.handles["ts_gridsim_sim_generation_hydro_plant_a"] = platform.SeriesHandle{ID: "sim-1"}
	source.handles["ts_ops_generation_verified_hourly_target"] = platform.SeriesHandle{ID: "ver-1"}
	source.aggregates["ts_ops_generation_scheduled_hourly_target"] = hourlyPoints(day, 24, 100)
	source.aggregates["ts_ops_generation_verified_hourly_target"] = hourlyPoints(day, 24, 105)
	source.aggregates["ts_gridsim_sim_generation_hydro_plant_a"] = hourlyPoints(day, 24, 100)
	return source
}

func testPipeline(source DataSource, opts Options) *Pipeline {
	mapping := &refdata.Mapping{Hydro: map[string][]string{"PLANT_A": {"Target"}}}
	resolver := refdata.NewResolver(nil, mapping, false)
	return NewPipeline(source, mapping, resolver, "gridsim", time.UTC, quietLogger(), false, opts)
}

func TestRunComparisonEndToEnd(t *testing.T) {
	source := comparisonStub(t)
	snapshotPath := filepath.Join(t.TempDir(), "compare.json")
	pipeline := testPipeline(source, Options{
		Start:           time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:             time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		Workers:         2,
		CompareSnapshot: snapshotPath,
		QueryGeneration: true,
	})

	result, err := pipeline.RunComparison(context.Background())
	if err != nil {
		t.Fatalf("run comparison: %v", err)
	}
	if result.FromCache {
		t.Fatalf("first run should not hit the cache")
	}
	if result.Tasks != 1 || result.Failed != 0 {
		t.Fatalf("unexpected task counts: %+v", result)
	}
	// All three metric pairs clear the coverage gate.
	if result.Computed != 3 {
		t.Fatalf("expected 3 computed pair sets, got %d", result.Computed)
	}

	store := pipeline.CompareStore()
	got, ok := store.Stat("TARGET", "2026-01-15", "deviation_scheduled_verified")
	if !ok {
		t.Fatalf("deviation statistic missing")
	}
	// scheduled 100 vs verified 105 with capacity 1.
	if math.Abs(got-(-5)) > 1e-12 {
		t.Fatalf("deviation = %v, want -5", got)
	}

	if _, err := os.Stat(snapshotPath); err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
}

func TestRunComparisonSecondRunUsesSnapshot(t *testing.T) {
	snapshotPath := filepath.Join(t.TempDir(), "compare.json")
	opts := Options{
		Start:           time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:             time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		CompareSnapshot: snapshotPath,
		QueryGeneration: true,
	}

	first := testPipeline(comparisonStub(t), opts)
	if _, err := first.RunComparison(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Second run gets an empty source: everything must come from the
	// snapshot.
	second := testPipeline(newStubSource(), opts)
	result, err := second.RunComparison(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !result.FromCache {
		t.Fatalf("expected snapshot hit")
	}
	if result.Tasks != 0 {
		t.Fatalf("cached run still fetched: %+v", result)
	}
	if result.Computed != 3 {
		t.Fatalf("stats not recomputed from snapshot: %+v", result)
	}
	if _, ok := second.CompareStore().Stat("TARGET", "2026-01-15", "deviation_scheduled_verified"); !ok {
		t.Fatalf("statistic missing after snapshot reload")
	}
}

func TestRunComparisonForceRecomputeIgnoresSnapshot(t *testing.T) {
	snapshotPath := filepath.Join(t.TempDir(), "compare.json")
	opts := Options{
		Start:           time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:             time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		CompareSnapshot: snapshotPath,
		QueryGeneration: true,
	}
	first := testPipeline(comparisonStub(t), opts)
	if _, err := first.RunComparison(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	opts.ForceRecompute = true
	second := testPipeline(comparisonStub(t), opts)
	result, err := second.RunComparison(context.Background())
	if err != nil {
		t.Fatalf("forced run: %v", err)
	}
	if result.FromCache {
		t.Fatalf("forced run hit the cache")
	}
	if result.Tasks == 0 {
		t.Fatalf("forced run did not fetch")
	}
}

func TestRunComparisonAllowListFiltersPlants(t *testing.T) {
	source := comparisonStub(t)
	pipeline := testPipeline(source, Options{
		Start:           time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:             time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		AllowList:       []string{"Some Other Plant"},
		QueryGeneration: true,
	})

	result, err := pipeline.RunComparison(context.Background())
	if err != nil {
		t.Fatalf("run comparison: %v", err)
	}
	if result.Tasks != 0 {
		t.Fatalf("allow-list did not filter: %+v", result)
	}
	if len(pipeline.CompareStore().Entities()) != 0 {
		t.Fatalf("filtered plant still stored data")
	}
}

func TestRunCouplingEndToEnd(t *testing.T) {
	source := newStubSource()
	for _, d := range []string{"2026_01_15", "2026_01_16"} {
		source.handles["ts_gridsim_sim_day_"+d+"_generation_hydro_plant_a"] = platform.SeriesHandle{ID: "gen-" + d}
	}
	day15 := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	day16 := day15.AddDate(0, 0, 1)

	mk := func(start time.Time, count int, boundaryValue float64) platform.Points {
		pts := platform.Points{}
		for i := 0; i < count; i++ {
			pts.Timestamps = append(pts.Timestamps, start.Add(time.Duration(i)*30*time.Minute).Unix())
			pts.Values = append(pts.Values, 100)
		}
		// Overwrite the first sample of the window with the boundary value
		// when it sits exactly at midnight.
		pts.Values[0] = boundaryValue
		return pts
	}
	// Day 15 runs past midnight and carries the day-16 boundary sample.
	pts15 := mk(day15, 48, 100)
	pts15.Timestamps = append(pts15.Timestamps, day16.Unix())
	pts15.Values = append(pts15.Values, 120)
	source.points["gen-2026_01_15"] = pts15
	source.points["gen-2026_01_16"] = mk(day16, 30, 100)

	snapshotPath := filepath.Join(t.TempDir(), "coupling.json")
	pipeline := testPipeline(source, Options{
		Start:            day15,
		End:              day16,
		Workers:          2,
		CouplingSnapshot: snapshotPath,
	})

	result, err := pipeline.RunCoupling(context.Background())
	if err != nil {
		t.Fatalf("run coupling: %v", err)
	}
	if result.Failed != 0 {
		t.Fatalf("unexpected failures: %+v", result)
	}
	// Day 16 is the end of the window; only day 15 couples.
	if result.Computed != 1 {
		t.Fatalf("expected 1 coupling statistic, got %d", result.Computed)
	}

	got, ok := pipeline.CouplingStore().Stat("TARGET", "2026-01-15", "deviation_simulated_generation")
	if !ok {
		t.Fatalf("coupling statistic missing")
	}
	// Day 15 holds 120 at the boundary, day 16 holds 100.
	if math.Abs(got-(-20)) > 1e-12 {
		t.Fatalf("coupling deviation = %v, want -20", got)
	}
}
