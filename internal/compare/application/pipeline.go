package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gridstats/internal/compare/domain/series"
	"gridstats/internal/compare/domain/stats"
	"gridstats/internal/compare/infrastructure/snapshot"
	"gridstats/internal/observability/metrics"
	"gridstats/internal/refdata"
)

// Options tunes one pipeline run.
type Options struct {
	Start time.Time
	End   time.Time

	// Workers bounds in-flight fetch tasks. I/O-bound, tuned empirically,
	// independent of CPU count.
	Workers int

	// AllowList restricts fetching to the named source plants. Empty
	// means all mapped plants.
	AllowList []string

	// ForceRecompute ignores existing snapshots and re-fetches.
	ForceRecompute bool

	CompareSnapshot  string
	CouplingSnapshot string

	QueryGeneration bool
	QueryCost       bool

	CoverageFloor int
}

// Result summarizes one pipeline phase.
type Result struct {
	Tasks     int
	Failed    int
	FromCache bool
	Computed  int
	Skipped   int
}

// Pipeline orchestrates a full reconciliation run: windowed concurrent
// fetching (or a snapshot load), statistics, and store handoff to the
// report writers. Windows are processed strictly sequentially; tasks
// within a window run concurrently and merge into the store keyed by
// entity/metric, so arrival order never affects the final state.
type Pipeline struct {
	opts     Options
	mapping  *refdata.Mapping
	resolver *refdata.Resolver
	engine   *stats.Engine
	loc      *time.Location
	logger   *log.Logger

	compareStore  *series.Store
	couplingStore *series.Store

	compareFetcher  *Fetcher
	couplingFetcher *Fetcher
}

// NewPipeline wires a pipeline for one run.
func NewPipeline(source DataSource, mapping *refdata.Mapping, resolver *refdata.Resolver, provider string, loc *time.Location, logger *log.Logger, debug bool, opts Options) *Pipeline {
	if loc == nil {
		loc = time.UTC
	}
	if opts.Workers <= 0 {
		opts.Workers = 10
	}
	compareStore := series.NewStore()
	couplingStore := series.NewStore()
	return &Pipeline{
		opts:            opts,
		mapping:         mapping,
		resolver:        resolver,
		engine:          stats.NewEngine(opts.CoverageFloor, loc),
		loc:             loc,
		logger:          logger,
		compareStore:    compareStore,
		couplingStore:   couplingStore,
		compareFetcher:  NewFetcher(source, compareStore, provider, loc, logger, debug),
		couplingFetcher: NewFetcher(source, couplingStore, provider, loc, logger, debug),
	}
}

// CompareStore exposes the comparison store for report assembly.
func (p *Pipeline) CompareStore() *series.Store { return p.compareStore }

// CouplingStore exposes the coupling store for report assembly.
func (p *Pipeline) CouplingStore() *series.Store { return p.couplingStore }

// RunComparison collects cross-source comparison data month by month and
// computes the comparison statistics. A failed task never blocks its
// siblings: the run completes on whatever data was collected, and a
// partial window is surfaced as a warning.
func (p *Pipeline) RunComparison(ctx context.Context) (Result, error) {
	var result Result

	loaded, err := p.loadSnapshot(p.opts.CompareSnapshot, p.compareStore)
	if err != nil {
		return result, err
	}
	result.FromCache = loaded

	if !loaded {
		for cursor := p.opts.Start; !cursor.After(p.opts.End); cursor = cursor.AddDate(0, 1, 0) {
			windowEnd := cursor.AddDate(0, 1, 0).Add(-time.Minute)
			tasks := p.comparisonTasks(cursor, windowEnd)
			if len(tasks) == 0 {
				continue
			}
			p.logger.Printf("event=window_start kind=comparison window=%s tasks=%d",
				cursor.Format("2006-01"), len(tasks))
			results := RunPool(ctx, tasks, p.opts.Workers)
			failed := FailedCount(results)
			result.Tasks += len(results)
			result.Failed += failed
			if failed > 0 {
				p.logWindowFailures("comparison", cursor.Format("2006-01"), results)
			}
		}
		if err := p.saveSnapshot(p.opts.CompareSnapshot, p.compareStore); err != nil {
			return result, err
		}
	}

	computed, skipped := p.computeComparisonStats()
	result.Computed = computed
	result.Skipped = skipped
	return result, nil
}

// RunCoupling collects per-operative-day simulation series day by day and
// computes the day-over-day boundary statistics.
func (p *Pipeline) RunCoupling(ctx context.Context) (Result, error) {
	var result Result

	loaded, err := p.loadSnapshot(p.opts.CouplingSnapshot, p.couplingStore)
	if err != nil {
		return result, err
	}
	result.FromCache = loaded

	if !loaded {
		for cursor := p.opts.Start; !cursor.After(p.opts.End); cursor = cursor.AddDate(0, 0, 1) {
			day := series.NewDay(cursor.In(p.loc))
			tasks := p.couplingTasks(day)
			if len(tasks) == 0 {
				continue
			}
			results := RunPool(ctx, tasks, p.opts.Workers)
			failed := FailedCount(results)
			result.Tasks += len(results)
			result.Failed += failed
			if failed > 0 {
				p.logWindowFailures("coupling", string(day), results)
			}
		}
		if err := p.saveSnapshot(p.opts.CouplingSnapshot, p.couplingStore); err != nil {
			return result, err
		}
	}

	computed, err := p.computeCouplingStats()
	if err != nil {
		return result, err
	}
	result.Computed = computed
	return result, nil
}

// ComparisonPairs are the canonical cross-source metric pairs, in the
// (first, second) order the sign convention is defined on.
func ComparisonPairs() [][2]series.Metric {
	return [][2]series.Metric{
		{series.MetricScheduled, series.MetricVerified},
		{series.MetricScheduled, series.MetricSimulated},
		{series.MetricVerified, series.MetricSimulated},
	}
}

// CostZonePairs are the zone pairs compared on the cost pseudo-entity.
func CostZonePairs() [][2]series.Metric {
	ne, se := series.MetricZoneNortheast, series.MetricZoneSoutheast
	n, s := series.MetricZoneNorth, series.MetricZoneSouth
	return [][2]series.Metric{
		{ne, se}, {ne, s}, {ne, n},
		{n, se}, {n, s},
		{s, se}, {s, n},
	}
}

func (p *Pipeline) comparisonTasks(start, end time.Time) []Task {
	var tasks []Task
	if p.opts.QueryGeneration {
		for genType, plants := range p.mappedPlants() {
			genType := genType
			for sourceName, targets := range plants {
				if !p.allowed(sourceName) {
					continue
				}
				sourceName, targets := sourceName, targets
				tasks = append(tasks, Task{
					Name: fmt.Sprintf("compare/%s/%s/%s", genType, sourceName, start.Format("2006-01")),
					Run: func(ctx context.Context) error {
						return p.compareFetcher.FetchComparison(ctx, genType, sourceName, targets, start, end)
					},
				})
			}
		}
	}
	if p.opts.QueryCost {
		for _, zone := range series.ZoneMetrics() {
			zone := zone
			tasks = append(tasks, Task{
				Name: fmt.Sprintf("cost/%s/%s", zone, start.Format("2006-01")),
				Run: func(ctx context.Context) error {
					return p.compareFetcher.FetchCostZone(ctx, zone, start, end)
				},
			})
		}
	}
	return tasks
}

func (p *Pipeline) couplingTasks(day series.Day) []Task {
	var tasks []Task
	for genType, plants := range p.mappedPlants() {
		genType := genType
		for sourceName, targets := range plants {
			if !p.allowed(sourceName) {
				continue
			}
			sourceName, targets := sourceName, targets
			tasks = append(tasks, Task{
				Name: fmt.Sprintf("coupling/%s/%s/%s", genType, sourceName, day),
				Run: func(ctx context.Context) error {
					return p.couplingFetcher.FetchCoupling(ctx, genType, sourceName, targets, day)
				},
			})
		}
	}
	return tasks
}

func (p *Pipeline) mappedPlants() map[GenType]map[string][]string {
	out := make(map[GenType]map[string][]string, 2)
	if p.mapping == nil {
		return out
	}
	if len(p.mapping.Hydro) > 0 {
		out[GenHydro] = p.mapping.Hydro
	}
	if len(p.mapping.Thermal) > 0 {
		out[GenThermal] = p.mapping.Thermal
	}
	return out
}

func (p *Pipeline) allowed(sourceName string) bool {
	if len(p.opts.AllowList) == 0 {
		return true
	}
	normalized := series.NormalizeEntity(sourceName)
	for _, allowed := range p.opts.AllowList {
		if series.NormalizeEntity(allowed) == normalized {
			return true
		}
	}
	return false
}

func (p *Pipeline) computeComparisonStats() (computed, skipped int) {
	p.logger.Printf("event=statistics_start kind=comparison entities=%d", len(p.compareStore.Entities()))
	for _, entity := range p.compareStore.Entities() {
		if entity == series.CostEntity {
			continue
		}
		capacity := p.resolver.Capacity(entity)
		for _, day := range p.compareStore.Days(entity) {
			for _, pair := range ComparisonPairs() {
				if p.comparePair(entity, day, pair, capacity) {
					computed++
				} else {
					skipped++
				}
			}
		}
	}
	for _, day := range p.compareStore.Days(series.CostEntity) {
		for _, pair := range CostZonePairs() {
			// Zonal marginal cost is never capacity-normalized.
			if p.comparePair(series.CostEntity, day, pair, 1) {
				computed++
			} else {
				skipped++
			}
		}
	}
	return computed, skipped
}

func (p *Pipeline) comparePair(entity series.Entity, day series.Day, pair [2]series.Metric, capacity float64) bool {
	err := p.engine.ComparePair(p.compareStore, entity, day, pair[0], pair[1], capacity)
	switch {
	case err == nil:
		metrics.IncStatsComputed()
		return true
	case errors.Is(err, stats.ErrCoverageGate):
		metrics.IncStatsSkipped("coverage")
	case errors.Is(err, stats.ErrInsufficientSamples):
		metrics.IncStatsSkipped("samples")
		p.logger.Printf("event=statistics_skipped entity=%s day=%s pair=%s_%s reason=insufficient_samples",
			entity, day, pair[0], pair[1])
	}
	return false
}

func (p *Pipeline) computeCouplingStats() (int, error) {
	var computed int
	endDay := series.NewDay(p.opts.End.In(p.loc))
	for _, entity := range p.couplingStore.Entities() {
		capacity := p.resolver.Capacity(entity)
		for _, day := range p.couplingStore.Days(entity) {
			// The last requested day has no following bucket yet.
			if day >= endDay {
				continue
			}
			ok, err := p.engine.Coupling(p.couplingStore, entity, day, series.MetricSimulatedGeneration, capacity)
			if err != nil {
				return computed, err
			}
			if ok {
				metrics.IncStatsComputed()
				computed++
			}
			if volume, known := p.resolver.ReservoirVolume(entity); known {
				ok, err := p.engine.Coupling(p.couplingStore, entity, day, series.MetricSimulatedVolume, volume)
				if err != nil {
					return computed, err
				}
				if ok {
					metrics.IncStatsComputed()
					computed++
				}
			}
		}
	}
	return computed, nil
}

func (p *Pipeline) loadSnapshot(path string, store *series.Store) (bool, error) {
	if path == "" || p.opts.ForceRecompute {
		return false, nil
	}
	loaded, err := snapshot.Load(path, store)
	if err != nil {
		return false, err
	}
	if loaded {
		metrics.IncSnapshotLoad()
		p.logger.Printf("event=snapshot_loaded path=%s entities=%d", path, len(store.Entities()))
	}
	return loaded, nil
}

func (p *Pipeline) saveSnapshot(path string, store *series.Store) error {
	if path == "" {
		return nil
	}
	if err := snapshot.Save(path, store); err != nil {
		return err
	}
	metrics.IncSnapshotWrite()
	return nil
}

func (p *Pipeline) logWindowFailures(kind, window string, results []TaskResult) {
	for _, r := range results {
		if r.Err != nil {
			p.logger.Printf("event=task_failed kind=%s window=%s task=%s error=%v", kind, window, r.Name, r.Err)
		}
	}
	p.logger.Printf("event=window_partial kind=%s window=%s failed=%d total=%d",
		kind, window, FailedCount(results), len(results))
}
