package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gridstats/internal/compare/domain/series"
	"gridstats/internal/platform"
)

// DataSource is the narrow slice of the data platform the fetcher needs.
type DataSource interface {
	FindSeries(ctx context.Context, name string) (platform.SeriesHandle, error)
	GetPoints(ctx context.Context, id string, start, end time.Time, typeHint string) (platform.Points, error)
	AggregateSum(ctx context.Context, names []string, start, end time.Time) (platform.Points, error)
}

// GenType distinguishes hydro from thermal plants in remote series names.
type GenType string

const (
	GenHydro   GenType = "hydro"
	GenThermal GenType = "thermal"
)

// Fetcher pulls raw points from the data source and inserts them into a
// series store. One Fetcher serves many concurrent tasks; the store does
// its own locking.
type Fetcher struct {
	source   DataSource
	store    *series.Store
	provider string
	loc      *time.Location
	logger   *log.Logger
	debug    bool
}

// NewFetcher constructs a Fetcher writing into store.
func NewFetcher(source DataSource, store *series.Store, provider string, loc *time.Location, logger *log.Logger, debug bool) *Fetcher {
	if loc == nil {
		loc = time.UTC
	}
	return &Fetcher{
		source:   source,
		store:    store,
		provider: provider,
		loc:      loc,
		logger:   logger,
		debug:    debug,
	}
}

// FetchComparison pulls the three comparable generation series for one
// source plant over one month window and stores them under each mapped
// target entity, value-divided by the fan-out factor.
//
// A missing remote series is expected (an unmapped plant-name join) and
// skips the combination; an aggregation rejection is logged with full
// context and leaves the combination absent. Neither fails the task.
func (f *Fetcher) FetchComparison(ctx context.Context, genType GenType, sourceName string, targets []string, start, end time.Time) error {
	if len(targets) == 0 {
		return nil
	}
	// Probe the simulation series first: the source name may belong to a
	// different model chain and not exist at all for this provider.
	probe := f.simulatedSeriesName(genType, sourceName)
	if _, err := f.source.FindSeries(ctx, probe); err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			f.debugf("event=series_missing series=%s source=%s window=%s", probe, sourceName, start.Format("2006-01"))
			return nil
		}
		return fmt.Errorf("fetch %s: %w", sourceName, err)
	}

	factor := float64(len(targets))
	for _, target := range targets {
		entity := series.NormalizeEntity(target)
		if _, err := f.source.FindSeries(ctx, f.verifiedSeriesName(target)); err != nil {
			if errors.Is(err, platform.ErrNotFound) {
				f.debugf("event=series_missing entity=%s source=%s window=%s", entity, sourceName, start.Format("2006-01"))
				continue
			}
			return fmt.Errorf("fetch %s: %w", target, err)
		}

		for metric, names := range f.comparisonGroups(genType, sourceName, target) {
			pts, err := f.source.AggregateSum(ctx, names, start, end)
			if err != nil {
				switch {
				case errors.Is(err, platform.ErrAggregation):
					f.logger.Printf("event=aggregation_failed entity=%s source=%s metric=%s window=%s group=%s error=%v",
						entity, sourceName, metric, start.Format("2006-01"), strings.Join(names, ","), err)
					continue
				case errors.Is(err, platform.ErrNotFound):
					f.debugf("event=series_missing entity=%s metric=%s window=%s", entity, metric, start.Format("2006-01"))
					continue
				default:
					return fmt.Errorf("fetch %s/%s: %w", target, metric, err)
				}
			}
			f.insertMillisecondPoints(entity, metric, pts, factor)
		}
	}
	return nil
}

// FetchCostZone pulls one grid zone's marginal cost series for a month
// window into the cost pseudo-entity. Never capacity-divided.
func (f *Fetcher) FetchCostZone(ctx context.Context, zone series.Metric, start, end time.Time) error {
	name := f.costSeriesName(zone)
	pts, err := f.source.AggregateSum(ctx, []string{name}, start, end)
	if err != nil {
		switch {
		case errors.Is(err, platform.ErrAggregation):
			f.logger.Printf("event=aggregation_failed entity=%s zone=%s window=%s error=%v",
				series.CostEntity, zone, start.Format("2006-01"), err)
			return nil
		case errors.Is(err, platform.ErrNotFound):
			f.debugf("event=series_missing series=%s window=%s", name, start.Format("2006-01"))
			return nil
		default:
			return fmt.Errorf("fetch cost %s: %w", zone, err)
		}
	}
	f.insertMillisecondPoints(series.CostEntity, zone, pts, 1)
	return nil
}

// FetchCoupling pulls one source plant's per-operative-day simulated
// generation and volume series. Points land in the bucket of the
// operative day itself (the series spans past midnight into D+1, which is
// exactly what the boundary coupling statistic needs).
func (f *Fetcher) FetchCoupling(ctx context.Context, genType GenType, sourceName string, targets []string, day series.Day) error {
	if len(targets) == 0 {
		return nil
	}
	dayStart, err := day.Time(f.loc)
	if err != nil {
		return err
	}
	windowEnd := dayStart.AddDate(0, 0, 2)
	factor := float64(len(targets))

	couplingVars := map[series.Metric]string{
		series.MetricSimulatedGeneration: f.couplingSeriesName(genType, sourceName, day, "generation"),
		series.MetricSimulatedVolume:     f.couplingSeriesName(genType, sourceName, day, "volume"),
	}
	for metric, name := range couplingVars {
		handle, err := f.source.FindSeries(ctx, name)
		if err != nil {
			if errors.Is(err, platform.ErrNotFound) {
				f.debugf("event=series_missing series=%s day=%s", name, day)
				continue
			}
			return fmt.Errorf("fetch coupling %s: %w", sourceName, err)
		}
		pts, err := f.source.GetPoints(ctx, handle.ID, dayStart, windowEnd, "int")
		if err != nil {
			if errors.Is(err, platform.ErrNotFound) {
				f.debugf("event=points_missing series=%s day=%s", name, day)
				continue
			}
			return fmt.Errorf("fetch coupling %s: %w", sourceName, err)
		}
		for _, target := range targets {
			entity := series.NormalizeEntity(target)
			for i, ts := range pts.Timestamps {
				f.store.Put(entity, day, metric, ts, pts.Values[i]/factor)
			}
		}
	}
	return nil
}

// insertMillisecondPoints buckets millisecond-scaled points into calendar
// days in the fetcher's location. Duplicate timestamps keep the first
// written value.
func (f *Fetcher) insertMillisecondPoints(entity series.Entity, metric series.Metric, pts platform.Points, factor float64) {
	for i, ts := range pts.Timestamps {
		day := series.NewDay(time.UnixMilli(ts).In(f.loc))
		f.store.Put(entity, day, metric, ts, pts.Values[i]/factor)
	}
}

func (f *Fetcher) comparisonGroups(genType GenType, sourceName, target string) map[series.Metric][]string {
	return map[series.Metric][]string{
		series.MetricScheduled: {f.scheduledSeriesName(target)},
		series.MetricVerified:  {f.verifiedSeriesName(target)},
		series.MetricSimulated: {f.simulatedSeriesName(genType, sourceName)},
	}
}

func (f *Fetcher) scheduledSeriesName(target string) string {
	return "ts_ops_generation_scheduled_hourly_" + nameSlug(target)
}

func (f *Fetcher) verifiedSeriesName(target string) string {
	return "ts_ops_generation_verified_hourly_" + nameSlug(target)
}

func (f *Fetcher) simulatedSeriesName(genType GenType, sourceName string) string {
	return fmt.Sprintf("ts_%s_sim_generation_%s_%s", f.provider, genType, nameSlug(sourceName))
}

func (f *Fetcher) costSeriesName(zone series.Metric) string {
	return fmt.Sprintf("ts_%s_sim_marginal_cost_%s", f.provider, zone)
}

func (f *Fetcher) couplingSeriesName(genType GenType, sourceName string, day series.Day, variable string) string {
	return fmt.Sprintf("ts_%s_sim_day_%s_%s_%s_%s",
		f.provider, strings.ReplaceAll(string(day), "-", "_"), variable, genType, nameSlug(sourceName))
}

func nameSlug(name string) string {
	return series.NormalizeEntity(name).Slug()
}

func (f *Fetcher) debugf(format string, args ...any) {
	if f.debug && f.logger != nil {
		f.logger.Printf(format, args...)
	}
}
