// Package interfaces pivots the series store and its computed statistics
// into tabular shapes and renders them to XLSX, CSV and PDF for external
// consumers.
package interfaces

import (
	"sort"

	"gridstats/internal/compare/domain/series"
)

// MissingCell is the sentinel for a cell with no underlying data. It is an
// empty string, never 0 and never NaN, so spreadsheet output distinguishes
// "no data" from a measured zero.
const MissingCell = ""

// StatRow is one assembled output row: an entity on a date, one cell per
// statistic column. A cell holds either a float64 or MissingCell.
type StatRow struct {
	Entity series.Entity
	Day    series.Day
	Cells  map[string]any
}

// StatTable is the statistics report shape: one row per entity per day,
// one column per statistic, columns sorted and shared across all rows.
type StatTable struct {
	Columns []string
	Rows    []StatRow
}

// AssembleStatistics pivots every computed statistic in the store.
// Rows are ordered by entity then day; days without a value for a column
// carry the MissingCell sentinel.
func AssembleStatistics(store *series.Store) StatTable {
	columns := store.StatColumns()

	// The date axis is the union of days across all entities, so every
	// entity's rows cover the same period.
	daySet := make(map[series.Day]struct{})
	for _, entity := range store.Entities() {
		for _, day := range store.Days(entity) {
			daySet[day] = struct{}{}
		}
	}
	days := make([]series.Day, 0, len(daySet))
	for d := range daySet {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	table := StatTable{Columns: columns}
	for _, entity := range store.Entities() {
		for _, day := range days {
			row := StatRow{Entity: entity, Day: day, Cells: make(map[string]any, len(columns))}
			stats := store.Stats(entity, day)
			for _, col := range columns {
				if v, ok := stats[col]; ok {
					row.Cells[col] = v
				} else {
					row.Cells[col] = MissingCell
				}
			}
			table.Rows = append(table.Rows, row)
		}
	}
	return table
}

// TimePivot is a raw-series report shape for one entity: timestamps down,
// one column per metric, MissingCell where a metric lacks the timestamp.
type TimePivot struct {
	Columns    []series.Metric
	Timestamps []int64
	Cells      map[int64]map[series.Metric]any
}

// AssembleSeriesPivot pivots an entity's raw series across all its days
// for the given metrics, in timestamp order.
func AssembleSeriesPivot(store *series.Store, entity series.Entity, metrics []series.Metric) TimePivot {
	pivot := TimePivot{
		Columns: metrics,
		Cells:   make(map[int64]map[series.Metric]any),
	}
	for _, day := range store.Days(entity) {
		for _, metric := range metrics {
			for ts, v := range store.Series(entity, day, metric) {
				cell := pivot.Cells[ts]
				if cell == nil {
					cell = make(map[series.Metric]any, len(metrics))
					pivot.Cells[ts] = cell
				}
				cell[metric] = v
			}
		}
	}
	pivot.Timestamps = make([]int64, 0, len(pivot.Cells))
	for ts := range pivot.Cells {
		pivot.Timestamps = append(pivot.Timestamps, ts)
	}
	sort.Slice(pivot.Timestamps, func(i, j int) bool {
		return pivot.Timestamps[i] < pivot.Timestamps[j]
	})
	for _, ts := range pivot.Timestamps {
		for _, metric := range metrics {
			if _, ok := pivot.Cells[ts][metric]; !ok {
				pivot.Cells[ts][metric] = MissingCell
			}
		}
	}
	return pivot
}
