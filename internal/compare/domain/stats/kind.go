package stats

import (
	"fmt"

	"gridstats/internal/compare/domain/series"
)

// Kind enumerates the statistic families computed per (entity, day).
type Kind string

const (
	// KindDeviation is the capacity-normalized mean signed difference.
	KindDeviation Kind = "deviation"
	// KindAbsDeviation is the capacity-normalized mean absolute difference.
	KindAbsDeviation Kind = "abs_deviation"
	// KindOscillationRange is the normalized peak-to-trough range of one
	// side within the day.
	KindOscillationRange Kind = "oscillation_range"
	// KindMeanVolatility is the normalized mean absolute step between
	// consecutive jointly observed samples of one side.
	KindMeanVolatility Kind = "mean_volatility"
	// KindLogVolatility is the sample standard deviation of one side's
	// log-returns. Not capacity-normalized.
	KindLogVolatility Kind = "log_volatility"
	// KindStdevDiffs is the normalized sample standard deviation of the
	// signed differences.
	KindStdevDiffs Kind = "stdev_diffs"
	// KindStdev is the normalized sample standard deviation of one side.
	KindStdev Kind = "stdev"
	// KindStdevDelta is (stdev_a − stdev_b) / capacity where both operands
	// are already capacity-normalized. The double normalization keeps the
	// column comparable with historical reports.
	KindStdevDelta Kind = "stdev_delta"
)

// Key is the typed composite key a statistic is attached to: a kind plus
// the metric(s) it was derived from. MetricB is empty for per-side kinds.
type Key struct {
	Kind    Kind
	MetricA series.Metric
	MetricB series.Metric
}

// PairKey builds a key for a two-metric statistic.
func PairKey(kind Kind, a, b series.Metric) Key {
	return Key{Kind: kind, MetricA: a, MetricB: b}
}

// SideKey builds a key for a single-metric statistic.
func SideKey(kind Kind, m series.Metric) Key {
	return Key{Kind: kind, MetricA: m}
}

// Column renders the key into its output column name:
// <kind>_<metricA>_<metricB> for pair statistics, <kind>_<metric> for
// per-side statistics. Rendering is one-way; nothing re-parses columns.
func (k Key) Column() string {
	if k.MetricB != "" {
		return fmt.Sprintf("%s_%s_%s", k.Kind, k.MetricA, k.MetricB)
	}
	return fmt.Sprintf("%s_%s", k.Kind, k.MetricA)
}
