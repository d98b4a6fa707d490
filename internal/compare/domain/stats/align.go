package stats

import (
	"sort"

	"gridstats/internal/compare/domain/series"
)

// Pair is one jointly observed sample of two metrics.
type Pair struct {
	Timestamp int64
	A, B      float64
}

// AlignedPairs intersects the timestamp sets of two metrics for an
// entity/day and returns the paired samples in ascending timestamp order.
// "Previous" for volatility purposes is defined by the order of the
// intersected set itself: a timestamp one side is missing simply drops out
// of the sequence, so consecutive pairs may span gaps in either source.
func AlignedPairs(store *series.Store, entity series.Entity, day series.Day, metricA, metricB series.Metric) []Pair {
	a := store.Series(entity, day, metricA)
	b := store.Series(entity, day, metricB)

	shared := make([]int64, 0, len(a))
	for ts := range a {
		if _, ok := b[ts]; ok {
			shared = append(shared, ts)
		}
	}
	sort.Slice(shared, func(i, j int) bool { return shared[i] < shared[j] })

	pairs := make([]Pair, 0, len(shared))
	for _, ts := range shared {
		pairs = append(pairs, Pair{Timestamp: ts, A: a[ts], B: b[ts]})
	}
	return pairs
}
