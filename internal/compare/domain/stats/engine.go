package stats

import (
	"math"
	"time"

	"gridstats/internal/compare/domain/series"
)

// DefaultCoverageFloor is the minimum per-side observation count for a day
// before any comparison statistic is computed (an hourly-coverage floor).
const DefaultCoverageFloor = 24

// Engine computes comparison and coupling statistics and writes them back
// into the store under typed derived keys.
//
// Sign convention: diff[i] = a[i] − b[i], first metric minus second. With
// the canonical (scheduled, verified) pair, verified running above
// scheduled yields a negative deviation.
type Engine struct {
	floor int
	loc   *time.Location
}

// NewEngine constructs an Engine. A non-positive floor falls back to
// DefaultCoverageFloor; a nil location falls back to UTC.
func NewEngine(floor int, loc *time.Location) *Engine {
	if floor <= 0 {
		floor = DefaultCoverageFloor
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{floor: floor, loc: loc}
}

// CoverageFloor returns the configured per-side observation floor.
func (e *Engine) CoverageFloor() int { return e.floor }

// ComparePair computes the full statistic set for one metric pair on one
// entity/day and stores the results. capacity is the normalization
// divisor; zero or negative means "no normalization" and is treated as 1,
// never as a division by zero.
//
// Returns ErrCoverageGate when either side is below the observation floor
// and ErrInsufficientSamples when fewer than 2 jointly observed points
// remain after intersection. In both cases nothing is written.
func (e *Engine) ComparePair(store *series.Store, entity series.Entity, day series.Day, metricA, metricB series.Metric, capacity float64) error {
	if !store.HasMinimumCoverage(entity, day, metricA, e.floor) ||
		!store.HasMinimumCoverage(entity, day, metricB, e.floor) {
		return ErrCoverageGate
	}
	pairs := AlignedPairs(store, entity, day, metricA, metricB)
	// The log-return list holds n−1 entries and its standard deviation
	// needs 2 of them, so 3 aligned samples is the hard floor.
	if len(pairs) < 3 {
		return ErrInsufficientSamples
	}
	if capacity <= 0 {
		capacity = 1
	}

	n := len(pairs)
	diffs := make([]float64, 0, n)
	diffsSqrt := make([]float64, 0, n)
	aVals := make([]float64, 0, n)
	bVals := make([]float64, 0, n)
	aSteps := make([]float64, 0, n-1)
	bSteps := make([]float64, 0, n-1)
	aLogs := make([]float64, 0, n-1)
	bLogs := make([]float64, 0, n-1)

	for i, p := range pairs {
		d := p.A - p.B
		diffs = append(diffs, d)
		// sqrt of the square, not math.Abs: the legacy reporting chain
		// computes it this way and its values must be matched.
		diffsSqrt = append(diffsSqrt, math.Sqrt(d*d))
		aVals = append(aVals, p.A)
		bVals = append(bVals, p.B)
		if i == 0 {
			continue
		}
		prev := pairs[i-1]
		aSteps = append(aSteps, math.Abs(p.A-prev.A))
		bSteps = append(bSteps, math.Abs(p.B-prev.B))
		// A zero endpoint or non-positive ratio contributes a literal 0
		// to the log-return list rather than being skipped. This biases
		// the standard deviation toward zero; historical report values
		// carry the same bias and must stay comparable.
		if p.A != 0 && prev.A != 0 && p.A/prev.A > 0 {
			aLogs = append(aLogs, math.Log(p.A/prev.A))
		} else {
			aLogs = append(aLogs, 0)
		}
		if p.B != 0 && prev.B != 0 && p.B/prev.B > 0 {
			bLogs = append(bLogs, math.Log(p.B/prev.B))
		} else {
			bLogs = append(bLogs, 0)
		}
	}

	nf := float64(n)
	put := func(key Key, v float64) {
		store.PutStat(entity, day, key.Column(), v)
	}

	put(PairKey(KindDeviation, metricA, metricB), sum(diffs)/(nf*capacity))
	put(PairKey(KindAbsDeviation, metricA, metricB), sum(diffsSqrt)/(nf*capacity))
	put(SideKey(KindOscillationRange, metricA), (maxOf(aVals)-minOf(aVals))/capacity)
	put(SideKey(KindOscillationRange, metricB), (maxOf(bVals)-minOf(bVals))/capacity)
	put(SideKey(KindMeanVolatility, metricA), mean(aSteps)/capacity)
	put(SideKey(KindMeanVolatility, metricB), mean(bSteps)/capacity)
	put(SideKey(KindLogVolatility, metricA), sampleStdev(aLogs))
	put(SideKey(KindLogVolatility, metricB), sampleStdev(bLogs))
	put(PairKey(KindStdevDiffs, metricA, metricB), sampleStdev(diffs)/capacity)
	stdevA := sampleStdev(aVals) / capacity
	stdevB := sampleStdev(bVals) / capacity
	put(SideKey(KindStdev, metricA), stdevA)
	put(SideKey(KindStdev, metricB), stdevB)
	// Divides an already-normalized quantity by capacity again. The legacy
	// reporting chain does exactly this; changing it would break every
	// historical stdev_delta column.
	put(PairKey(KindStdevDelta, metricA, metricB), (stdevA-stdevB)/capacity)

	return nil
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

func mean(xs []float64) float64 {
	return sum(xs) / float64(len(xs))
}

// sampleStdev is the n−1 (sample) standard deviation. Callers guarantee
// len(xs) >= 2 via the aligned-pairs guard.
func sampleStdev(xs []float64) float64 {
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}
