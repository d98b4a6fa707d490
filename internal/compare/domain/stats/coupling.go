package stats

import (
	"math"

	"gridstats/internal/compare/domain/series"
)

// couplingFloor is the strict per-day observation floor for coupling
// statistics. Distinct from the comparison gate: both days need more than
// 24 points, not at-least.
const couplingFloor = 24

// Coupling computes the day-over-day boundary delta for a single metric:
// the difference between day D's and day D+1's value at the exact midnight
// timestamp of D+1 (epoch seconds in the engine's location), divided by
// divisor. divisor is installed capacity for generation series and
// reservoir volume for volume series.
//
// The statistic is silently skipped (no key written, computed=false) when
// either day lacks the boundary timestamp, either day holds 24 or fewer
// points, or divisor is not positive.
func (e *Engine) Coupling(store *series.Store, entity series.Entity, day series.Day, metric series.Metric, divisor float64) (bool, error) {
	if divisor <= 0 {
		return false, nil
	}
	nextDay, err := day.Next()
	if err != nil {
		return false, err
	}
	if store.SeriesLen(entity, day, metric) <= couplingFloor ||
		store.SeriesLen(entity, nextDay, metric) <= couplingFloor {
		return false, nil
	}

	boundaryTime, err := nextDay.Time(e.loc)
	if err != nil {
		return false, err
	}
	boundary := boundaryTime.Unix()

	cur := store.Series(entity, day, metric)
	next := store.Series(entity, nextDay, metric)
	i, okCur := cur[boundary]
	j, okNext := next[boundary]
	if !okCur || !okNext {
		return false, nil
	}

	diff := j - i
	store.PutStat(entity, day, SideKey(KindDeviation, metric).Column(), diff/divisor)
	store.PutStat(entity, day, SideKey(KindAbsDeviation, metric).Column(), math.Sqrt(diff*diff)/divisor)
	return true, nil
}
