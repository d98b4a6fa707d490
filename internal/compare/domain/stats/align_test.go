package stats

import (
	"testing"

	"gridstats/internal/compare/domain/series"
)

func TestAlignedPairsIntersectsAndSorts(t *testing.T) {
	store := series.NewStore()
	entity := series.Entity("PLANT_A")
	day := series.Day("2026-01-15")

	store.Put(entity, day, series.MetricScheduled, 3000, 30)
	store.Put(entity, day, series.MetricScheduled, 1000, 10)
	store.Put(entity, day, series.MetricScheduled, 2000, 20)
	store.Put(entity, day, series.MetricVerified, 1000, 11)
	store.Put(entity, day, series.MetricVerified, 3000, 33)
	// 2000 is missing on the verified side, 4000 on the scheduled side.
	store.Put(entity, day, series.MetricVerified, 4000, 44)

	pairs := AlignedPairs(store, entity, day, series.MetricScheduled, series.MetricVerified)
	if len(pairs) != 2 {
		t.Fatalf("expected 2 shared timestamps, got %d", len(pairs))
	}
	if pairs[0].Timestamp != 1000 || pairs[1].Timestamp != 3000 {
		t.Fatalf("pairs not in ascending timestamp order: %+v", pairs)
	}
	if pairs[0].A != 10 || pairs[0].B != 11 {
		t.Fatalf("pair values misaligned: %+v", pairs[0])
	}
	if pairs[1].A != 30 || pairs[1].B != 33 {
		t.Fatalf("pair values misaligned: %+v", pairs[1])
	}
}

func TestAlignedPairsNoOverlap(t *testing.T) {
	store := series.NewStore()
	entity := series.Entity("PLANT_A")
	day := series.Day("2026-01-15")
	store.Put(entity, day, series.MetricScheduled, 1000, 10)
	store.Put(entity, day, series.MetricVerified, 2000, 20)

	if pairs := AlignedPairs(store, entity, day, series.MetricScheduled, series.MetricVerified); len(pairs) != 0 {
		t.Fatalf("expected no pairs, got %+v", pairs)
	}
}

func TestAlignedPairsSwapTransposesSides(t *testing.T) {
	store := series.NewStore()
	entity := series.Entity("PLANT_A")
	day := series.Day("2026-01-15")
	store.Put(entity, day, series.MetricScheduled, 1000, 10)
	store.Put(entity, day, series.MetricVerified, 1000, 11)

	forward := AlignedPairs(store, entity, day, series.MetricScheduled, series.MetricVerified)
	reverse := AlignedPairs(store, entity, day, series.MetricVerified, series.MetricScheduled)
	if forward[0].A != reverse[0].B || forward[0].B != reverse[0].A {
		t.Fatalf("swapping metrics did not transpose values: %+v vs %+v", forward[0], reverse[0])
	}
}
