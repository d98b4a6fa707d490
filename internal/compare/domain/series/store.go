package series

import (
	"sort"
	"sync"
)

// DayData is the per-(entity, day) record: one sparse timestamp map per
// metric, plus the derived statistics written back by the stats engine.
// The exported shape doubles as the snapshot DTO.
type DayData struct {
	Series map[Metric]map[int64]float64 `json:"series"`
	Stats  map[string]float64           `json:"stats,omitempty"`
}

// Store holds all collected series for one run. Entities and day buckets
// are created lazily on first insertion. A coarse RWMutex guards the maps:
// concurrent fetch tasks own disjoint (entity, metric, window) keys by
// construction, but they share the underlying structure.
type Store struct {
	mu   sync.RWMutex
	data map[Entity]map[Day]*DayData
}

// NewStore constructs an empty run-scoped store.
func NewStore() *Store {
	return &Store{data: make(map[Entity]map[Day]*DayData)}
}

// Put inserts a point iff the timestamp is not already present under the
// (entity, day, metric) triple. First write wins; a duplicate timestamp is
// ignored, not merged. Reports whether the point was inserted.
func (s *Store) Put(entity Entity, day Day, metric Metric, timestamp int64, value float64) bool {
	if entity == "" || day == "" || metric == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.record(entity, day)
	points := rec.Series[metric]
	if points == nil {
		points = make(map[int64]float64)
		rec.Series[metric] = points
	}
	if _, exists := points[timestamp]; exists {
		return false
	}
	points[timestamp] = value
	return true
}

// Series returns a copy of the timestamp map for the triple, empty when
// absent. The copy is safe to iterate and sort without holding the lock.
func (s *Store) Series(entity Entity, day Day, metric Metric) map[int64]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]float64)
	if days, ok := s.data[entity]; ok {
		if rec, ok := days[day]; ok {
			for ts, v := range rec.Series[metric] {
				out[ts] = v
			}
		}
	}
	return out
}

// SeriesLen returns the point count for the triple without copying.
func (s *Store) SeriesLen(entity Entity, day Day, metric Metric) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if days, ok := s.data[entity]; ok {
		if rec, ok := days[day]; ok {
			return len(rec.Series[metric])
		}
	}
	return 0
}

// HasMinimumCoverage reports whether the triple holds at least floor
// observations for the day.
func (s *Store) HasMinimumCoverage(entity Entity, day Day, metric Metric, floor int) bool {
	return s.SeriesLen(entity, day, metric) >= floor
}

// PutStat writes a derived statistic under its rendered column name.
// Statistics overwrite on recompute, unlike raw points.
func (s *Store) PutStat(entity Entity, day Day, column string, value float64) {
	if entity == "" || day == "" || column == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.record(entity, day)
	if rec.Stats == nil {
		rec.Stats = make(map[string]float64)
	}
	rec.Stats[column] = value
}

// Stat reads a derived statistic; ok is false when the key was never
// written (distinct from a stored zero).
func (s *Store) Stat(entity Entity, day Day, column string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if days, ok := s.data[entity]; ok {
		if rec, ok := days[day]; ok && rec.Stats != nil {
			v, ok := rec.Stats[column]
			return v, ok
		}
	}
	return 0, false
}

// Stats returns a copy of all statistics for the (entity, day) record.
func (s *Store) Stats(entity Entity, day Day) map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]float64)
	if days, ok := s.data[entity]; ok {
		if rec, ok := days[day]; ok {
			for k, v := range rec.Stats {
				out[k] = v
			}
		}
	}
	return out
}

// Entities returns all discovered entities, sorted.
func (s *Store) Entities() []Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entity, 0, len(s.data))
	for e := range s.data {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Days returns all day buckets recorded for an entity, sorted ascending.
func (s *Store) Days(entity Entity) []Day {
	s.mu.RLock()
	defer s.mu.RUnlock()
	days := s.data[entity]
	out := make([]Day, 0, len(days))
	for d := range days {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// StatColumns returns the sorted union of statistic column names across
// the whole store.
func (s *Store) StatColumns() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, days := range s.data {
		for _, rec := range days {
			for col := range rec.Stats {
				seen[col] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for col := range seen {
		out = append(out, col)
	}
	sort.Strings(out)
	return out
}

// Dump exports the full store contents for snapshotting.
func (s *Store) Dump() map[Entity]map[Day]DayData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Entity]map[Day]DayData, len(s.data))
	for e, days := range s.data {
		dd := make(map[Day]DayData, len(days))
		for d, rec := range days {
			cp := DayData{Series: make(map[Metric]map[int64]float64, len(rec.Series))}
			for m, points := range rec.Series {
				pts := make(map[int64]float64, len(points))
				for ts, v := range points {
					pts[ts] = v
				}
				cp.Series[m] = pts
			}
			if len(rec.Stats) > 0 {
				cp.Stats = make(map[string]float64, len(rec.Stats))
				for k, v := range rec.Stats {
					cp.Stats[k] = v
				}
			}
			dd[d] = cp
		}
		out[e] = dd
	}
	return out
}

// Restore replaces the store contents with a previously dumped snapshot.
func (s *Store) Restore(dump map[Entity]map[Day]DayData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[Entity]map[Day]*DayData, len(dump))
	for e, days := range dump {
		dd := make(map[Day]*DayData, len(days))
		for d, rec := range days {
			cp := &DayData{Series: make(map[Metric]map[int64]float64, len(rec.Series))}
			for m, points := range rec.Series {
				pts := make(map[int64]float64, len(points))
				for ts, v := range points {
					pts[ts] = v
				}
				cp.Series[m] = pts
			}
			if len(rec.Stats) > 0 {
				cp.Stats = make(map[string]float64, len(rec.Stats))
				for k, v := range rec.Stats {
					cp.Stats[k] = v
				}
			}
			dd[d] = cp
		}
		s.data[e] = dd
	}
}

// record returns the day record, creating it lazily. Caller holds the
// write lock.
func (s *Store) record(entity Entity, day Day) *DayData {
	days := s.data[entity]
	if days == nil {
		days = make(map[Day]*DayData)
		s.data[entity] = days
	}
	rec := days[day]
	if rec == nil {
		rec = &DayData{Series: make(map[Metric]map[int64]float64)}
		days[day] = rec
	}
	return rec
}
