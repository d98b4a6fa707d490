package series

import "time"

// Metric names one semantic series held per entity per day.
type Metric string

const (
	// MetricScheduled is day-ahead scheduled generation.
	MetricScheduled Metric = "scheduled"
	// MetricVerified is realized (measured) generation.
	MetricVerified Metric = "verified"
	// MetricSimulated is generation from the simulation model.
	MetricSimulated Metric = "simulated"

	// MetricSimulatedGeneration holds the per-operative-day simulated
	// generation series used for day-over-day coupling, not for
	// cross-source comparison.
	MetricSimulatedGeneration Metric = "simulated_generation"
	// MetricSimulatedVolume holds the simulated reservoir volume series.
	MetricSimulatedVolume Metric = "simulated_volume"
)

// Zone metrics on the cost pseudo-entity, one marginal cost series per
// grid zone.
const (
	MetricZoneNorth     Metric = "north"
	MetricZoneNortheast Metric = "northeast"
	MetricZoneSouth     Metric = "south"
	MetricZoneSoutheast Metric = "southeast"
)

// ComparableMetrics are the three cross-source generation series.
func ComparableMetrics() []Metric {
	return []Metric{MetricScheduled, MetricVerified, MetricSimulated}
}

// ZoneMetrics are the marginal cost series held by CostEntity.
func ZoneMetrics() []Metric {
	return []Metric{MetricZoneNorth, MetricZoneNortheast, MetricZoneSouth, MetricZoneSoutheast}
}

// Day is a calendar date bucket in "2006-01-02" form. It carries no
// time-of-day; within a day each metric keeps its own timestamp map.
type Day string

// DayLayout is the wire/storage layout of a Day.
const DayLayout = "2006-01-02"

// NewDay buckets a time into its calendar date in the time's location.
func NewDay(t time.Time) Day {
	return Day(t.Format(DayLayout))
}

// Time parses the day back at midnight in the given location.
func (d Day) Time(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DayLayout, string(d), loc)
}

// Next returns the following calendar day.
func (d Day) Next() (Day, error) {
	t, err := d.Time(time.UTC)
	if err != nil {
		return "", err
	}
	return NewDay(t.AddDate(0, 0, 1)), nil
}
