package stats

import "errors"

var (
	// ErrInsufficientSamples guards variance computations: fewer than 2
	// aligned points cannot produce a standard deviation. The 24-sample
	// coverage gate is necessary but not sufficient, since it counts each
	// side before intersection.
	ErrInsufficientSamples = errors.New("stats: insufficient aligned samples")
	// ErrCoverageGate is returned when either side of a pair is below the
	// minimum observation floor for the day.
	ErrCoverageGate = errors.New("stats: coverage below minimum floor")
)
