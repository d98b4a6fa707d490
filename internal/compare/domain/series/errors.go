package series

import "errors"

var (
	// ErrEmptyEntity is returned when an operation names no entity.
	ErrEmptyEntity = errors.New("series: empty entity")
	// ErrInvalidDay is returned when a day bucket cannot be parsed.
	ErrInvalidDay = errors.New("series: invalid day")
)
