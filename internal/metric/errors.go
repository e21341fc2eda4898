package metric

import "errors"

// Sentinel errors for the metric package. Using sentinels instead of ad-hoc
// fmt.Errorf allows callers to match with errors.Is for reliable error handling.
var (
	// ErrMissingID is returned when a metric has no identifier.
	ErrMissingID = errors.New("metric has no id")

	// ErrMissingPattern is returned when a metric has no pattern.
	ErrMissingPattern = errors.New("metric has no pattern")

	// ErrUnknownMetric is returned when a lookup misses the registry.
	ErrUnknownMetric = errors.New("unknown metric")

	// ErrDuplicateMetric is returned when two metrics share an ID.
	ErrDuplicateMetric = errors.New("duplicate metric id")
)
