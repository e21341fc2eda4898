package drift

import "errors"

// Sentinel errors for the drift package. Using sentinels instead of ad-hoc
// fmt.Errorf allows callers to match with errors.Is for reliable error handling.
var (
	// ErrSourceMissing is returned when the structured data source is
	// absent. Precondition failure (exit 2), not a drift.
	ErrSourceMissing = errors.New("drift source missing")

	// ErrUnknownArtifact is returned for an unregistered artifact ID.
	ErrUnknownArtifact = errors.New("unknown drift artifact")
)
