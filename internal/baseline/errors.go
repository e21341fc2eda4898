package baseline

import "errors"

// Sentinel errors for the baseline package. Using sentinels instead of ad-hoc
// fmt.Errorf allows callers to match with errors.Is for reliable error handling.
var (
	// ErrStoreDirMissing is returned when the baseline directory does not
	// exist. Callers treat this as a precondition failure (exit 2).
	ErrStoreDirMissing = errors.New("baseline directory missing")

	// ErrEmptyBaseline is returned for an empty baseline file.
	ErrEmptyBaseline = errors.New("empty baseline file")

	// ErrMalformedBaseline is returned when the file is not a single
	// non-negative integer.
	ErrMalformedBaseline = errors.New("malformed baseline value")

	// ErrBootstrapRace is returned when a bootstrap loses the create race
	// but the winner's value cannot be read back.
	ErrBootstrapRace = errors.New("bootstrap race left no readable baseline")
)
