package scan

import "errors"

// Sentinel errors for the scan package. Using sentinels instead of ad-hoc
// fmt.Errorf allows callers to match with errors.Is for reliable error handling.
var (
	// ErrEngineUnavailable is returned when the preferred line-matching
	// engine is not installed. Callers fall back to the in-process matcher.
	ErrEngineUnavailable = errors.New("line-matching engine unavailable")

	// ErrBinaryFile is returned by the per-file scanner for binary content.
	// The file is skipped with a warning, never fatally.
	ErrBinaryFile = errors.New("binary file")
)
