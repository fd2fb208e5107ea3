package analyze

import "errors"

// Sentinel kinds for analysis errors.
var (
	ErrNoFrame    = errors.New("no frame to analyze")
	ErrIncomplete = errors.New("mandatory fields unresolved")
)
