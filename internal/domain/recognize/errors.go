package recognize

import "errors"

// Sentinel kinds for recognizer errors.
var (
	ErrNotRecognized = errors.New("region not recognized")
	ErrUntrained     = errors.New("recognizer not trained")
)
