package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest     = errors.New("bad request")
	ErrNotCalibrating = errors.New("calibration unavailable")
)

func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

func wrapKind(op string, kind, cause error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, cause)
}
