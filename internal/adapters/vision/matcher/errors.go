package matcher

import "errors"

var (
	ErrEmptyRect   = errors.New("matcher rectangle is empty")
	ErrNoReference = errors.New("reference image is required")
	ErrEmptyMask   = errors.New("reference has no foreground pixels in rectangle")
)
