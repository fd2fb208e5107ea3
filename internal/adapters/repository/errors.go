package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound     = errors.New("result not found")
	ErrDuplicate    = errors.New("result already stored")
	ErrInvalidLimit = errors.New("invalid list limit")
	ErrClosed       = errors.New("store closed")
)
