package queue

import "errors"

// Sentinel errors returned by Enqueue.
var (
	ErrClosed = errors.New("queue closed")
	ErrFull   = errors.New("queue full")
	ErrShed   = errors.New("low priority notification shed")
)
