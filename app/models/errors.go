package models

import "errors"

// Error taxonomy for the queue subsystem. ErrClaimConflict is internal:
// the matchmaker handles it by skipping the candidate, it is never
// surfaced to an HTTP caller.
var (
	ErrAlreadyQueued = errors.New("user already has a waiting queue entry")
	ErrNotQueued     = errors.New("user has no waiting queue entry")
	ErrMatchNotFound = errors.New("match not found")
	ErrClaimConflict = errors.New("queue entry claimed concurrently")
)
