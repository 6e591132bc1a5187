package store

import "errors"

// Domain conditions the gate layer maps to responses. These are expected
// business outcomes, not bugs; anything else coming out of the store is a
// persistence failure and fatal to the request.
var (
	// ErrDuplicateEntry means the user already holds an open entry today.
	ErrDuplicateEntry = errors.New("duplicate entry: user already entered today")

	// ErrNoActiveEntry means an exit was requested with no open entry today.
	ErrNoActiveEntry = errors.New("no active entry found for user today")

	// ErrParkingFull means the lot is at capacity and admission is refused.
	ErrParkingFull = errors.New("parking full: no available slots")

	// ErrMissingIdentity means the caller passed an empty identity field. The
	// gate layer validates upstream, but the ledger re-checks before trusting.
	ErrMissingIdentity = errors.New("missing identity fields")

	// ErrNotFound means no daily record exists for the requested date.
	ErrNotFound = errors.New("no occupancy record for date")
)
