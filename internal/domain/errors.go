package domain

import "errors"

var (
	// ErrSessionNotFound means a turn or query arrived for an unknown or
	// expired call SID.
	ErrSessionNotFound = errors.New("call session not found")

	// ErrStoreUnavailable means the durable tier could not be reached. It is
	// logged and degraded around, never surfaced to the caller.
	ErrStoreUnavailable = errors.New("session store unavailable")

	// ErrMalformedEvent means an inbound webhook payload is missing required
	// fields. No core state is mutated on this path.
	ErrMalformedEvent = errors.New("malformed gateway event")
)
