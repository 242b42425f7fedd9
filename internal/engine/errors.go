// Package engine implements the reservation engine: the concurrent,
// transactional seat-allocation model over a catalog of movies and
// theatres. See booker/include/booking.h in the reference source for
// the control flow this package mirrors.
package engine

import "errors"

// Sentinel errors returned by engine operations. Callers should use
// errors.Is to classify a failure rather than matching strings.
var (
	// ErrInvalidArgument is returned for a nil booker or otherwise
	// malformed call.
	ErrInvalidArgument = errors.New("engine: invalid argument")

	// ErrNotFound is returned when the named movie or theatre does not
	// exist in the catalog.
	ErrNotFound = errors.New("engine: movie or theatre not found")

	// ErrConflict is returned when a booker tries to join twice, or the
	// catalog loader sees a duplicate movie/theatre name.
	ErrConflict = errors.New("engine: already exists")

	// ErrBadMessage is returned by the catalog loader on malformed
	// configuration (missing keys, empty names).
	ErrBadMessage = errors.New("engine: malformed configuration")

	// ErrOutOfRange is returned when a requested seat index is >= MaxSeats.
	ErrOutOfRange = errors.New("engine: seat index out of range")

	// ErrOutOfMemory mirrors the original's -ENOMEM path for container
	// insertion failure. Go maps/sets cannot fail to insert the way the
	// original's STL containers could report, so this is kept only for
	// symmetry with the documented taxonomy and is never returned by
	// this implementation.
	ErrOutOfMemory = errors.New("engine: allocation failure")
)
