// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by another
// business, while ErrConflict signals that an operation cannot proceed
// due to existing dependent records (e.g. deleting a session that has
// bookings).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete cannot be performed because of
// dependent records, such as removing a session that still has
// bookings or an add-on referenced by booking items. Handlers should
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrCapacityConflict is returned when a concurrent write invalidated
// an in-flight capacity decision (MySQL deadlock or lock wait
// timeout). The booking ledger retries the transaction once before
// surfacing this to the caller.
var ErrCapacityConflict = errors.New("capacity check conflicted with a concurrent write")
