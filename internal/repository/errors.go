// Package repository provides data access to the marketplace tables. The
// sentinel errors defined here let handlers map failure modes to HTTP
// statuses without inspecting driver errors: ErrNotFound becomes 404,
// ErrEmailExists 400, ErrInvalidTransition 409, and so on.
package repository

import "errors"

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when registering an email that already has an
// account.
var ErrEmailExists = errors.New("email already exists")

// ErrInvalidTransition is returned when a compare-and-swap status update
// matched no row: the ticket is missing, in a different state than the
// transition requires, past its game's trading cutoff, or owned by the wrong
// user. The row is left untouched in every one of those cases.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrDuplicate is returned when an idempotent insert found an existing row
// with the same key.
var ErrDuplicate = errors.New("duplicate record")
