package domain

import "errors"

// ErrNotFound is returned when the requested trip, sub-entity or account does
// not exist, or exists but is not visible to the caller.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing title, unparseable date, rating out of range).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrAuthenticationRequired is returned when an operation needs a signed-in
// identity and the context carries none. Handlers map this to HTTP 401.
var ErrAuthenticationRequired = errors.New("authentication required")

// ErrUserNotFound is returned by collaborator addition when no account matches
// the given email address.
var ErrUserNotFound = errors.New("user not found")

// ErrUpstream wraps failures reported by the store, the weather provider or the
// geocoder. Handlers map this to HTTP 502.
var ErrUpstream = errors.New("upstream failure")

// ErrForbidden is returned when the caller may see a trip but not perform the
// requested action on it (e.g. deleting a trip they do not own).
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a create would violate a uniqueness rule,
// such as registering an email that already has an account.
var ErrConflict = errors.New("conflict")
