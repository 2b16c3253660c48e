package entity

import "errors"

var (
	// ErrUnauthenticated is returned when a request carries no usable
	// credential: missing header, malformed bearer, bad signature or
	// an expired token.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden is returned when the credential is valid but the
	// account does not hold the role the route requires. An account
	// with no directory record is treated the same way.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when a referenced record is absent.
	ErrNotFound = errors.New("not found")
)
