package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyRegistered indicates the email already belongs to a user.
	ErrAlreadyRegistered = errors.New("email already registered")
	// ErrUnknownEmail indicates no user exists for the submitted email.
	ErrUnknownEmail = errors.New("unknown email")
	// ErrBadPassword indicates the password did not match the stored hash.
	ErrBadPassword = errors.New("bad password")
	// ErrUnauthenticated indicates the request carries no resolved identity.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden indicates the caller may not act on the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
