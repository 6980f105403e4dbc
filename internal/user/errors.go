package user

import "errors"

// Sentinel errors for store operations. Part of the Store's public
// API; check with errors.Is().
var (
	// ErrDuplicateUser indicates the username is already taken.
	ErrDuplicateUser = errors.New("username already exists")

	// ErrUserNotFound indicates no account exists for the username.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials indicates the secret did not match the
	// stored digest.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrMalformedHistory indicates the stored conversation history
	// could not be decoded. Callers decide whether to treat the
	// history as empty.
	ErrMalformedHistory = errors.New("malformed conversation history")
)
