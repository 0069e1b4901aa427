package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailExists occurs when signup targets an email already in use.
	ErrEmailExists = errors.New("email already exists")
	// ErrNotLoaded occurs when an operation runs before initialization completed.
	ErrNotLoaded = errors.New("account state not loaded")
)
