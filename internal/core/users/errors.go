package users

import "errors"

// Sentinel errors for identity handling
var (
	// ErrAuthRequired is returned when an operation needs a signed-in caller
	ErrAuthRequired = errors.New("authentication required")

	// ErrInvalidCredentials is returned when a token or session cannot be verified
	ErrInvalidCredentials = errors.New("invalid credentials")
)
