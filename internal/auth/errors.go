package auth

import "errors"

// Sentinel errors for the login flow. ErrInvalidEmail and
// ErrIncorrectPassword carry distinct messages so support can tell the cases
// apart in logs; the handler maps both to the same 401 status.
var (
	ErrEmailPasswordRequired = errors.New("Email and password are required")
	ErrInvalidEmail          = errors.New("No account for that email")
	ErrIncorrectPassword     = errors.New("Incorrect password")
	ErrNotAuthenticated      = errors.New("Not authenticated")
)
