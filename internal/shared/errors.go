package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrUnauthenticated = fmt.Errorf("not authenticated")
	ErrUnauthorized    = fmt.Errorf("unauthorized")
	ErrSessionExpired  = fmt.Errorf("%w: session expired", ErrUnauthorized)
	ErrRefreshFailed   = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken  = fmt.Errorf("no refresh token available")
	ErrSignedOut       = fmt.Errorf("signed out")

	// API and transport errors
	ErrNetwork            = fmt.Errorf("network error")
	ErrServer             = fmt.Errorf("server error")
	ErrValidation         = fmt.Errorf("validation error")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrDecode             = fmt.Errorf("failed to decode response")

	// List and mutation errors
	ErrInvalidSortField = fmt.Errorf("invalid sort field")
	ErrMutationInFlight = fmt.Errorf("mutation already in flight")
	ErrNotFound         = fmt.Errorf("record not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
